package event

import (
	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// strictAPI rejects fields the catalog does not know about, so a payload
// from a newer or foreign producer fails loudly instead of being half-read.
var strictAPI = sonic.Config{DisallowUnknownFields: true}.Froze()

// ErrMalformedPayload marks a payload that can never be processed: malformed
// JSON, unknown fields, or missing required fields. Such messages are dropped
// or dead-lettered, never retried.
var ErrMalformedPayload = errors.New("malformed event payload")

// Decode parses and validates a payload for the given kind.
// Unknown fields and missing required fields are permanent errors wrapped in
// ErrMalformedPayload.
func Decode(kind Kind, payload []byte) (*TeamMembershipEvent, error) {
	if !kind.Valid() {
		return nil, errors.Wrapf(ErrMalformedPayload, "unknown event kind %q", kind)
	}

	var evt TeamMembershipEvent
	if err := strictAPI.Unmarshal(payload, &evt); err != nil {
		return nil, errors.Wrapf(ErrMalformedPayload, "decode %s: %v", kind, err)
	}

	// The kind field is optional on the wire (the topic already carries it)
	// but must agree with the topic when present.
	if evt.Kind == "" {
		evt.Kind = kind
	} else if evt.Kind != kind {
		return nil, errors.Wrapf(ErrMalformedPayload, "event kind %q does not match topic kind %q", evt.Kind, kind)
	}

	if err := evt.validate(); err != nil {
		return nil, err
	}
	return &evt, nil
}

// Encode serializes an event for publishing.
func Encode(evt *TeamMembershipEvent) ([]byte, error) {
	if err := evt.validate(); err != nil {
		return nil, err
	}
	data, err := sonic.Marshal(evt)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", evt.Kind)
	}
	return data, nil
}

func (e *TeamMembershipEvent) validate() error {
	if !e.Kind.Valid() {
		return errors.Wrapf(ErrMalformedPayload, "unknown event kind %q", e.Kind)
	}
	if e.UserID == "" {
		return errors.Wrap(ErrMalformedPayload, "userId is required")
	}
	if e.Workspaces == nil {
		return errors.Wrap(ErrMalformedPayload, "teamWorkspaces is required")
	}
	for i, ref := range e.Workspaces {
		if ref.ID == "" {
			return errors.Wrapf(ErrMalformedPayload, "teamWorkspaces[%d].id is required", i)
		}
	}

	switch e.Kind {
	case UserAddedToTeam:
		if e.Role == "" {
			return errors.Wrap(ErrMalformedPayload, "role is required for UserAddedToTeam")
		}
		if !e.Role.Valid() {
			return errors.Wrapf(ErrMalformedPayload, "unknown role %q", e.Role)
		}
	default:
		if e.Role != "" {
			return errors.Wrapf(ErrMalformedPayload, "role is not allowed for %s", e.Kind)
		}
	}
	return nil
}
