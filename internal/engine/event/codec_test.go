package event

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_UserAdded(t *testing.T) {
	payload := []byte(`{"userId":"u1","teamId":"t1","role":"editor","teamWorkspaces":[{"id":"w1","name":"Workspace A"}]}`)

	evt, err := Decode(UserAddedToTeam, payload)
	require.NoError(t, err)
	assert.Equal(t, UserAddedToTeam, evt.Kind)
	assert.Equal(t, "u1", evt.UserID)
	assert.Equal(t, "t1", evt.TeamID)
	assert.Equal(t, RoleEditor, evt.Role)
	require.Len(t, evt.Workspaces, 1)
	assert.Equal(t, "w1", evt.Workspaces[0].ID)
	assert.Equal(t, "Workspace A", evt.Workspaces[0].Name)
}

func TestDecode_ExplicitKindMustMatchTopic(t *testing.T) {
	payload := []byte(`{"kind":"UserRemovedFromTeam","userId":"u1","teamWorkspaces":[]}`)

	_, err := Decode(UserAddedToTeam, payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := Decode(UserAddedToTeam, []byte(`{"userId":`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}

func TestDecode_UnknownFieldRejected(t *testing.T) {
	payload := []byte(`{"userId":"u1","role":"editor","teamWorkspaces":[],"bogus":1}`)
	_, err := Decode(UserAddedToTeam, payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}

func TestDecode_MissingUserID(t *testing.T) {
	payload := []byte(`{"role":"editor","teamWorkspaces":[{"id":"w1"}]}`)
	_, err := Decode(UserAddedToTeam, payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}

func TestDecode_MissingWorkspaces(t *testing.T) {
	payload := []byte(`{"userId":"u1","role":"editor"}`)
	_, err := Decode(UserAddedToTeam, payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}

func TestDecode_WorkspaceRefWithoutID(t *testing.T) {
	payload := []byte(`{"userId":"u1","role":"editor","teamWorkspaces":[{"name":"nameless"}]}`)
	_, err := Decode(UserAddedToTeam, payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}

func TestDecode_RoleRequiredOnlyForAdd(t *testing.T) {
	// Add without role: rejected.
	_, err := Decode(UserAddedToTeam, []byte(`{"userId":"u1","teamWorkspaces":[{"id":"w1"}]}`))
	require.Error(t, err)

	// Remove without role: fine.
	evt, err := Decode(UserRemovedFromTeam, []byte(`{"userId":"u1","teamWorkspaces":[{"id":"w1"}]}`))
	require.NoError(t, err)
	assert.Empty(t, evt.Role)

	// Remove with role: rejected.
	_, err = Decode(UserRemovedFromTeam, []byte(`{"userId":"u1","role":"editor","teamWorkspaces":[{"id":"w1"}]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}

func TestDecode_UnknownRole(t *testing.T) {
	payload := []byte(`{"userId":"u1","role":"superuser","teamWorkspaces":[{"id":"w1"}]}`)
	_, err := Decode(UserAddedToTeam, payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}

func TestEncode_RoundTrip(t *testing.T) {
	in := &TeamMembershipEvent{
		Kind:        TeamAdminAdded,
		TeamID:      "t1",
		TeamVersion: 42,
		UserID:      "u1",
		Workspaces:  []WorkspaceRef{{ID: "w1", Name: "Workspace A"}},
	}

	data, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(TeamAdminAdded, data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncode_InvalidEvent(t *testing.T) {
	_, err := Encode(&TeamMembershipEvent{Kind: TeamAdminAdded, Workspaces: []WorkspaceRef{}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}

func TestTopicEnumeration(t *testing.T) {
	seenTopics := make(map[string]bool)
	seenSubs := make(map[string]bool)
	for _, kind := range Kinds() {
		topic := Topic(kind)
		sub := Subscription(kind)
		require.NotEmpty(t, topic, "kind %s has no topic", kind)
		require.NotEmpty(t, sub, "kind %s has no subscription", kind)
		assert.False(t, seenTopics[topic], "topic %s reused", topic)
		assert.False(t, seenSubs[sub], "subscription %s reused", sub)
		seenTopics[topic] = true
		seenSubs[sub] = true

		assert.Equal(t, topic+".dlq", DeadLetterTopic(kind))
	}
}

func TestKindValid(t *testing.T) {
	for _, kind := range Kinds() {
		assert.True(t, kind.Valid())
	}
	assert.False(t, Kind("TeamDisbanded").Valid())
}
