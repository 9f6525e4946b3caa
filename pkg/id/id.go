package id

import (
	"github.com/google/uuid"
	"github.com/rs/xid"
)

// UUID returns a random v4 UUID string.
func UUID() string {
	return uuid.New().String()
}

// MessageID returns a short, sortable id for broker messages.
func MessageID() string {
	return xid.New().String()
}
