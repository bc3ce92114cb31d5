package core

import (
	"context"
	"fmt"

	"product_advisor/pkg"
)

// ApologyReply is returned whenever a turn fails unexpectedly
const ApologyReply = "I apologize, but I'm having some technical difficulties. Please try again."

// Persistence operations reported in PersistenceError.Op
const (
	OpLoad  = "load"
	OpSave  = "save"
	OpReset = "reset"
)

// SessionStore keeps one PreferenceRecord per session.
// Load of an unknown session returns an empty record and no error.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (pkg.PreferenceRecord, error)
	Save(ctx context.Context, sessionID string, record pkg.PreferenceRecord) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// CatalogStore is the read-only product catalog
type CatalogStore interface {
	All(ctx context.Context) ([]pkg.ProductRecord, error)
}

// PersistenceError reports a session store failure. HandleTurn still returns
// a best-effort reply next to it.
type PersistenceError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("session %s %s failed: %v", e.SessionID, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
