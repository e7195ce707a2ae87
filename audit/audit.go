// Package audit provides an optional append-only journal of store
// operations. Events carry operation metadata only: the operation name,
// the logical path, handle correlation IDs, and failure text. Plaintext and
// ciphertext never enter the journal.
//
// Recording is best-effort by contract: store operations must not fail
// because audit recording failed. Callers log a failed Record and move on.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Operation names recorded by the store facade.
const (
	OpList       = "list"
	OpRetrieve   = "retrieve"
	OpRecipients = "recipients"
	OpOpenRead   = "open_ro"
	OpOpenWrite  = "open_rw"
	OpSync       = "sync"
	OpClose      = "close"
	OpFind       = "find"
	OpSearch     = "search"
	OpCopy       = "copy"
)

// Event is one journal entry.
type Event struct {
	// ID uniquely identifies the event (UUIDv7, so IDs sort by time).
	ID string

	// At is the time the operation finished.
	At time.Time

	// Op is one of the Op* constants.
	Op string

	// Path is the logical store path the operation addressed, empty for
	// store-wide operations such as list.
	Path string

	// HandleID correlates the events of one file-handle lifetime, empty
	// for operations without a handle.
	HandleID string

	// Err holds the failure text when the operation failed, empty on
	// success.
	Err string
}

// NewEvent assembles the journal entry for one finished operation, minting
// a time-sortable id and stamping the current time. A nil err leaves Err
// empty.
func NewEvent(op, path, handleID string, err error) Event {
	e := Event{
		ID:       newEventID(),
		At:       time.Now(),
		Op:       op,
		Path:     path,
		HandleID: handleID,
	}
	if err != nil {
		e.Err = err.Error()
	}
	return e
}

// newEventID prefers UUIDv7 so journal ids sort by time, falling back to a
// random UUID if the v7 generator fails.
func newEventID() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v7.String()
}

//go:generate mockgen -source=audit.go -destination=../internal/mock/audit_recorder_mock.go -package=mock

// Recorder accepts events for the journal.
type Recorder interface {
	// Record appends one event. Implementations must not inspect or
	// retain e beyond the call.
	Record(ctx context.Context, e Event) error

	// Close releases the journal's resources.
	Close() error
}

// Nop returns a Recorder that discards all events. It backs stores opened
// without an audit journal.
func Nop() Recorder { return nopRecorder{} }

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, Event) error { return nil }

func (nopRecorder) Close() error { return nil }
