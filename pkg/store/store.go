package store

import (
	"context"
	"errors"
	"time"

	"github.com/Sternrassler/error-telemetry/pkg/event"
)

// RecordVersion is the current Record layout.
const RecordVersion = 1

var (
	// ErrNoRecord indicates nothing has been saved under the key.
	ErrNoRecord = errors.New("no stored record")

	// ErrInvalidRecord indicates the stored record could not be decoded.
	ErrInvalidRecord = errors.New("invalid stored record")
)

// Record is a persisted snapshot of the error log.
type Record struct {
	Version int           `json:"version"`
	SavedAt time.Time     `json:"saved_at"`
	Events  []event.Event `json:"events"`
}

// NewRecord builds a Record of the current version.
func NewRecord(events []event.Event, savedAt time.Time) Record {
	if events == nil {
		events = []event.Event{}
	}
	return Record{Version: RecordVersion, SavedAt: savedAt, Events: events}
}

// Store is a key-value persistence backend for the error log.
type Store interface {
	// Load returns the last saved Record, or ErrNoRecord.
	Load(ctx context.Context) (Record, error)

	// Save replaces the stored Record.
	Save(ctx context.Context, rec Record) error

	// Clear removes the stored Record. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
