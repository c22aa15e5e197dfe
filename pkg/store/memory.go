package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

const backendMemory = "memory"

// Memory keeps the record in process. Records are stored encoded so that
// callers cannot alias the saved events.
type Memory struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns the saved record or ErrNoRecord.
func (m *Memory) Load(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	StoreOperations.WithLabelValues(backendMemory, "load").Inc()

	m.mu.Lock()
	data := m.data
	m.mu.Unlock()

	if data == nil {
		return Record{}, ErrNoRecord
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		StoreErrors.WithLabelValues(backendMemory, "load").Inc()
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return rec, nil
}

// Save replaces the stored record.
func (m *Memory) Save(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	StoreOperations.WithLabelValues(backendMemory, "save").Inc()

	data, err := json.Marshal(rec)
	if err != nil {
		StoreErrors.WithLabelValues(backendMemory, "save").Inc()
		return fmt.Errorf("marshal record: %w", err)
	}

	m.mu.Lock()
	m.data = data
	m.saves++
	m.mu.Unlock()

	RecordBytes.WithLabelValues(backendMemory).Set(float64(len(data)))
	return nil
}

// Clear drops the stored record.
func (m *Memory) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	StoreOperations.WithLabelValues(backendMemory, "clear").Inc()

	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}

// Saves returns how many times Save succeeded.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
