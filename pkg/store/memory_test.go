package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/error-telemetry/pkg/event"
)

func sampleEvents() []event.Event {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []event.Event{
		{
			ID:        "a",
			Timestamp: ts,
			Type:      event.TypeNetwork,
			Severity:  event.SeverityHigh,
			Message:   "fetch failed",
			Component: "api",
			Metadata:  map[string]any{"error_class": "timeout"},
		},
		{
			ID:        "b",
			Timestamp: ts.Add(time.Minute),
			Type:      event.TypeSystem,
			Severity:  event.SeverityLow,
			Message:   "slow frame",
			Component: "renderer",
		},
	}
}

func TestMemory_LoadEmpty(t *testing.T) {
	m := NewMemory()
	if _, err := m.Load(context.Background()); !errors.Is(err, ErrNoRecord) {
		t.Errorf("Load() error = %v, want ErrNoRecord", err)
	}
}

func TestMemory_SaveLoadClear(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	savedAt := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)

	if err := m.Save(ctx, NewRecord(sampleEvents(), savedAt)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rec.Version != RecordVersion {
		t.Errorf("Version = %d, want %d", rec.Version, RecordVersion)
	}
	if !rec.SavedAt.Equal(savedAt) {
		t.Errorf("SavedAt = %v, want %v", rec.SavedAt, savedAt)
	}
	if len(rec.Events) != 2 || rec.Events[0].ID != "a" || rec.Events[1].ID != "b" {
		t.Fatalf("Events = %+v, want [a b]", rec.Events)
	}
	if rec.Events[0].Metadata["error_class"] != "timeout" {
		t.Errorf("Metadata not preserved: %v", rec.Events[0].Metadata)
	}
	if m.Saves() != 1 {
		t.Errorf("Saves() = %d, want 1", m.Saves())
	}

	if err := m.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := m.Load(ctx); !errors.Is(err, ErrNoRecord) {
		t.Errorf("Load() after Clear error = %v, want ErrNoRecord", err)
	}
}

func TestMemory_RecordIsNotAliased(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	events := sampleEvents()

	if err := m.Save(ctx, NewRecord(events, time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	events[0].Message = "mutated"

	rec, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rec.Events[0].Message != "fetch failed" {
		t.Errorf("stored record aliased caller slice: %q", rec.Events[0].Message)
	}
}

func TestMemory_CancelledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Save(ctx, NewRecord(nil, time.Now())); !errors.Is(err, context.Canceled) {
		t.Errorf("Save() error = %v, want context.Canceled", err)
	}
}

func TestNewRecord_NilEvents(t *testing.T) {
	rec := NewRecord(nil, time.Now())
	if rec.Events == nil {
		t.Error("NewRecord(nil) should produce an empty, non-nil slice")
	}
}
