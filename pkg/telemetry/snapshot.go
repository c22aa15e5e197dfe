package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/error-telemetry/pkg/errorlog"
	"github.com/Sternrassler/error-telemetry/pkg/event"
	"github.com/Sternrassler/error-telemetry/pkg/health"
)

// SnapshotVersion is the current export layout.
const SnapshotVersion = 1

// Snapshot is a portable export of the log with the metrics at export time.
type Snapshot struct {
	Version      int            `json:"version"`
	SessionID    string         `json:"session_id"`
	SessionStart time.Time      `json:"session_start"`
	ExportedAt   time.Time      `json:"exported_at"`
	Events       []event.Event  `json:"events"`
	Metrics      health.Metrics `json:"metrics"`
}

// Export returns a snapshot of the log.
func (s *Service) Export() Snapshot {
	s.mu.Lock()
	events := s.log.Events()
	now := s.now()
	s.mu.Unlock()

	return Snapshot{
		Version:      SnapshotVersion,
		SessionID:    s.sessionID,
		SessionStart: s.sessionStart,
		ExportedAt:   now,
		Events:       events,
		Metrics:      health.Compute(events, errorlog.WindowAll, now, s.sessionStart),
	}
}

// ExportJSON returns Export encoded as indented JSON.
func (s *Service) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s.Export(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// Import replaces the log with the snapshot's events and re-applies eviction,
// so entries that are stale under the current limits are dropped.
func (s *Service) Import(snap Snapshot) (errorlog.EvictionReport, error) {
	if snap.Version > SnapshotVersion {
		return errorlog.EvictionReport{}, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.log.Restore(snap.Events)
	if s.mirror != nil && !s.closed {
		s.mirror.notify()
	}

	s.logger.Info().
		Str("from_session", snap.SessionID).
		Int("imported", len(snap.Events)).
		Int("evicted", report.Total()).
		Msg("Imported error log snapshot")

	return report, err
}

// ImportJSON decodes data produced by ExportJSON and imports it.
func (s *Service) ImportJSON(data []byte) (errorlog.EvictionReport, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return errorlog.EvictionReport{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s.Import(snap)
}
