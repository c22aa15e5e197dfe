package autoreport

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sternrassler/error-telemetry/pkg/event"
)

func TestShouldAutoReport(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		severity   event.Severity
		sent       int
		want       bool
		wantReason string
	}{
		{
			name:       "critical under cap",
			cfg:        DefaultConfig(),
			severity:   event.SeverityCritical,
			want:       true,
			wantReason: ReasonAllowed,
		},
		{
			name:       "high at threshold",
			cfg:        DefaultConfig(),
			severity:   event.SeverityHigh,
			want:       true,
			wantReason: ReasonAllowed,
		},
		{
			name:       "medium below threshold",
			cfg:        DefaultConfig(),
			severity:   event.SeverityMedium,
			want:       false,
			wantReason: ReasonBelowThreshold,
		},
		{
			name:       "disabled",
			cfg:        Config{Enabled: false, Threshold: event.SeverityInfo, MaxAutoReports: 10},
			severity:   event.SeverityCritical,
			want:       false,
			wantReason: ReasonDisabled,
		},
		{
			name:       "cap reached",
			cfg:        DefaultConfig(),
			severity:   event.SeverityCritical,
			sent:       DefaultMaxAutoReports,
			want:       false,
			wantReason: ReasonCapReached,
		},
		{
			name:       "zero cap",
			cfg:        Config{Enabled: true, Threshold: event.SeverityInfo},
			severity:   event.SeverityCritical,
			want:       false,
			wantReason: ReasonCapReached,
		},
		{
			name:       "empty threshold defaults to high",
			cfg:        Config{Enabled: true, MaxAutoReports: 1},
			severity:   event.SeverityMedium,
			want:       false,
			wantReason: ReasonBelowThreshold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState()
			for i := 0; i < tt.sent; i++ {
				state.RecordSent()
			}
			ev := event.Event{ID: "e", Severity: tt.severity}

			got, reason := Evaluate(ev, state, tt.cfg)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantReason, reason)
			assert.Equal(t, tt.want, ShouldAutoReport(ev, state, tt.cfg))
		})
	}
}

func TestGate_FalseOnceCapReached(t *testing.T) {
	cfg := Config{Enabled: true, Threshold: event.SeverityHigh, MaxAutoReports: 3}
	state := NewState()
	ev := event.Event{ID: "e", Severity: event.SeverityCritical}

	var allowed int
	for i := 0; i < 10; i++ {
		if ShouldAutoReport(ev, state, cfg) {
			allowed++
			state.RecordSent()
		}
	}

	assert.Equal(t, 3, allowed)
	assert.Equal(t, 3, state.Sent())
	assert.Equal(t, 0, state.Remaining(cfg))
	assert.False(t, ShouldAutoReport(ev, state, cfg))
}

func TestState_ConcurrentRecordSent(t *testing.T) {
	state := NewState()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state.RecordSent()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, state.Sent())
}

func TestNilStateNeverAllows(t *testing.T) {
	ev := event.Event{ID: "e", Severity: event.SeverityCritical}
	assert.False(t, ShouldAutoReport(ev, nil, DefaultConfig()))
}
