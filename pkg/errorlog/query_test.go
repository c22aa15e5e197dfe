package errorlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/error-telemetry/pkg/event"
)

func TestQuery_WindowIsExactSuffix(t *testing.T) {
	clock := newClock()
	l := New(DefaultLimits(), WithClock(clock.Now))
	now := clock.Now()

	_, _ = l.Append(makeEvent("2h", now.Add(-2*time.Hour), event.SeverityLow))
	_, _ = l.Append(makeEvent("61m", now.Add(-61*time.Minute), event.SeverityCritical))
	_, _ = l.Append(makeEvent("60m", now.Add(-time.Hour), event.SeverityLow))
	_, _ = l.Append(makeEvent("30m", now.Add(-30*time.Minute), event.SeverityInfo))
	_, _ = l.Append(makeEvent("now", now, event.SeverityHigh))

	assert.Equal(t, []string{"60m", "30m", "now"}, ids(l.Query(Filter{Window: WindowHour})))
	assert.Equal(t, []string{"2h", "61m", "60m", "30m", "now"}, ids(l.Query(Filter{Window: Window6Hours})))
	assert.Equal(t, []string{"2h", "61m", "60m", "30m", "now"}, ids(l.Query(Filter{Window: WindowAll})))
	assert.Equal(t, []string{"2h", "61m", "60m", "30m", "now"}, ids(l.Query(Filter{})))
}

func TestQuery_Combinations(t *testing.T) {
	clock := newClock()
	l := New(DefaultLimits(), WithClock(clock.Now))
	now := clock.Now()

	add := func(id string, age time.Duration, typ event.Type, sev event.Severity, component string) {
		ev := makeEvent(id, now.Add(-age), sev)
		ev.Type = typ
		ev.Component = component
		_, err := l.Append(ev)
		require.NoError(t, err)
	}

	add("a", 3*time.Hour, event.TypeNetwork, event.SeverityHigh, "api")
	add("b", 2*time.Hour, event.TypeAudio, event.SeverityCritical, "player")
	add("c", 30*time.Minute, event.TypeNetwork, event.SeverityLow, "api")
	add("d", 10*time.Minute, event.TypeNetwork, event.SeverityCritical, "api")
	add("e", time.Minute, event.TypeComponent, event.SeverityMedium, "chart")

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "by type", filter: Filter{Type: event.TypeNetwork}, want: []string{"a", "c", "d"}},
		{name: "by severity", filter: Filter{Severity: event.SeverityCritical}, want: []string{"b", "d"}},
		{name: "min severity", filter: Filter{MinSeverity: event.SeverityHigh}, want: []string{"a", "b", "d"}},
		{name: "type and window", filter: Filter{Type: event.TypeNetwork, Window: WindowHour}, want: []string{"c", "d"}},
		{
			name:   "type severity window",
			filter: Filter{Type: event.TypeNetwork, Severity: event.SeverityCritical, Window: WindowHour},
			want:   []string{"d"},
		},
		{name: "component", filter: Filter{Component: "chart"}, want: []string{"e"}},
		{name: "no match", filter: Filter{Type: event.TypeUser}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(l.Query(tt.filter)))
		})
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{"1h", WindowHour, false},
		{"6H", Window6Hours, false},
		{"24h", WindowDay, false},
		{"all", WindowAll, false},
		{"", WindowAll, false},
		{"7d", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWindow(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindow_Duration(t *testing.T) {
	d, ok := WindowDay.Duration()
	assert.True(t, ok)
	assert.Equal(t, 24*time.Hour, d)

	_, ok = WindowAll.Duration()
	assert.False(t, ok)
}
