package sink

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/Sternrassler/error-telemetry/pkg/event"
)

var (
	urlPattern    = regexp.MustCompile(`\b(?:https?|wss?|rtsp|rtmp)://\S+`)
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	secretPattern = regexp.MustCompile(`(?i)\b(api[_-]?key|token|password|secret)(\s*[=:]\s*)\S+`)
	bearerPattern = regexp.MustCompile(`(?i)\bbearer\s+\S+`)
)

// ScrubMessage removes credentials, paths and query strings from URLs,
// email addresses and key=value secrets. Hosts are kept for grouping.
func ScrubMessage(message string) string {
	message = urlPattern.ReplaceAllStringFunc(message, anonymizeURL)
	message = emailPattern.ReplaceAllString(message, "[email]")
	message = bearerPattern.ReplaceAllString(message, "Bearer [redacted]")
	return secretPattern.ReplaceAllString(message, "${1}${2}[redacted]")
}

func anonymizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "[url]"
	}
	out := u.Scheme + "://" + u.Hostname()
	if p := u.Port(); p != "" {
		out += ":" + p
	}
	if strings.Trim(u.Path, "/") != "" || u.RawQuery != "" {
		out += "/[redacted]"
	}
	return out
}

// Scrub returns a copy of ev safe to send off-host. The environment and
// metadata maps are copied with string values scrubbed.
func Scrub(ev event.Event) event.Event {
	ev.Message = ScrubMessage(ev.Message)
	ev.Context = ScrubMessage(ev.Context)
	ev.Stack = ScrubMessage(ev.Stack)
	ev.Metadata = scrubMap(ev.Metadata)
	ev.Environment = scrubMap(ev.Environment)
	return ev
}

func scrubMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			v = ScrubMessage(s)
		}
		out[k] = v
	}
	return out
}
