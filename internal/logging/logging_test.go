package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// capture routes the global logger into a buffer for the test.
func capture(t *testing.T, level Level, format Format) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	InitLoggerTo(&buf, level, format)
	t.Cleanup(func() { InitLogger(LevelWarn, FormatText) })
	return &buf
}

// lastJSON decodes the last JSON line written to buf.
func lastJSON(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	return entry
}

func TestParseLevelAndFormat(t *testing.T) {
	levels := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"Error":   LevelError,
		"verbose": LevelInfo,
	}
	for name, want := range levels {
		if got := ParseLevel(name); got != want {
			t.Errorf("ParseLevel(%q) = %d, want %d", name, got, want)
		}
	}
	if ParseFormat("JSON") != FormatJSON || ParseFormat("logfmt") != FormatText {
		t.Error("ParseFormat mapped a name wrongly")
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, LevelWarn, FormatText)
	ctx := context.Background()
	InfoContext(ctx, "hidden")
	WarnContext(ctx, "shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn level output = %q", buf.String())
	}
}

func TestRequestID(t *testing.T) {
	if RequestID(context.Background()) != "" {
		t.Error("empty context has a request ID")
	}

	ctx, id := NewRequestContext(context.Background())
	if len(id) != 36 || RequestID(ctx) != id {
		t.Fatalf("NewRequestContext() id = %q, RequestID = %q", id, RequestID(ctx))
	}
	_, other := NewRequestContext(context.Background())
	if other == id {
		t.Error("two request contexts share an ID")
	}

	buf := capture(t, LevelDebug, FormatJSON)
	DebugContext(ctx, "step")
	if got := lastJSON(t, buf)["request_id"]; got != id {
		t.Errorf("request_id = %v, want %q", got, id)
	}
}

func TestDomainHelpers(t *testing.T) {
	buf := capture(t, LevelDebug, FormatJSON)
	ctx := WithRequestID(context.Background(), "req-1")

	tests := []struct {
		name string
		log  func()
		want map[string]any
	}{
		{
			name: "transform",
			log:  func() { Transform(ctx, "sr-el", 3, 2, 1500*time.Millisecond, "title", "Main Page") },
			want: map[string]any{
				"msg": "transform", "level": "INFO", "request_id": "req-1",
				"variant": "sr-el", "red_links": 3.0, "resolved": 2.0,
				"duration_ms": 1500.0, "title": "Main Page",
			},
		},
		{
			name: "limit",
			log:  func() { LimitExceeded("unstrip-depth", 21, 20) },
			want: map[string]any{"msg": "limit_exceeded", "level": "WARN", "limit": "unstrip-depth", "current": 21.0, "max": 20.0},
		},
		{
			name: "table",
			log:  func() { TableLoaded("zh", "/tables/zh.json.xz", "ab12", 7) },
			want: map[string]any{"msg": "table_loaded", "level": "DEBUG", "code": "zh", "variants": 7.0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log()
			entry := lastJSON(t, buf)
			for k, want := range tt.want {
				if entry[k] != want {
					t.Errorf("%s = %v, want %v", k, entry[k], want)
				}
			}
		})
	}
}

func TestTimestampFormat(t *testing.T) {
	buf := capture(t, LevelInfo, FormatJSON)
	GetLogger().Info("tick")
	ts, _ := lastJSON(t, buf)["time"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC 3339: %v", ts, err)
	}
}

func TestInitLoggerUnknownLevel(t *testing.T) {
	buf := capture(t, Level(42), FormatText)
	GetLogger().Debug("hidden")
	GetLogger().Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "msg=shown") {
		t.Errorf("output = %q, want info level", buf.String())
	}
}
