package obs

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogRequestStampsService(t *testing.T) {
	logger := Logger()
	origWriter := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(origWriter)

	LogRequest(map[string]any{"type": "http", "path": "/x"})

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("log is not valid JSON: %v", err)
	}
	if entry["service"] != ServiceName {
		t.Fatalf("unexpected service stamp: %v", entry["service"])
	}

	// A caller-provided service label wins.
	buf.Reset()
	LogRequest(map[string]any{"service": "dataroom-migrate"})
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("log is not valid JSON: %v", err)
	}
	if entry["service"] != "dataroom-migrate" {
		t.Fatalf("caller label overridden: %v", entry["service"])
	}
}
