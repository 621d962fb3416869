package logger

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	flags := log.Flags()
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})
	return &buf
}

func TestFormatFields(t *testing.T) {
	tests := []struct {
		name   string
		fields Fields
		want   string
	}{
		{name: "empty", fields: nil, want: ""},
		{name: "sorted keys", fields: Fields{"b": 2, "a": "x"}, want: "{a=x, b=2}"},
		{name: "floats two decimals", fields: Fields{"seconds": 1.23456}, want: "{seconds=1.23}"},
		{name: "int64", fields: Fields{"bytes": int64(44)}, want: "{bytes=44}"},
		{name: "other", fields: Fields{"ok": true}, want: "{ok=true}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFields(tt.fields))
		})
	}
}

func TestLevels(t *testing.T) {
	buf := captureLog(t)

	Info("render stored", Fields{"render_id": "r1"})
	Warn("slow render", nil)
	Debug("events", Fields{"count": 3})
	Error("upload failed", errors.New("boom"), Fields{"render_id": "r1"})

	out := buf.String()
	assert.Contains(t, out, "[INFO] render stored {render_id=r1}")
	assert.Contains(t, out, "[WARN] slow render")
	assert.Contains(t, out, "[DEBUG] events {count=3}")
	assert.Contains(t, out, "[ERROR] upload failed: boom {render_id=r1}")
}

func TestWithContextAndLogAPIRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLog(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/render", nil)
	c.Set("request_id", "req-1")
	c.Set("user_id", "user-9")

	fields := WithContext(c)
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/api/v1/render", fields["path"])
	assert.Equal(t, "user-9", fields["user_id"])

	LogAPIRequest(c, 25*time.Millisecond, http.StatusOK, nil)
	assert.Contains(t, buf.String(), "status_code=200")
	assert.Contains(t, buf.String(), "duration_ms=25")
}
