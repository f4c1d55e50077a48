package logger

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type captureHandler struct {
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}
func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func TestGormLoggerTraceLevels(t *testing.T) {
	capture := &captureHandler{}
	prev := Log
	Log = slog.New(capture)
	defer func() { Log = prev }()

	l := NewGormLogger(gormlogger.Info, 200*time.Millisecond)
	fc := func() (string, int64) { return "SELECT 1", 1 }

	// A miss is normal flow, logged as a plain query rather than an error.
	l.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Len(t, capture.records, 1)
	assert.Equal(t, slog.LevelInfo, capture.records[0].Level)

	l.Trace(context.Background(), time.Now(), fc, assert.AnError)
	assert.Len(t, capture.records, 2)
	assert.Equal(t, slog.LevelError, capture.records[1].Level)

	// Slow queries warn.
	l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	assert.Equal(t, slog.LevelWarn, capture.records[2].Level)
}
