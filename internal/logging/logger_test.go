package logging

import (
	"testing"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, GetLevel("DEBUG"))
	assert.Equal(t, log.WarnLevel, GetLevel("warning"))
	assert.Equal(t, log.InfoLevel, GetLevel("unknown"))
}

func TestSentryHookLevels(t *testing.T) {
	hook := NewSentryHook([]log.Level{log.ErrorLevel})
	assert.Equal(t, []log.Level{log.ErrorLevel}, hook.Levels())
	assert.Equal(t, sentry.LevelFatal, sentryLevel(log.PanicLevel))
	assert.Equal(t, sentry.LevelError, sentryLevel(log.ErrorLevel))
	assert.Equal(t, sentry.LevelDebug, sentryLevel(log.TraceLevel))
}
