package logging

import (
	"time"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

// SentryHook forwards logrus entries at the configured levels to Sentry.
type SentryHook struct {
	levels []log.Level
}

func NewSentryHook(levels []log.Level) *SentryHook {
	return &SentryHook{levels: levels}
}

func (h *SentryHook) Levels() []log.Level {
	return h.levels
}

func (h *SentryHook) Fire(entry *log.Entry) error {
	event := sentry.NewEvent()
	event.Level = sentryLevel(entry.Level)
	event.Message = entry.Message
	event.Timestamp = entry.Time

	extra := make(map[string]interface{}, len(entry.Data))
	for key, value := range entry.Data {
		if err, ok := value.(error); ok {
			extra[key] = err.Error()
			continue
		}
		extra[key] = value
	}
	event.Extra = extra

	sentry.CaptureEvent(event)
	if entry.Level <= log.FatalLevel {
		sentry.Flush(2 * time.Second)
	}
	return nil
}

func sentryLevel(level log.Level) sentry.Level {
	switch level {
	case log.PanicLevel, log.FatalLevel:
		return sentry.LevelFatal
	case log.ErrorLevel:
		return sentry.LevelError
	case log.WarnLevel:
		return sentry.LevelWarning
	case log.InfoLevel:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}
