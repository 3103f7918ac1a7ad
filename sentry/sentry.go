package sentry

import (
	"time"

	sentry "github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"lyricsexplorer/config"
)

// Init configures the global hub. An empty DSN leaves reporting disabled but
// spans and hubs still work.
func Init(cfg config.SentryConfig) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Release:          cfg.Release,
		TracesSampleRate: 1.0,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			// the prompted credential travels in the form body
			if event.Request != nil {
				event.Request.Data = ""
			}
			return event
		},
	}); err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	if cfg.DSN == "" {
		log.Debug("SENTRY_DSN not set, error reporting disabled")
	}
}

func GetSentryGin() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{Repanic: true})
}

func ReportFatal(err error) {
	sentry.CaptureException(err)
	sentry.Flush(2 * time.Second)
}

func Flush() {
	sentry.Flush(2 * time.Second)
}
