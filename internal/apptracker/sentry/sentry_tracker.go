package sentry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Package level sentry functions are held in variables so tests can replace them.
var (
	captureMessageFunc   = sentry.CaptureMessage
	captureExceptionFunc = sentry.CaptureException
	withScopeFunc        = sentry.WithScope
	InitFunc             = sentry.Init
	FlushFunc            = sentry.Flush
	RecoverFunc          = sentry.Recover
)

type sentryTracker struct {
	FlushFreq time.Duration
}

func (s *sentryTracker) CaptureMessage(message string) {
	captureMessageFunc(message)
}

func (s *sentryTracker) CaptureException(exception error) {
	captureExceptionFunc(exception)
}

func (s *sentryTracker) CaptureExceptionWithTags(exception error, tags map[string]string) {
	withScopeFunc(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		captureExceptionFunc(exception)
	})
}

// Flush waits up to FlushFreq for buffered events to be delivered.
func (s *sentryTracker) Flush() {
	FlushFunc(s.FlushFreq)
}

func NewSentryTracker(dsn string, env string, flushFreq int) (*sentryTracker, error) {
	if err := InitFunc(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
	}); err != nil {
		return nil, fmt.Errorf("unable to initialize sentry: %w", err)
	}
	defer RecoverFunc()
	return &sentryTracker{FlushFreq: time.Second * time.Duration(flushFreq)}, nil
}
