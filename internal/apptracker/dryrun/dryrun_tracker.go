// Package dryrun provides an AppTracker that only logs, used when no Sentry DSN is configured.
package dryrun

import (
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/suimigrate/migrate-backend/internal/apptracker"
)

type DryRunTracker struct{}

var _ apptracker.AppTracker = (*DryRunTracker)(nil)

func (d *DryRunTracker) CaptureMessage(message string) {
	log.Warnf("[app tracker] %s", message)
}

func (d *DryRunTracker) CaptureException(exception error) {
	log.Errorf("[app tracker] %v", exception)
}

func (d *DryRunTracker) CaptureExceptionWithTags(exception error, tags map[string]string) {
	fields := make(log.F, len(tags))
	for k, v := range tags {
		fields[k] = v
	}
	log.WithFields(fields).Errorf("[app tracker] %v", exception)
}
