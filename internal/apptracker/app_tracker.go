package apptracker

// AppTracker reports errors that need an operator's attention.
type AppTracker interface {
	CaptureMessage(message string)
	CaptureException(exception error)
	// CaptureExceptionWithTags attaches tags, such as the coin type of a snapshot run, to the reported event.
	CaptureExceptionWithTags(exception error, tags map[string]string)
}
