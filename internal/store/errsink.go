package store

import "log"

// ErrorSink receives errors from background loops (recharge tick, snapshot
// flush) that must not stop future scheduled runs (§4.6, §9).
type ErrorSink interface {
	ReportError(source string, err error)
}

// LogErrorSink reports background errors via the standard logger, matching
// the teacher's log.Printf-based diagnostics.
type LogErrorSink struct{}

func (LogErrorSink) ReportError(source string, err error) {
	log.Printf("%s: background error: %v", source, err)
}
