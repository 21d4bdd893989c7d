package engineerr

import "github.com/sirupsen/logrus"

// Log renders err as a log line with a stable prefix (spec.md §7: "all
// rendered as log lines with a stable prefix; none are user-typed
// exceptions in the output"). KindFatal logs at Error level since the
// process is about to stop; every other kind logs at Warn level since the
// run proceeds past it.
func Log(logger *logrus.Logger, component string, err *Error) {
	entry := logger.WithFields(logrus.Fields{
		"component": component,
		"kind":      err.Kind.String(),
		"unit":      err.Unit,
	})
	if err.Kind == KindFatal {
		entry.WithError(err.Err).Error("engine error")
		return
	}
	entry.WithError(err.Err).Warn("engine error")
}
