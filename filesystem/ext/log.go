package ext

import "github.com/sirupsen/logrus"

// discardLogger is used whenever a FileSystem is opened without an explicit
// logger, so call sites never need a nil check.
var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.Out = discardWriter{}
	return l
}()

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
