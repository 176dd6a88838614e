package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Level uint8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

var disabled = false

func init() {
	// Modules gate everything above warning themselves, logrus only needs
	// to let debug lines through once a module has been enabled.
	logrus.SetLevel(logrus.DebugLevel)
}

// Disable turns off all logging, including warnings and errors.
func Disable() {
	disabled = true
	logrus.SetOutput(io.Discard)
}

func (lvl Level) logrus() logrus.Level {
	switch lvl {
	case PanicLevel:
		return logrus.PanicLevel
	case FatalLevel:
		return logrus.FatalLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case WarnLevel:
		return logrus.WarnLevel
	case InfoLevel:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}
