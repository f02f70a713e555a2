package sandbox

import (
	"strings"

	"github.com/dop251/goja"
	"github.com/sirupsen/logrus"
)

// ConsoleSink receives console output produced by snippet code.
type ConsoleSink interface {
	Print(level, message string)
}

// Discard drops all console output.
var Discard ConsoleSink = discardSink{}

type discardSink struct{}

func (discardSink) Print(string, string) {}

// LogSink forwards console output to a logger at info level.
func LogSink(log logrus.FieldLogger) ConsoleSink {
	return logSink{log: log}
}

type logSink struct {
	log logrus.FieldLogger
}

func (s logSink) Print(level, message string) {
	s.log.WithField("console", level).Info(message)
}

var consoleLevels = []string{"log", "info", "warn", "error", "debug", "trace"}

// newConsole builds the console object bound to sink.
func newConsole(vm *goja.Runtime, sink ConsoleSink) (*goja.Object, error) {
	console := vm.NewObject()
	for _, level := range consoleLevels {
		level := level
		err := console.Set(level, func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			sink.Print(level, strings.Join(parts, " "))
			return goja.Undefined()
		})
		if err != nil {
			return nil, err
		}
	}
	return console, nil
}
