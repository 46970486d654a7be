package core

// Logger is any leveled logger the services can report through.
// Args may carry errors and context values; implementations decide how to render them.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
