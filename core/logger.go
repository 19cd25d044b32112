package core

// Logger is the application-wide structured logger contract.
// Args may carry an error, a map of extra fields and/or a learner phone
// number for person tagging; implementations decide what to do with each.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
