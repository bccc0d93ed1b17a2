package logger

// Keys for log attributes added by the logger middlewares.
const (
	ErrorVerboseKey    = "error_verbose"
	ErrorStackTraceKey = "error_stacktrace"
)
