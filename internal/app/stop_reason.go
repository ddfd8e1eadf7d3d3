package app

// StopReason is used for structured shutdown tracing and the process exit code.
type StopReason string

const (
	StopUnknown          StopReason = "unknown"
	StopFired            StopReason = "fired"
	StopSignal           StopReason = "signal"
	StopAppStop          StopReason = "app_stop"
	StopInvocationFailed StopReason = "invocation_failed"
	StopFatalError       StopReason = "fatal_error"
)

// ExitCode maps a reason to the exit status of the CLI.
func (r StopReason) ExitCode() int {
	switch r {
	case StopFired, StopAppStop:
		return 0
	case StopSignal:
		return 130
	case StopInvocationFailed:
		return 2
	default:
		return 1
	}
}
