package reconcile

import "fmt"

// Result is what every reconciliation path returns to the transport layer.
// Success=true covers both applied transitions and idempotent no-ops;
// Success=false is acknowledged without triggering processor retries.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func okf(format string, args ...any) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

func failf(format string, args ...any) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

func failErr(msg string, err error) Result {
	return Result{Success: false, Message: msg, Error: err.Error()}
}
