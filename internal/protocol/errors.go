package protocol

import "fmt"

// MalformedCommandError reports input that does not decode to a valid Command.
type MalformedCommandError struct {
	Reason string
}

func (e *MalformedCommandError) Error() string {
	return e.Reason
}

func malformed(format string, args ...any) error {
	return &MalformedCommandError{Reason: fmt.Sprintf(format, args...)}
}
