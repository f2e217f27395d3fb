package gnats

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArg is returned when a caller passes an invalid option or a
	// nil required parameter. It is always detected before any state is
	// mutated.
	ErrInvalidArg = errors.New("gnats: invalid argument")

	// ErrInsufficientBuffer is returned when a fixed-size buffer is asked to
	// grow more than once.
	ErrInsufficientBuffer = errors.New("gnats: insufficient buffer")

	// ErrProtocol is the base error for malformed server frames. Errors
	// returned by the operation parser wrap it.
	ErrProtocol = errors.New("gnats: protocol error")

	// ErrTypeMismatch is returned when a JSON field is read as a type other
	// than the one that was parsed.
	ErrTypeMismatch = errors.New("gnats: json type mismatch")

	// ErrNestedTooDeep is returned when a JSON document exceeds the
	// configured maximum nesting depth.
	ErrNestedTooDeep = errors.New("gnats: json nested too deep")

	// ErrPoolRecycled is returned when an operation is attempted on a pool
	// that has been released.
	ErrPoolRecycled = errors.New("gnats: pool already released")

	// ErrTooLarge is returned when a buffer is asked to grow beyond the
	// maximum supported capacity.
	ErrTooLarge = errors.New("gnats: allocation too large")

	ErrConnectionClosed   = errors.New("gnats: connection closed")
	ErrNoServersAvailable = errors.New("gnats: no servers available")
	ErrWriteQueueFull     = errors.New("gnats: write queue full")
)

// ParseError reports a malformed byte in a JSON payload, with the position
// the scanner had reached. Line and Pos are 1-based and 0-based respectively,
// matching what the parser tracks while counting newlines.
type ParseError struct {
	Msg  string
	Byte byte
	Line int
	Pos  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gnats: json parse error line %d, pos %d: %s", e.Line+1, e.Pos, e.Msg)
}

// Is makes ParseError match ErrProtocol in errors.Is chains, since a bad
// payload is a protocol-level failure of the current frame.
func (e *ParseError) Is(target error) bool {
	return target == ErrProtocol
}
