package connmgr

import (
	"errors"
	"fmt"

	"github.com/derektruong/fxvfs/protoc"
)

// ErrIllegalState reports a caller breaking the acquire/release contract.
var ErrIllegalState = errors.New("connmgr: illegal state")

// ErrNoExecutionContext is returned when the context carries no execution
// context key, see NewContext.
var ErrNoExecutionContext = errors.New("connmgr: context carries no execution context key")

var ErrInvalidConfig = errors.New("connmgr: invalid config")

// ProtocolError wraps a failure of the remote side or the network.
type ProtocolError struct {
	Op       string
	Endpoint protoc.Endpoint
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("connmgr: %s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsProtocolError reports whether err is a failure of the remote side or
// the network.
func IsProtocolError(err error) bool {
	var protoErr *ProtocolError
	return errors.As(err, &protoErr)
}

// IsMisuse reports whether err is a programming error of the caller rather
// than a failure of the remote side.
func IsMisuse(err error) bool {
	return errors.Is(err, ErrIllegalState) ||
		errors.Is(err, ErrNoExecutionContext) ||
		errors.Is(err, ErrInvalidConfig)
}
