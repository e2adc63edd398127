package bridge

import (
	"errors"
	"fmt"
)

// Side names an endpoint in errors and journal records.
const (
	SideOBS = "obs"
	SideTM  = "tm"
)

// ConnectionError reports that an endpoint could not supply its current
// state during Start. It is fatal: the engine refuses to start without a
// captured baseline on both sides.
type ConnectionError struct {
	Side string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("bridge: %s endpoint unavailable: %v", e.Side, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConnectionError reports whether err is (or wraps) a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
