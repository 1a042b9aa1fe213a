package channel

import (
	"errors"
	"fmt"

	"github.com/mediaplane/mediasoup-go/netcodec"
)

var (
	ErrChannelClosed   = errors.New("worker: channel closed")
	ErrBodyTooLarge    = netcodec.ErrBodyTooLarge
	ErrBadSubscription = errors.New("worker: invalid subscription")
	ErrRequestRejected = errors.New("worker: request rejected")
)

// RequestError is returned when the worker explicitly rejects a request.
type RequestError struct {
	Method string
	// Kind is the error class reported by the worker, "TypeError" or "Error".
	Kind   string
	Reason string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s [method:%s]", e.Kind, e.Reason, e.Method)
}

func (e *RequestError) Is(target error) bool {
	return target == ErrRequestRejected
}

// IsTypeError reports whether the worker rejected the request because of
// invalid arguments.
func (e *RequestError) IsTypeError() bool {
	return e.Kind == "TypeError"
}
