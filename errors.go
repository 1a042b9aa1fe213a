package mediasoup

import (
	"errors"
	"fmt"

	"github.com/mediaplane/mediasoup-go/internal/channel"
)

var (
	ErrSpawnFailure             = errors.New("worker spawn failed")
	ErrWorkerStartTimeout       = fmt.Errorf("%w: start worker timed out", ErrSpawnFailure)
	ErrEntityClosed             = errors.New("entity is closed")
	ErrWorkerClosed             = entityClosedError("worker")
	ErrRouterClosed             = entityClosedError("router")
	ErrWebRtcServerClosed       = entityClosedError("webRtcServer")
	ErrTransportClosed          = entityClosedError("transport")
	ErrProducerClosed           = entityClosedError("producer")
	ErrConsumerClosed           = entityClosedError("consumer")
	ErrDataProducerClosed       = entityClosedError("dataProducer")
	ErrDataConsumerClosed       = entityClosedError("dataConsumer")
	ErrRtpObserverClosed        = entityClosedError("rtpObserver")
	ErrBadConsumerRtpParameters = errors.New("bad consumer rtp parameters")
	ErrProducerNotFound         = errors.New("producer not found")
	ErrDataProducerNotFound     = errors.New("dataProducer not found")
	ErrDuplicatedId             = errors.New("id already in use")
	ErrMissSctpStreamParameters = errors.New("sctpStreamParameters is missing")
	ErrNotDirectTransport       = errors.New("operation requires a direct transport")
	ErrChannelClosed            = channel.ErrChannelClosed
	ErrRequestRejected          = channel.ErrRequestRejected
	ErrBodyTooLarge             = channel.ErrBodyTooLarge
)

// RequestError is returned when the worker rejects a request.
type RequestError = channel.RequestError

func entityClosedError(kind string) error {
	return fmt.Errorf("%s is closed: %w", kind, ErrEntityClosed)
}

// SpawnError reports a worker process that could not be started.
type SpawnError struct {
	Bin string
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Bin, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

func (e *SpawnError) Is(target error) bool {
	return target == ErrSpawnFailure
}

// TypeError is returned for arguments that fail validation before anything
// is sent to the worker.
type TypeError struct {
	message string
}

func NewTypeError(format string, args ...interface{}) error {
	return &TypeError{message: fmt.Sprintf(format, args...)}
}

func (e *TypeError) Error() string {
	return "TypeError: " + e.message
}

// UnsupportedError indicates that something is not supported.
type UnsupportedError struct {
	message string
}

func NewUnsupportedError(format string, args ...interface{}) error {
	return &UnsupportedError{message: fmt.Sprintf(format, args...)}
}

func (e *UnsupportedError) Error() string {
	return "UnsupportedError: " + e.message
}

// IsTypeError reports whether err is a local or worker side type error.
func IsTypeError(err error) bool {
	var typeErr *TypeError
	if errors.As(err, &typeErr) {
		return true
	}
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.IsTypeError()
}
