// Package netcodec frames discrete messages over the byte-stream pipes shared
// with a media worker process.
package netcodec

import (
	"encoding/binary"
	"errors"
	"io"
	"unsafe"

	"github.com/hashicorp/go-version"
)

const (
	// MaxMessageLen is the largest control message a worker accepts.
	MaxMessageLen = 4194308
	// MaxPayloadLen is the largest binary payload a worker accepts.
	MaxPayloadLen = 4194304
)

var (
	ErrBodyTooLarge   = errors.New("netcodec: body is too large")
	ErrInvalidFraming = errors.New("netcodec: invalid framing")
)

// lengthPrefixedSince is the first worker release that frames messages with a
// native-endian length prefix instead of netstrings.
var lengthPrefixedSince = version.Must(version.NewVersion("3.9.0"))

// Codec writes and reads whole frames. Implementations must be safe for one
// concurrent reader and many concurrent writers.
type Codec interface {
	WritePayload(payload []byte) error
	ReadPayload() ([]byte, error)
	Close() error
}

// New returns the codec a worker of the given version speaks. An empty or
// unparsable version selects the length-prefixed codec.
func New(workerVersion string, w io.WriteCloser, r io.ReadCloser) Codec {
	if UsesNetString(workerVersion) {
		return NewNetStringCodec(w, r)
	}
	return NewNetLVCodec(w, r, NativeEndian())
}

// UsesNetString reports whether the worker version predates length-prefixed
// framing.
func UsesNetString(workerVersion string) bool {
	v, err := version.NewVersion(workerVersion)
	if err != nil {
		return false
	}
	return v.LessThan(lengthPrefixedSince)
}

// NativeEndian returns the byte order of the host, which is the order the
// worker uses for length prefixes.
func NativeEndian() binary.ByteOrder {
	var probe uint16 = 0x0102
	if *(*byte)(unsafe.Pointer(&probe)) == 0x01 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func closeBoth(w io.Closer, r io.Closer) error {
	errW := w.Close()
	errR := r.Close()
	if errW != nil {
		return errW
	}
	return errR
}
