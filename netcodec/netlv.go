package netcodec

import (
	"encoding/binary"
	"io"
	"sync"
)

// NetLVCodec frames each message as a 4 byte length followed by the body.
type NetLVCodec struct {
	mu        sync.Mutex
	w         io.WriteCloser
	r         io.ReadCloser
	byteOrder binary.ByteOrder
	header    [4]byte
	buf       []byte
}

func NewNetLVCodec(w io.WriteCloser, r io.ReadCloser, byteOrder binary.ByteOrder) *NetLVCodec {
	return &NetLVCodec{
		w:         w,
		r:         r,
		byteOrder: byteOrder,
	}
}

// WritePayload writes the length and the body in a single write so that
// frames of concurrent writers never interleave.
func (c *NetLVCodec) WritePayload(payload []byte) error {
	if len(payload) > MaxMessageLen {
		return ErrBodyTooLarge
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var size [4]byte
	c.byteOrder.PutUint32(size[:], uint32(len(payload)))

	c.buf = append(c.buf[:0], size[:]...)
	c.buf = append(c.buf, payload...)

	_, err := c.w.Write(c.buf)
	return err
}

func (c *NetLVCodec) ReadPayload() ([]byte, error) {
	if _, err := io.ReadFull(c.r, c.header[:]); err != nil {
		return nil, err
	}
	size := c.byteOrder.Uint32(c.header[:])
	if size > MaxMessageLen {
		return nil, ErrInvalidFraming
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *NetLVCodec) Close() error {
	return closeBoth(c.w, c.r)
}
