package netcodec

import (
	"bufio"
	"io"
	"strconv"
	"sync"
)

const (
	netStringSeparator byte = ':'
	netStringEnd       byte = ','
)

// NetStringCodec frames each message as "<len>:<body>,".
type NetStringCodec struct {
	mu     sync.Mutex
	w      io.WriteCloser
	r      io.ReadCloser
	reader *bufio.Reader
}

func NewNetStringCodec(w io.WriteCloser, r io.ReadCloser) *NetStringCodec {
	return &NetStringCodec{
		w:      w,
		r:      r,
		reader: bufio.NewReader(r),
	}
}

func (c *NetStringCodec) WritePayload(payload []byte) error {
	if len(payload) > MaxMessageLen {
		return ErrBodyTooLarge
	}
	length := strconv.Itoa(len(payload))

	buf := make([]byte, 0, len(length)+len(payload)+2)
	buf = append(buf, length...)
	buf = append(buf, netStringSeparator)
	buf = append(buf, payload...)
	buf = append(buf, netStringEnd)

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.w.Write(buf)
	return err
}

func (c *NetStringCodec) ReadPayload() ([]byte, error) {
	head, err := c.reader.ReadString(netStringSeparator)
	if err != nil {
		return nil, err
	}
	length, err := strconv.Atoi(head[:len(head)-1])
	if err != nil || length < 0 || length > MaxMessageLen {
		return nil, ErrInvalidFraming
	}
	payload := make([]byte, length)
	if _, err = io.ReadFull(c.reader, payload); err != nil {
		return nil, err
	}
	end, err := c.reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if end != netStringEnd {
		return nil, ErrInvalidFraming
	}
	return payload, nil
}

func (c *NetStringCodec) Close() error {
	return closeBoth(c.w, c.r)
}
