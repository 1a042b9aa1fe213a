package mediasoup

// Rtx reports whether the pipe transport was created with RTX and NACK
// enabled.
func (t *Transport) Rtx() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data.Rtx
}
