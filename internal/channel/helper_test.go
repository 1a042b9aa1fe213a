package channel

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/pion/logging"
	"github.com/stretchr/testify/require"

	"github.com/mediaplane/mediasoup-go/netcodec"
)

// newCodecPair returns the codec used by the channel and the codec used by
// the test to play the worker.
func newCodecPair() (client, worker netcodec.Codec) {
	toWorkerR, toWorkerW := io.Pipe()
	fromWorkerR, fromWorkerW := io.Pipe()

	client = netcodec.NewNetLVCodec(toWorkerW, fromWorkerR, netcodec.NativeEndian())
	worker = netcodec.NewNetLVCodec(fromWorkerW, toWorkerR, netcodec.NativeEndian())

	return
}

// newRawCodecPair is newCodecPair that also hands out the raw stream the
// worker writes to, for frames a codec would refuse to produce.
func newRawCodecPair() (client, worker netcodec.Codec, raw io.Writer) {
	toWorkerR, toWorkerW := io.Pipe()
	fromWorkerR, fromWorkerW := io.Pipe()

	client = netcodec.NewNetLVCodec(toWorkerW, fromWorkerR, netcodec.NativeEndian())
	worker = netcodec.NewNetLVCodec(fromWorkerW, toWorkerR, netcodec.NativeEndian())

	return client, worker, fromWorkerW
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testOptions(workerLog io.Writer) Options {
	opts := Options{Logger: logr.Discard()}
	if workerLog != nil {
		opts.WorkerLogger = logging.NewDefaultLeveledLoggerForScope("worker", logging.LogLevelDebug, workerLog)
	}
	return opts
}

type fakeRequest struct {
	Id       uint32          `json:"id"`
	Method   string          `json:"method"`
	TargetId string          `json:"targetId"`
	Event    string          `json:"event"`
	Data     json.RawMessage `json:"data"`
}

func readRequest(t *testing.T, codec netcodec.Codec) fakeRequest {
	payload, err := codec.ReadPayload()
	require.NoError(t, err)

	var req fakeRequest
	require.NoError(t, json.Unmarshal(payload, &req))
	return req
}

func writeJSON(t *testing.T, codec netcodec.Codec, v any) {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, codec.WritePayload(data))
}

type H = map[string]any
