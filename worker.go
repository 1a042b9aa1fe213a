package mediasoup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-logr/logr"

	"github.com/mediaplane/mediasoup-go/internal/channel"
	"github.com/mediaplane/mediasoup-go/internal/metrics"
	"github.com/mediaplane/mediasoup-go/netcodec"
)

// Worker represents a media worker subprocess that runs in a single CPU core
// and handles Router instances.
type Worker struct {
	lifecycle
	mu             sync.Mutex
	cmd            *exec.Cmd
	pid            int
	settings       *WorkerSettings
	logger         logr.Logger
	channel        *channel.Channel
	payloadChannel *channel.PayloadChannel
	metrics        *metrics.Metrics
	routers        registry[*Router]
	webRtcServers  registry[*WebRtcServer]
	appData        H
	exited         chan struct{}
	err            error

	diedEvent            eventEmitter[error]
	newRouterEvent       eventEmitter[*Router]
	newWebRtcServerEvent eventEmitter[*WebRtcServer]
}

// NewWorker spawns a worker process and returns once it reported that it is
// running. Failures are returned as *SpawnError.
func NewWorker(options ...Option) (*Worker, error) {
	env, err := readSpawnEnv()
	if err != nil {
		return nil, err
	}
	settings, err := newWorkerSettings(env, options...)
	if err != nil {
		return nil, err
	}
	bin, args := env.command(settings)
	logger := settings.Logger

	logger.V(1).Info("spawning worker process", "bin", bin, "args", strings.Join(args, " "))

	var pipeFiles []*os.File
	defer func() {
		if err != nil {
			for _, file := range pipeFiles {
				file.Close()
			}
		}
	}()
	newPipe := func() (r, w *os.File) {
		if err == nil {
			if r, w, err = os.Pipe(); err == nil {
				pipeFiles = append(pipeFiles, r, w)
			}
		}
		return
	}
	// fd 3 and 4 for the channel, fd 5 and 6 for the payload channel
	producerReader, producerWriter := newPipe()
	consumerReader, consumerWriter := newPipe()
	payloadProducerReader, payloadProducerWriter := newPipe()
	payloadConsumerReader, payloadConsumerWriter := newPipe()
	if err != nil {
		return nil, &SpawnError{Bin: bin, Err: err}
	}

	cmd := exec.Command(bin, args...)
	cmd.ExtraFiles = []*os.File{producerReader, consumerWriter, payloadProducerReader, payloadConsumerWriter}
	cmd.Env = append(append(os.Environ(), settings.Env...), "MEDIASOUP_VERSION="+settings.WorkerVersion)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	// stderr is closed by command
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &SpawnError{Bin: bin, Err: err}
	}
	// stdout is closed by command
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Bin: bin, Err: err}
	}
	if err = cmd.Start(); err != nil {
		return nil, &SpawnError{Bin: bin, Err: err}
	}
	// the child owns its ends now
	for _, file := range cmd.ExtraFiles {
		file.Close()
	}

	pid := cmd.Process.Pid
	logger = logger.WithValues("pid", pid)
	m := metrics.New(settings.Metrics)
	channelOptions := channel.Options{
		Logger:       logger,
		WorkerLogger: settings.WorkerLogger,
		Metrics:      m,
	}

	w := &Worker{
		cmd:      cmd,
		pid:      pid,
		settings: settings,
		logger:   logger,
		channel: channel.NewChannel(
			netcodec.New(settings.WorkerVersion, producerWriter, consumerReader), channelOptions),
		payloadChannel: channel.NewPayloadChannel(
			netcodec.New(settings.WorkerVersion, payloadProducerWriter, payloadConsumerReader), channelOptions),
		metrics: m,
		appData: settings.AppData,
		exited:  make(chan struct{}),
	}
	w.lifecycle.init(logger)

	// spawnDone indicates the spawn outcome is decided
	spawnDone := uint32(0)
	doneCh := make(chan error, 1)

	sub := w.channel.Subscribe(strconv.Itoa(pid), func(event string, data, payload []byte) {
		if event == "running" && atomic.CompareAndSwapUint32(&spawnDone, 0, 1) {
			logger.V(1).Info("worker process running")
			doneCh <- nil
		}
	})
	defer sub.Unsubscribe()

	// cmd.Wait closes the std pipes, so it is only called once both readers
	// reached EOF
	var streams sync.WaitGroup
	streams.Add(2)
	go func() {
		defer streams.Done()
		forwardLines(stdout, settings.WorkerLogger.Debug)
	}()
	go func() {
		defer streams.Done()
		forwardLines(stderr, settings.WorkerLogger.Error)
	}()

	// start the channels after subscribing to the pid
	w.channel.Start()
	w.payloadChannel.Start()

	go w.wait(&streams, &spawnDone, doneCh)

	timer := time.NewTimer(settings.SpawnTimeout)
	defer timer.Stop()

	select {
	case err = <-doneCh:
	case <-timer.C:
		if atomic.CompareAndSwapUint32(&spawnDone, 0, 1) {
			err = ErrWorkerStartTimeout
			cmd.Process.Kill()
		} else {
			err = <-doneCh
		}
	}
	if err != nil {
		// nobody will ever see this worker
		w.beginClose()
		w.channel.Close()
		w.payloadChannel.Close()
		pipeFiles = nil
		return nil, &SpawnError{Bin: bin, Err: err}
	}
	m.WorkerStarted()

	return w, nil
}

func (w *Worker) wait(streams *sync.WaitGroup, spawnDone *uint32, doneCh chan<- error) {
	streams.Wait()
	err := w.cmd.Wait()
	if err != nil {
		err = fmt.Errorf("worker process failed [pid:%d, code:%d]: %w", w.pid, w.cmd.ProcessState.ExitCode(), err)
	}
	close(w.exited)

	if atomic.CompareAndSwapUint32(spawnDone, 0, 1) {
		if err == nil {
			err = errors.New("worker process exited before running")
		}
		doneCh <- err
		return
	}
	w.processExited(err)
}

func (w *Worker) processExited(err error) {
	if !w.beginClose() {
		w.logger.V(1).Info("worker process exited")
		return
	}
	if err == nil {
		err = fmt.Errorf("worker process exited unexpectedly [pid:%d]", w.pid)
	}
	w.logger.Error(err, "worker died")

	w.mu.Lock()
	w.err = err
	w.mu.Unlock()

	w.metrics.WorkerExited("died")
	w.channel.Close()
	w.payloadChannel.Close()
	w.closeChildren()
	w.diedEvent.emit(w.logger, err)
	w.finishClose()
}

// Pid returns the process id of the worker.
func (w *Worker) Pid() int {
	return w.pid
}

func (w *Worker) AppData() H {
	return w.appData
}

// Settings returns a copy of the settings the worker was spawned with.
func (w *Worker) Settings() WorkerSettings {
	return *w.settings
}

// Err returns the reason of an unexpected exit.
func (w *Worker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.err
}

// Routers returns the open routers of the worker.
func (w *Worker) Routers() []*Router {
	return w.routers.Values()
}

// Close asks the worker process to exit and returns without waiting; Done is
// closed once it exited. The process is killed if it is still alive after
// closeTimeout.
func (w *Worker) Close() {
	if !w.beginClose() {
		return
	}
	w.logger.V(1).Info("Close()")

	w.closeChildren()

	if err := w.channel.Notify("worker.close", "", nil); err != nil {
		w.logger.V(1).Info("worker.close notification failed", "error", err.Error())
	}

	go func() {
		timer := time.NewTimer(closeTimeout)
		defer timer.Stop()

		select {
		case <-w.exited:
		case <-timer.C:
			w.logger.Info("force kill worker process")
			w.cmd.Process.Kill()
			<-w.exited
		}
		w.channel.Close()
		w.payloadChannel.Close()
		w.metrics.WorkerExited("closed")
		w.finishClose()
	}()
}

func (w *Worker) closeChildren() {
	w.mu.Lock()
	routers := w.routers.Drain()
	servers := w.webRtcServers.Drain()
	w.mu.Unlock()

	for _, server := range servers {
		server.workerClosed()
	}
	for _, router := range routers {
		router.workerClosed()
	}
}

func (w *Worker) request(ctx context.Context, method string, data, out any) error {
	if w.Closed() {
		return ErrWorkerClosed
	}
	resp, err := w.channel.Request(ctx, method, "", data)
	if err != nil {
		return err
	}
	return resp.Unmarshal(out)
}

// Dump returns the resources allocated by the worker.
func (w *Worker) Dump() (*WorkerDump, error) {
	return w.DumpContext(context.Background())
}

func (w *Worker) DumpContext(ctx context.Context) (*WorkerDump, error) {
	w.logger.V(1).Info("Dump()")

	dump := &WorkerDump{}
	if err := w.request(ctx, "worker.dump", nil, dump); err != nil {
		return nil, err
	}
	return dump, nil
}

// GetResourceUsage returns the worker process resource usage.
func (w *Worker) GetResourceUsage() (*WorkerResourceUsage, error) {
	return w.GetResourceUsageContext(context.Background())
}

func (w *Worker) GetResourceUsageContext(ctx context.Context) (*WorkerResourceUsage, error) {
	w.logger.V(1).Info("GetResourceUsage()")

	usage := &WorkerResourceUsage{}
	if err := w.request(ctx, "worker.getResourceUsage", nil, usage); err != nil {
		return nil, err
	}
	return usage, nil
}

// UpdateSettings updates the log level and tags of the running worker.
func (w *Worker) UpdateSettings(settings WorkerUpdatableSettings) error {
	return w.UpdateSettingsContext(context.Background(), settings)
}

func (w *Worker) UpdateSettingsContext(ctx context.Context, settings WorkerUpdatableSettings) error {
	w.logger.V(1).Info("UpdateSettings()")

	return w.request(ctx, "worker.updateSettings", settings, nil)
}

// CreateRouter creates a router.
func (w *Worker) CreateRouter(options *RouterOptions) (*Router, error) {
	return w.CreateRouterContext(context.Background(), options)
}

func (w *Worker) CreateRouterContext(ctx context.Context, options *RouterOptions) (*Router, error) {
	w.logger.V(1).Info("CreateRouter()")

	if w.Closed() {
		return nil, ErrWorkerClosed
	}
	if options == nil {
		options = &RouterOptions{}
	}
	rtpCapabilities, err := generateRouterRtpCapabilities(options.MediaCodecs)
	if err != nil {
		return nil, err
	}
	id := newId(options.Id)
	if _, ok := w.routers.Load(id); ok {
		return nil, ErrDuplicatedId
	}
	if err = w.request(ctx, "worker.createRouter", internalData{RouterId: id}, nil); err != nil {
		return nil, err
	}

	router := newRouter(routerParams{
		id:              id,
		rtpCapabilities: rtpCapabilities,
		channels:        workerChannels{channel: w.channel, payloadChannel: w.payloadChannel},
		logger:          w.logger,
		appData:         options.AppData,
		detach: func() {
			w.routers.Delete(id)
		},
	})

	w.mu.Lock()
	if w.Closed() {
		w.mu.Unlock()
		router.workerClosed()
		return nil, ErrWorkerClosed
	}
	stored := w.routers.Store(id, router)
	w.mu.Unlock()

	if !stored {
		return nil, ErrDuplicatedId
	}
	w.newRouterEvent.emit(w.logger, router)

	return router, nil
}

// CreateWebRtcServer creates a WebRtcServer listening on the given sockets.
func (w *Worker) CreateWebRtcServer(options *WebRtcServerOptions) (*WebRtcServer, error) {
	return w.CreateWebRtcServerContext(context.Background(), options)
}

func (w *Worker) CreateWebRtcServerContext(ctx context.Context, options *WebRtcServerOptions) (*WebRtcServer, error) {
	w.logger.V(1).Info("CreateWebRtcServer()")

	if options == nil || len(options.ListenInfos) == 0 {
		return nil, NewTypeError("missing listenInfos")
	}
	if w.Closed() {
		return nil, ErrWorkerClosed
	}
	id := newId(options.Id)
	if _, ok := w.webRtcServers.Load(id); ok {
		return nil, ErrDuplicatedId
	}
	data := requestData(internalData{WebRtcServerId: id}, options)
	if err := w.request(ctx, "worker.createWebRtcServer", data, nil); err != nil {
		return nil, err
	}

	server := newWebRtcServer(webRtcServerParams{
		id:       id,
		channels: workerChannels{channel: w.channel, payloadChannel: w.payloadChannel},
		logger:   w.logger,
		appData:  options.AppData,
		detach: func() {
			w.webRtcServers.Delete(id)
		},
	})

	w.mu.Lock()
	if w.Closed() {
		w.mu.Unlock()
		server.workerClosed()
		return nil, ErrWorkerClosed
	}
	stored := w.webRtcServers.Store(id, server)
	w.mu.Unlock()

	if !stored {
		return nil, ErrDuplicatedId
	}
	w.newWebRtcServerEvent.emit(w.logger, server)

	return server, nil
}

// WebRtcServers returns the open WebRtcServers of the worker.
func (w *Worker) WebRtcServers() []*WebRtcServer {
	return w.webRtcServers.Values()
}

// OnDied registers a handler called once with the reason when the worker
// process exits without being closed. Close handlers run after it.
func (w *Worker) OnDied(handler func(err error)) (off func()) {
	return w.diedEvent.once(handler)
}

func (w *Worker) OnNewRouter(handler func(*Router)) (off func()) {
	return w.newRouterEvent.on(handler)
}

func (w *Worker) OnNewWebRtcServer(handler func(*WebRtcServer)) (off func()) {
	return w.newWebRtcServerEvent.on(handler)
}

func forwardLines(r io.Reader, log func(msg string)) {
	reader := bufio.NewReader(r)
	for {
		line, _, err := reader.ReadLine()
		if err != nil {
			return
		}
		log(string(line))
	}
}
