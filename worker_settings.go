package mediasoup

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus"
)

type WorkerLogLevel string

const (
	WorkerLogLevelDebug WorkerLogLevel = "debug"
	WorkerLogLevelWarn  WorkerLogLevel = "warn"
	WorkerLogLevelError WorkerLogLevel = "error"
	WorkerLogLevelNone  WorkerLogLevel = "none"
)

type WorkerLogTag string

const (
	WorkerLogTagInfo      WorkerLogTag = "info"
	WorkerLogTagIce       WorkerLogTag = "ice"
	WorkerLogTagDtls      WorkerLogTag = "dtls"
	WorkerLogTagRtp       WorkerLogTag = "rtp"
	WorkerLogTagSrtp      WorkerLogTag = "srtp"
	WorkerLogTagRtcp      WorkerLogTag = "rtcp"
	WorkerLogTagRtx       WorkerLogTag = "rtx"
	WorkerLogTagBwe       WorkerLogTag = "bwe"
	WorkerLogTagScore     WorkerLogTag = "score"
	WorkerLogTagSimulcast WorkerLogTag = "simulcast"
	WorkerLogTagSvc       WorkerLogTag = "svc"
	WorkerLogTagSctp      WorkerLogTag = "sctp"
	WorkerLogTagMessage   WorkerLogTag = "message"
)

const (
	defaultWorkerBin    = "mediasoup-worker"
	defaultRtcMinPort   = 10000
	defaultRtcMaxPort   = 59999
	defaultSpawnTimeout = 5 * time.Second
)

// WorkerSettings represents the configuration settings for a worker. The
// settings are copied when the worker is spawned, later changes have no
// effect on a running worker.
type WorkerSettings struct {
	// LogLevel defines the log level for media worker subprocess logs.
	// Valid values: 'debug', 'warn', 'error', 'none'. Defaults to 'error'.
	LogLevel WorkerLogLevel `json:"logLevel,omitempty"`

	// LogTags defines debug log tags.
	LogTags []WorkerLogTag `json:"logTags,omitempty"`

	// RtcMinPort is the minimum RTC port for ICE, DTLS, RTP, etc.
	// Defaults to 10000.
	RtcMinPort uint16 `json:"rtcMinPort,omitempty"`

	// RtcMaxPort is the maximum RTC port for ICE, DTLS, RTP, etc.
	// Defaults to 59999.
	RtcMaxPort uint16 `json:"rtcMaxPort,omitempty"`

	// DtlsCertificateFile is the path to PEM formatted DTLS public certificate.
	// If empty, a certificate is generated dynamically.
	DtlsCertificateFile string `json:"dtlsCertificateFile,omitempty"`

	// DtlsPrivateKeyFile is the path to PEM formatted DTLS private key.
	// If empty, a certificate is generated dynamically.
	DtlsPrivateKeyFile string `json:"dtlsPrivateKeyFile,omitempty"`

	// WorkerBin is the worker executable. Defaults to the MEDIASOUP_WORKER_BIN
	// env or "mediasoup-worker" looked up in PATH.
	WorkerBin string `json:"-"`

	// WorkerVersion selects the framing spoken on the channels. Defaults to
	// the MEDIASOUP_WORKER_VERSION env.
	WorkerVersion string `json:"-"`

	// Env sets additional environment variables for the worker process.
	Env []string `json:"-"`

	// SpawnTimeout bounds the wait for the worker to report it is running.
	// Defaults to 5s.
	SpawnTimeout time.Duration `json:"-"`

	// Logger sets the logger of the worker handle and its entities.
	Logger logr.Logger `json:"-"`

	// WorkerLogger receives the log lines written by the worker process,
	// defaults to a sink forwarding to Logger.
	WorkerLogger logging.LeveledLogger `json:"-"`

	// Metrics registers the channel and process collectors. Nil disables
	// metrics.
	Metrics prometheus.Registerer `json:"-"`

	// AppData holds custom application data.
	AppData H `json:"appData,omitempty"`
}

// Args returns the command line flags of the worker process.
func (s *WorkerSettings) Args() []string {
	args := []string{"--logLevel=" + string(s.LogLevel)}

	if len(s.LogTags) > 0 {
		tags := make([]string, len(s.LogTags))
		for i, tag := range s.LogTags {
			tags[i] = string(tag)
		}
		args = append(args, "--logTags="+strings.Join(tags, ","))
	}

	args = append(args,
		fmt.Sprintf("--rtcMinPort=%d", s.RtcMinPort),
		fmt.Sprintf("--rtcMaxPort=%d", s.RtcMaxPort),
	)

	if len(s.DtlsCertificateFile) > 0 {
		args = append(args, "--dtlsCertificateFile="+s.DtlsCertificateFile)
	}
	if len(s.DtlsPrivateKeyFile) > 0 {
		args = append(args, "--dtlsPrivateKeyFile="+s.DtlsPrivateKeyFile)
	}

	return args
}

func (s *WorkerSettings) validate() error {
	switch s.LogLevel {
	case WorkerLogLevelDebug, WorkerLogLevelWarn, WorkerLogLevelError, WorkerLogLevelNone:
	default:
		return NewTypeError("invalid logLevel: %q", s.LogLevel)
	}
	if s.RtcMinPort > s.RtcMaxPort {
		return NewTypeError("rtcMinPort %d is greater than rtcMaxPort %d", s.RtcMinPort, s.RtcMaxPort)
	}
	return nil
}

// spawnEnv is the environment consulted at every spawn.
type spawnEnv struct {
	WorkerBin       string `env:"MEDIASOUP_WORKER_BIN"`
	WorkerVersion   string `env:"MEDIASOUP_WORKER_VERSION"`
	UseValgrind     bool   `env:"MEDIASOUP_USE_VALGRIND" env-default:"false"`
	ValgrindBin     string `env:"MEDIASOUP_VALGRIND_BIN" env-default:"valgrind"`
	ValgrindOptions string `env:"MEDIASOUP_VALGRIND_OPTIONS"`
}

func readSpawnEnv() (env spawnEnv, err error) {
	if err = cleanenv.ReadEnv(&env); err != nil {
		err = NewTypeError("invalid worker environment: %s", err)
	}
	return
}

// command returns the executable and its arguments, wrapping the worker in
// valgrind when asked to.
func (env spawnEnv) command(settings *WorkerSettings) (bin string, args []string) {
	if !env.UseValgrind {
		return settings.WorkerBin, settings.Args()
	}
	args = append(args, strings.Fields(env.ValgrindOptions)...)
	args = append(args, settings.WorkerBin)
	args = append(args, settings.Args()...)

	return env.ValgrindBin, args
}

func newWorkerSettings(env spawnEnv, options ...Option) (*WorkerSettings, error) {
	settings := &WorkerSettings{
		LogLevel:      WorkerLogLevelError,
		RtcMinPort:    defaultRtcMinPort,
		RtcMaxPort:    defaultRtcMaxPort,
		WorkerBin:     defaultWorkerBin,
		WorkerVersion: env.WorkerVersion,
		SpawnTimeout:  defaultSpawnTimeout,
		AppData:       H{},
	}
	if len(env.WorkerBin) > 0 {
		settings.WorkerBin = env.WorkerBin
	}
	for _, option := range options {
		option(settings)
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}
	if settings.Logger.GetSink() == nil {
		settings.Logger = NewLogger("Worker")
	}
	if settings.WorkerLogger == nil {
		settings.WorkerLogger = newWorkerLogger(settings.Logger.WithName("process"))
	}
	// own copies, the caller may reuse its slices
	settings.LogTags = append([]WorkerLogTag(nil), settings.LogTags...)
	settings.Env = append([]string(nil), settings.Env...)

	return settings, nil
}

type Option func(*WorkerSettings)

// WithSettings merges the non zero fields of s into the settings.
func WithSettings(s WorkerSettings) Option {
	return func(settings *WorkerSettings) {
		if err := override(settings, &s); err != nil {
			settings.Logger.Error(err, "merge worker settings")
		}
	}
}

func WithLogLevel(level WorkerLogLevel) Option {
	return func(s *WorkerSettings) {
		s.LogLevel = level
	}
}

func WithLogTags(tags ...WorkerLogTag) Option {
	return func(s *WorkerSettings) {
		s.LogTags = tags
	}
}

func WithRtcMinPort(port uint16) Option {
	return func(s *WorkerSettings) {
		s.RtcMinPort = port
	}
}

func WithRtcMaxPort(port uint16) Option {
	return func(s *WorkerSettings) {
		s.RtcMaxPort = port
	}
}

// WithDtlsCert sets the PEM files of the DTLS certificate and private key.
func WithDtlsCert(certificateFile, privateKeyFile string) Option {
	return func(s *WorkerSettings) {
		s.DtlsCertificateFile = certificateFile
		s.DtlsPrivateKeyFile = privateKeyFile
	}
}

func WithWorkerBin(bin string) Option {
	return func(s *WorkerSettings) {
		s.WorkerBin = bin
	}
}

func WithWorkerVersion(version string) Option {
	return func(s *WorkerSettings) {
		s.WorkerVersion = version
	}
}

func WithEnv(env ...string) Option {
	return func(s *WorkerSettings) {
		s.Env = append(s.Env, env...)
	}
}

func WithSpawnTimeout(timeout time.Duration) Option {
	return func(s *WorkerSettings) {
		s.SpawnTimeout = timeout
	}
}

func WithLogger(logger logr.Logger) Option {
	return func(s *WorkerSettings) {
		s.Logger = logger
	}
}

func WithWorkerLogger(logger logging.LeveledLogger) Option {
	return func(s *WorkerSettings) {
		s.WorkerLogger = logger
	}
}

func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *WorkerSettings) {
		s.Metrics = reg
	}
}

func WithAppData(appData H) Option {
	return func(s *WorkerSettings) {
		s.AppData = appData
	}
}

type WorkerUpdatableSettings struct {
	LogLevel WorkerLogLevel `json:"logLevel,omitempty"`
	LogTags  []WorkerLogTag `json:"logTags,omitempty"`
}

type WorkerDump struct {
	Pid                    int                               `json:"pid,omitempty"`
	RouterIds              []string                          `json:"routerIds,omitempty"`
	WebRtcServerIds        []string                          `json:"webRtcServerIds,omitempty"`
	ChannelMessageHandlers *WorkerDumpChannelMessageHandlers `json:"channelMessageHandlers,omitempty"`
}

type WorkerDumpChannelMessageHandlers struct {
	ChannelRequestHandlers             []string `json:"channelRequestHandlers,omitempty"`
	PayloadChannelRequestHandlers      []string `json:"payloadChannelRequestHandlers,omitempty"`
	PayloadChannelNotificationHandlers []string `json:"payloadChannelNotificationHandlers,omitempty"`
}

// WorkerResourceUsage is the getrusage(2) report of a worker process, times
// in milliseconds.
type WorkerResourceUsage struct {
	RuUtime    uint64 `json:"ru_utime"`
	RuStime    uint64 `json:"ru_stime"`
	RuMaxrss   uint64 `json:"ru_maxrss"`
	RuIxrss    uint64 `json:"ru_ixrss"`
	RuIdrss    uint64 `json:"ru_idrss"`
	RuIsrss    uint64 `json:"ru_isrss"`
	RuMinflt   uint64 `json:"ru_minflt"`
	RuMajflt   uint64 `json:"ru_majflt"`
	RuNswap    uint64 `json:"ru_nswap"`
	RuInblock  uint64 `json:"ru_inblock"`
	RuOublock  uint64 `json:"ru_oublock"`
	RuMsgsnd   uint64 `json:"ru_msgsnd"`
	RuMsgrcv   uint64 `json:"ru_msgrcv"`
	RuNsignals uint64 `json:"ru_nsignals"`
	RuNvcsw    uint64 `json:"ru_nvcsw"`
	RuNivcsw   uint64 `json:"ru_nivcsw"`
}
