package mediadec

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pion/logging"
)

// DecoderConfig configures decoder construction.
type DecoderConfig struct {
	Provider Provider  // ProviderAuto picks the best available engine
	Threads  int       // Decoder threads for engines that support it (0 = engine default)
	Registry *Registry // nil uses DefaultRegistry()
}

func (c DecoderConfig) registry() *Registry {
	if c.Registry != nil {
		return c.Registry
	}
	return DefaultRegistry()
}

// Registry holds the codec engines decoders are built from.
//
// Built-in engines are probed lazily by EnsureInitialized, which runs the
// one-time setup at most once no matter how many goroutines construct
// decoders concurrently. Custom engines can be registered at any time.
type Registry struct {
	initMu      sync.Mutex
	initialized bool
	builtins    []builtinEngine

	mu     sync.RWMutex
	audio  map[Codec]map[Provider]AudioEngineFactory
	video  map[Codec]map[Provider]VideoEngineFactory
	theora map[Codec]map[Provider]TheoraEngineFactory

	available [providerCount]atomic.Bool

	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger
	libraryPath   string
	metrics       *Metrics
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLoggerFactory sets the logger factory used by the registry, its engines
// and the decoders built from it.
func WithLoggerFactory(f logging.LoggerFactory) RegistryOption {
	return func(r *Registry) { r.loggerFactory = f }
}

// WithLibraryPath sets a directory searched first for native libraries.
// Native libraries are opened once per process; the first registry to load a
// library decides where it comes from.
func WithLibraryPath(dir string) RegistryOption {
	return func(r *Registry) { r.libraryPath = dir }
}

// WithMetrics records decoder activity in m.
func WithMetrics(m *Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// WithoutBuiltinEngines skips the built-in engines. Only engines registered
// with the Register methods are used.
func WithoutBuiltinEngines() RegistryOption {
	return func(r *Registry) { r.builtins = nil }
}

// NewRegistry creates a registry. Built-in engines are loaded on the first
// EnsureInitialized call.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		builtins: append([]builtinEngine(nil), builtinEngines...),
		audio:    make(map[Codec]map[Provider]AudioEngineFactory),
		video:    make(map[Codec]map[Provider]VideoEngineFactory),
		theora:   make(map[Codec]map[Provider]TheoraEngineFactory),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.loggerFactory == nil {
		r.loggerFactory = logging.NewDefaultLoggerFactory()
	}
	r.log = r.loggerFactory.NewLogger("registry")
	return r
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns the process-wide registry used when
// DecoderConfig.Registry is nil.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// EnsureInitialized performs the one-time engine setup. It is safe to call
// from any goroutine and any number of times.
func (r *Registry) EnsureInitialized() {
	r.initMu.Lock()
	defer r.initMu.Unlock()

	if r.initialized {
		return
	}

	for _, b := range r.builtins {
		if err := b.load(r); err != nil {
			r.log.Debugf("%s engine unavailable: %v", b.provider, err)
			continue
		}
		r.log.Infof("%s engine loaded for %s", b.provider, b.provider.Codec())
	}
	r.initialized = true
}

// RegisterAudioEngine registers an audio engine factory for codec.
func (r *Registry) RegisterAudioEngine(codec Codec, p Provider, f AudioEngineFactory) {
	registerFactory(r, r.audio, codec, p, f)
}

// RegisterVideoEngine registers a video engine factory for codec.
func (r *Registry) RegisterVideoEngine(codec Codec, p Provider, f VideoEngineFactory) {
	registerFactory(r, r.video, codec, p, f)
}

// RegisterTheoraEngine registers a Theora engine factory.
func (r *Registry) RegisterTheoraEngine(p Provider, f TheoraEngineFactory) {
	registerFactory(r, r.theora, CodecTheora, p, f)
}

func registerFactory[F any](r *Registry, table map[Codec]map[Provider]F, codec Codec, p Provider, f F) {
	if p == ProviderAuto || p >= providerCount {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if table[codec] == nil {
		table[codec] = make(map[Provider]F)
	}
	table[codec][p] = f
	r.available[p].Store(true)
}

// resolveFactory picks the factory for want, or the best available one under
// ProviderAuto.
func resolveFactory[F any](r *Registry, table map[Codec]map[Provider]F, codec Codec, want Provider) (F, Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero F
	byProvider := table[codec]
	if want != ProviderAuto {
		f, ok := byProvider[want]
		if !ok {
			return zero, want, fmt.Errorf("provider %s not registered for %s", want, codec)
		}
		return f, want, nil
	}

	best := ProviderAuto
	for p := range byProvider {
		if best == ProviderAuto || p.priority() < best.priority() || (p.priority() == best.priority() && p < best) {
			best = p
		}
	}
	if best == ProviderAuto {
		return zero, best, fmt.Errorf("no %s engine registered", codec)
	}
	return byProvider[best], best, nil
}

// Available reports whether any engine from provider p is registered.
func (r *Registry) Available(p Provider) bool {
	if p >= providerCount {
		return false
	}
	return r.available[p].Load()
}

// Providers returns the providers registered for codec, best first.
func (r *Registry) Providers(codec Codec) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Provider
	for p := range r.audio[codec] {
		out = append(out, p)
	}
	for p := range r.video[codec] {
		out = append(out, p)
	}
	for p := range r.theora[codec] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].priority() != out[j].priority() {
			return out[i].priority() < out[j].priority()
		}
		return out[i] < out[j]
	})
	return out
}

// Metrics returns the metrics attached with WithMetrics, or nil.
func (r *Registry) Metrics() *Metrics {
	return r.metrics
}

func (r *Registry) logger(scope string) logging.LeveledLogger {
	return r.loggerFactory.NewLogger(scope)
}

func (r *Registry) engineConfig(codec Codec, config DecoderConfig) EngineConfig {
	return EngineConfig{
		Threads: config.Threads,
		Logger:  r.logger(codec.label()),
	}
}

// builtinEngine is an engine compiled into the package. load probes it and
// registers its factory on success.
type builtinEngine struct {
	provider Provider
	load     func(r *Registry) error
}

// builtinEngines is filled by init functions of the engine implementations.
var builtinEngines []builtinEngine

func registerBuiltinEngine(p Provider, load func(r *Registry) error) {
	builtinEngines = append(builtinEngines, builtinEngine{provider: p, load: load})
}
