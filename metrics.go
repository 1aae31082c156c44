package mediadec

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains Prometheus metrics for decoder activity. A nil *Metrics
// records nothing.
type Metrics struct {
	UnitsTotal     *prometheus.CounterVec
	FramesTotal    *prometheus.CounterVec
	BytesTotal     *prometheus.CounterVec
	ErrorsTotal    *prometheus.CounterVec
	DecodeDuration *prometheus.HistogramVec
	ActiveDecoders *prometheus.GaugeVec
	PCMBufferBytes prometheus.Gauge

	pcmHighWater atomic.Int64
}

// NewMetrics creates decoder metrics and registers them with registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		UnitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediadec_units_total",
				Help: "Total number of compressed units submitted to decoders",
			},
			[]string{"codec", "result"},
		),
		FramesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediadec_frames_total",
				Help: "Total number of PCM frames and pictures produced",
			},
			[]string{"codec"},
		),
		BytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediadec_bytes_total",
				Help: "Total compressed bytes consumed by decoders",
			},
			[]string{"codec"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediadec_errors_total",
				Help: "Total number of decoder errors by kind",
			},
			[]string{"codec", "kind"},
		),
		DecodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mediadec_decode_duration_seconds",
				Help:    "Time taken to decode one unit",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~200ms
			},
			[]string{"codec"},
		),
		ActiveDecoders: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mediadec_active_decoders",
				Help: "Number of decoders currently open",
			},
			[]string{"codec"},
		),
		PCMBufferBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mediadec_pcm_buffer_bytes",
				Help: "Largest PCM buffer allocated by any AAC decoder",
			},
		),
	}
	if registerer != nil {
		if err := registerer.Register(m); err != nil {
			return nil, fmt.Errorf("failed to register decoder metrics: %w", err)
		}
	}
	return m, nil
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.UnitsTotal.Describe(ch)
	m.FramesTotal.Describe(ch)
	m.BytesTotal.Describe(ch)
	m.ErrorsTotal.Describe(ch)
	m.DecodeDuration.Describe(ch)
	m.ActiveDecoders.Describe(ch)
	m.PCMBufferBytes.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.UnitsTotal.Collect(ch)
	m.FramesTotal.Collect(ch)
	m.BytesTotal.Collect(ch)
	m.ErrorsTotal.Collect(ch)
	m.DecodeDuration.Collect(ch)
	m.ActiveDecoders.Collect(ch)
	m.PCMBufferBytes.Collect(ch)
}

func (m *Metrics) opened(codec Codec) {
	if m == nil {
		return
	}
	m.ActiveDecoders.WithLabelValues(codec.label()).Inc()
}

func (m *Metrics) closed(codec Codec) {
	if m == nil {
		return
	}
	m.ActiveDecoders.WithLabelValues(codec.label()).Dec()
}

// observe records one Decode call.
func (m *Metrics) observe(codec Codec, bytes, frames int, start time.Time, err error) {
	if m == nil {
		return
	}
	label := codec.label()
	m.DecodeDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		m.UnitsTotal.WithLabelValues(label, "error").Inc()
		m.ErrorsTotal.WithLabelValues(label, errorKind(err)).Inc()
		return
	}
	m.UnitsTotal.WithLabelValues(label, "ok").Inc()
	m.BytesTotal.WithLabelValues(label).Add(float64(bytes))
	if frames > 0 {
		m.FramesTotal.WithLabelValues(label).Add(float64(frames))
	}
}

// constructionFailed records an error returned by a constructor.
func (m *Metrics) constructionFailed(codec Codec, err error) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(codec.label(), errorKind(err)).Inc()
}

func (m *Metrics) pcmBuffer(bytes int) {
	if m == nil {
		return
	}
	for {
		cur := m.pcmHighWater.Load()
		if int64(bytes) <= cur {
			return
		}
		if m.pcmHighWater.CompareAndSwap(cur, int64(bytes)) {
			m.PCMBufferBytes.Set(float64(bytes))
			return
		}
	}
}
