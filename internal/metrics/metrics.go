package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one process. A nil *Metrics is valid
// and records nothing, which keeps unit tests free of registry plumbing.
type Metrics struct {
	registry *prometheus.Registry

	questions     *prometheus.CounterVec
	answerCache   *prometheus.CounterVec
	utterances    *prometheus.CounterVec
	sttRequests   *prometheus.CounterVec
	sttLatency    *prometheus.HistogramVec
	listening     prometheus.Gauge
	conversation  prometheus.Gauge
	feedClients   prometheus.Gauge
	mirrorErrors  prometheus.Counter
	controlEvents *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teleprompter",
			Name:      "questions_total",
			Help:      "Questions answered, by classified type.",
		}, []string{"type"}),
		answerCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teleprompter",
			Name:      "answer_cache_total",
			Help:      "Answer cache lookups, by result.",
		}, []string{"result"}),
		utterances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teleprompter",
			Name:      "utterances_total",
			Help:      "Capture loop iterations, by outcome.",
		}, []string{"outcome"}),
		sttRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teleprompter",
			Name:      "stt_requests_total",
			Help:      "Speech-to-text requests, by provider and result.",
		}, []string{"provider", "result"}),
		sttLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "teleprompter",
			Name:      "stt_request_seconds",
			Help:      "Speech-to-text latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16},
		}, []string{"provider"}),
		listening: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "teleprompter",
			Name:      "listening",
			Help:      "1 while the capture loop is running.",
		}),
		conversation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "teleprompter",
			Name:      "conversation_entries",
			Help:      "Entries in the session conversation log.",
		}),
		feedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "teleprompter",
			Name:      "feed_clients",
			Help:      "Connected WebSocket feed clients.",
		}),
		mirrorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "teleprompter",
			Name:      "mirror_errors_total",
			Help:      "Failed Redis mirror writes.",
		}),
		controlEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teleprompter",
			Name:      "control_commands_total",
			Help:      "Control commands, by command and source.",
		}, []string{"command", "source"}),
	}

	reg.MustRegister(
		m.questions, m.answerCache, m.utterances, m.sttRequests, m.sttLatency,
		m.listening, m.conversation, m.feedClients, m.mirrorErrors, m.controlEvents,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveQuestion(questionType string) {
	if m == nil {
		return
	}
	m.questions.WithLabelValues(questionType).Inc()
}

func (m *Metrics) ObserveAnswerCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.answerCache.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveUtterance(outcome string) {
	if m == nil {
		return
	}
	m.utterances.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSTT(provider string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	m.sttRequests.WithLabelValues(provider, result).Inc()
	m.sttLatency.WithLabelValues(provider).Observe(seconds)
}

func (m *Metrics) SetListening(on bool) {
	if m == nil {
		return
	}
	if on {
		m.listening.Set(1)
		return
	}
	m.listening.Set(0)
}

func (m *Metrics) SetConversationEntries(n int) {
	if m == nil {
		return
	}
	m.conversation.Set(float64(n))
}

func (m *Metrics) SetFeedClients(n int) {
	if m == nil {
		return
	}
	m.feedClients.Set(float64(n))
}

func (m *Metrics) IncMirrorErrors() {
	if m == nil {
		return
	}
	m.mirrorErrors.Inc()
}

func (m *Metrics) ObserveControl(command, source string) {
	if m == nil {
		return
	}
	m.controlEvents.WithLabelValues(command, source).Inc()
}
