package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/event"
)

const namespace = "quiz"

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	sessionsActive   prometheus.Gauge
	sessionsCreated  prometheus.Counter
	gamesFinished    *prometheus.CounterVec
	answers          *prometheus.CounterVec
	questionsSettled prometheus.Counter
	pointsAwarded    prometheus.Counter
	timerTicks       prometheus.Counter
	connections      prometheus.Gauge
	rejections       *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		sessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live quiz sessions.",
		}),
		sessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Quiz sessions created.",
		}),
		gamesFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games that reached the finished phase.",
		}, []string{"forced"}),
		answers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answer submissions by outcome.",
		}, []string{"result"}),
		questionsSettled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_settled_total",
			Help:      "Questions whose answer window closed and were scored.",
		}),
		pointsAwarded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_awarded_total",
			Help:      "Points awarded across all sessions.",
		}),
		timerTicks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timer_ticks_total",
			Help:      "Countdown ticks broadcast.",
		}),
		connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Open websocket connections.",
		}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_rejected_total",
			Help:      "Inbound commands rejected, by command.",
		}, []string{"command", "surfaced"}),
	}
}

func (m *Metrics) AnswerAccepted() {
	if m == nil {
		return
	}
	m.answers.WithLabelValues("accepted").Inc()
}

func (m *Metrics) AnswerRejected() {
	if m == nil {
		return
	}
	m.answers.WithLabelValues("rejected").Inc()
}

func (m *Metrics) Tick() {
	if m == nil {
		return
	}
	m.timerTicks.Inc()
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connections.Dec()
}

func (m *Metrics) CommandRejected(command string, surfaced bool) {
	if m == nil {
		return
	}
	label := "false"
	if surfaced {
		label = "true"
	}
	m.rejections.WithLabelValues(command, label).Inc()
}

// Observe updates the lifecycle collectors from bus events.
func (m *Metrics) Observe(_ context.Context, e event.Event) error {
	if m == nil {
		return nil
	}
	switch ev := e.(type) {
	case domain.EventSessionCreated:
		m.sessionsCreated.Inc()
		m.sessionsActive.Inc()
	case domain.EventSessionClosed:
		m.sessionsActive.Dec()
	case domain.EventQuestionSettled:
		m.questionsSettled.Inc()
		total := 0
		for _, pts := range ev.Settlement.Awards {
			total += pts
		}
		m.pointsAwarded.Add(float64(total))
	case domain.EventGameFinished:
		forced := "false"
		if ev.Forced {
			forced = "true"
		}
		m.gamesFinished.WithLabelValues(forced).Inc()
	}
	return nil
}
