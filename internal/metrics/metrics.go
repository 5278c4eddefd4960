// Package metrics exposes nimd's runtime counters through the standard
// Prometheus client, served over HTTP alongside the game listener.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the registered collectors. A nil *Recorder is safe to
// call methods on (they become no-ops), so components can be built
// without metrics wired in for tests.
type Recorder struct {
	connections    prometheus.Gauge
	sessionsActive prometheus.Gauge
	gamesStarted   prometheus.Counter
	gamesEnded     *prometheus.CounterVec
	failsSent      *prometheus.CounterVec
}

// New registers nimd's collectors against a fresh registry and returns
// a Recorder plus the http.Handler that serves them.
func New() (*Recorder, http.Handler) {
	reg := prometheus.NewRegistry()

	r := &Recorder{
		connections: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "nimd_connections_open",
			Help: "Number of currently open client connections.",
		}),
		sessionsActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "nimd_sessions_active",
			Help: "Number of registry sessions not in AWAITING_FIRST_PLAYER.",
		}),
		gamesStarted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "nimd_games_started_total",
			Help: "Number of games that reached P1_TURN.",
		}),
		gamesEnded: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "nimd_games_ended_total",
			Help: "Number of games that reached GAME_OVER, labeled by cause.",
		}, []string{"cause"}),
		failsSent: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "nimd_fail_sent_total",
			Help: "Number of FAIL messages sent, labeled by code.",
		}, []string{"code"}),
	}

	return r, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (r *Recorder) ConnectionOpened() {
	if r == nil {
		return
	}
	r.connections.Inc()
}

func (r *Recorder) ConnectionClosed() {
	if r == nil {
		return
	}
	r.connections.Dec()
}

func (r *Recorder) SessionActive() {
	if r == nil {
		return
	}
	r.sessionsActive.Inc()
}

func (r *Recorder) SessionIdle() {
	if r == nil {
		return
	}
	r.sessionsActive.Dec()
}

func (r *Recorder) GameStarted() {
	if r == nil {
		return
	}
	r.gamesStarted.Inc()
}

// GameEnded records a completed game. cause is "win" or "forfeit".
func (r *Recorder) GameEnded(cause string) {
	if r == nil {
		return
	}
	r.gamesEnded.WithLabelValues(cause).Inc()
}

// FailSent records a FAIL message of the given numeric code.
func (r *Recorder) FailSent(code int) {
	if r == nil {
		return
	}
	r.failsSent.WithLabelValues(strconv.Itoa(code)).Inc()
}
