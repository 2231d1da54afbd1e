package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rooms_active",
		Help: "Rooms currently registered.",
	})
	RoomsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rooms_swept_total",
		Help: "Rooms reclaimed by the idle sweep.",
	})
	MatchesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matches_finished_total",
		Help: "Matches that reached a winner, by end reason.",
	}, []string{"reason"})
	Guesses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guesses_total",
		Help: "Accepted guesses.",
	})
	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconnects_total",
		Help: "Seats rebound to a new connection.",
	})
	GraceExpiries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grace_expiries_total",
		Help: "Seats released after their reconnect window ran out.",
	})
)
