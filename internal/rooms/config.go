package rooms

import "time"

type Config struct {
	// StartDelay lets both ready acknowledgements land before gameStart.
	StartDelay time.Duration
	// GracePeriod is how long a disconnected seat is held.
	GracePeriod time.Duration
	// CountdownInterval is the reconnectCountdown tick; timeLeft is counted in these units.
	CountdownInterval time.Duration
	SweepInterval     time.Duration
	EmptyRoomTTL      time.Duration
	MaxRoomAge        time.Duration
}

func DefaultConfig() Config {
	return Config{
		StartDelay:        500 * time.Millisecond,
		GracePeriod:       30 * time.Second,
		CountdownInterval: 1 * time.Second,
		SweepInterval:     10 * time.Minute,
		EmptyRoomTTL:      4 * time.Hour,
		MaxRoomAge:        8 * time.Hour,
	}
}

// graceTicks is the reconnectTimeLeft announced when a seat drops.
func (c Config) graceTicks() int {
	if c.CountdownInterval <= 0 {
		return 0
	}
	return int(c.GracePeriod / c.CountdownInterval)
}
