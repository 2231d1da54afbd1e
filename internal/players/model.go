package players

import (
	"strings"
	"time"
	"unicode/utf8"
)

const MaxNicknameLength = 24

// Player is one occupied seat. ConnID changes on reconnect; Seat never does.
type Player struct {
	ConnID           string
	Seat             int
	Nickname         string
	Ready            bool
	Connected        bool
	TempDisconnected bool
	JoinedAt         time.Time
	LastSeen         time.Time
	ReconnectedAt    *time.Time
}

// PublicPlayer is what peers are allowed to see about a seat.
type PublicPlayer struct {
	Seat             int        `json:"seat"`
	Nickname         string     `json:"nickname"`
	Ready            bool       `json:"ready"`
	Connected        bool       `json:"connected"`
	TempDisconnected bool       `json:"tempDisconnected"`
	LastSeen         time.Time  `json:"lastSeen"`
	ReconnectedAt    *time.Time `json:"reconnectedAt,omitempty"`
}

func (p *Player) Public() PublicPlayer {
	return PublicPlayer{
		Seat:             p.Seat,
		Nickname:         p.Nickname,
		Ready:            p.Ready,
		Connected:        p.Connected,
		TempDisconnected: p.TempDisconnected,
		LastSeen:         p.LastSeen,
		ReconnectedAt:    p.ReconnectedAt,
	}
}

// CleanNickname trims whitespace and caps the length in runes.
func CleanNickname(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= MaxNicknameLength {
		return name
	}
	return string([]rune(name)[:MaxNicknameLength])
}
