package analytics

import "github.com/monkichi27/number-guessing-game/internal/db"

type BadgeID string

const (
	BadgeFirstTry     BadgeID = "first_try"
	BadgeSharpshooter BadgeID = "sharpshooter"
	BadgeSurvivor     BadgeID = "survivor"
	BadgeSoClose      BadgeID = "so_close"
	BadgeUnstoppable  BadgeID = "unstoppable"
	BadgeVeteran      BadgeID = "veteran"
)

type Badge struct {
	ID          BadgeID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

var AllBadges = map[BadgeID]Badge{
	BadgeFirstTry:     {ID: BadgeFirstTry, Name: "First Try", Description: "Cracked the code with your first guess", Icon: "🎯"},
	BadgeSharpshooter: {ID: BadgeSharpshooter, Name: "Sharpshooter", Description: "Cracked the code within 5 guesses", Icon: "🏹"},
	BadgeSurvivor:     {ID: BadgeSurvivor, Name: "Survivor", Description: "Outlasted an opponent who never came back", Icon: "🛡️"},
	BadgeSoClose:      {ID: BadgeSoClose, Name: "So Close", Description: "Lost with 3 digits in place", Icon: "😬"},
	BadgeUnstoppable:  {ID: BadgeUnstoppable, Name: "Unstoppable", Description: "3-match win streak", Icon: "🔥"},
	BadgeVeteran:      {ID: BadgeVeteran, Name: "Veteran", Description: "Played 10+ matches", Icon: "🏅"},
}

// MatchStats splits a finished match into per-seat stats. A seat that was
// released before the end and never guessed has no name and is skipped.
func MatchStats(m db.MatchRecord) []PlayerMatchStats {
	bySeat := map[int]*PlayerMatchStats{
		1: {Seat: 1},
		2: {Seat: 2},
	}
	for _, g := range m.Guesses {
		s, ok := bySeat[g.Seat]
		if !ok {
			continue
		}
		s.PlayerName = g.PlayerName
		s.Guesses++
		if g.CorrectPosition > s.BestPosition {
			s.BestPosition = g.CorrectPosition
		}
	}

	winner := bySeat[m.WinnerSeat]
	if winner == nil {
		return nil
	}
	winner.PlayerName = m.WinnerName
	winner.Won = true
	loserSeat := 1
	if m.WinnerSeat == 1 {
		loserSeat = 2
	}
	if m.LoserName != "" {
		bySeat[loserSeat].PlayerName = m.LoserName
	}

	var out []PlayerMatchStats
	for _, seat := range []int{1, 2} {
		s := bySeat[seat]
		if s.PlayerName == "" {
			continue
		}
		s.EndReason = m.EndReason
		out = append(out, *s)
	}
	return out
}

// EvaluateMatchBadges checks which badges a player earned in a single match.
func EvaluateMatchBadges(stats PlayerMatchStats) []Badge {
	var earned []Badge

	solved := stats.Won && stats.EndReason == "solved"

	// First Try: solved with the opening guess
	if solved && stats.Guesses == 1 {
		earned = append(earned, AllBadges[BadgeFirstTry])
	}

	// Sharpshooter: solved within 5 own guesses
	if solved && stats.Guesses <= 5 {
		earned = append(earned, AllBadges[BadgeSharpshooter])
	}

	// Survivor: won on an opponent timeout
	if stats.Won && stats.EndReason == "opponent_timeout" {
		earned = append(earned, AllBadges[BadgeSurvivor])
	}

	// So Close: lost after landing 3 bulls
	if !stats.Won && stats.BestPosition == 3 {
		earned = append(earned, AllBadges[BadgeSoClose])
	}

	return earned
}

// EvaluateLifetimeBadges checks which badges a player earned across their career.
func EvaluateLifetimeBadges(stats PlayerLifetimeStats) []Badge {
	var earned []Badge

	// Unstoppable: 3-match win streak
	if stats.WinStreak >= 3 {
		earned = append(earned, AllBadges[BadgeUnstoppable])
	}

	// Veteran: 10+ matches
	if stats.MatchesPlayed >= 10 {
		earned = append(earned, AllBadges[BadgeVeteran])
	}

	return earned
}
