package analytics

import (
	"testing"
	"time"

	"github.com/monkichi27/number-guessing-game/internal/db"
)

func TestEvaluateMatchBadges_FirstTry(t *testing.T) {
	stats := PlayerMatchStats{Won: true, EndReason: "solved", Guesses: 1}
	badges := EvaluateMatchBadges(stats)
	if !hasBadge(badges, BadgeFirstTry) {
		t.Error("should earn First Try when solved with one guess")
	}
	if !hasBadge(badges, BadgeSharpshooter) {
		t.Error("a first-try solve is also within 5 guesses")
	}
}

func TestEvaluateMatchBadges_Sharpshooter(t *testing.T) {
	stats := PlayerMatchStats{Won: true, EndReason: "solved", Guesses: 5}
	badges := EvaluateMatchBadges(stats)
	if !hasBadge(badges, BadgeSharpshooter) {
		t.Error("should earn Sharpshooter with 5 guesses")
	}
	if hasBadge(badges, BadgeFirstTry) {
		t.Error("should not earn First Try with 5 guesses")
	}
}

func TestEvaluateMatchBadges_NoSharpshooter(t *testing.T) {
	stats := PlayerMatchStats{Won: true, EndReason: "solved", Guesses: 6}
	badges := EvaluateMatchBadges(stats)
	if hasBadge(badges, BadgeSharpshooter) {
		t.Error("should not earn Sharpshooter with 6 guesses")
	}
}

func TestEvaluateMatchBadges_Survivor(t *testing.T) {
	stats := PlayerMatchStats{Won: true, EndReason: "opponent_timeout", Guesses: 2}
	badges := EvaluateMatchBadges(stats)
	if !hasBadge(badges, BadgeSurvivor) {
		t.Error("should earn Survivor on an opponent timeout")
	}
	if hasBadge(badges, BadgeSharpshooter) {
		t.Error("a timeout win is not a solve")
	}
}

func TestEvaluateMatchBadges_SoClose(t *testing.T) {
	stats := PlayerMatchStats{Won: false, EndReason: "solved", Guesses: 4, BestPosition: 3}
	badges := EvaluateMatchBadges(stats)
	if !hasBadge(badges, BadgeSoClose) {
		t.Error("should earn So Close after losing with 3 bulls")
	}
}

func TestEvaluateMatchBadges_NoBadges(t *testing.T) {
	stats := PlayerMatchStats{Won: false, EndReason: "solved", Guesses: 8, BestPosition: 2}
	badges := EvaluateMatchBadges(stats)
	if len(badges) != 0 {
		t.Errorf("should earn no badges, got %d", len(badges))
	}
}

func TestEvaluateLifetimeBadges_Unstoppable(t *testing.T) {
	stats := PlayerLifetimeStats{WinStreak: 3}
	badges := EvaluateLifetimeBadges(stats)
	if !hasBadge(badges, BadgeUnstoppable) {
		t.Error("should earn Unstoppable with 3-match win streak")
	}
}

func TestEvaluateLifetimeBadges_NoUnstoppable(t *testing.T) {
	stats := PlayerLifetimeStats{WinStreak: 2}
	badges := EvaluateLifetimeBadges(stats)
	if hasBadge(badges, BadgeUnstoppable) {
		t.Error("should not earn Unstoppable with 2-match win streak")
	}
}

func TestEvaluateLifetimeBadges_Veteran(t *testing.T) {
	stats := PlayerLifetimeStats{MatchesPlayed: 10}
	badges := EvaluateLifetimeBadges(stats)
	if !hasBadge(badges, BadgeVeteran) {
		t.Error("should earn Veteran with 10 matches")
	}
}

func TestEvaluateLifetimeBadges_NoVeteran(t *testing.T) {
	stats := PlayerLifetimeStats{MatchesPlayed: 9}
	badges := EvaluateLifetimeBadges(stats)
	if hasBadge(badges, BadgeVeteran) {
		t.Error("should not earn Veteran with 9 matches")
	}
}

func TestMatchStats(t *testing.T) {
	now := time.Now()
	m := db.MatchRecord{
		WinnerSeat: 2,
		WinnerName: "Bob",
		LoserName:  "Alice",
		EndReason:  "solved",
		EndedAt:    now,
		Guesses: []db.GuessRow{
			{Turn: 1, Seat: 1, PlayerName: "Alice", Guess: "5670", CorrectPosition: 3, CorrectNumber: 3},
			{Turn: 2, Seat: 2, PlayerName: "Bob", Guess: "1234", CorrectPosition: 4, CorrectNumber: 4},
		},
	}

	stats := MatchStats(m)
	if len(stats) != 2 {
		t.Fatalf("got %d entries, want 2", len(stats))
	}
	alice, bob := stats[0], stats[1]
	if alice.PlayerName != "Alice" || alice.Won || alice.Guesses != 1 || alice.BestPosition != 3 {
		t.Errorf("alice = %+v", alice)
	}
	if bob.PlayerName != "Bob" || !bob.Won || bob.Guesses != 1 {
		t.Errorf("bob = %+v", bob)
	}
	if !hasBadge(EvaluateMatchBadges(bob), BadgeFirstTry) {
		t.Error("bob solved with the opening guess")
	}
	if !hasBadge(EvaluateMatchBadges(alice), BadgeSoClose) {
		t.Error("alice lost with 3 bulls")
	}
}

func TestMatchStats_ForfeitWithoutOpponentName(t *testing.T) {
	m := db.MatchRecord{WinnerSeat: 1, WinnerName: "Alice", EndReason: "opponent_timeout"}

	stats := MatchStats(m)
	if len(stats) != 1 || stats[0].PlayerName != "Alice" || !stats[0].Won {
		t.Errorf("stats = %+v, want only the winner", stats)
	}
}
