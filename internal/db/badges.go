package db

import "fmt"

// AwardBadge records a badge once per nickname. Repeat awards are ignored.
func (d *DB) AwardBadge(playerName, badgeID string, matchID *string) error {
	_, err := d.conn.Exec(`
		INSERT INTO player_badges (player_name, badge_id, match_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_name, badge_id) DO NOTHING
	`, playerName, badgeID, matchID)
	if err != nil {
		return fmt.Errorf("awarding badge: %w", err)
	}
	return nil
}

func (d *DB) GetPlayerBadges(playerName string) ([]string, error) {
	rows, err := d.conn.Query(`
		SELECT badge_id FROM player_badges WHERE player_name = $1 ORDER BY awarded_at
	`, playerName)
	if err != nil {
		return nil, fmt.Errorf("getting badges: %w", err)
	}
	defer rows.Close()

	var badges []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		badges = append(badges, id)
	}
	return badges, nil
}
