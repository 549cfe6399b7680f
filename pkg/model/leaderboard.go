package model

// LeaderboardEntry is one name/time row of a per-track leaderboard.
type LeaderboardEntry struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Time float64 `json:"time"`
}
