package postgres

import "time"

type teamTableModel struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	ForumLink   string    `db:"forum_link"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type userTableModel struct {
	ID          string    `db:"id"`
	DisplayName string    `db:"display_name"`
	ForumName   string    `db:"forum_name"`
	Passkey     string    `db:"passkey"`
	Category    string    `db:"category"`
	HardwareID  string    `db:"hardware_id"`
	TeamID      string    `db:"team_id"`
	IsCaptain   bool      `db:"is_captain"`
	JoinOrder   int       `db:"join_order"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type hardwareTableModel struct {
	ID          string    `db:"id"`
	DisplayName string    `db:"display_name"`
	Multiplier  float64   `db:"multiplier"`
	AverageRank float64   `db:"average_rank"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type baselineTableModel struct {
	UserID     string    `db:"user_id"`
	Points     int64     `db:"points"`
	Units      int64     `db:"units"`
	CapturedAt time.Time `db:"captured_at"`
}

type offsetTableModel struct {
	UserID string `db:"user_id"`
	Points int64  `db:"points"`
	Units  int64  `db:"units"`
}

type latestRawTableModel struct {
	UserID string `db:"user_id"`
	Points int64  `db:"points"`
	Units  int64  `db:"units"`
}

type retiredTableModel struct {
	ID               string    `db:"id"`
	TeamID           string    `db:"team_id"`
	UserID           string    `db:"user_id"`
	DisplayName      string    `db:"display_name"`
	Points           int64     `db:"points"`
	MultipliedPoints int64     `db:"multiplied_points"`
	Units            int64     `db:"units"`
	RetiredAt        time.Time `db:"retired_at"`
}

type historicTableModel struct {
	UserID           string    `db:"user_id"`
	BucketAt         time.Time `db:"bucket_at"`
	Points           int64     `db:"points"`
	MultipliedPoints int64     `db:"multiplied_points"`
	Units            int64     `db:"units"`
}
