package mlmapi

import "time"

// Referral scopes. "history" rows are the direct-join log royalty windows
// count against, "paid" rows carry level-income attribution, "all" rows are
// the signup-time index for the first three levels.
const (
	RefScopeHistory = "history"
	RefScopePaid    = "paid"
	RefScopeAll     = "all"
)

// Referral is one edge of the downward index. The composite primary key
// makes concurrent inserts dedup at the store instead of in memory.
type Referral struct {
	CreatedAt  time.Time `json:"created_at"`
	ReferrerId uint      `json:"referrer_id" gorm:"primaryKey;autoIncrement:false"` // ancestor whose bucket this row lives in
	UserId     uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false"`     // descendant being indexed
	Scope      string    `json:"scope" gorm:"primaryKey;size:16"`
	Lvl        int       `json:"lvl" gorm:"primaryKey;autoIncrement:false"` // 0 = direct
	UserName   string    `json:"user_name"`
	UserCode   string    `json:"user_code"`
	Reward     float64   `json:"reward"` // level income credited through this edge
	JoinedAt   time.Time `json:"joined_at"`
}

type TeamData struct {
	DirectCounter uint        `json:"direct_counter"`
	LevelCounter  uint        `json:"level_counter"`
	WorldCounter  uint        `json:"world_counter"`
	DirectIncome  float64     `json:"direct_income"`
	LevelIncome   float64     `json:"level_income"`
	ByLevel       []LevelData `json:"by_level"`
}

type LevelData struct {
	Lvl     int     `json:"lvl"`
	Counter uint    `json:"counter"`
	Reward  float64 `json:"reward"`
}
