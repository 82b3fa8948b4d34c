package mlmapi

import "time"

// CronLevelState tracks one user's world-progression program at one job
// level: dormant until Started is set, running until Progress reaches the
// ladder's total days.
type CronLevelState struct {
	UserId    uint       `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	JobLevel  int        `json:"job_level" gorm:"primaryKey;autoIncrement:false"`
	Started   bool       `json:"started" gorm:"index"`
	StartedOn *time.Time `json:"started_on"`
	Progress  int        `json:"progress"` // days paid so far
	Income    float64    `json:"income"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CronIncomeLog is the per-day idempotency log: at most one row per
// (user, job level, calendar day), inserted set-if-absent.
type CronIncomeLog struct {
	UserId    uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	JobLevel  int       `json:"job_level" gorm:"primaryKey;autoIncrement:false"`
	Day       string    `json:"day" gorm:"primaryKey;size:10"` // "2006-01-02"
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Mark is the shared one-shot idempotency key used by the bonus-tier,
// team-business and roi-sweep engines: (entity, op, period) completes at
// most once, enforced by a conditional insert.
type Mark struct {
	Entity    string    `json:"entity" gorm:"primaryKey;size:40"`
	Op        string    `json:"op" gorm:"primaryKey;size:40"`
	Period    string    `json:"period" gorm:"primaryKey;size:40"`
	CreatedAt time.Time `json:"created_at"`
}
