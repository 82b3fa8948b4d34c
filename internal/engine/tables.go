package engine

import "math"

const (
	// CodePrefix and RootCode define the referral code scheme. The root
	// account terminates every upward walk.
	CodePrefix = "FTR"
	RootCode   = "FTR000001"

	// SignupIndexDepth is how many ancestor buckets a new signup is
	// indexed into immediately; deeper levels are filled at approval time.
	SignupIndexDepth = 3

	// DirectIncome is the flat bonus the immediate sponsor earns on a
	// user's first approved investment, on top of the level share.
	DirectIncome = 1.0

	// RoiCapMultiple caps cumulative ROI against one investment.
	RoiCapMultiple = 2.0

	RenewalThreshold = 18.0
	RenewalFee       = 6.0
	RenewalReserve   = 12.0

	RoyaltyWeekDirects    = 5
	RoyaltyTenDaysDirects = 10
	RoyaltyWeekDays       = 7
	RoyaltyWindowDays     = 10

	codeAttempts = 25
)

// LevelIncomeShare maps upline level to the fraction of a first investment
// paid as level income. Level 0 is the direct sponsor.
var LevelIncomeShare = []float64{0.10, 0.05, 0.04, 0.03, 0.02, 0.01, 0.01, 0.01, 0.01, 0.01}

// CronLevel is one rung of the world-progression ladder: the program at a
// job level starts once the subscriber population grew by WorldUsers since
// the user subscribed and the user holds Directs direct referrals, then
// pays RewardPerDay for TotalDays calendar days.
type CronLevel struct {
	WorldUsers   int64
	Directs      int64
	RewardPerDay float64
	TotalDays    int
}

var CronLadder = []CronLevel{
	{WorldUsers: 25, Directs: 1, RewardPerDay: 0.25, TotalDays: 60},
	{WorldUsers: 145, Directs: 3, RewardPerDay: 0.4, TotalDays: 60},
	{WorldUsers: 495, Directs: 7, RewardPerDay: 0.8, TotalDays: 60},
	{WorldUsers: 1520, Directs: 11, RewardPerDay: 1, TotalDays: 60},
	{WorldUsers: 2970, Directs: 15, RewardPerDay: 2, TotalDays: 60},
	{WorldUsers: 5045, Directs: 19, RewardPerDay: 3, TotalDays: 60},
	{WorldUsers: 8595, Directs: 23, RewardPerDay: 5, TotalDays: 60},
	{WorldUsers: 14445, Directs: 27, RewardPerDay: 8, TotalDays: 60},
	{WorldUsers: 24445, Directs: 31, RewardPerDay: 12, TotalDays: 60},
	{WorldUsers: 44445, Directs: 35, RewardPerDay: 15, TotalDays: 60},
}

type RoiBand struct {
	Min  float64
	Max  float64
	Rate float64
}

var RoiBands = []RoiBand{
	{Min: 100, Max: 1000, Rate: 0.04},
	{Min: 1000, Max: 5000, Rate: 0.05},
	{Min: 5000, Max: math.Inf(1), Rate: 0.06},
}

// DailyRoiRate returns the daily accrual rate for an investment size, or 0
// when the investment is below the smallest band.
func DailyRoiRate(amount float64) float64 {
	for _, band := range RoiBands {
		if amount >= band.Min && amount < band.Max {
			return band.Rate
		}
	}
	return 0
}

// RoiCascadeShare maps upline level to the fraction of a day's uncapped ROI
// cascaded to that sponsor.
var RoiCascadeShare = []float64{
	0.10, 0.09, 0.08, 0.07, 0.06,
	0.05, 0.04, 0.04, 0.03, 0.03,
	0.02, 0.02, 0.02, 0.02, 0.02,
	0.01, 0.01, 0.01, 0.01, 0.01,
}

// BonusTier is a [Min,Max) direct-team-size range paying a flat one-shot
// bonus. Flag keys the one-shot mark.
type BonusTier struct {
	Min   int64
	Max   int64
	Bonus float64
	Flag  string
}

var ReferBonusTiers = []BonusTier{
	{Min: 30, Max: math.MaxInt64, Bonus: 50, Flag: "tier-30"},
	{Min: 20, Max: 30, Bonus: 25, Flag: "tier-20"},
	{Min: 10, Max: 20, Bonus: 10, Flag: "tier-10"},
}

// MatchBonusTier returns the tier containing count, scanning descending.
func MatchBonusTier(count int64) (BonusTier, bool) {
	for _, tier := range ReferBonusTiers {
		if count >= tier.Min && count < tier.Max {
			return tier, true
		}
	}
	return BonusTier{}, false
}

// BusinessTier pays Reward once when the user's own overall income, the
// direct team's aggregate, and one direct leg at half threshold all reach
// Threshold.
type BusinessTier struct {
	Threshold float64
	Reward    float64
}

// TeamBusinessLadder is scanned descending; the highest qualifying unpaid
// tier wins.
var TeamBusinessLadder = []BusinessTier{
	{Threshold: 100000, Reward: 5000},
	{Threshold: 75000, Reward: 3750},
	{Threshold: 50000, Reward: 2500},
	{Threshold: 25000, Reward: 1250},
	{Threshold: 10000, Reward: 500},
	{Threshold: 5000, Reward: 250},
	{Threshold: 2500, Reward: 125},
	{Threshold: 1000, Reward: 50},
	{Threshold: 500, Reward: 20},
	{Threshold: 250, Reward: 10},
}
