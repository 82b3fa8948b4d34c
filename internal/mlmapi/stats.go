package mlmapi

import (
	"gorm.io/gorm"
)

// GetTeamStats aggregates a user's downward index into dashboard counters:
// direct team size and income from history rows, level team breakdown from
// paid rows.
func GetTeamStats(db *gorm.DB, user User) (teamStats TeamData) {
	var relations []Referral
	res := db.Where("referrer_id = ?", user.Id).Find(&relations)
	if res.RowsAffected > 0 {
		directCounter, levelCounter := uint(0), uint(0)
		directIncome, levelIncome := float64(0), float64(0)
		byLevel := map[int]*LevelData{}
		for _, relation := range relations {
			switch relation.Scope {
			case RefScopeHistory:
				directCounter++
			case RefScopePaid:
				levelCounter++
				levelIncome += relation.Reward
				if relation.Lvl == 0 {
					directIncome += relation.Reward
				}
				lvl, ok := byLevel[relation.Lvl]
				if !ok {
					lvl = &LevelData{Lvl: relation.Lvl}
					byLevel[relation.Lvl] = lvl
				}
				lvl.Counter++
				lvl.Reward += relation.Reward
			}
		}
		teamStats.DirectCounter = directCounter
		teamStats.LevelCounter = levelCounter
		teamStats.DirectIncome = directIncome
		teamStats.LevelIncome = levelIncome
		for lvl := 0; lvl < 20; lvl++ {
			if data, ok := byLevel[lvl]; ok {
				teamStats.ByLevel = append(teamStats.ByLevel, *data)
			}
		}
	}
	return teamStats
}

// CountWorldTeam is the size of the whole subscriber population that joined
// after the user did, the base the world-progression thresholds measure
// against.
func CountWorldTeam(db *gorm.DB, user User) (counter int64) {
	db.Model(&User{}).
		Where("subscribed = ? AND id <> ?", true, user.Id).
		Count(&counter)
	if user.WorldUsersOnSubscribe > 0 && counter > user.WorldUsersOnSubscribe {
		counter -= user.WorldUsersOnSubscribe
	}
	return counter
}
