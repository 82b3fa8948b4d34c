package store

import (
	"context"
	"sort"
	"time"

	"fortuna/internal/mlmapi"
)

type refKey struct {
	referrer uint
	user     uint
	scope    string
	lvl      int
}

type cronKey struct {
	user uint
	lvl  int
}

type cronLogKey struct {
	user uint
	lvl  int
	day  string
}

type markKey struct {
	entity string
	op     string
	period string
}

type royaltyKey struct {
	user uint
	typ  string
	from int64
}

// Mem is the in-memory Store used by engine tests. It is not safe for
// concurrent use; Atomic gives the same all-or-nothing visibility as the
// gorm store by snapshotting state and restoring it when fn fails.
type Mem struct {
	users     map[uint]mlmapi.User
	refs      map[refKey]mlmapi.Referral
	cron      map[cronKey]mlmapi.CronLevelState
	cronLog   map[cronLogKey]mlmapi.CronIncomeLog
	marks     map[markKey]time.Time
	royalties map[uint]mlmapi.RoyaltyPaidHistory
	royaltyIx map[royaltyKey]uint
	admin     *mlmapi.Admin
	turnover  map[string]float64
	pending   map[uint]mlmapi.PendingSubscription
	approved  []mlmapi.ApprovedSubscription
	entries   []mlmapi.SubscriptionEntry

	nextRoyaltyId  uint
	nextPendingId  uint
	nextApprovedId uint
	nextEntryId    uint
}

func NewMem() *Mem {
	return &Mem{
		users:     map[uint]mlmapi.User{},
		refs:      map[refKey]mlmapi.Referral{},
		cron:      map[cronKey]mlmapi.CronLevelState{},
		cronLog:   map[cronLogKey]mlmapi.CronIncomeLog{},
		marks:     map[markKey]time.Time{},
		royalties: map[uint]mlmapi.RoyaltyPaidHistory{},
		royaltyIx: map[royaltyKey]uint{},
		turnover:  map[string]float64{},
		pending:   map[uint]mlmapi.PendingSubscription{},
	}
}

// PutUser seeds or replaces a user row. Test helper.
func (s *Mem) PutUser(u mlmapi.User) {
	s.users[u.Id] = u
}

// PutAdmin seeds the admin singleton. Test helper.
func (s *Mem) PutAdmin(a mlmapi.Admin) {
	s.admin = &a
}

// PutPendingSubscription seeds a pending payment proof. Test helper.
func (s *Mem) PutPendingSubscription(p mlmapi.PendingSubscription) {
	if p.Id == 0 {
		s.nextPendingId++
		p.Id = s.nextPendingId
	}
	s.pending[p.UserId] = p
}

// Turnover reports the recorded turnover for a day. Test helper.
func (s *Mem) Turnover(day string) float64 {
	return s.turnover[day]
}

// SubscriptionEntries lists a user's subscription history. Test helper.
func (s *Mem) SubscriptionEntries(userId uint) (out []mlmapi.SubscriptionEntry) {
	for _, e := range s.entries {
		if e.UserId == userId {
			out = append(out, e)
		}
	}
	return out
}

func (s *Mem) clone() *Mem {
	c := NewMem()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.refs {
		c.refs[k] = v
	}
	for k, v := range s.cron {
		c.cron[k] = v
	}
	for k, v := range s.cronLog {
		c.cronLog[k] = v
	}
	for k, v := range s.marks {
		c.marks[k] = v
	}
	for k, v := range s.royalties {
		c.royalties[k] = v
	}
	for k, v := range s.royaltyIx {
		c.royaltyIx[k] = v
	}
	for k, v := range s.turnover {
		c.turnover[k] = v
	}
	for k, v := range s.pending {
		c.pending[k] = v
	}
	if s.admin != nil {
		admin := *s.admin
		c.admin = &admin
	}
	c.approved = append(c.approved, s.approved...)
	c.entries = append(c.entries, s.entries...)
	c.nextRoyaltyId = s.nextRoyaltyId
	c.nextPendingId = s.nextPendingId
	c.nextApprovedId = s.nextApprovedId
	c.nextEntryId = s.nextEntryId
	return c
}

func (s *Mem) restore(from *Mem) {
	*s = *from
}

func (s *Mem) Atomic(ctx context.Context, fn func(Store) error) error {
	snapshot := s.clone()
	if err := fn(s); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

func (s *Mem) UserByID(ctx context.Context, id uint) (*mlmapi.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *Mem) UserByCode(ctx context.Context, code string) (*mlmapi.User, error) {
	for _, user := range s.users {
		if user.ReferralCode == code {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Mem) SaveUser(ctx context.Context, u *mlmapi.User) error {
	s.users[u.Id] = *u
	return nil
}

func (s *Mem) CreditUser(ctx context.Context, id uint, d Delta) error {
	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	Apply(&user, d)
	s.users[id] = user
	return nil
}

func (s *Mem) SetSubscribed(ctx context.Context, id uint, subscribed bool) error {
	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.Subscribed = subscribed
	s.users[id] = user
	return nil
}

func (s *Mem) Users(ctx context.Context) (users []mlmapi.User, err error) {
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Id < users[j].Id })
	return users, nil
}

func (s *Mem) SubscribedInvestors(ctx context.Context) (users []mlmapi.User, err error) {
	for _, user := range s.users {
		if user.Subscribed && user.LastInvestmentOn != nil {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Id < users[j].Id })
	return users, nil
}

func (s *Mem) CountSubscribed(ctx context.Context) (counter int64, err error) {
	for _, user := range s.users {
		if user.Subscribed {
			counter++
		}
	}
	return counter, nil
}

func (s *Mem) AddReferral(ctx context.Context, r mlmapi.Referral) (bool, error) {
	key := refKey{referrer: r.ReferrerId, user: r.UserId, scope: r.Scope, lvl: r.Lvl}
	if _, ok := s.refs[key]; ok {
		return false, nil
	}
	s.refs[key] = r
	return true, nil
}

func (s *Mem) CountReferrals(ctx context.Context, referrerId uint, scope string, lvl int) (counter int64, err error) {
	for key := range s.refs {
		if key.referrer == referrerId && key.scope == scope && (lvl < 0 || key.lvl == lvl) {
			counter++
		}
	}
	return counter, nil
}

func (s *Mem) CountDirectsBetween(ctx context.Context, referrerId uint, from, to time.Time) (counter int64, err error) {
	for key, r := range s.refs {
		if key.referrer != referrerId || key.scope != mlmapi.RefScopeHistory {
			continue
		}
		if !r.JoinedAt.Before(from) && !r.JoinedAt.After(to) {
			counter++
		}
	}
	return counter, nil
}

func (s *Mem) DirectTeam(ctx context.Context, referrerId uint) (team []mlmapi.Referral, err error) {
	for key, r := range s.refs {
		if key.referrer == referrerId && key.scope == mlmapi.RefScopeHistory {
			team = append(team, r)
		}
	}
	sort.Slice(team, func(i, j int) bool { return team[i].JoinedAt.Before(team[j].JoinedAt) })
	return team, nil
}

func (s *Mem) CronState(ctx context.Context, userId uint, jobLevel int) (*mlmapi.CronLevelState, error) {
	state, ok := s.cron[cronKey{user: userId, lvl: jobLevel}]
	if !ok {
		return nil, ErrNotFound
	}
	return &state, nil
}

func (s *Mem) SaveCronState(ctx context.Context, st *mlmapi.CronLevelState) error {
	s.cron[cronKey{user: st.UserId, lvl: st.JobLevel}] = *st
	return nil
}

func (s *Mem) RunningCronStates(ctx context.Context) (states []mlmapi.CronLevelState, err error) {
	for _, state := range s.cron {
		if state.Started {
			states = append(states, state)
		}
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].UserId != states[j].UserId {
			return states[i].UserId < states[j].UserId
		}
		return states[i].JobLevel < states[j].JobLevel
	})
	return states, nil
}

func (s *Mem) LogCronIncome(ctx context.Context, log mlmapi.CronIncomeLog) (bool, error) {
	key := cronLogKey{user: log.UserId, lvl: log.JobLevel, day: log.Day}
	if _, ok := s.cronLog[key]; ok {
		return false, nil
	}
	s.cronLog[key] = log
	return true, nil
}

func (s *Mem) SetMark(ctx context.Context, entity, op, period string) (bool, error) {
	key := markKey{entity: entity, op: op, period: period}
	if _, ok := s.marks[key]; ok {
		return false, nil
	}
	s.marks[key] = time.Now()
	return true, nil
}

func (s *Mem) HasMark(ctx context.Context, entity, op, period string) (bool, error) {
	_, ok := s.marks[markKey{entity: entity, op: op, period: period}]
	return ok, nil
}

func (s *Mem) Admin(ctx context.Context) (*mlmapi.Admin, error) {
	if s.admin == nil {
		return nil, ErrNotFound
	}
	admin := *s.admin
	return &admin, nil
}

func (s *Mem) SetRoiSweepDay(ctx context.Context, day string) error {
	if s.admin == nil {
		return ErrNotFound
	}
	s.admin.LastRoiSweepDay = day
	return nil
}

func (s *Mem) AddTurnover(ctx context.Context, day string, amount float64) error {
	if s.admin == nil {
		return ErrNotFound
	}
	s.admin.CompanyTurnover += amount
	s.turnover[day] += amount
	return nil
}

func (s *Mem) AddRoyalty(ctx context.Context, h *mlmapi.RoyaltyPaidHistory) (bool, error) {
	key := royaltyKey{user: h.UserId, typ: h.RoyaltyType, from: h.DateFrom.Unix()}
	if _, ok := s.royaltyIx[key]; ok {
		return false, nil
	}
	s.nextRoyaltyId++
	h.Id = s.nextRoyaltyId
	s.royalties[h.Id] = *h
	s.royaltyIx[key] = h.Id
	return true, nil
}

func (s *Mem) RoyaltyByID(ctx context.Context, id uint) (*mlmapi.RoyaltyPaidHistory, error) {
	history, ok := s.royalties[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &history, nil
}

func (s *Mem) SaveRoyalty(ctx context.Context, h *mlmapi.RoyaltyPaidHistory) error {
	s.royalties[h.Id] = *h
	return nil
}

func (s *Mem) RoyaltiesByUser(ctx context.Context, userId uint) (history []mlmapi.RoyaltyPaidHistory, err error) {
	for _, h := range s.royalties {
		if h.UserId == userId {
			history = append(history, h)
		}
	}
	sort.Slice(history, func(i, j int) bool { return history[i].DateFrom.Before(history[j].DateFrom) })
	return history, nil
}

func (s *Mem) PendingSubscriptionByUser(ctx context.Context, userId uint) (*mlmapi.PendingSubscription, error) {
	pending, ok := s.pending[userId]
	if !ok {
		return nil, ErrNotFound
	}
	return &pending, nil
}

func (s *Mem) DeletePendingSubscription(ctx context.Context, id uint) error {
	for userId, pending := range s.pending {
		if pending.Id == id {
			delete(s.pending, userId)
			return nil
		}
	}
	return nil
}

func (s *Mem) AddApprovedSubscription(ctx context.Context, sub *mlmapi.ApprovedSubscription) error {
	s.nextApprovedId++
	sub.Id = s.nextApprovedId
	s.approved = append(s.approved, *sub)
	return nil
}

func (s *Mem) AddSubscriptionEntry(ctx context.Context, e *mlmapi.SubscriptionEntry) error {
	s.nextEntryId++
	e.Id = s.nextEntryId
	s.entries = append(s.entries, *e)
	return nil
}
