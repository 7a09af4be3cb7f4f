package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"ekehi_engine/internal/domain"

	"github.com/google/uuid"
)

// MemoryStore keeps every engine table in process memory. It backs local
// development without DATABASE_URL and the service tests. All methods are safe for
// concurrent use and give the same guarantees as the Postgres stores.
type MemoryStore struct {
	mu sync.Mutex

	profiles  map[int64]*domain.UserProfile
	codes     map[string]int64
	todayDate map[int64]string

	sessions map[int64]*domain.MiningSession

	achievements map[string]*domain.Achievement
	claims       map[int64]map[string]*domain.UserAchievementClaim
	submissions  map[string]*domain.SocialSubmission
	submissionOf map[int64]map[string]string

	referrals []*domain.Referral
	purchases map[string]*domain.PresalePurchase
	ledger    []*domain.Transaction
	audit     []*domain.AuditLog
	auditSeq  int64

	writeErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:     make(map[int64]*domain.UserProfile),
		codes:        make(map[string]int64),
		todayDate:    make(map[int64]string),
		sessions:     make(map[int64]*domain.MiningSession),
		achievements: make(map[string]*domain.Achievement),
		claims:       make(map[int64]map[string]*domain.UserAchievementClaim),
		submissions:  make(map[string]*domain.SocialSubmission),
		submissionOf: make(map[int64]map[string]string),
		purchases:    make(map[string]*domain.PresalePurchase),
	}
}

// FailWrites makes every following write return err (nil restores normal operation).
func (s *MemoryStore) FailWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

// SeedAchievements replaces the catalog.
func (s *MemoryStore) SeedAchievements(list ...*domain.Achievement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.achievements = make(map[string]*domain.Achievement, len(list))
	for _, a := range list {
		cp := *a
		s.achievements[a.ID] = &cp
	}
}

func cloneProfile(p *domain.UserProfile) *domain.UserProfile {
	cp := *p
	if p.LastLoginDate != nil {
		t := *p.LastLoginDate
		cp.LastLoginDate = &t
	}
	if p.ReferredBy != nil {
		r := *p.ReferredBy
		cp.ReferredBy = &r
	}
	return &cp
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ---- profiles ----

func (s *MemoryStore) GetProfile(_ context.Context, userID int64) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

func (s *MemoryStore) CreateProfileIfAbsent(_ context.Context, p *domain.UserProfile) (*domain.UserProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.profiles[p.UserID]; ok {
		return cloneProfile(existing), false, nil
	}
	if s.writeErr != nil {
		return nil, false, s.writeErr
	}

	stored := cloneProfile(p)
	if stored.ReferralCode == "" {
		for {
			code := GenerateReferralCode()
			if _, taken := s.codes[code]; !taken {
				stored.ReferralCode = code
				break
			}
		}
	}
	s.profiles[stored.UserID] = stored
	s.codes[stored.ReferralCode] = stored.UserID
	s.todayDate[stored.UserID] = dayKey(stored.CreatedAt)
	return cloneProfile(stored), true, nil
}

func (s *MemoryStore) GetProfileByReferralCode(_ context.Context, code string) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.codes[code]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return cloneProfile(s.profiles[id]), nil
}

func (s *MemoryStore) credit(userID int64, c domain.Credit, at time.Time) (*domain.UserProfile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	if c.AddToday {
		if key := c.DayKey(at); s.todayDate[userID] < key {
			p.TodayEarnings = 0
			s.todayDate[userID] = key
		}
	}
	c.Apply(p)
	p.UpdatedAt = at
	s.ledger = append(s.ledger, domain.TransactionFromCredit(uuid.NewString(), userID, c, at))
	return cloneProfile(p), nil
}

func (s *MemoryStore) Credit(_ context.Context, userID int64, c domain.Credit, at time.Time) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	return s.credit(userID, c, at)
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func (s *MemoryStore) ApplyStreak(_ context.Context, userID int64, expectedLast *time.Time, upd domain.StreakUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return false, s.writeErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return false, domain.ErrProfileNotFound
	}
	if !sameInstant(p.LastLoginDate, expectedLast) {
		return false, nil
	}
	upd.Apply(p)
	p.UpdatedAt = upd.LastLoginDate
	if upd.Bonus > 0 {
		s.ledger = append(s.ledger, domain.TransactionFromCredit(uuid.NewString(), userID, domain.Credit{
			Source: domain.SourceStreakBonus,
			Amount: upd.Bonus,
			Meta:   map[string]any{"streak": upd.CurrentStreak},
		}, upd.LastLoginDate))
	}
	return true, nil
}

func (s *MemoryStore) SetCoinsPerSecond(_ context.Context, userID int64, rate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.CoinsPerSecond = rate
	return nil
}

func (s *MemoryStore) sortedProfiles() []*domain.UserProfile {
	list := make([]*domain.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].TotalCoins != list[j].TotalCoins {
			return list[i].TotalCoins > list[j].TotalCoins
		}
		return list[i].UserID < list[j].UserID
	})
	return list
}

func (s *MemoryStore) TopByCoins(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.sortedProfiles()
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	res := make([]domain.LeaderboardEntry, 0, len(list))
	for i, p := range list {
		res = append(res, domain.LeaderboardEntry{
			Rank:           i + 1,
			UserID:         p.UserID,
			Username:       p.Username,
			TotalCoins:     p.TotalCoins,
			CurrentStreak:  p.CurrentStreak,
			TotalReferrals: p.TotalReferrals,
		})
	}
	return res, nil
}

func (s *MemoryStore) RankByCoins(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return 0, domain.ErrProfileNotFound
	}
	rank := 1
	for _, other := range s.profiles {
		if other.TotalCoins > p.TotalCoins {
			rank++
		}
	}
	return rank, nil
}

func (s *MemoryStore) ResetTodayEarnings(_ context.Context, day time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	key := dayKey(day)
	var n int64
	for id, p := range s.profiles {
		if s.todayDate[id] < key {
			p.TodayEarnings = 0
			s.todayDate[id] = key
			n++
		}
	}
	return n, nil
}

// ---- sessions ----

func (s *MemoryStore) GetSession(_ context.Context, userID int64) (*domain.MiningSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (s *MemoryStore) CreateSession(_ context.Context, sess *domain.MiningSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	if existing, ok := s.sessions[sess.UserID]; ok && !existing.FinalRewardClaimed {
		return domain.ErrSessionActive
	}
	cp := *sess
	s.sessions[sess.UserID] = &cp
	return nil
}

func (s *MemoryStore) ClaimSession(_ context.Context, userID int64, sessionID string, c domain.Credit, at time.Time) (bool, *domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return false, nil, s.writeErr
	}
	sess, ok := s.sessions[userID]
	if !ok || sess.ID != sessionID || sess.FinalRewardClaimed {
		return false, nil, nil
	}
	p, err := s.credit(userID, c, at)
	if err != nil {
		return false, nil, err
	}
	sess.FinalRewardClaimed = true
	return true, p, nil
}

func (s *MemoryStore) DeleteActiveSession(_ context.Context, userID int64, sessionID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return false, s.writeErr
	}
	sess, ok := s.sessions[userID]
	if !ok || sess.ID != sessionID || sess.FinalRewardClaimed || !now.Before(sess.EndsAt()) {
		return false, nil
	}
	delete(s.sessions, userID)
	return true, nil
}

// ---- achievements ----

func (s *MemoryStore) ListAchievements(_ context.Context) ([]*domain.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*domain.Achievement, 0, len(s.achievements))
	for _, a := range s.achievements {
		if !a.IsActive {
			continue
		}
		cp := *a
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].SortOrder != list[j].SortOrder {
			return list[i].SortOrder < list[j].SortOrder
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *MemoryStore) GetAchievement(_ context.Context, id string) (*domain.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.achievements[id]
	if !ok || !a.IsActive {
		return nil, domain.ErrAchievementNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) ListClaims(_ context.Context, userID int64) ([]*domain.UserAchievementClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*domain.UserAchievementClaim
	for _, c := range s.claims[userID] {
		cp := *c
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ClaimedAt.Before(list[j].ClaimedAt) })
	return list, nil
}

// ---- social submissions ----

func cloneSubmission(sub *domain.SocialSubmission) *domain.SocialSubmission {
	cp := *sub
	if sub.ReviewedAt != nil {
		t := *sub.ReviewedAt
		cp.ReviewedAt = &t
	}
	if sub.ReviewedBy != nil {
		id := *sub.ReviewedBy
		cp.ReviewedBy = &id
	}
	return &cp
}

func (s *MemoryStore) SocialStatuses(_ context.Context, userID int64) (map[string]domain.SubmissionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make(map[string]domain.SubmissionStatus, len(s.submissionOf[userID]))
	for achievementID, id := range s.submissionOf[userID] {
		res[achievementID] = s.submissions[id].Status
	}
	return res, nil
}

func (s *MemoryStore) SubmitSocial(_ context.Context, sub *domain.SocialSubmission) (*domain.SocialSubmission, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, false, s.writeErr
	}
	if _, ok := s.profiles[sub.UserID]; !ok {
		return nil, false, domain.ErrProfileNotFound
	}
	if id, ok := s.submissionOf[sub.UserID][sub.AchievementID]; ok {
		existing := s.submissions[id]
		if existing.Status != domain.SubmissionRejected {
			return cloneSubmission(existing), false, nil
		}
		existing.Status = domain.SubmissionPending
		existing.ProofURL = sub.ProofURL
		existing.ProofData = sub.ProofData
		existing.RejectionReason = ""
		existing.Attempts++
		existing.SubmittedAt = sub.SubmittedAt
		existing.ReviewedAt = nil
		existing.ReviewedBy = nil
		return cloneSubmission(existing), true, nil
	}

	stored := cloneSubmission(sub)
	stored.Status = domain.SubmissionPending
	stored.Attempts = 1
	s.submissions[stored.ID] = stored
	if s.submissionOf[sub.UserID] == nil {
		s.submissionOf[sub.UserID] = make(map[string]string)
	}
	s.submissionOf[sub.UserID][sub.AchievementID] = stored.ID
	return cloneSubmission(stored), true, nil
}

func (s *MemoryStore) GetSubmission(_ context.Context, id string) (*domain.SocialSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	return cloneSubmission(sub), nil
}

func (s *MemoryStore) ListSubmissions(_ context.Context, status domain.SubmissionStatus, limit int) ([]*domain.SocialSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*domain.SocialSubmission
	for _, sub := range s.submissions {
		if status == "" || sub.Status == status {
			list = append(list, cloneSubmission(sub))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].SubmittedAt.Equal(list[j].SubmittedAt) {
			return list[i].SubmittedAt.After(list[j].SubmittedAt)
		}
		return list[i].ID < list[j].ID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *MemoryStore) ReviewSubmission(_ context.Context, r domain.SubmissionReview) (*domain.SocialSubmission, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, false, s.writeErr
	}
	sub, ok := s.submissions[r.SubmissionID]
	if !ok {
		return nil, false, domain.ErrSubmissionNotFound
	}
	if sub.Status != domain.SubmissionPending {
		return cloneSubmission(sub), false, nil
	}
	sub.Status = r.Status
	sub.RejectionReason = r.Reason
	at, reviewer := r.At, r.ReviewerID
	sub.ReviewedAt = &at
	sub.ReviewedBy = &reviewer
	return cloneSubmission(sub), true, nil
}

func (s *MemoryStore) ClaimAchievement(_ context.Context, claim *domain.UserAchievementClaim, c domain.Credit) (bool, *domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return false, nil, s.writeErr
	}
	if _, ok := s.profiles[claim.UserID]; !ok {
		return false, nil, domain.ErrProfileNotFound
	}
	if _, dup := s.claims[claim.UserID][claim.AchievementID]; dup {
		return false, nil, nil
	}
	if s.claims[claim.UserID] == nil {
		s.claims[claim.UserID] = make(map[string]*domain.UserAchievementClaim)
	}
	cp := *claim
	s.claims[claim.UserID][claim.AchievementID] = &cp
	p, err := s.credit(claim.UserID, c, claim.ClaimedAt)
	if err != nil {
		delete(s.claims[claim.UserID], claim.AchievementID)
		return false, nil, err
	}
	return true, p, nil
}

// ---- referrals ----

func (s *MemoryStore) ApplyReferral(_ context.Context, g domain.ReferralGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	if g.ReferrerID == g.RefereeID {
		return domain.ErrSelfReferral
	}
	referee, ok := s.profiles[g.RefereeID]
	if !ok {
		return domain.ErrProfileNotFound
	}
	referrer, ok := s.profiles[g.ReferrerID]
	if !ok {
		return domain.ErrInvalidCode
	}
	if referee.IsReferred() {
		return domain.ErrAlreadyReferred
	}
	if referrer.TotalReferrals >= g.Cap {
		return domain.ErrReferralCapReached
	}

	referrer.TotalReferrals++
	referrerID := g.ReferrerID
	referee.ReferredBy = &referrerID

	if g.ReferrerBonus > 0 {
		_, _ = s.credit(g.ReferrerID, domain.Credit{
			Source: domain.SourceReferrer,
			Amount: g.ReferrerBonus,
			Meta:   map[string]any{"referee_id": g.RefereeID},
		}, g.At)
	}
	if g.RefereeBonus > 0 {
		_, _ = s.credit(g.RefereeID, domain.Credit{
			Source: domain.SourceReferee,
			Amount: g.RefereeBonus,
			Meta:   map[string]any{"referrer_id": g.ReferrerID},
		}, g.At)
	}

	s.referrals = append(s.referrals, &domain.Referral{
		ID:            g.ID,
		ReferrerID:    g.ReferrerID,
		ReferredID:    g.RefereeID,
		ReferrerBonus: g.ReferrerBonus,
		RefereeBonus:  g.RefereeBonus,
		CreatedAt:     g.At,
	})
	return nil
}

func (s *MemoryStore) ListReferrals(_ context.Context, referrerID int64) ([]*domain.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*domain.Referral
	for i := len(s.referrals) - 1; i >= 0; i-- {
		if r := s.referrals[i]; r.ReferrerID == referrerID {
			cp := *r
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (s *MemoryStore) ReferralStats(_ context.Context, referrerID int64) (*domain.ReferralStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &domain.ReferralStats{}
	for _, r := range s.referrals {
		if r.ReferrerID == referrerID {
			stats.TotalReferrals++
			stats.TotalEarned += r.ReferrerBonus
		}
	}
	return stats, nil
}

// ---- presale ----

func (s *MemoryStore) CreatePurchase(_ context.Context, p *domain.PresalePurchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	cp := *p
	s.purchases[p.ID] = &cp
	return nil
}

func (s *MemoryStore) CompletePurchase(_ context.Context, userID int64, id, txHash string, at time.Time) (*domain.PresalePurchase, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, false, s.writeErr
	}
	p, ok := s.purchases[id]
	if !ok || p.UserID != userID {
		return nil, false, domain.ErrPurchaseNotFound
	}
	if p.Status != domain.PurchaseStatusPending {
		cp := *p
		return &cp, false, nil
	}
	p.Status = domain.PurchaseStatusCompleted
	if txHash != "" {
		p.TransactionHash = txHash
	}
	done := at
	p.CompletedAt = &done
	cp := *p
	return &cp, true, nil
}

func (s *MemoryStore) ListPurchases(_ context.Context, userID int64) ([]*domain.PresalePurchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*domain.PresalePurchase
	for _, p := range s.purchases {
		if p.UserID == userID {
			cp := *p
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (s *MemoryStore) GetPurchase(_ context.Context, id string) (*domain.PresalePurchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return nil, domain.ErrPurchaseNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) RejectPurchase(_ context.Context, id, reason string) (*domain.PresalePurchase, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, false, s.writeErr
	}
	p, ok := s.purchases[id]
	if !ok {
		return nil, false, domain.ErrPurchaseNotFound
	}
	if p.Status != domain.PurchaseStatusPending {
		cp := *p
		return &cp, false, nil
	}
	p.Status = domain.PurchaseStatusRejected
	p.RejectionReason = reason
	cp := *p
	return &cp, true, nil
}

// ListPurchasesByStatus returns the oldest purchases first, so the review queue is FIFO.
func (s *MemoryStore) ListPurchasesByStatus(_ context.Context, status domain.PurchaseStatus, limit int) ([]*domain.PresalePurchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*domain.PresalePurchase
	for _, p := range s.purchases {
		if p.Status == status {
			cp := *p
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *MemoryStore) SumCompletedUSD(ctx context.Context, userID int64) (float64, error) {
	list, err := s.ListPurchases(ctx, userID)
	if err != nil {
		return 0, err
	}
	return domain.SumCompletedUSD(list), nil
}

// ---- stats ----

func (s *MemoryStore) EngineStats(_ context.Context, day time.Time) (*domain.EngineStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &domain.EngineStats{TotalUsers: int64(len(s.profiles)), TotalReferrals: int64(len(s.referrals))}
	for _, p := range s.profiles {
		st.TotalCoins += p.TotalCoins
		if p.LastLoginDate != nil && !p.LastLoginDate.Before(day) {
			st.ActiveUsersToday++
		}
	}
	for _, sub := range s.submissions {
		st.TotalSubmissions++
		switch sub.Status {
		case domain.SubmissionPending:
			st.PendingSubmissions++
		case domain.SubmissionVerified:
			st.VerifiedSubmissions++
		case domain.SubmissionRejected:
			st.RejectedSubmissions++
		}
	}
	for _, p := range s.purchases {
		switch p.Status {
		case domain.PurchaseStatusPending:
			st.PendingPurchases++
		case domain.PurchaseStatusCompleted:
			st.CompletedPurchases++
			st.CompletedPurchaseUSD += p.AmountUSD
		}
	}
	return st, nil
}

// ---- ledger / audit ----

func (s *MemoryStore) ListTransactions(_ context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	var list []*domain.Transaction
	for i := len(s.ledger) - 1; i >= 0 && len(list) < limit; i-- {
		if tx := s.ledger[i]; tx.UserID == userID {
			cp := *tx
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (s *MemoryStore) Create(_ context.Context, log *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditSeq++
	cp := *log
	cp.ID = s.auditSeq
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.audit = append(s.audit, &cp)
	return nil
}

func (s *MemoryStore) GetByUserID(_ context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*domain.AuditLog
	for i := len(s.audit) - 1; i >= 0 && (limit <= 0 || len(list) < limit); i-- {
		if l := s.audit[i]; l.UserID == userID {
			cp := *l
			list = append(list, &cp)
		}
	}
	return list, nil
}

// MemoryAdCooldownStore keeps ad watch stamps in process memory.
type MemoryAdCooldownStore struct {
	mu   sync.Mutex
	last map[int64]time.Time
}

func NewMemoryAdCooldownStore() *MemoryAdCooldownStore {
	return &MemoryAdCooldownStore{last: make(map[int64]time.Time)}
}

func (m *MemoryAdCooldownStore) LastWatch(_ context.Context, userID int64) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last[userID], nil
}

func (m *MemoryAdCooldownStore) TryRecordWatch(_ context.Context, userID int64, now time.Time, cooldown time.Duration) (bool, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	last := m.last[userID]
	if !domain.CanWatchAd(now, last, cooldown) {
		return false, last, nil
	}
	stamp := time.UnixMilli(now.UnixMilli())
	m.last[userID] = stamp
	return true, stamp, nil
}

func (m *MemoryAdCooldownStore) ReleaseWatch(_ context.Context, userID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if last, ok := m.last[userID]; ok && last.Equal(at) {
		delete(m.last, userID)
	}
	return nil
}
