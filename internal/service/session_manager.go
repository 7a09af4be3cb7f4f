package service

import (
	"context"

	"ekehi_engine/internal/domain"
	"ekehi_engine/internal/events"
	"ekehi_engine/internal/logger"

	"github.com/google/uuid"
)

// SessionManager runs the 24h mining session lifecycle
// Idle -> Active -> Complete -> Claimed; Start from Claimed begins the next one.
// Remaining time is always derived from the stored start anchor, never counted down.
type SessionManager struct {
	base
	profiles ProfileStore
	sessions SessionStore
}

// SessionClaimResult - outcome of a claim; AlreadyClaimed marks an idempotent repeat
type SessionClaimResult struct {
	Reward         float64             `json:"reward"`
	AlreadyClaimed bool                `json:"already_claimed"`
	Profile        *domain.UserProfile `json:"profile,omitempty"`
}

func (m *SessionManager) load(ctx context.Context, userID int64) (*domain.MiningSession, domain.SessionState, error) {
	s, err := m.sessions.GetSession(ctx, userID)
	if err != nil {
		return nil, domain.SessionState{}, err
	}
	return s, domain.DeriveSessionState(m.now(), s), nil
}

// State returns the derived session view. Observing a finished unclaimed session
// emits the completion event.
func (m *SessionManager) State(ctx context.Context, userID int64) (domain.SessionState, error) {
	_, st, err := m.load(ctx, userID)
	if err != nil {
		return domain.SessionState{}, m.fail("session_state", err)
	}
	if st.Phase == domain.SessionComplete {
		m.emit(ctx, userID, events.EventSessionComplete, map[string]any{"reward": st.Reward})
	}
	return st, nil
}

// Start creates a session anchored at now. It requires no session or a claimed one.
func (m *SessionManager) Start(ctx context.Context, userID int64) (domain.SessionState, error) {
	if _, err := m.profiles.GetProfile(ctx, userID); err != nil {
		return domain.SessionState{}, m.fail("session_start", err)
	}

	_, st, err := m.load(ctx, userID)
	if err != nil {
		return domain.SessionState{}, m.fail("session_start", err)
	}
	if st.Phase == domain.SessionActive || st.Phase == domain.SessionComplete {
		return st, m.fail("session_start", domain.ErrSessionActive)
	}

	s := &domain.MiningSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartTime: m.now(),
		Duration:  m.rules.Session.Duration,
		Reward:    m.rules.Session.Reward,
	}
	if err := m.sessions.CreateSession(ctx, s); err != nil {
		return domain.SessionState{}, m.fail("session_start", err)
	}

	st = domain.DeriveSessionState(s.StartTime, s)
	m.emit(ctx, userID, events.EventSessionStarted, map[string]any{
		"start_time": s.StartTime.UnixMilli(),
		"duration":   int64(s.Duration.Seconds()),
		"reward":     s.Reward,
	})
	m.audit.Log(ctx, userID, domain.AuditActionSessionStart, domain.AuditCategoryMining, map[string]interface{}{"session_id": s.ID})
	logger.Info("mining session started", "user_id", userID, "session_id", s.ID)
	return st, nil
}

// Claim credits the session reward once. A repeat after a successful claim is a
// no-op success; claiming a running session is rejected.
func (m *SessionManager) Claim(ctx context.Context, userID int64) (*SessionClaimResult, error) {
	s, st, err := m.load(ctx, userID)
	if err != nil {
		return nil, m.fail("session_claim", err)
	}

	switch st.Phase {
	case domain.SessionIdle:
		return nil, m.fail("session_claim", domain.ErrNoSession)
	case domain.SessionActive:
		return nil, m.fail("session_claim", domain.ErrSessionNotComplete)
	case domain.SessionClaimed:
		IdempotentRepeats.WithLabelValues("session_claim").Inc()
		return &SessionClaimResult{Reward: 0, AlreadyClaimed: true}, nil
	}

	now := m.now()
	credit := domain.Credit{
		Source:   domain.SourceSession,
		Amount:   s.Reward,
		AddToday: true,
		Day:      m.dayOf(now),
		Meta:     map[string]any{"session_id": s.ID},
	}
	ok, p, err := m.sessions.ClaimSession(ctx, userID, s.ID, credit, now)
	if err != nil {
		return nil, m.fail("session_claim", err)
	}
	if !ok {
		IdempotentRepeats.WithLabelValues("session_claim").Inc()
		return &SessionClaimResult{Reward: 0, AlreadyClaimed: true}, nil
	}

	observeCredit(domain.SourceSession, s.Reward)
	m.emit(ctx, userID, events.EventSessionClaimed, map[string]any{
		"reward":      s.Reward,
		"total_coins": p.TotalCoins,
	})
	m.audit.LogCredit(ctx, userID, domain.AuditActionSessionClaim, domain.AuditCategoryMining, s.Reward,
		map[string]interface{}{"session_id": s.ID})
	logger.Info("mining session claimed", "user_id", userID, "session_id", s.ID, "reward", s.Reward)
	return &SessionClaimResult{Reward: s.Reward, Profile: p}, nil
}

// Stop discards a running session and its reward.
func (m *SessionManager) Stop(ctx context.Context, userID int64) (domain.SessionState, error) {
	s, st, err := m.load(ctx, userID)
	if err != nil {
		return domain.SessionState{}, m.fail("session_stop", err)
	}
	if st.Phase != domain.SessionActive {
		return st, m.fail("session_stop", domain.ErrSessionNotActive)
	}

	deleted, err := m.sessions.DeleteActiveSession(ctx, userID, s.ID, m.now())
	if err != nil {
		return domain.SessionState{}, m.fail("session_stop", err)
	}
	if !deleted {
		// finished or claimed between read and delete
		_, st, err = m.load(ctx, userID)
		if err != nil {
			return domain.SessionState{}, m.fail("session_stop", err)
		}
		return st, m.fail("session_stop", domain.ErrSessionNotActive)
	}

	m.emit(ctx, userID, events.EventSessionStopped, map[string]any{"session_id": s.ID})
	m.audit.Log(ctx, userID, domain.AuditActionSessionStop, domain.AuditCategoryMining, map[string]interface{}{
		"session_id":        s.ID,
		"remaining_seconds": st.RemainingSeconds,
	})
	return domain.DeriveSessionState(m.now(), nil), nil
}
