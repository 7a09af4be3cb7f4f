package domain

import (
	"math"
	"time"
)

// SessionPhase - mining session lifecycle state
type SessionPhase string

const (
	SessionIdle     SessionPhase = "idle"
	SessionActive   SessionPhase = "active"
	SessionComplete SessionPhase = "complete"
	SessionClaimed  SessionPhase = "claimed"
)

// MiningSession - at most one per user. StartTime is a wall-clock anchor, never a countdown.
type MiningSession struct {
	ID                 string        `db:"id" json:"id"`
	UserID             int64         `db:"user_id" json:"user_id"`
	StartTime          time.Time     `db:"started_at" json:"start_time"`
	Duration           time.Duration `db:"duration_seconds" json:"duration"`
	Reward             float64       `db:"reward" json:"reward"`
	FinalRewardClaimed bool          `db:"final_reward_claimed" json:"final_reward_claimed"`
}

// SessionRecord is the persisted wire shape of a session.
type SessionRecord struct {
	StartTime          int64   `json:"startTime"`
	Duration           int64   `json:"duration"`
	Reward             float64 `json:"reward"`
	FinalRewardClaimed bool    `json:"finalRewardClaimed"`
}

// Record converts the session to its persisted representation.
func (s *MiningSession) Record() SessionRecord {
	return SessionRecord{
		StartTime:          s.StartTime.UnixMilli(),
		Duration:           int64(s.Duration / time.Second),
		Reward:             s.Reward,
		FinalRewardClaimed: s.FinalRewardClaimed,
	}
}

// SessionFromRecord restores a session from its persisted representation.
func SessionFromRecord(id string, userID int64, r SessionRecord) *MiningSession {
	return &MiningSession{
		ID:                 id,
		UserID:             userID,
		StartTime:          time.UnixMilli(r.StartTime),
		Duration:           time.Duration(r.Duration) * time.Second,
		Reward:             r.Reward,
		FinalRewardClaimed: r.FinalRewardClaimed,
	}
}

// EndsAt returns the moment the session becomes claimable.
func (s *MiningSession) EndsAt() time.Time {
	return s.StartTime.Add(s.Duration)
}

// SessionState - view of a session derived from the anchor at a given instant
type SessionState struct {
	Phase            SessionPhase   `json:"phase"`
	RemainingSeconds float64        `json:"remaining_seconds"`
	ProgressPercent  float64        `json:"progress_percent"`
	Reward           float64        `json:"reward"`
	StartedAt        *time.Time     `json:"started_at,omitempty"`
	EndsAt           *time.Time     `json:"ends_at,omitempty"`
	Record           *SessionRecord `json:"record,omitempty"`
}

// DeriveSessionState is the only place the remaining time is computed. It is pure and
// may be called from any scheduler; a missed tick loses nothing.
func DeriveSessionState(now time.Time, s *MiningSession) SessionState {
	if s == nil {
		return SessionState{Phase: SessionIdle}
	}

	elapsed := now.Sub(s.StartTime)
	if elapsed < 0 {
		// clock went backwards: treat as just started
		elapsed = 0
	}
	remaining := s.Duration - elapsed
	if remaining < 0 {
		remaining = 0
	}

	progress := 100.0
	if s.Duration > 0 {
		progress = float64(s.Duration-remaining) / float64(s.Duration) * 100
	}

	started := s.StartTime
	ends := s.EndsAt()
	rec := s.Record()
	state := SessionState{
		RemainingSeconds: math.Round(remaining.Seconds()*1000) / 1000,
		ProgressPercent:  progress,
		Reward:           s.Reward,
		StartedAt:        &started,
		EndsAt:           &ends,
		Record:           &rec,
	}

	switch {
	case s.FinalRewardClaimed:
		state.Phase = SessionClaimed
	case remaining == 0:
		state.Phase = SessionComplete
	default:
		state.Phase = SessionActive
	}
	return state
}
