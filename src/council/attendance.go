package council

import (
	"context"
	"errors"
	"fmt"

	"github.com/esir-council/esir/src/logging"
	"github.com/esir-council/esir/src/types"
	"gorm.io/gorm"
)

// Quorum is recomputed on every request.
type Quorum struct {
	SessionID uint64 `json:"sessionId"`
	Eligible  int    `json:"eligible"`
	Present   int    `json:"present"`
	Threshold int    `json:"threshold"`
	Met       bool   `json:"met"`
}

// ComputeQuorum needs more than half of the eligible voters present.
func ComputeQuorum(eligible, present int) Quorum {
	threshold := eligible/2 + 1
	return Quorum{Eligible: eligible, Present: present, Threshold: threshold, Met: present >= threshold}
}

// SetAttendanceSelf records the voter's own presence. Only the first write
// counts; afterwards only an operator can change it.
func (s *Service) SetAttendanceSelf(ctx context.Context, actor types.Voter, sessionID uint64, present bool) (types.Attendance, error) {
	if err := Require(actor, CanVote); err != nil {
		return types.Attendance{}, err
	}
	sess, err := s.Session(ctx, sessionID)
	if err != nil {
		return types.Attendance{}, err
	}
	if sess.Closed {
		return types.Attendance{}, fmt.Errorf("session %d is closed: %w", sessionID, ErrInvalidState)
	}

	a := types.Attendance{SessionID: sessionID, VoterID: actor.ID, Present: present, RecordedBy: actor.ID}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		if logging.IsDuplicateKey(err) {
			return types.Attendance{}, fmt.Errorf("voter %d session %d: %w", actor.ID, sessionID, ErrAlreadyRecorded)
		}
		return types.Attendance{}, fmt.Errorf("insert attendance: %w", err)
	}
	s.publish(ctx, Event{Type: EventAttendanceChanged, SessionID: sessionID, VoterID: actor.ID})
	return a, nil
}

// ToggleAttendance flips a voter's presence on behalf of an operator. A voter
// with no record yet is marked present.
func (s *Service) ToggleAttendance(ctx context.Context, actor types.Voter, sessionID, voterID uint64) (types.Attendance, error) {
	if err := Require(actor, CanOperateSession); err != nil {
		return types.Attendance{}, err
	}
	if _, err := s.Session(ctx, sessionID); err != nil {
		return types.Attendance{}, err
	}
	if _, err := s.Voter(ctx, voterID); err != nil {
		return types.Attendance{}, err
	}

	var a types.Attendance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(lockForUpdate).
			Where("session_id = ? AND voter_id = ?", sessionID, voterID).
			First(&a).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			a = types.Attendance{SessionID: sessionID, VoterID: voterID, Present: true, RecordedBy: actor.ID}
			return tx.Create(&a).Error
		case err != nil:
			return err
		}
		a.Present = !a.Present
		a.RecordedBy = actor.ID
		return tx.Model(&a).Updates(map[string]interface{}{"present": a.Present, "recorded_by": a.RecordedBy}).Error
	})
	if err != nil {
		if logging.IsDuplicateKey(err) {
			return types.Attendance{}, fmt.Errorf("voter %d session %d changed concurrently: %w", voterID, sessionID, ErrConflict)
		}
		return types.Attendance{}, fmt.Errorf("toggle attendance: %w", err)
	}
	s.publish(ctx, Event{Type: EventAttendanceChanged, SessionID: sessionID, VoterID: voterID})
	return a, nil
}

func (s *Service) QuorumStatus(ctx context.Context, sessionID uint64) (Quorum, error) {
	if _, err := s.Session(ctx, sessionID); err != nil {
		return Quorum{}, err
	}
	eligible, err := s.EligibleCount(ctx)
	if err != nil {
		return Quorum{}, err
	}
	var present int64
	err = s.db.WithContext(ctx).Model(&types.Attendance{}).
		Where("session_id = ? AND present = ?", sessionID, true).
		Count(&present).Error
	if err != nil {
		return Quorum{}, fmt.Errorf("count present voters: %w", err)
	}
	q := ComputeQuorum(eligible, int(present))
	q.SessionID = sessionID
	return q, nil
}

// AttendanceRow is one roster line of a session's attendance sheet.
type AttendanceRow struct {
	Voter    types.Voter
	Recorded bool
	Present  bool
}

// AttendanceList returns every eligible voter with their recorded presence.
func (s *Service) AttendanceList(ctx context.Context, actor types.Voter, sessionID uint64) ([]AttendanceRow, error) {
	if err := Require(actor, CanOperateSession); err != nil {
		return nil, err
	}
	return s.attendanceSheet(ctx, sessionID)
}

func (s *Service) attendanceSheet(ctx context.Context, sessionID uint64) ([]AttendanceRow, error) {
	if _, err := s.Session(ctx, sessionID); err != nil {
		return nil, err
	}
	voters, err := s.Voters(ctx, CanVote)
	if err != nil {
		return nil, err
	}
	var records []types.Attendance
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list attendance of session %d: %w", sessionID, err)
	}
	byVoter := make(map[uint64]types.Attendance, len(records))
	for _, r := range records {
		byVoter[r.VoterID] = r
	}

	out := make([]AttendanceRow, len(voters))
	for i, v := range voters {
		r, ok := byVoter[v.ID]
		out[i] = AttendanceRow{Voter: v, Recorded: ok, Present: ok && r.Present}
	}
	return out, nil
}
