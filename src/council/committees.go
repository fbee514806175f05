package council

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/esir-council/esir/src/logging"
	"github.com/esir-council/esir/src/types"
	"gorm.io/gorm"
)

func (s *Service) CreateCommittee(ctx context.Context, actor types.Voter, name string) (types.Committee, error) {
	if err := Require(actor, CanAdminister); err != nil {
		return types.Committee{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Committee{}, fmt.Errorf("committee needs a name: %w", ErrInvalidInput)
	}
	c := types.Committee{Name: name}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		if logging.IsDuplicateKey(err) {
			return types.Committee{}, fmt.Errorf("committee %q exists: %w", name, ErrConflict)
		}
		return types.Committee{}, fmt.Errorf("create committee: %w", err)
	}
	return c, nil
}

func (s *Service) Committee(ctx context.Context, id uint64) (types.Committee, error) {
	var c types.Committee
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return types.Committee{}, lookupErr(err, "committee", id)
	}
	return c, nil
}

func (s *Service) AddCommitteeMember(ctx context.Context, actor types.Voter, committeeID, voterID uint64, chair bool) (types.CommitteeMember, error) {
	if err := Require(actor, CanAdminister); err != nil {
		return types.CommitteeMember{}, err
	}
	if _, err := s.Committee(ctx, committeeID); err != nil {
		return types.CommitteeMember{}, err
	}
	if _, err := s.Voter(ctx, voterID); err != nil {
		return types.CommitteeMember{}, err
	}
	m := types.CommitteeMember{CommitteeID: committeeID, VoterID: voterID, Chair: chair}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if logging.IsDuplicateKey(err) {
			return types.CommitteeMember{}, fmt.Errorf("voter %d already in committee %d: %w", voterID, committeeID, ErrConflict)
		}
		return types.CommitteeMember{}, fmt.Errorf("add committee member: %w", err)
	}
	return m, nil
}

// membership returns nil when the voter is not in the committee.
func (s *Service) membership(ctx context.Context, committeeID, voterID uint64) (*types.CommitteeMember, error) {
	var m types.CommitteeMember
	err := s.db.WithContext(ctx).
		Where("committee_id = ? AND voter_id = ?", committeeID, voterID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	return &m, nil
}

// CommitteeMotions lists a committee's motions to its members and operators.
func (s *Service) CommitteeMotions(ctx context.Context, actor types.Voter, committeeID uint64) ([]types.Motion, error) {
	if _, err := s.Committee(ctx, committeeID); err != nil {
		return nil, err
	}
	if !Can(actor, CanOperateSession) {
		m, err := s.membership(ctx, committeeID, actor.ID)
		if err != nil {
			return nil, err
		}
		if m == nil || !actor.Active {
			return nil, fmt.Errorf("voter %d is not in committee %d: %w", actor.ID, committeeID, ErrPermissionDenied)
		}
	}
	var out []types.Motion
	if err := s.db.WithContext(ctx).Where("committee_id = ?", committeeID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list committee motions: %w", err)
	}
	return out, nil
}

// ForwardToCouncil sends a committee motion to the council inbox. Only the
// committee chair may do it, and only once.
func (s *Service) ForwardToCouncil(ctx context.Context, actor types.Voter, motionID uint64) (types.Motion, error) {
	m, err := s.Motion(ctx, motionID)
	if err != nil {
		return types.Motion{}, err
	}
	if m.CommitteeID == nil {
		return types.Motion{}, fmt.Errorf("motion %d has no committee: %w", motionID, ErrInvalidState)
	}
	member, err := s.membership(ctx, *m.CommitteeID, actor.ID)
	if err != nil {
		return types.Motion{}, err
	}
	if member == nil || !member.Chair || !actor.Active {
		return types.Motion{}, fmt.Errorf("voter %d does not chair committee %d: %w", actor.ID, *m.CommitteeID, ErrPermissionDenied)
	}

	now := s.now()
	res := s.db.WithContext(ctx).Model(&types.Motion{}).
		Where("id = ? AND forwarded_at IS NULL", motionID).
		Update("forwarded_at", now)
	if res.Error != nil {
		return types.Motion{}, fmt.Errorf("forward motion %d: %w", motionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return types.Motion{}, fmt.Errorf("motion %d already forwarded: %w", motionID, ErrConflict)
	}
	m.ForwardedAt = &now
	return m, nil
}

// CouncilInbox lists motions forwarded by committees, oldest first.
func (s *Service) CouncilInbox(ctx context.Context, actor types.Voter) ([]types.Motion, error) {
	if err := Require(actor, CanOperateSession); err != nil {
		return nil, err
	}
	var out []types.Motion
	if err := s.db.WithContext(ctx).Where("forwarded_at IS NOT NULL").Order("forwarded_at").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list council inbox: %w", err)
	}
	return out, nil
}
