package council

import (
	"context"
	"fmt"
	"strings"

	"github.com/esir-council/esir/src/logging"
	"github.com/esir-council/esir/src/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MotionInput struct {
	Body         string
	AgendaItemID *uint64
	CommitteeID  *uint64
}

// FormatSignature renders a motion signature, e.g. W/2026/14.
func FormatSignature(year, seq int) string {
	return fmt.Sprintf("W/%d/%d", year, seq)
}

// SubmitMotion files a motion. The signature is drawn from the locked
// per-year counter in the same transaction as the insert, so sequence
// numbers are never handed out twice.
func (s *Service) SubmitMotion(ctx context.Context, actor types.Voter, in MotionInput) (types.Motion, error) {
	if err := Require(actor, CanVote); err != nil {
		return types.Motion{}, err
	}
	body := strings.TrimSpace(s.sanitizer.Sanitize(in.Body))
	if body == "" {
		return types.Motion{}, fmt.Errorf("motion body is empty: %w", ErrInvalidInput)
	}
	if in.AgendaItemID != nil {
		if _, err := s.AgendaItem(ctx, *in.AgendaItemID); err != nil {
			return types.Motion{}, err
		}
	}
	if in.CommitteeID != nil {
		if _, err := s.Committee(ctx, *in.CommitteeID); err != nil {
			return types.Motion{}, err
		}
		member, err := s.membership(ctx, *in.CommitteeID, actor.ID)
		if err != nil {
			return types.Motion{}, err
		}
		if member == nil {
			return types.Motion{}, fmt.Errorf("voter %d is not in committee %d: %w", actor.ID, *in.CommitteeID, ErrPermissionDenied)
		}
	}

	motion := types.Motion{
		SubmitterID:  actor.ID,
		AgendaItemID: in.AgendaItemID,
		CommitteeID:  in.CommitteeID,
		Body:         body,
	}
	year := s.now().Year()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&types.MotionCounter{Year: year}).Error; err != nil {
			return fmt.Errorf("seed motion counter %d: %w", year, err)
		}
		var counter types.MotionCounter
		if err := tx.Clauses(lockForUpdate).First(&counter, "year = ?", year).Error; err != nil {
			return fmt.Errorf("lock motion counter %d: %w", year, err)
		}
		counter.LastSeq++
		if err := tx.Model(&types.MotionCounter{}).Where("year = ?", year).Update("last_seq", counter.LastSeq).Error; err != nil {
			return fmt.Errorf("advance motion counter %d: %w", year, err)
		}
		motion.Signature = FormatSignature(year, counter.LastSeq)
		return tx.Create(&motion).Error
	})
	if err != nil {
		if logging.IsDuplicateKey(err) {
			return types.Motion{}, fmt.Errorf("motion signature taken: %w", ErrConflict)
		}
		return types.Motion{}, fmt.Errorf("submit motion: %w", err)
	}
	s.publish(ctx, Event{
		Type:    EventMotionSubmitted,
		VoterID: actor.ID,
		Fields:  map[string]interface{}{"signature": motion.Signature},
	})
	return motion, nil
}

func (s *Service) Motion(ctx context.Context, id uint64) (types.Motion, error) {
	var m types.Motion
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return types.Motion{}, lookupErr(err, "motion", id)
	}
	return m, nil
}

// Motions lists the actor's own motions, or all of them for operators.
func (s *Service) Motions(ctx context.Context, actor types.Voter) ([]types.Motion, error) {
	if err := Require(actor, CanVote); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Order("id DESC")
	if !Can(actor, CanOperateSession) {
		q = q.Where("submitter_id = ?", actor.ID)
	}
	var out []types.Motion
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list motions: %w", err)
	}
	return out, nil
}

func (s *Service) ApproveMotion(ctx context.Context, actor types.Voter, motionID uint64) (types.Motion, error) {
	if err := Require(actor, CanOperateSession); err != nil {
		return types.Motion{}, err
	}
	m, err := s.Motion(ctx, motionID)
	if err != nil {
		return types.Motion{}, err
	}
	if err := s.db.WithContext(ctx).Model(&m).Update("approved", true).Error; err != nil {
		return types.Motion{}, fmt.Errorf("approve motion %d: %w", motionID, err)
	}
	m.Approved = true
	return m, nil
}
