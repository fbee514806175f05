package council

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/esir-council/esir/src/logging"
	"github.com/esir-council/esir/src/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var lockForUpdate = clause.Locking{Strength: "UPDATE"}

// EnsureState creates the council state row if it is missing.
func EnsureState(ctx context.Context, db *gorm.DB) error {
	state := types.CouncilState{ID: types.CouncilStateID}
	return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&state).Error
}

type SessionInput struct {
	Name        string
	ScheduledAt time.Time
	Published   bool
}

func (s *Service) CreateSession(ctx context.Context, actor types.Voter, in SessionInput) (types.Session, error) {
	if err := Require(actor, CanOperateSession); err != nil {
		return types.Session{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || in.ScheduledAt.IsZero() {
		return types.Session{}, fmt.Errorf("session needs a name and a date: %w", ErrInvalidInput)
	}
	sess := types.Session{Name: name, ScheduledAt: in.ScheduledAt, Published: in.Published}
	if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
		return types.Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *Service) Session(ctx context.Context, id uint64) (types.Session, error) {
	var sess types.Session
	if err := s.db.WithContext(ctx).First(&sess, id).Error; err != nil {
		return types.Session{}, lookupErr(err, "session", id)
	}
	if sess.Deleted {
		return types.Session{}, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	return sess, nil
}

// Sessions lists sessions that are not soft-deleted, newest first.
func (s *Service) Sessions(ctx context.Context) ([]types.Session, error) {
	var out []types.Session
	if err := s.db.WithContext(ctx).Where("deleted = ?", false).Order("scheduled_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

// UpcomingSessions lists published sessions scheduled from now on.
func (s *Service) UpcomingSessions(ctx context.Context) ([]types.Session, error) {
	var out []types.Session
	err := s.db.WithContext(ctx).
		Where("published = ? AND deleted = ? AND scheduled_at >= ?", true, false, s.now()).
		Order("scheduled_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list upcoming sessions: %w", err)
	}
	return out, nil
}

// ActivateSession makes sessionID the only active session. The state row is
// locked for the whole clear-then-set so concurrent activations serialize.
func (s *Service) ActivateSession(ctx context.Context, actor types.Voter, sessionID uint64) error {
	if err := Require(actor, CanOperateSession); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var state types.CouncilState
		if err := tx.Clauses(lockForUpdate).First(&state, types.CouncilStateID).Error; err != nil {
			return fmt.Errorf("lock council state: %w", err)
		}
		var sess types.Session
		if err := tx.First(&sess, sessionID).Error; err != nil {
			return lookupErr(err, "session", sessionID)
		}
		if sess.Deleted {
			return fmt.Errorf("session %d: %w", sessionID, ErrNotFound)
		}
		if sess.Closed {
			return fmt.Errorf("session %d is closed: %w", sessionID, ErrInvalidState)
		}

		if err := tx.Model(&types.Session{}).
			Where("id <> ? AND active = ?", sessionID, true).
			Update("active", false).Error; err != nil {
			return fmt.Errorf("clear active sessions: %w", err)
		}
		if err := tx.Model(&sess).Update("active", true).Error; err != nil {
			return fmt.Errorf("set session %d active: %w", sessionID, err)
		}
		return tx.Model(&state).Update("active_session_id", sessionID).Error
	})
	if err != nil {
		return err
	}
	s.publish(ctx, Event{Type: EventSessionActivated, SessionID: sessionID})
	return nil
}

func (s *Service) DeactivateSession(ctx context.Context, actor types.Voter, sessionID uint64) error {
	if err := Require(actor, CanOperateSession); err != nil {
		return err
	}
	if err := s.retire(ctx, sessionID, nil); err != nil {
		return err
	}
	s.publish(ctx, Event{Type: EventSessionDeactivated, SessionID: sessionID})
	return nil
}

func (s *Service) CloseSession(ctx context.Context, actor types.Voter, sessionID uint64) error {
	if err := Require(actor, CanOperateSession); err != nil {
		return err
	}
	if err := s.retire(ctx, sessionID, map[string]interface{}{"closed": true}); err != nil {
		return err
	}
	s.publish(ctx, Event{Type: EventSessionClosed, SessionID: sessionID})
	return nil
}

// DeleteSession soft-deletes a session; it disappears from every listing.
func (s *Service) DeleteSession(ctx context.Context, actor types.Voter, sessionID uint64) error {
	if err := Require(actor, CanOperateSession); err != nil {
		return err
	}
	return s.retire(ctx, sessionID, map[string]interface{}{"deleted": true})
}

func (s *Service) PublishSession(ctx context.Context, actor types.Voter, sessionID uint64, published bool) error {
	if err := Require(actor, CanOperateSession); err != nil {
		return err
	}
	if _, err := s.Session(ctx, sessionID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&types.Session{ID: sessionID}).Update("published", published).Error
}

// retire clears the active flag (and the council pointer when it points at
// the session) and applies extra flag updates in the same transaction.
// Closing or deleting a session also closes its open polls.
func (s *Service) retire(ctx context.Context, sessionID uint64, extra map[string]interface{}) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var state types.CouncilState
		if err := tx.Clauses(lockForUpdate).First(&state, types.CouncilStateID).Error; err != nil {
			return fmt.Errorf("lock council state: %w", err)
		}
		var sess types.Session
		if err := tx.First(&sess, sessionID).Error; err != nil {
			return lookupErr(err, "session", sessionID)
		}
		if sess.Deleted {
			return fmt.Errorf("session %d: %w", sessionID, ErrNotFound)
		}

		updates := map[string]interface{}{"active": false}
		for k, v := range extra {
			updates[k] = v
		}
		if err := tx.Model(&sess).Updates(updates).Error; err != nil {
			return fmt.Errorf("update session %d: %w", sessionID, err)
		}
		if len(extra) > 0 {
			items := tx.Model(&types.AgendaItem{}).Select("id").Where("session_id = ?", sessionID)
			if err := tx.Model(&types.Poll{}).
				Where("agenda_item_id IN (?) AND open = ?", items, true).
				Update("open", false).Error; err != nil {
				return fmt.Errorf("close polls of session %d: %w", sessionID, err)
			}
		}
		if state.ActiveSessionID != nil && *state.ActiveSessionID == sessionID {
			return tx.Model(&state).Update("active_session_id", nil).Error
		}
		return nil
	})
}

// ActiveSession follows the council pointer. It reports
// ErrInvariantViolation when the flags disagree with the pointer.
func (s *Service) ActiveSession(ctx context.Context) (types.Session, error) {
	db := s.db.WithContext(ctx)
	var state types.CouncilState
	if err := db.First(&state, types.CouncilStateID).Error; err != nil {
		return types.Session{}, fmt.Errorf("load council state: %w", err)
	}

	var flagged int64
	if err := db.Model(&types.Session{}).Where("active = ?", true).Count(&flagged).Error; err != nil {
		return types.Session{}, fmt.Errorf("count active sessions: %w", err)
	}
	if flagged > 1 {
		log.Printf("council: %d sessions flagged active", flagged)
		return types.Session{}, fmt.Errorf("%d active sessions: %w", flagged, ErrInvariantViolation)
	}

	if state.ActiveSessionID == nil {
		if flagged != 0 {
			log.Printf("council: session flagged active with no council pointer")
			return types.Session{}, fmt.Errorf("active flag without pointer: %w", ErrInvariantViolation)
		}
		return types.Session{}, fmt.Errorf("no active session: %w", ErrNotFound)
	}

	var sess types.Session
	if err := db.First(&sess, *state.ActiveSessionID).Error; err != nil {
		return types.Session{}, lookupErr(err, "session", *state.ActiveSessionID)
	}
	if !sess.Active {
		log.Printf("council: pointer at session %d which is not flagged active", sess.ID)
		return types.Session{}, fmt.Errorf("pointer at inactive session %d: %w", sess.ID, ErrInvariantViolation)
	}
	return sess, nil
}

type AgendaItemInput struct {
	Ordinal     int
	Title       string
	Description string
}

func (s *Service) AddAgendaItem(ctx context.Context, actor types.Voter, sessionID uint64, in AgendaItemInput) (types.AgendaItem, error) {
	if err := Require(actor, CanOperateSession); err != nil {
		return types.AgendaItem{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || in.Ordinal <= 0 {
		return types.AgendaItem{}, fmt.Errorf("agenda item needs a title and a positive number: %w", ErrInvalidInput)
	}
	if _, err := s.Session(ctx, sessionID); err != nil {
		return types.AgendaItem{}, err
	}

	item := types.AgendaItem{
		SessionID:   sessionID,
		Ordinal:     in.Ordinal,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		if logging.IsDuplicateKey(err) {
			return types.AgendaItem{}, fmt.Errorf("agenda item %d already exists in session %d: %w", in.Ordinal, sessionID, ErrConflict)
		}
		return types.AgendaItem{}, fmt.Errorf("create agenda item: %w", err)
	}
	return item, nil
}

func (s *Service) AgendaItem(ctx context.Context, id uint64) (types.AgendaItem, error) {
	var item types.AgendaItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return types.AgendaItem{}, lookupErr(err, "agenda item", id)
	}
	return item, nil
}

// AgendaEntry pairs an item with its poll, if any.
type AgendaEntry struct {
	Item types.AgendaItem
	Poll *types.Poll
}

// Agenda lists a session's items in order, with their polls.
func (s *Service) Agenda(ctx context.Context, sessionID uint64) ([]AgendaEntry, error) {
	if _, err := s.Session(ctx, sessionID); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var items []types.AgendaItem
	if err := db.Where("session_id = ?", sessionID).Order("ordinal").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list agenda of session %d: %w", sessionID, err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]uint64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	var polls []types.Poll
	if err := db.Where("agenda_item_id IN ?", ids).Find(&polls).Error; err != nil {
		return nil, fmt.Errorf("list polls of session %d: %w", sessionID, err)
	}
	byItem := make(map[uint64]types.Poll, len(polls))
	for _, p := range polls {
		byItem[p.AgendaItemID] = p
	}

	out := make([]AgendaEntry, len(items))
	for i, it := range items {
		out[i] = AgendaEntry{Item: it}
		if p, ok := byItem[it.ID]; ok {
			p := p
			out[i].Poll = &p
		}
	}
	return out, nil
}

// SetActiveAgendaItem makes itemID the only active item of its session.
func (s *Service) SetActiveAgendaItem(ctx context.Context, actor types.Voter, itemID uint64) error {
	if err := Require(actor, CanOperateSession); err != nil {
		return err
	}
	var item types.AgendaItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, itemID).Error; err != nil {
			return lookupErr(err, "agenda item", itemID)
		}
		var sess types.Session
		if err := tx.Clauses(lockForUpdate).First(&sess, item.SessionID).Error; err != nil {
			return lookupErr(err, "session", item.SessionID)
		}
		if sess.Deleted {
			return fmt.Errorf("session %d: %w", sess.ID, ErrNotFound)
		}
		if sess.Closed {
			return fmt.Errorf("session %d is closed: %w", sess.ID, ErrInvalidState)
		}

		if err := tx.Model(&types.AgendaItem{}).
			Where("session_id = ? AND id <> ? AND active = ?", sess.ID, itemID, true).
			Update("active", false).Error; err != nil {
			return fmt.Errorf("clear active items of session %d: %w", sess.ID, err)
		}
		if err := tx.Model(&item).Update("active", true).Error; err != nil {
			return fmt.Errorf("set agenda item %d active: %w", itemID, err)
		}
		return tx.Model(&sess).Update("active_agenda_item_id", itemID).Error
	})
	if err != nil {
		return err
	}
	s.publish(ctx, Event{Type: EventAgendaItemActive, SessionID: item.SessionID, AgendaItemID: itemID})
	return nil
}

// ActiveItem is what a display screen shows for a session.
type ActiveItem struct {
	Item   types.AgendaItem
	Poll   *types.Poll
	Result *Result
}

// ActiveAgendaItem follows the session's pointer. ErrNotFound means no item
// is active.
func (s *Service) ActiveAgendaItem(ctx context.Context, sessionID uint64) (ActiveItem, error) {
	sess, err := s.Session(ctx, sessionID)
	if err != nil {
		return ActiveItem{}, err
	}
	if sess.ActiveAgendaItemID == nil {
		return ActiveItem{}, fmt.Errorf("session %d has no active item: %w", sessionID, ErrNotFound)
	}
	item, err := s.AgendaItem(ctx, *sess.ActiveAgendaItemID)
	if err != nil {
		return ActiveItem{}, err
	}

	out := ActiveItem{Item: item}
	var poll types.Poll
	err = s.db.WithContext(ctx).Where("agenda_item_id = ?", item.ID).First(&poll).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return out, nil
	case err != nil:
		return ActiveItem{}, fmt.Errorf("load poll of agenda item %d: %w", item.ID, err)
	}
	res, err := s.Results(ctx, poll.ID)
	if err != nil {
		return ActiveItem{}, err
	}
	out.Poll, out.Result = &poll, &res
	return out, nil
}
