package council

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/esir-council/esir/src/logging"
	"github.com/esir-council/esir/src/types"
	"gorm.io/gorm"
)

type PollInput struct {
	Name          string
	Visibility    types.Visibility
	Majority      types.MajorityRule
	EligibleCount *int
	Open          bool
}

// CreatePoll attaches the poll of an agenda item; an item has at most one.
func (s *Service) CreatePoll(ctx context.Context, actor types.Voter, itemID uint64, in PollInput) (types.Poll, error) {
	if err := Require(actor, CanOperateSession); err != nil {
		return types.Poll{}, err
	}
	if in.Visibility == "" {
		in.Visibility = types.VisibilityPublic
	}
	if in.Majority == "" {
		in.Majority = types.MajoritySimple
	}
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return types.Poll{}, fmt.Errorf("poll needs a name: %w", ErrInvalidInput)
	case !in.Visibility.Valid():
		return types.Poll{}, fmt.Errorf("visibility %q: %w", in.Visibility, ErrInvalidInput)
	case !in.Majority.Valid():
		return types.Poll{}, fmt.Errorf("majority rule %q: %w", in.Majority, ErrInvalidInput)
	case in.EligibleCount != nil && *in.EligibleCount < 0:
		return types.Poll{}, fmt.Errorf("eligible count %d: %w", *in.EligibleCount, ErrInvalidInput)
	}
	if _, err := s.AgendaItem(ctx, itemID); err != nil {
		return types.Poll{}, err
	}

	poll := types.Poll{
		AgendaItemID:  itemID,
		Name:          name,
		Open:          in.Open,
		Visibility:    in.Visibility,
		Majority:      in.Majority,
		EligibleCount: in.EligibleCount,
	}
	if err := s.db.WithContext(ctx).Create(&poll).Error; err != nil {
		if logging.IsDuplicateKey(err) {
			return types.Poll{}, fmt.Errorf("agenda item %d already has a poll: %w", itemID, ErrConflict)
		}
		return types.Poll{}, fmt.Errorf("create poll: %w", err)
	}
	return poll, nil
}

func (s *Service) Poll(ctx context.Context, id uint64) (types.Poll, error) {
	var poll types.Poll
	if err := s.db.WithContext(ctx).First(&poll, id).Error; err != nil {
		return types.Poll{}, lookupErr(err, "poll", id)
	}
	return poll, nil
}

// pollSession loads a poll with the session that owns it. Polls of a deleted
// session are reported as not found.
func (s *Service) pollSession(ctx context.Context, pollID uint64) (types.Poll, types.Session, error) {
	poll, err := s.Poll(ctx, pollID)
	if err != nil {
		return types.Poll{}, types.Session{}, err
	}
	item, err := s.AgendaItem(ctx, poll.AgendaItemID)
	if err != nil {
		return types.Poll{}, types.Session{}, err
	}
	sess, err := s.Session(ctx, item.SessionID)
	if err != nil {
		return types.Poll{}, types.Session{}, fmt.Errorf("poll %d: %w", pollID, err)
	}
	return poll, sess, nil
}

// CastVote records the voter's ballot. The (poll, voter) unique index makes
// the first ballot final: any later attempt, concurrent or not, gets
// ErrAlreadyVoted and leaves the stored choice alone.
func (s *Service) CastVote(ctx context.Context, actor types.Voter, pollID uint64, choice types.Choice) (types.Vote, error) {
	poll, sess, err := s.pollSession(ctx, pollID)
	if err != nil {
		return types.Vote{}, err
	}
	if !poll.Open {
		return types.Vote{}, fmt.Errorf("poll %d: %w", pollID, ErrVotingClosed)
	}
	if sess.Closed {
		return types.Vote{}, fmt.Errorf("poll %d belongs to closed session %d: %w", pollID, sess.ID, ErrInvalidState)
	}
	if !choice.Valid() {
		return types.Vote{}, fmt.Errorf("choice %q: %w", choice, ErrInvalidChoice)
	}
	if err := Require(actor, CanVote); err != nil {
		return types.Vote{}, err
	}

	vote := types.Vote{PollID: pollID, VoterID: actor.ID, Choice: choice}
	if err := s.db.WithContext(ctx).Create(&vote).Error; err != nil {
		if logging.IsDuplicateKey(err) {
			return types.Vote{}, fmt.Errorf("voter %d poll %d: %w", actor.ID, pollID, ErrAlreadyVoted)
		}
		return types.Vote{}, fmt.Errorf("insert vote: %w", err)
	}
	ev := Event{Type: EventVoteCast, PollID: pollID}
	if counts, err := s.countVotes(ctx, pollID); err == nil {
		ev.Fields = map[string]interface{}{"cast": counts.Cast()}
	}
	s.publish(ctx, ev)
	return vote, nil
}

// TogglePoll flips the voting gate and returns the poll's new state. Closing
// a poll announces its result.
func (s *Service) TogglePoll(ctx context.Context, actor types.Voter, pollID uint64) (types.Poll, error) {
	if err := Require(actor, CanOperateSession); err != nil {
		return types.Poll{}, err
	}
	var poll types.Poll
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(lockForUpdate).First(&poll, pollID).Error; err != nil {
			return lookupErr(err, "poll", pollID)
		}
		var sess types.Session
		err := tx.Joins("JOIN agenda_items ON agenda_items.session_id = sessions.id").
			Where("agenda_items.id = ?", poll.AgendaItemID).
			First(&sess).Error
		if err != nil {
			return lookupErr(err, "session of poll", pollID)
		}
		if sess.Deleted {
			return fmt.Errorf("poll %d: %w", pollID, ErrNotFound)
		}
		if sess.Closed && !poll.Open {
			return fmt.Errorf("cannot reopen poll %d of closed session %d: %w", pollID, sess.ID, ErrInvalidState)
		}
		poll.Open = !poll.Open
		return tx.Model(&poll).Update("open", poll.Open).Error
	})
	if err != nil {
		return types.Poll{}, err
	}

	s.publish(ctx, Event{
		Type:   EventPollToggled,
		PollID: pollID,
		Fields: map[string]interface{}{"open": poll.Open},
	})
	if !poll.Open {
		s.announce(ctx, poll)
	}
	return poll, nil
}

// announceTimeout bounds the result announcement after a poll closes.
const announceTimeout = 15 * time.Second

// announce outlives the request that closed the poll.
func (s *Service) announce(ctx context.Context, poll types.Poll) {
	if s.announcer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), announceTimeout)
	defer cancel()
	res, err := s.Results(ctx, poll.ID)
	if err != nil {
		log.Printf("council: announce poll %d: %v", poll.ID, err)
		return
	}
	a := Announcement{PollName: poll.Name, Result: res}
	if item, err := s.AgendaItem(ctx, poll.AgendaItemID); err == nil {
		a.ItemOrdinal, a.ItemTitle = item.Ordinal, item.Title
		if sess, err := s.Session(ctx, item.SessionID); err == nil {
			a.SessionName = sess.Name
		}
	}
	if err := s.announcer.AnnouncePollResult(ctx, a); err != nil {
		log.Printf("council: announce poll %d: %v", poll.ID, err)
	}
}

// RollCallEntry is one line of a public poll's roll call.
type RollCallEntry struct {
	VoterID   uint64       `json:"voterId"`
	FirstName string       `json:"firstName"`
	LastName  string       `json:"lastName"`
	Choice    types.Choice `json:"choice"`
}

// RollCall lists who voted how. Secret polls have no roll call.
func (s *Service) RollCall(ctx context.Context, actor types.Voter, pollID uint64) ([]RollCallEntry, error) {
	if err := Require(actor, CanVote); err != nil {
		return nil, err
	}
	poll, err := s.Poll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll.Secret() {
		return nil, fmt.Errorf("poll %d is secret: %w", pollID, ErrPermissionDenied)
	}

	var out []RollCallEntry
	err = s.db.WithContext(ctx).
		Table("votes").
		Select("voters.id AS voter_id, voters.first_name, voters.last_name, votes.choice").
		Joins("JOIN voters ON voters.id = votes.voter_id").
		Where("votes.poll_id = ?", pollID).
		Order("voters.last_name, voters.first_name").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("roll call of poll %d: %w", pollID, err)
	}
	return out, nil
}
