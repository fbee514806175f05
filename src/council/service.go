// Package council implements the session state machine, vote ledger, tally,
// attendance/quorum tracking, motions and committees on top of a gorm store.
//
// Every cross-row invariant rests on the store: the active-session and
// active-agenda-item pointers are changed inside transactions that lock the
// owning row, and votes, attendance and motion signatures are protected by
// unique indexes whose violations are reported as named errors.
package council

import (
	"context"
	"log"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// Event is published after a successful state change.
type Event struct {
	Type         string
	SessionID    uint64
	AgendaItemID uint64
	PollID       uint64
	VoterID      uint64
	Fields       map[string]interface{}
}

const (
	EventSessionActivated   = "session.activated"
	EventSessionDeactivated = "session.deactivated"
	EventSessionClosed      = "session.closed"
	EventAgendaItemActive   = "agenda.item_activated"
	EventPollToggled        = "poll.toggled"
	EventVoteCast           = "vote.cast"
	EventAttendanceChanged  = "attendance.changed"
	EventMotionSubmitted    = "motion.submitted"
)

// Publisher delivers events to display screens and other listeners.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Announcement is what gets posted when a poll closes.
type Announcement struct {
	SessionName string
	ItemOrdinal int
	ItemTitle   string
	PollName    string
	Result      Result
}

// Announcer posts poll outcomes to an outside channel.
type Announcer interface {
	AnnouncePollResult(ctx context.Context, a Announcement) error
}

type Service struct {
	db        *gorm.DB
	events    Publisher
	announcer Announcer
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithAnnouncer(a Announcer) Option {
	return func(s *Service) { s.announcer = a }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:        db,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// publish never fails the calling operation.
func (s *Service) publish(ctx context.Context, ev Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Printf("council: publish %s: %v", ev.Type, err)
	}
}
