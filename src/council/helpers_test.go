package council

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/esir-council/esir/src/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 12, 17, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type recordingAnnouncer struct {
	mu   sync.Mutex
	sent []Announcement
}

func (a *recordingAnnouncer) AnnouncePollResult(_ context.Context, ann Announcement) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, ann)
	return nil
}

type fixture struct {
	t         *testing.T
	ctx       context.Context
	db        *gorm.DB
	svc       *Service
	events    *recordingPublisher
	announcer *recordingAnnouncer
	operator  types.Voter
	admin     types.Voter
	seq       int
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// One connection keeps the in-memory database alive and shared. It also
	// serializes every transaction, so concurrency tests on this database
	// only cover error mapping; newFileFixture exercises real contention.
	return openTestDB(t, ":memory:", 1)
}

func openTestDB(t *testing.T, dsn string, conns int) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(types.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := EnsureState(context.Background(), db); err != nil {
		t.Fatalf("ensure state: %v", err)
	}
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, newTestDB(t))
}

// newFileFixture backs the service with an on-disk database shared by
// several connections. BEGIN IMMEDIATE takes the write lock up front, which
// stands in for the row locks MySQL takes on SELECT ... FOR UPDATE.
func newFileFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "council.db") + "?_txlock=immediate&_busy_timeout=10000"
	return newFixtureOn(t, openTestDB(t, dsn, 8))
}

func newFixtureOn(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	f := &fixture{
		t:         t,
		ctx:       context.Background(),
		db:        db,
		events:    &recordingPublisher{},
		announcer: &recordingAnnouncer{},
	}
	f.svc = New(f.db,
		WithPublisher(f.events),
		WithAnnouncer(f.announcer),
		WithClock(func() time.Time { return testNow }),
	)
	f.operator = f.voter(types.RolePresidium)
	f.admin = f.voter(types.RoleAdministrator)
	return f
}

func (f *fixture) voter(role types.Role) types.Voter {
	f.t.Helper()
	f.seq++
	v, created, err := f.svc.RegisterVoter(f.ctx, types.Voter{
		Login:     fmt.Sprintf("voter.%d", f.seq),
		FirstName: "Voter",
		LastName:  fmt.Sprintf("No%03d", f.seq),
		Role:      role,
		Active:    true,
	})
	if err != nil || !created {
		f.t.Fatalf("register voter: created=%v err=%v", created, err)
	}
	return v
}

func (f *fixture) session(name string) types.Session {
	f.t.Helper()
	s, err := f.svc.CreateSession(f.ctx, f.operator, SessionInput{Name: name, ScheduledAt: testNow.Add(24 * time.Hour)})
	if err != nil {
		f.t.Fatalf("create session: %v", err)
	}
	return s
}

func (f *fixture) item(sessionID uint64, ordinal int) types.AgendaItem {
	f.t.Helper()
	it, err := f.svc.AddAgendaItem(f.ctx, f.operator, sessionID, AgendaItemInput{
		Ordinal: ordinal,
		Title:   fmt.Sprintf("Item %d", ordinal),
	})
	if err != nil {
		f.t.Fatalf("add agenda item: %v", err)
	}
	return it
}

func (f *fixture) poll(in PollInput) types.Poll {
	f.t.Helper()
	sess := f.session("Poll session")
	it := f.item(sess.ID, 1)
	if in.Name == "" {
		in.Name = "Resolution"
	}
	p, err := f.svc.CreatePoll(f.ctx, f.operator, it.ID, in)
	if err != nil {
		f.t.Fatalf("create poll: %v", err)
	}
	return p
}

func intPtr(n int) *int { return &n }
