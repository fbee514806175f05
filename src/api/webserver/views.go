package webserver

import (
	"time"

	"github.com/esir-council/esir/src/council"
	"github.com/esir-council/esir/src/types"
)

// JSON shapes served by the API. Store types never leave the package
// directly; the voter view in particular carries no password data.

type voterView struct {
	ID        uint64     `json:"id"`
	Login     string     `json:"login"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Role      types.Role `json:"role"`
	Active    bool       `json:"active"`
}

func newVoterView(v types.Voter) voterView {
	return voterView{ID: v.ID, Login: v.Login, FirstName: v.FirstName, LastName: v.LastName, Role: v.Role, Active: v.Active}
}

type sessionView struct {
	ID                 uint64    `json:"id"`
	Name               string    `json:"name"`
	ScheduledAt        time.Time `json:"scheduledAt"`
	Active             bool      `json:"active"`
	Closed             bool      `json:"closed"`
	Published          bool      `json:"published"`
	ActiveAgendaItemID *uint64   `json:"activeAgendaItemId"`
}

func newSessionView(s types.Session) sessionView {
	return sessionView{
		ID: s.ID, Name: s.Name, ScheduledAt: s.ScheduledAt,
		Active: s.Active, Closed: s.Closed, Published: s.Published,
		ActiveAgendaItemID: s.ActiveAgendaItemID,
	}
}

func newSessionViews(in []types.Session) []sessionView {
	out := make([]sessionView, len(in))
	for i, s := range in {
		out[i] = newSessionView(s)
	}
	return out
}

type itemView struct {
	ID          uint64 `json:"id"`
	SessionID   uint64 `json:"sessionId"`
	Ordinal     int    `json:"ordinal"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

func newItemView(it types.AgendaItem) itemView {
	return itemView{ID: it.ID, SessionID: it.SessionID, Ordinal: it.Ordinal, Title: it.Title, Description: it.Description, Active: it.Active}
}

type pollView struct {
	ID            uint64             `json:"id"`
	AgendaItemID  uint64             `json:"agendaItemId"`
	Name          string             `json:"name"`
	Open          bool               `json:"open"`
	Visibility    types.Visibility   `json:"visibility"`
	Majority      types.MajorityRule `json:"majority"`
	EligibleCount *int               `json:"eligibleCount,omitempty"`
}

func newPollView(p types.Poll) pollView {
	return pollView{
		ID: p.ID, AgendaItemID: p.AgendaItemID, Name: p.Name, Open: p.Open,
		Visibility: p.Visibility, Majority: p.Majority, EligibleCount: p.EligibleCount,
	}
}

func optionalPoll(p *types.Poll) *pollView {
	if p == nil {
		return nil
	}
	v := newPollView(*p)
	return &v
}

type agendaEntryView struct {
	Item itemView  `json:"item"`
	Poll *pollView `json:"poll,omitempty"`
}

type activeItemView struct {
	Item   itemView        `json:"item"`
	Poll   *pollView       `json:"poll,omitempty"`
	Result *council.Result `json:"result,omitempty"`
}

type motionView struct {
	ID           uint64     `json:"id"`
	Signature    string     `json:"signature"`
	SubmitterID  uint64     `json:"submitterId"`
	AgendaItemID *uint64    `json:"agendaItemId,omitempty"`
	CommitteeID  *uint64    `json:"committeeId,omitempty"`
	Body         string     `json:"body"`
	Approved     bool       `json:"approved"`
	ForwardedAt  *time.Time `json:"forwardedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func newMotionView(m types.Motion) motionView {
	return motionView{
		ID: m.ID, Signature: m.Signature, SubmitterID: m.SubmitterID,
		AgendaItemID: m.AgendaItemID, CommitteeID: m.CommitteeID,
		Body: m.Body, Approved: m.Approved, ForwardedAt: m.ForwardedAt, CreatedAt: m.CreatedAt,
	}
}

func newMotionViews(in []types.Motion) []motionView {
	out := make([]motionView, len(in))
	for i, m := range in {
		out[i] = newMotionView(m)
	}
	return out
}

type attendanceView struct {
	Voter    voterView `json:"voter"`
	Recorded bool      `json:"recorded"`
	Present  bool      `json:"present"`
}
