package council

import (
	"errors"
	"testing"

	"github.com/esir-council/esir/src/types"
)

func TestProtocol(t *testing.T) {
	f := newFixture(t)
	s := f.session("Sesja sprawozdawcza")
	opening := f.item(s.ID, 1)
	budget := f.item(s.ID, 2)
	secret := f.item(s.ID, 3)
	_ = opening

	pub, err := f.svc.CreatePoll(f.ctx, f.operator, budget.ID, PollInput{Name: "Budżet", Open: true})
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	sec, err := f.svc.CreatePoll(f.ctx, f.operator, secret.ID, PollInput{Name: "Wybór", Open: true, Visibility: types.VisibilitySecret})
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	v := f.voter(types.RoleCouncillor)
	for _, id := range []uint64{pub.ID, sec.ID} {
		if _, err := f.svc.CastVote(f.ctx, v, id, types.ChoiceFor); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}
	if _, err := f.svc.SetAttendanceSelf(f.ctx, v, s.ID, true); err != nil {
		t.Fatalf("attend: %v", err)
	}

	p, err := f.svc.Protocol(f.ctx, f.operator, s.ID)
	if err != nil {
		t.Fatalf("protocol: %v", err)
	}
	if p.Session.ID != s.ID || p.Quorum.Present != 1 || len(p.Attendance) != 3 {
		t.Fatalf("unexpected protocol header %+v", p)
	}
	if len(p.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(p.Items))
	}
	if p.Items[0].Poll != nil || p.Items[0].Result != nil {
		t.Fatalf("item without poll carries a result: %+v", p.Items[0])
	}
	if r := p.Items[1].Result; r == nil || r.For == nil || *r.For != 1 {
		t.Fatalf("public result missing: %+v", r)
	}
	if r := p.Items[2].Result; r == nil || !r.Withheld || r.For != nil {
		t.Fatalf("open secret poll leaked into protocol: %+v", r)
	}

	if _, err := f.svc.Protocol(f.ctx, v, s.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}
