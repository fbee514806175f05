package council

import (
	"errors"
	"testing"

	"github.com/esir-council/esir/src/types"
)

func TestCommitteeMotionForwarding(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.CreateCommittee(f.ctx, f.admin, "Komisja Rewizyjna")
	if err != nil {
		t.Fatalf("create committee: %v", err)
	}
	if _, err := f.svc.CreateCommittee(f.ctx, f.admin, "Komisja Rewizyjna"); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate committee: expected conflict, got %v", err)
	}

	chair := f.voter(types.RoleCouncillor)
	member := f.voter(types.RoleCouncillor)
	outsider := f.voter(types.RoleCouncillor)
	if _, err := f.svc.AddCommitteeMember(f.ctx, f.admin, c.ID, chair.ID, true); err != nil {
		t.Fatalf("add chair: %v", err)
	}
	if _, err := f.svc.AddCommitteeMember(f.ctx, f.admin, c.ID, member.ID, false); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := f.svc.AddCommitteeMember(f.ctx, f.admin, c.ID, member.ID, false); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate member: expected conflict, got %v", err)
	}
	if _, err := f.svc.AddCommitteeMember(f.ctx, f.operator, c.ID, outsider.ID, false); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("presidium cannot manage committees, got %v", err)
	}

	if _, err := f.svc.SubmitMotion(f.ctx, outsider, MotionInput{Body: "x", CommitteeID: &c.ID}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("outsider motion: expected permission denied, got %v", err)
	}
	m, err := f.svc.SubmitMotion(f.ctx, member, MotionInput{Body: "Kontrola wydatków", CommitteeID: &c.ID})
	if err != nil {
		t.Fatalf("member motion: %v", err)
	}

	list, err := f.svc.CommitteeMotions(f.ctx, member, c.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("committee motions: %v %v", list, err)
	}
	if _, err := f.svc.CommitteeMotions(f.ctx, outsider, c.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("outsider listing: expected permission denied, got %v", err)
	}

	if _, err := f.svc.ForwardToCouncil(f.ctx, member, m.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("member forwarding: expected permission denied, got %v", err)
	}
	fwd, err := f.svc.ForwardToCouncil(f.ctx, chair, m.ID)
	if err != nil || fwd.ForwardedAt == nil {
		t.Fatalf("forward: %+v %v", fwd, err)
	}
	if _, err := f.svc.ForwardToCouncil(f.ctx, chair, m.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("second forward: expected conflict, got %v", err)
	}

	inbox, err := f.svc.CouncilInbox(f.ctx, f.operator)
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if len(inbox) != 1 || inbox[0].ID != m.ID {
		t.Fatalf("unexpected inbox %+v", inbox)
	}
}

func TestForwardRequiresCommitteeMotion(t *testing.T) {
	f := newFixture(t)
	v := f.voter(types.RoleCouncillor)
	m, err := f.svc.SubmitMotion(f.ctx, v, MotionInput{Body: "plain"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.svc.ForwardToCouncil(f.ctx, v, m.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}
