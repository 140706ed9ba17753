package claim

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/erazemk/lostfound/internal/model"
)

var (
	admin    = model.User{ID: "a1", UniversityID: "0000000000", Name: "Admin", Role: model.RoleAdmin}
	student  = model.User{ID: "u2", UniversityID: "2222222222", Name: "Claimant", Role: model.RoleUser}
	reporter = model.Party{ID: "u1", Name: "Finder", UniversityID: "1111111111"}
	now      = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
)

func foundItem(status model.Status) model.Item {
	return model.Item{
		ID:         "i1",
		Name:       "Calculator",
		Type:       model.ItemTypeFound,
		Status:     status,
		ReportedBy: reporter,
	}
}

func claimed() model.Item {
	item := foundItem(model.StatusUnclaimed)
	if err := Claim(&item, student.Party(), "my initials are on the back", now); err != nil {
		panic(err)
	}
	return item
}

func TestIntake(t *testing.T) {
	item := foundItem(model.StatusPending)
	if err := Intake(&item, admin); err != nil {
		t.Fatalf("Intake: %v", err)
	}
	if item.Status != model.StatusUnclaimed {
		t.Errorf("expected status 'unclaimed', got %q", item.Status)
	}
}

func TestIntakeRejected(t *testing.T) {
	lost := foundItem(model.StatusPending)
	lost.Type = model.ItemTypeLost

	tests := []struct {
		name  string
		item  model.Item
		actor model.User
		want  error
	}{
		{"not admin", foundItem(model.StatusPending), student, ErrForbidden},
		{"lost item", lost, admin, ErrNotIntakeable},
		{"already unclaimed", foundItem(model.StatusUnclaimed), admin, ErrNotIntakeable},
	}

	for _, tt := range tests {
		item := tt.item
		err := Intake(&item, tt.actor)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
		if diff := cmp.Diff(tt.item, item); diff != "" {
			t.Errorf("%s: item changed (-before +after):\n%s", tt.name, diff)
		}
	}
}

func TestClaim(t *testing.T) {
	item := claimed()
	if item.Status != model.StatusClaimed {
		t.Errorf("expected status 'claimed', got %q", item.Status)
	}
	if item.ClaimedBy == nil || item.ClaimedBy.ID != student.ID {
		t.Errorf("expected claimant %q, got %+v", student.ID, item.ClaimedBy)
	}
	if item.ClaimDate == nil || !item.ClaimDate.Equal(now) {
		t.Errorf("expected claim date %v, got %v", now, item.ClaimDate)
	}
	if item.ClaimReason != "my initials are on the back" {
		t.Errorf("unexpected claim reason %q", item.ClaimReason)
	}
}

func TestClaimRejected(t *testing.T) {
	lost := foundItem(model.StatusUnclaimed)
	lost.Type = model.ItemTypeLost

	tests := []struct {
		name     string
		item     model.Item
		claimant model.Party
		reason   string
		want     error
	}{
		{"pending", foundItem(model.StatusPending), student.Party(), "mine", ErrNotClaimable},
		{"already claimed", claimed(), model.Party{ID: "u3"}, "mine", ErrNotClaimable},
		{"lost item", lost, student.Party(), "mine", ErrNotClaimable},
		{"own item", foundItem(model.StatusUnclaimed), reporter, "mine", ErrOwnItem},
	}

	for _, tt := range tests {
		item := tt.item.Clone()
		err := Claim(&item, tt.claimant, tt.reason, now)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
		if diff := cmp.Diff(tt.item, item); diff != "" {
			t.Errorf("%s: item changed (-before +after):\n%s", tt.name, diff)
		}
	}
}

func TestClaimRequiresReason(t *testing.T) {
	item := foundItem(model.StatusUnclaimed)
	err := Claim(&item, student.Party(), "   ", now)

	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if item.Status != model.StatusUnclaimed {
		t.Errorf("expected status unchanged, got %q", item.Status)
	}
}

func TestReviewApprove(t *testing.T) {
	item := claimed()
	if err := Review(&item, admin, Approve, now.Add(time.Hour)); err != nil {
		t.Fatalf("Review: %v", err)
	}
	if item.ApprovedAt == nil {
		t.Fatal("expected approvedAt to be set")
	}
	if item.Status != model.StatusClaimed {
		t.Errorf("expected status 'claimed', got %q", item.Status)
	}

	// Approval is terminal.
	if err := Review(&item, admin, Reject, now); !errors.Is(err, ErrNotReviewable) {
		t.Errorf("expected ErrNotReviewable after approval, got %v", err)
	}
}

func TestReviewRejectReopens(t *testing.T) {
	item := claimed()
	if err := Review(&item, admin, Reject, now); err != nil {
		t.Fatalf("Review: %v", err)
	}

	want := foundItem(model.StatusUnclaimed)
	if diff := cmp.Diff(want, item); diff != "" {
		t.Errorf("rejected item mismatch (-want +got):\n%s", diff)
	}

	// A reopened item can be claimed again.
	if err := Claim(&item, model.Party{ID: "u3"}, "mine", now); err != nil {
		t.Errorf("expected reopened item to be claimable, got %v", err)
	}
}

func TestReviewRejected(t *testing.T) {
	tests := []struct {
		name     string
		item     model.Item
		actor    model.User
		decision Decision
		check    func(error) bool
	}{
		{"not admin", claimed(), student, Approve, func(err error) bool { return errors.Is(err, ErrForbidden) }},
		{"nothing to review", foundItem(model.StatusUnclaimed), admin, Approve, func(err error) bool { return errors.Is(err, ErrNotReviewable) }},
		{"unknown decision", claimed(), admin, "maybe", func(err error) bool {
			var verr *model.ValidationError
			return errors.As(err, &verr)
		}},
	}

	for _, tt := range tests {
		item := tt.item.Clone()
		err := Review(&item, tt.actor, tt.decision, now)
		if !tt.check(err) {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if diff := cmp.Diff(tt.item, item); diff != "" {
			t.Errorf("%s: item changed (-before +after):\n%s", tt.name, diff)
		}
	}
}
