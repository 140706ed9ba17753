package model

import (
	"testing"
	"time"
)

func validReport() Report {
	return Report{
		Name:       "Blue backpack",
		Type:       ItemTypeLost,
		Date:       "2024-03-01T10:30",
		Location:   "Library",
		Category:   "Bags & Luggage",
		ReportedBy: Party{ID: "u1", Name: "Student User", UniversityID: "1234567890"},
	}
}

func TestReportValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Report)
		field   string
		wantErr bool
	}{
		{"valid", func(r *Report) {}, "", false},
		{"blank name", func(r *Report) { r.Name = "   " }, "name", true},
		{"bad type", func(r *Report) { r.Type = "stolen" }, "type", true},
		{"no category", func(r *Report) { r.Category = "" }, "category", true},
		{"no location", func(r *Report) { r.Location = "" }, "location", true},
		{"no date", func(r *Report) { r.Date = "" }, "date", true},
		{"anonymous", func(r *Report) { r.ReportedBy = Party{} }, "reportedBy", true},
	}

	for _, tt := range tests {
		r := validReport()
		tt.mutate(&r)
		err := r.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err != nil {
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Errorf("%s: expected *ValidationError, got %T", tt.name, err)
			} else if verr.Field != tt.field {
				t.Errorf("%s: expected field %q, got %q", tt.name, tt.field, verr.Field)
			}
		}
	}
}

func TestItemCloneIsDeep(t *testing.T) {
	now := time.Now()
	item := Item{
		ID:        "i1",
		Status:    StatusClaimed,
		ClaimedBy: &Party{ID: "u2", Name: "Claimant"},
		ClaimDate: &now,
	}

	cp := item.Clone()
	cp.ClaimedBy.Name = "Changed"
	*cp.ClaimDate = now.Add(time.Hour)

	if item.ClaimedBy.Name != "Claimant" {
		t.Errorf("expected original claimant untouched, got %q", item.ClaimedBy.Name)
	}
	if !item.ClaimDate.Equal(now) {
		t.Error("expected original claim date untouched")
	}
}

func TestAwaitingReview(t *testing.T) {
	now := time.Now()
	if (Item{Status: StatusUnclaimed}).AwaitingReview() {
		t.Error("unclaimed item should not await review")
	}
	if !(Item{Status: StatusClaimed}).AwaitingReview() {
		t.Error("claimed item should await review")
	}
	if (Item{Status: StatusClaimed, ApprovedAt: &now}).AwaitingReview() {
		t.Error("approved item should not await review")
	}
}
