// Package claim implements the item claim lifecycle: admin intake of found
// items, claims by users, and admin review of claims.
//
// Every function checks its preconditions before touching the item, so a
// rejected transition leaves the item as it was.
package claim

import (
	"errors"
	"strings"
	"time"

	"github.com/erazemk/lostfound/internal/model"
)

var (
	// ErrForbidden is returned when the actor lacks the role for a transition.
	ErrForbidden = errors.New("forbidden")
	// ErrNotClaimable is returned when an item is not an unclaimed found item.
	ErrNotClaimable = errors.New("item is not available to claim")
	// ErrOwnItem is returned when a user claims an item they reported.
	ErrOwnItem = errors.New("cannot claim an item you reported")
	// ErrNotReviewable is returned when an item has no claim awaiting review.
	ErrNotReviewable = errors.New("item has no claim awaiting review")
	// ErrNotIntakeable is returned when an item is not a pending found item.
	ErrNotIntakeable = errors.New("only pending found items can be taken in")
)

// Decision is an admin's verdict on a claim.
type Decision string

// Decisions.
const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

// ValidDecision reports whether d is a known decision.
func ValidDecision(d Decision) bool {
	return d == Approve || d == Reject
}

// Intake marks a pending found item as handed in at the lost-and-found
// office, which makes it claimable.
func Intake(item *model.Item, actor model.User) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if item.Type != model.ItemTypeFound || item.Status != model.StatusPending {
		return ErrNotIntakeable
	}
	item.Status = model.StatusUnclaimed
	return nil
}

// Claim records claimant's claim on an unclaimed found item.
func Claim(item *model.Item, claimant model.Party, reason string, now time.Time) error {
	if claimant.ID == "" {
		return &model.ValidationError{Field: "claimedBy", Message: "you must be logged in to claim an item"}
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return &model.ValidationError{Field: "reason", Message: "please describe why this item is yours"}
	}
	if item.Type != model.ItemTypeFound || item.Status != model.StatusUnclaimed {
		return ErrNotClaimable
	}
	if item.ReportedBy.ID == claimant.ID {
		return ErrOwnItem
	}

	p := claimant
	t := now.UTC()
	item.Status = model.StatusClaimed
	item.ClaimedBy = &p
	item.ClaimDate = &t
	item.ClaimReason = reason
	return nil
}

// Review applies an admin decision to a claimed item. Approving is terminal;
// rejecting reopens the item for other claimants.
func Review(item *model.Item, actor model.User, d Decision, now time.Time) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if !ValidDecision(d) {
		return &model.ValidationError{Field: "decision", Message: "decision must be approve or reject"}
	}
	if !item.AwaitingReview() {
		return ErrNotReviewable
	}

	switch d {
	case Approve:
		t := now.UTC()
		item.ApprovedAt = &t
	case Reject:
		item.Status = model.StatusUnclaimed
		item.ClaimedBy = nil
		item.ClaimDate = nil
		item.ClaimReason = ""
	}
	return nil
}
