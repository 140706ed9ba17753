package model

import (
	"strings"
	"time"
)

// ItemType distinguishes lost reports from found reports.
type ItemType string

// Item types.
const (
	ItemTypeLost  ItemType = "lost"
	ItemTypeFound ItemType = "found"
)

// Status is the claim state of an item.
type Status string

// Item statuses.
const (
	StatusPending   Status = "pending"
	StatusUnclaimed Status = "unclaimed"
	StatusClaimed   Status = "claimed"
)

// Party is a denormalized snapshot of a user, copied into items at the time
// they report or claim. It is not updated when the user changes.
type Party struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	UniversityID string `json:"universityId"`
}

// Item is a reported lost or found object.
type Item struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        ItemType   `json:"type"`
	Date        string     `json:"date"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Status      Status     `json:"status"`
	ReportedBy  Party      `json:"reportedBy"`
	Image       string     `json:"image,omitempty"`
	ClaimedBy   *Party     `json:"claimedBy,omitempty"`
	ClaimDate   *time.Time `json:"claimDate,omitempty"`
	ClaimReason string     `json:"claimReason,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	if i.ClaimedBy != nil {
		p := *i.ClaimedBy
		i.ClaimedBy = &p
	}
	if i.ClaimDate != nil {
		t := *i.ClaimDate
		i.ClaimDate = &t
	}
	if i.ApprovedAt != nil {
		t := *i.ApprovedAt
		i.ApprovedAt = &t
	}
	return i
}

// AwaitingReview reports whether the item has a claim an admin has not yet approved.
func (i Item) AwaitingReview() bool {
	return i.Status == StatusClaimed && i.ApprovedAt == nil
}

// Report is the reporter-supplied part of an item: everything except the
// identifier, status and claim fields, which the store and the claim
// lifecycle own.
type Report struct {
	Name        string   `json:"name"`
	Type        ItemType `json:"type"`
	Date        string   `json:"date"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Image       string   `json:"image,omitempty"`
	ReportedBy  Party    `json:"reportedBy"`
}

// Validate checks the required report fields.
func (r Report) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Message: "item name is required"}
	}
	if !ValidItemType(r.Type) {
		return &ValidationError{Field: "type", Message: "type must be lost or found"}
	}
	if strings.TrimSpace(r.Category) == "" {
		return &ValidationError{Field: "category", Message: "please select a category"}
	}
	if strings.TrimSpace(r.Location) == "" {
		return &ValidationError{Field: "location", Message: "please select a location"}
	}
	if strings.TrimSpace(r.Date) == "" {
		return &ValidationError{Field: "date", Message: "please provide the date"}
	}
	if r.ReportedBy.ID == "" {
		return &ValidationError{Field: "reportedBy", Message: "you must be logged in to report an item"}
	}
	return nil
}

// ValidItemType reports whether t is a known item type.
func ValidItemType(t ItemType) bool {
	return t == ItemTypeLost || t == ItemTypeFound
}

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	return s == StatusPending || s == StatusUnclaimed || s == StatusClaimed
}

// DefaultCategories is the category catalog offered by the report form.
var DefaultCategories = []string{
	"Electronics",
	"Books & Stationery",
	"Clothing & Accessories",
	"ID & Cards",
	"Keys",
	"Bags & Luggage",
	"Others",
}

// DefaultLocations is the campus location catalog offered by the report form.
var DefaultLocations = []string{
	"Main Building - Ground Floor",
	"Main Building - First Floor",
	"Science Block",
	"Library",
	"Cafeteria",
	"Hostel Block A",
	"Hostel Block B",
	"Sports Complex",
	"Auditorium",
	"Parking Area",
}
