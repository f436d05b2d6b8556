// Package models defines the domain types shared across the service.
package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date wire format used by the API and the store.
const DateLayout = "2006-01-02"

// InteractionType is the closed enumeration of touchpoint kinds.
type InteractionType string

const (
	TypeCall     InteractionType = "call"
	TypeEmail    InteractionType = "email"
	TypeMeeting  InteractionType = "meeting"
	TypeEvent    InteractionType = "event"
	TypeLinkedIn InteractionType = "linkedin"
	TypeOther    InteractionType = "other"
)

// Valid reports whether t is a member of the enumeration.
func (t InteractionType) Valid() bool {
	switch t {
	case TypeCall, TypeEmail, TypeMeeting, TypeEvent, TypeLinkedIn, TypeOther:
		return true
	default:
		return false
	}
}

// ParseInteractionType validates a raw string against the enumeration.
func ParseInteractionType(s string) (InteractionType, error) {
	t := InteractionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown interaction type %q", s)
	}
	return t, nil
}

// Contact is one person in the relationship tracker. Owned by the store;
// the capture engine only references it by ID.
type Contact struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Company     string    `json:"company,omitempty"`
	Title       string    `json:"title,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	LinkedinURL string    `json:"linkedinUrl,omitempty"`
	Website     string    `json:"website,omitempty"`
	Location    string    `json:"location,omitempty"`
	Timezone    string    `json:"timezone,omitempty"`
	Status      string    `json:"status,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Interaction is one logged touchpoint with a Contact.
// NextFollowUpDate must be nil whenever ReminderSet is false.
type Interaction struct {
	ID               string          `json:"id"`
	ContactID        string          `json:"contactId"`
	Date             string          `json:"date"`
	Type             InteractionType `json:"type"`
	Notes            string          `json:"notes"`
	ReminderSet      bool            `json:"reminderSet"`
	NextFollowUpDate *string         `json:"nextFollowUpDate"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// InteractionLogged is the event published when an interaction is created.
type InteractionLogged struct {
	EventType     string `json:"eventType"`
	InteractionID string `json:"interactionId"`
	ContactID     string `json:"contactId"`
	Type          string `json:"type"`
	Date          string `json:"date"`
	Timestamp     int64  `json:"timestamp"`
}

// ReminderScheduled is the event published when an interaction carries a
// follow-up reminder.
type ReminderScheduled struct {
	EventType        string `json:"eventType"`
	InteractionID    string `json:"interactionId"`
	ContactID        string `json:"contactId"`
	NextFollowUpDate string `json:"nextFollowUpDate,omitempty"`
	Timestamp        int64  `json:"timestamp"`
}
