package entities

import "time"

// AlertStatus is the delivery state of a caregiver alert.
type AlertStatus string

const (
	AlertStatusPending AlertStatus = "pending"
	AlertStatusSent    AlertStatus = "sent"
	AlertStatusFailed  AlertStatus = "failed"
)

// IntakeAlert records a caregiver notification raised for a verification
// event that did not confirm an intake. The message is kept so the audit
// trail shows exactly what the caregiver was told.
type IntakeAlert struct {
	AlertID      string       `json:"alert_id" db:"alert_id"`
	EventID      string       `json:"event_id" db:"event_id"`
	IntakeStatus IntakeStatus `json:"intake_status" db:"intake_status"`
	Recipient    string       `json:"recipient" db:"recipient"`
	Message      string       `json:"message" db:"message"`
	Status       AlertStatus  `json:"status" db:"status"`
	MessageID    string       `json:"message_id,omitempty" db:"message_id"`
	Error        string       `json:"error,omitempty" db:"error"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}
