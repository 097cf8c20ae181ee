// Package notify carries user-visible completion and failure signals
// out of the assessment tracker. The tracker treats the Notifier as an
// opaque collaborator; delivery mechanics live here.
package notify

import (
	"log/slog"
	"time"
)

// Event types delivered to observers.
const (
	EventSaved     = "assessment_saved"
	EventDeleted   = "assessment_deleted"
	EventRefreshed = "assessments_refreshed"
	EventFailed    = "operation_failed"
)

// Event is the wire form of a notification.
type Event struct {
	Type    string    `json:"type"`
	ID      string    `json:"id,omitempty"`
	Count   int       `json:"count,omitempty"`
	Op      string    `json:"op,omitempty"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}

// Notifier receives completion and failure signals for a user's
// assessment operations.
type Notifier interface {
	AssessmentSaved(userID, id string)
	AssessmentDeleted(userID, id string)
	AssessmentsRefreshed(userID string, count int)
	OperationFailed(userID, op string, err error)
}

// LogNotifier reports events through slog only.
type LogNotifier struct{}

func (LogNotifier) AssessmentSaved(userID, id string) {
	slog.Info("assessment saved", "user", userID, "id", id)
}

func (LogNotifier) AssessmentDeleted(userID, id string) {
	slog.Info("assessment deleted", "user", userID, "id", id)
}

func (LogNotifier) AssessmentsRefreshed(userID string, count int) {
	slog.Debug("assessments refreshed", "user", userID, "count", count)
}

func (LogNotifier) OperationFailed(userID, op string, err error) {
	slog.Warn("assessment operation failed", "user", userID, "op", op, "error", err)
}

// Multi fans out to several notifiers in order.
type Multi []Notifier

func (m Multi) AssessmentSaved(userID, id string) {
	for _, n := range m {
		n.AssessmentSaved(userID, id)
	}
}

func (m Multi) AssessmentDeleted(userID, id string) {
	for _, n := range m {
		n.AssessmentDeleted(userID, id)
	}
}

func (m Multi) AssessmentsRefreshed(userID string, count int) {
	for _, n := range m {
		n.AssessmentsRefreshed(userID, count)
	}
}

func (m Multi) OperationFailed(userID, op string, err error) {
	for _, n := range m {
		n.OperationFailed(userID, op, err)
	}
}
