// Package queue publishes wallet events to the message broker.
package queue

import (
	"time"

	"github.com/Dan9191/savings-wallet/internal/models"
)

// RevenueQueueName is the durable queue loan-interest revenue is published to
const RevenueQueueName = "revenue.loan_interest"

// RevenueRecordedEvent is published once per disbursed loan with the interest the
// operator will earn. Amount is a decimal string so consumers keep exact cents.
type RevenueRecordedEvent struct {
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	SourceID    string `json:"source_id"`
	UserID      string `json:"user_id"`
	Description string `json:"description"`
	RecordedAt  string `json:"recorded_at"`
}

// NewRevenueRecordedEvent converts a revenue event to its wire form
func NewRevenueRecordedEvent(event models.RevenueEvent) RevenueRecordedEvent {
	return RevenueRecordedEvent{
		Amount:      event.Amount.StringFixed(2),
		Category:    event.Category,
		SourceID:    event.SourceID,
		UserID:      event.UserID,
		Description: event.Description,
		RecordedAt:  event.CreatedAt.UTC().Format(time.RFC3339),
	}
}
