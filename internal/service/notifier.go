package service

import (
	"context"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
	"go.uber.org/zap"
)

// Notifier tells the buyer that their tickets were issued.
type Notifier interface {
	TicketsIssued(ctx context.Context, rec *model.TransactionRecord) error
}

// LogNotifier records the delivery in the log instead of sending it.
type LogNotifier struct {
	Log *zap.Logger
}

// TicketsIssued implements Notifier.
func (n LogNotifier) TicketsIssued(_ context.Context, rec *model.TransactionRecord) error {
	if n.Log == nil {
		return nil
	}
	n.Log.Info("tickets sent to email & phone",
		zap.String("order_id", rec.OrderID),
		zap.String("email", rec.Buyer.Email),
		zap.String("phone", rec.Buyer.Phone),
		zap.Int("tickets", rec.TicketCount()),
	)
	return nil
}
