package notification

import (
	"context"
	"fmt"

	"github.com/KunArthit/petterrain-api-sub000/middleware"
	"github.com/KunArthit/petterrain-api-sub000/models"

	"go.uber.org/zap"
)

type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a composed email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, email Email) error {
	m.logger.Info("[EMAIL]",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("body", email.Body),
	)
	return nil
}

// Dispatcher turns order events into customer notifications.
type Dispatcher struct {
	mailer Mailer
	logger *zap.Logger
}

func NewDispatcher(mailer Mailer, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{mailer: mailer, logger: logger}
}

func (d *Dispatcher) Notify(ctx context.Context, event models.OrderEvent) error {
	email, ok := Compose(event)
	if !ok {
		d.logger.Debug("No notification for event", zap.String("event_type", event.EventType))
		return nil
	}

	if err := d.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("send %s notification: %w", event.EventType, err)
	}

	middleware.RecordNotificationSent(event.EventType)
	d.logger.Info("Order notification sent",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.String("event_type", event.EventType),
		zap.Int64("order_id", event.OrderID),
		zap.Int64("user_id", event.UserID),
	)
	return nil
}

// Compose builds the email for an order event. ok is false for event types
// customers are not told about.
func Compose(event models.OrderEvent) (Email, bool) {
	email := Email{To: fmt.Sprintf("user_%d@example.com", event.UserID)}
	ref := event.InvoiceNo
	if ref == "" {
		ref = fmt.Sprintf("#%d", event.OrderID)
	}

	switch event.EventType {
	case models.EventOrderCreated:
		email.Subject = "Order Confirmation"
		email.Body = fmt.Sprintf("Your order %s has been placed successfully! Total: %s. We'll notify you once it's confirmed.",
			ref, event.TotalAmount.StringFixed(2))
	case models.EventOrderPaid:
		email.Subject = "Payment Successful"
		email.Body = fmt.Sprintf("Payment for order %s was successful!", ref)
	case models.EventOrderFailed:
		email.Subject = "Payment Failed"
		email.Body = fmt.Sprintf("Payment for order %s failed. Please try again or contact support.", ref)
	case models.EventOrderCancelled:
		email.Subject = "Order Cancelled"
		email.Body = fmt.Sprintf("Your order %s has been cancelled.", ref)
	case models.EventOrderShipped:
		email.Subject = "Order Shipped"
		email.Body = fmt.Sprintf("Your order %s is on its way.", ref)
	case models.EventTrackingAssigned:
		email.Subject = "Tracking Number"
		email.Body = fmt.Sprintf("Your order %s can be tracked with %s.", ref, event.Tracking)
	default:
		return Email{}, false
	}
	return email, true
}
