package booking

import (
	"context"
	"errors"
	"fmt"

	bookingRepo "tidycrm/database/repository/booking"
	historyRepo "tidycrm/database/repository/history"
	"tidycrm/models"
	"tidycrm/services/events"

	"go.uber.org/zap"
)

// StatusService validates and applies status and payment-status transitions,
// recording each applied transition as an immutable history entry.
type StatusService interface {
	ChangeStatus(ctx context.Context, bookingID string, to models.BookingStatus, changedBy, notes string) error
	ChangePaymentStatus(ctx context.Context, bookingID string, to models.PaymentStatus, changedBy, notes string) error
	History(ctx context.Context, bookingID string, newestFirst bool) ([]models.StatusHistory, error)
}

// DefaultStatusService implements StatusService.
type DefaultStatusService struct {
	Repo        bookingRepo.Repository
	HistoryRepo historyRepo.StatusHistoryRepository
	Events      events.Publisher
	Logger      *zap.Logger
}

// ChangeStatus applies a booking status transition. The transition is
// re-validated here regardless of what the client claims is allowed; an
// invalid pair is rejected before any write, naming both statuses.
func (s *DefaultStatusService) ChangeStatus(ctx context.Context, bookingID string, to models.BookingStatus, changedBy, notes string) error {
	if !to.IsValid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", to)}
	}

	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return &NotFoundError{Resource: "booking", ID: bookingID}
		}
		return err
	}

	if !b.Status.CanTransitionTo(to) {
		return &InvalidTransitionError{Field: models.HistoryFieldStatus, From: string(b.Status), To: string(to)}
	}

	if _, err := s.Repo.UpdateByID(ctx, bookingID, map[string]interface{}{"status": to}); err != nil {
		return err
	}

	if _, err := s.HistoryRepo.Append(ctx, models.StatusHistory{
		BookingID: bookingID,
		Field:     models.HistoryFieldStatus,
		OldStatus: string(b.Status),
		NewStatus: string(to),
		ChangedBy: changedBy,
		Notes:     notes,
	}); err != nil {
		return fmt.Errorf("status updated but history append failed: %w", err)
	}

	s.publish(ctx, events.BookingEvent{
		Type:      events.EventStatusChanged,
		BookingID: bookingID,
		GroupID:   b.RecurringGroupID,
		Detail:    map[string]string{"from": string(b.Status), "to": string(to)},
	})
	return nil
}

// ChangePaymentStatus applies a payment sub-status transition; same contract
// as ChangeStatus on the orthogonal payment state.
func (s *DefaultStatusService) ChangePaymentStatus(ctx context.Context, bookingID string, to models.PaymentStatus, changedBy, notes string) error {
	if !to.IsValid() {
		return &ValidationError{Field: "payment_status", Reason: fmt.Sprintf("unknown payment status %q", to)}
	}

	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return &NotFoundError{Resource: "booking", ID: bookingID}
		}
		return err
	}

	if !b.PaymentStatus.CanTransitionTo(to) {
		return &InvalidTransitionError{Field: models.HistoryFieldPayment, From: string(b.PaymentStatus), To: string(to)}
	}

	if _, err := s.Repo.UpdateByID(ctx, bookingID, map[string]interface{}{"payment_status": to}); err != nil {
		return err
	}

	if _, err := s.HistoryRepo.Append(ctx, models.StatusHistory{
		BookingID: bookingID,
		Field:     models.HistoryFieldPayment,
		OldStatus: string(b.PaymentStatus),
		NewStatus: string(to),
		ChangedBy: changedBy,
		Notes:     notes,
	}); err != nil {
		return fmt.Errorf("payment status updated but history append failed: %w", err)
	}

	s.publish(ctx, events.BookingEvent{
		Type:      events.EventPaymentChanged,
		BookingID: bookingID,
		GroupID:   b.RecurringGroupID,
		Detail:    map[string]string{"from": string(b.PaymentStatus), "to": string(to)},
	})
	return nil
}

// History returns the booking's audit trail in the requested order.
func (s *DefaultStatusService) History(ctx context.Context, bookingID string, newestFirst bool) ([]models.StatusHistory, error) {
	return s.HistoryRepo.ListByBooking(ctx, bookingID, newestFirst)
}

// publish emits an event best-effort; a queue outage never fails the
// transition that already committed.
func (s *DefaultStatusService) publish(ctx context.Context, evt events.BookingEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, evt); err != nil {
		s.Logger.Warn("failed to publish booking event", zap.String("type", evt.Type), zap.Error(err))
	}
}
