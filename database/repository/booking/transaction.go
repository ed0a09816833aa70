package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tidycrm/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateGroup persists the parent booking and its children as one
// multi-document transaction, so no reader ever observes a partially created
// group. On deployments without transaction support it returns
// ErrTxnUnsupported and the caller runs the compensating-delete path instead.
func (r *mongoBookingRepo) CreateGroup(ctx context.Context, parent *models.Booking, children []*models.Booking) error {
	if !r.transactional {
		return ErrTxnUnsupported
	}

	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	now := time.Now()
	stamp := func(b *models.Booking) {
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		b.CreatedAt = now
		b.UpdatedAt = now
	}
	stamp(parent)
	for _, c := range children {
		stamp(c)
	}

	txnFn := func(sc mongo.SessionContext) error {
		if _, err := r.coll.InsertOne(sc, parent); err != nil {
			return fmt.Errorf("insert parent booking failed: %w", err)
		}
		if len(children) > 0 {
			docs := make([]interface{}, 0, len(children))
			for _, c := range children {
				docs = append(docs, c)
			}
			if _, err := r.coll.InsertMany(sc, docs); err != nil {
				return fmt.Errorf("insert child bookings failed: %w", err)
			}
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return fmt.Errorf("group creation transaction failed: %w", err)
	}

	return nil
}

// CreateChecked inserts b only after re-running the overlap scan inside the
// same transaction, closing the read-then-decide window between a conflict
// pre-check and the write. Without transaction support the check and insert
// run sequentially, which narrows the race but cannot eliminate it.
func (r *mongoBookingRepo) CreateChecked(ctx context.Context, b *models.Booking) error {
	q := AssignmentQuery{
		StaffID:    b.StaffID,
		TeamID:     b.TeamID,
		RangeStart: b.BookingDate,
		RangeEnd:   b.EffectiveEnd(),
	}

	checkAndInsert := func(sc context.Context) error {
		existing, err := r.FindActive(sc, q)
		if err != nil {
			return err
		}
		for i := range existing {
			if models.TimesOverlap(b.StartTime, b.EndTime, existing[i].StartTime, existing[i].EndTime) {
				return ErrConflict
			}
		}
		return r.Create(sc, b)
	}

	if !r.transactional {
		return checkAndInsert(ctx)
	}

	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := checkAndInsert(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrConflict
		}
		return fmt.Errorf("checked insert failed: %w", err)
	}

	return nil
}
