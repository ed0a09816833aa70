package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tidycrm/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const opTimeout = 5 * time.Second

// Create inserts a new booking, generating its id when empty.
func (r *mongoBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("insert booking failed: %w", err)
	}
	return nil
}

// CreateMany batch-inserts bookings, generating ids where empty. The insert
// is ordered, so a failure leaves a prefix of the batch persisted; callers
// own the compensation.
func (r *mongoBookingRepo) CreateMany(ctx context.Context, bs []*models.Booking) error {
	if len(bs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now()
	docs := make([]interface{}, 0, len(bs))
	for _, b := range bs {
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		b.CreatedAt = now
		b.UpdatedAt = now
		docs = append(docs, b)
	}

	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("batch insert bookings failed: %w", err)
	}
	return nil
}

// GetByID returns the booking with the given id, or ErrNotFound.
func (r *mongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var b models.Booking
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup booking %s failed: %w", id, err)
	}
	return &b, nil
}

// UpdateByID applies the given field updates to one booking.
func (r *mongoBookingRepo) UpdateByID(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, setUpdate(fields))
	if err != nil {
		return 0, fmt.Errorf("update booking %s failed: %w", id, err)
	}
	return res.ModifiedCount, nil
}

// UpdateByGroup applies the given field updates to every member of a group
// with sequence >= minSequence.
func (r *mongoBookingRepo) UpdateByGroup(ctx context.Context, groupID string, minSequence int, fields map[string]interface{}) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx, groupFilter(groupID, minSequence), setUpdate(fields))
	if err != nil {
		return 0, fmt.Errorf("update group %s failed: %w", groupID, err)
	}
	return res.ModifiedCount, nil
}

// DeleteByID removes one booking by id.
func (r *mongoBookingRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return 0, fmt.Errorf("delete booking %s failed: %w", id, err)
	}
	return res.DeletedCount, nil
}

// DeleteByIDs removes every booking whose id is in ids. Used by the
// compensating rollback path of group creation.
func (r *mongoBookingRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("delete bookings failed: %w", err)
	}
	return res.DeletedCount, nil
}

// DeleteByGroup removes every member of a group with sequence >= minSequence.
func (r *mongoBookingRepo) DeleteByGroup(ctx context.Context, groupID string, minSequence int) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, groupFilter(groupID, minSequence))
	if err != nil {
		return 0, fmt.Errorf("delete group %s failed: %w", groupID, err)
	}
	return res.DeletedCount, nil
}

func groupFilter(groupID string, minSequence int) bson.M {
	filter := bson.M{"recurring_group_id": groupID}
	if minSequence > 1 {
		filter["recurring_sequence"] = bson.M{"$gte": minSequence}
	}
	return filter
}

// updatableFields is the set of document fields an update may $set. Keys
// outside it, identity and recurrence linkage included, are dropped rather
// than written into documents.
var updatableFields = map[string]bool{
	"customer_id":    true,
	"staff_id":       true,
	"team_id":        true,
	"booking_date":   true,
	"end_date":       true,
	"start_time":     true,
	"end_time":       true,
	"area_sqm":       true,
	"frequency":      true,
	"total_price":    true,
	"required_staff": true,
	"status":         true,
	"payment_status": true,
}

func setUpdate(fields map[string]interface{}) bson.M {
	set := bson.M{"updated_at": time.Now()}
	for k, v := range fields {
		if !updatableFields[k] {
			continue
		}
		set[k] = v
	}
	return bson.M{"$set": set}
}
