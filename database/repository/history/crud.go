package historyRepo

import (
	"context"
	"fmt"
	"time"

	"tidycrm/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Append writes one immutable history entry and returns its id.
func (r *mongoHistoryRepo) Append(ctx context.Context, entry models.StatusHistory) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now()

	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return "", fmt.Errorf("append status history failed: %w", err)
	}
	return entry.ID, nil
}

// ListByBooking returns a booking's history ordered by creation time.
func (r *mongoHistoryRepo) ListByBooking(ctx context.Context, bookingID string, newestFirst bool) ([]models.StatusHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	order := 1
	if newestFirst {
		order = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: order}})
	cursor, err := r.coll.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list status history for booking %s failed: %w", bookingID, err)
	}
	defer cursor.Close(ctx)

	var entries []models.StatusHistory
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode status history for booking %s failed: %w", bookingID, err)
	}
	return entries, nil
}
