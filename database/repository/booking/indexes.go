package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the engine's scans depend on. The
// assignment indexes back the conflict-detection scans; the group index backs
// scoped edits/deletes and rejects duplicate (group, sequence) pairs.
func (r *mongoBookingRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "staff_id", Value: 1}, {Key: "booking_date", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "booking_date", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "recurring_group_id", Value: 1}, {Key: "recurring_sequence", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"recurring_group_id": bson.M{"$exists": true}}),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
