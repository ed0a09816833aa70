package historyRepo

import (
	"context"

	"tidycrm/database"
	"tidycrm/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// StatusHistoryRepository is the append-only audit-trail collaborator.
// Entries are never updated or deleted once written.
type StatusHistoryRepository interface {
	Append(ctx context.Context, entry models.StatusHistory) (string, error)
	// ListByBooking returns a booking's history in creation order, newest or
	// oldest first.
	ListByBooking(ctx context.Context, bookingID string, newestFirst bool) ([]models.StatusHistory, error)
}

type mongoHistoryRepo struct {
	coll *mongo.Collection
}

// NewMongoHistoryRepo returns a StatusHistoryRepository backed by the
// status_history collection.
func NewMongoHistoryRepo(dbName string) StatusHistoryRepository {
	db := database.MongoClient.Database(dbName)
	return &mongoHistoryRepo{
		coll: db.Collection("status_history"),
	}
}
