package tierRepo

import (
	"context"

	"tidycrm/database"
	"tidycrm/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// TierRepository is the read-only pricing-tier collaborator. Tiers are
// authored elsewhere; the engine only resolves against them.
type TierRepository interface {
	// ListByPackage returns all tiers of a package ordered by area_min.
	ListByPackage(ctx context.Context, packageID string) ([]models.PricingTier, error)
}

type mongoTierRepo struct {
	coll *mongo.Collection
}

// NewMongoTierRepo returns a TierRepository backed by the pricing_tiers
// collection.
func NewMongoTierRepo(dbName string) TierRepository {
	db := database.MongoClient.Database(dbName)
	return &mongoTierRepo{
		coll: db.Collection("pricing_tiers"),
	}
}
