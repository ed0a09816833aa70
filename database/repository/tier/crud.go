package tierRepo

import (
	"context"
	"fmt"
	"time"

	"tidycrm/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListByPackage returns all tiers of a package ordered by area_min.
func (r *mongoTierRepo) ListByPackage(ctx context.Context, packageID string) ([]models.PricingTier, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "area_min", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"package_id": packageID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list tiers for package %s failed: %w", packageID, err)
	}
	defer cursor.Close(ctx)

	var tiers []models.PricingTier
	if err := cursor.All(ctx, &tiers); err != nil {
		return nil, fmt.Errorf("decode tiers for package %s failed: %w", packageID, err)
	}
	return tiers, nil
}
