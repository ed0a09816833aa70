package booking

import (
	"context"
	"errors"
	"fmt"

	tierRepo "tidycrm/database/repository/tier"
	"tidycrm/models"

	"go.uber.org/zap"
)

// PricingResult is the combined answer real callers use. When Found is false
// the zero price is a sentinel, not a business value, and RequiredStaff
// defaults to 1 so downstream staffing logic never schedules nobody.
type PricingResult struct {
	Price          float64             `json:"price"`
	RequiredStaff  int                 `json:"required_staff"`
	EstimatedHours *float64            `json:"estimated_hours,omitempty"`
	Tier           *models.PricingTier `json:"tier,omitempty"`
	Found          bool                `json:"found"`
}

// PricingEngine resolves price and staffing from area/frequency tiers.
type PricingEngine interface {
	ResolveTier(ctx context.Context, packageID string, areaSqm float64) (*models.PricingTier, error)
	CalculatePrice(ctx context.Context, packageID string, areaSqm float64, frequency int) (float64, error)
	CalculatePricing(ctx context.Context, packageID string, areaSqm float64, frequency int) (PricingResult, error)
}

// DefaultPricingEngine implements PricingEngine over the tier repository.
type DefaultPricingEngine struct {
	Tiers  tierRepo.TierRepository
	Logger *zap.Logger
}

// ResolveTier selects the tier whose inclusive [area_min, area_max] band
// contains areaSqm. Tier bands are non-overlapping by construction but not
// enforced at the data layer; when malformed data makes several match, the
// narrowest band wins (lowest area_min on equal width) and the tie-break is
// logged as a data-integrity warning. Returns NotFoundError when no tier
// matches.
func (e *DefaultPricingEngine) ResolveTier(ctx context.Context, packageID string, areaSqm float64) (*models.PricingTier, error) {
	tiers, err := e.Tiers.ListByPackage(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("resolve tier for package %s: %w", packageID, err)
	}

	var matches []models.PricingTier
	for i := range tiers {
		if tiers[i].Matches(areaSqm) {
			matches = append(matches, tiers[i])
		}
	}

	switch len(matches) {
	case 0:
		return nil, &NotFoundError{Resource: "pricing tier", ID: fmt.Sprintf("%s/%.1fsqm", packageID, areaSqm)}
	case 1:
		return &matches[0], nil
	}

	// Malformed tier data: overlapping bands. Pick deterministically rather
	// than trusting store-returned order.
	best := matches[0]
	for _, m := range matches[1:] {
		if m.Width() < best.Width() || (m.Width() == best.Width() && m.AreaMin < best.AreaMin) {
			best = m
		}
	}
	e.Logger.Warn("overlapping pricing tiers, narrowest band wins",
		zap.String("packageId", packageID),
		zap.Float64("areaSqm", areaSqm),
		zap.Int("matches", len(matches)),
		zap.String("chosenTier", best.ID),
	)
	return &best, nil
}

// CalculatePrice returns the price slot matching frequency, or the 0 sentinel
// when no tier matches. Callers needing to distinguish "no tier" from a zero
// price must use CalculatePricing and check Found.
func (e *DefaultPricingEngine) CalculatePrice(ctx context.Context, packageID string, areaSqm float64, frequency int) (float64, error) {
	res, err := e.CalculatePricing(ctx, packageID, areaSqm, frequency)
	if err != nil {
		return 0, err
	}
	return res.Price, nil
}

// CalculatePricing is the single combined entry point. A missing tier is not
// an error: the result carries Found=false with the documented safe defaults.
// Storage failures still propagate as errors.
func (e *DefaultPricingEngine) CalculatePricing(ctx context.Context, packageID string, areaSqm float64, frequency int) (PricingResult, error) {
	notFound := PricingResult{Price: 0, RequiredStaff: 1, Found: false}

	tier, err := e.ResolveTier(ctx, packageID, areaSqm)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return notFound, nil
		}
		return PricingResult{}, err
	}

	res := PricingResult{
		RequiredStaff:  tier.RequiredStaff,
		EstimatedHours: tier.EstimatedHours,
		Tier:           tier,
		Found:          true,
	}
	if price := tier.PriceFor(frequency); price != nil {
		res.Price = *price
	} else {
		e.Logger.Warn("tier does not offer requested frequency",
			zap.String("packageId", packageID),
			zap.String("tierId", tier.ID),
			zap.Int("frequency", frequency),
		)
	}
	return res, nil
}
