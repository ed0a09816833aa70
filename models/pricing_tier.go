package models

import "time"

// Frequencies lists the recurrence frequencies a tier can price.
var Frequencies = []int{1, 2, 4, 8}

// PricingTier is an area-bounded price band of a tiered package. Bounds are
// inclusive and tiers of one package are non-overlapping by construction,
// though the store does not enforce that.
type PricingTier struct {
	ID             string   `bson:"id" json:"id"`
	PackageID      string   `bson:"package_id" json:"package_id"`
	AreaMin        float64  `bson:"area_min" json:"area_min"`
	AreaMax        float64  `bson:"area_max" json:"area_max"`
	RequiredStaff  int      `bson:"required_staff" json:"required_staff"`
	EstimatedHours *float64 `bson:"estimated_hours,omitempty" json:"estimated_hours,omitempty"`

	// Frequency-keyed prices; a nil slot means the tier does not offer that
	// frequency.
	PriceOneTime    *float64 `bson:"price_1_time,omitempty" json:"price_1_time,omitempty"`
	PriceTwoTimes   *float64 `bson:"price_2_times,omitempty" json:"price_2_times,omitempty"`
	PriceFourTimes  *float64 `bson:"price_4_times,omitempty" json:"price_4_times,omitempty"`
	PriceEightTimes *float64 `bson:"price_8_times,omitempty" json:"price_8_times,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Matches reports whether area falls within the tier's inclusive bounds.
func (t *PricingTier) Matches(area float64) bool {
	return t.AreaMin <= area && area <= t.AreaMax
}

// Width returns the size of the tier's area band.
func (t *PricingTier) Width() float64 {
	return t.AreaMax - t.AreaMin
}

// PriceFor returns the price slot for the given frequency, or nil when the
// tier does not define that frequency (or the frequency is unknown).
func (t *PricingTier) PriceFor(frequency int) *float64 {
	switch frequency {
	case 1:
		return t.PriceOneTime
	case 2:
		return t.PriceTwoTimes
	case 4:
		return t.PriceFourTimes
	case 8:
		return t.PriceEightTimes
	}
	return nil
}

// AvailableFrequencies returns the frequencies this tier prices, i.e. those
// with a non-nil price slot.
func (t *PricingTier) AvailableFrequencies() []int {
	var freqs []int
	for _, f := range Frequencies {
		if t.PriceFor(f) != nil {
			freqs = append(freqs, f)
		}
	}
	return freqs
}
