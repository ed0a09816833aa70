package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	bookingRepo "tidycrm/database/repository/booking"
	"tidycrm/models"
	"tidycrm/services/events"

	"github.com/google/uuid"
)

// fakeBookingRepo is an in-memory bookingRepo.Repository. failChildAt injects
// a batch-insert failure after the given number of children have been
// persisted, mimicking mongo's ordered InsertMany partial-write behavior.
type fakeBookingRepo struct {
	mu            sync.Mutex
	bookings      map[string]models.Booking
	transactional bool

	failChildAt    int // 1-based child position that fails; 0 = never
	findActiveErr  error
	createManyErrs int
}

func newFakeBookingRepo(transactional bool) *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings:      make(map[string]models.Booking),
		transactional: transactional,
	}
}

func (f *fakeBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	f.bookings[b.ID] = *b
	return nil
}

func (f *fakeBookingRepo) CreateMany(ctx context.Context, bs []*models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range bs {
		if f.failChildAt > 0 && i+1 == f.failChildAt {
			f.createManyErrs++
			return fmt.Errorf("simulated write failure at child %d", f.failChildAt)
		}
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		f.bookings[b.ID] = *b
	}
	return nil
}

func (f *fakeBookingRepo) CreateGroup(ctx context.Context, parent *models.Booking, children []*models.Booking) error {
	if !f.transactional {
		return bookingRepo.ErrTxnUnsupported
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if parent.ID == "" {
		parent.ID = uuid.New().String()
	}
	f.bookings[parent.ID] = *parent
	for _, c := range children {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		f.bookings[c.ID] = *c
	}
	return nil
}

func (f *fakeBookingRepo) CreateChecked(ctx context.Context, b *models.Booking) error {
	existing, err := f.FindActive(ctx, bookingRepo.AssignmentQuery{
		StaffID:    b.StaffID,
		TeamID:     b.TeamID,
		RangeStart: b.BookingDate,
		RangeEnd:   b.EffectiveEnd(),
	})
	if err != nil {
		return err
	}
	for i := range existing {
		if models.TimesOverlap(b.StartTime, b.EndTime, existing[i].StartTime, existing[i].EndTime) {
			return bookingRepo.ErrConflict
		}
	}
	return f.Create(ctx, b)
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	cp := b
	return &cp, nil
}

func (f *fakeBookingRepo) FindByGroup(ctx context.Context, groupID string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var members []models.Booking
	for _, b := range f.bookings {
		if b.RecurringGroupID == groupID {
			members = append(members, b)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].RecurringSequence < members[j].RecurringSequence
	})
	return members, nil
}

func (f *fakeBookingRepo) CountByGroup(ctx context.Context, groupID string) (int64, error) {
	members, _ := f.FindByGroup(ctx, groupID)
	return int64(len(members)), nil
}

func (f *fakeBookingRepo) FindActive(ctx context.Context, q bookingRepo.AssignmentQuery) ([]models.Booking, error) {
	if f.findActiveErr != nil {
		return nil, f.findActiveErr
	}
	if q.StaffID == "" && q.TeamID == "" {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var matches []models.Booking
	for _, b := range f.bookings {
		if !b.Status.IsActive() {
			continue
		}
		if b.ID == q.ExcludeID {
			continue
		}
		identity := (q.StaffID != "" && b.StaffID == q.StaffID) ||
			(q.TeamID != "" && b.TeamID == q.TeamID)
		if !identity {
			continue
		}
		if !b.OverlapsRange(q.RangeStart, q.RangeEnd) {
			continue
		}
		matches = append(matches, b)
	}
	return matches, nil
}

func (f *fakeBookingRepo) UpdateByID(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return 0, nil
	}
	applyFields(&b, fields)
	f.bookings[id] = b
	return 1, nil
}

func (f *fakeBookingRepo) UpdateByGroup(ctx context.Context, groupID string, minSequence int, fields map[string]interface{}) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, b := range f.bookings {
		if b.RecurringGroupID != groupID {
			continue
		}
		if minSequence > 1 && b.RecurringSequence < minSequence {
			continue
		}
		applyFields(&b, fields)
		f.bookings[id] = b
		n++
	}
	return n, nil
}

func (f *fakeBookingRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[id]; !ok {
		return 0, nil
	}
	delete(f.bookings, id)
	return 1, nil
}

func (f *fakeBookingRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := f.bookings[id]; ok {
			delete(f.bookings, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeBookingRepo) DeleteByGroup(ctx context.Context, groupID string, minSequence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, b := range f.bookings {
		if b.RecurringGroupID != groupID {
			continue
		}
		if minSequence > 1 && b.RecurringSequence < minSequence {
			continue
		}
		delete(f.bookings, id)
		n++
	}
	return n, nil
}

func (f *fakeBookingRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeBookingRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookings)
}

func applyFields(b *models.Booking, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "status":
			switch s := v.(type) {
			case models.BookingStatus:
				b.Status = s
			case string:
				b.Status = models.BookingStatus(s)
			}
		case "payment_status":
			switch s := v.(type) {
			case models.PaymentStatus:
				b.PaymentStatus = s
			case string:
				b.PaymentStatus = models.PaymentStatus(s)
			}
		case "customer_id":
			b.CustomerID = v.(string)
		case "staff_id":
			b.StaffID = v.(string)
		case "team_id":
			b.TeamID = v.(string)
		case "booking_date":
			b.BookingDate = v.(string)
		case "end_date":
			b.EndDate = v.(string)
		case "start_time":
			b.StartTime = v.(int)
		case "end_time":
			b.EndTime = v.(int)
		case "frequency":
			b.Frequency = v.(int)
		case "area_sqm":
			f := v.(float64)
			b.AreaSqm = &f
		case "total_price":
			b.TotalPrice = v.(float64)
		case "required_staff":
			b.RequiredStaff = v.(int)
		}
	}
	b.UpdatedAt = time.Now()
}

// fakeTierRepo serves a fixed tier set.
type fakeTierRepo struct {
	tiers []models.PricingTier
	err   error
}

func (f *fakeTierRepo) ListByPackage(ctx context.Context, packageID string) ([]models.PricingTier, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.PricingTier
	for _, t := range f.tiers {
		if t.PackageID == packageID {
			out = append(out, t)
		}
	}
	return out, nil
}

// fakeHistoryRepo records appended entries in order.
type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []models.StatusHistory
}

func (f *fakeHistoryRepo) Append(ctx context.Context, entry models.StatusHistory) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	// A strictly increasing timestamp keeps ordering deterministic.
	entry.CreatedAt = time.Unix(int64(len(f.entries)), 0)
	f.entries = append(f.entries, entry)
	return entry.ID, nil
}

func (f *fakeHistoryRepo) ListByBooking(ctx context.Context, bookingID string, newestFirst bool) ([]models.StatusHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.StatusHistory
	for _, e := range f.entries {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	if newestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// fakePublisher captures published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, evt events.BookingEvent) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

func (f *fakePublisher) byType(t string) []events.BookingEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []events.BookingEvent
	for _, e := range f.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
