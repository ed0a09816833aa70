package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "tidycrm/database/repository/booking"
	"tidycrm/models"
	"tidycrm/services/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scope is the breadth of a mutation applied to a recurring group.
type Scope string

const (
	ScopeThisOnly      Scope = "this_only"
	ScopeThisAndFuture Scope = "this_and_future"
	ScopeAll           Scope = "all"
)

// IsValid reports whether s is a recognized scope.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeThisOnly, ScopeThisAndFuture, ScopeAll:
		return true
	}
	return false
}

// CreateGroupInput describes a recurring group to be created. The template
// supplies everything shared across occurrences (assignment, times, package,
// area); dates are generated from the pattern, or supplied explicitly for the
// custom pattern.
type CreateGroupInput struct {
	Template         models.Booking `json:"template"`
	Pattern          string         `json:"pattern"` // auto-weekly, auto-biweekly or custom
	TotalOccurrences int            `json:"total_occurrences"`
	Dates            []string       `json:"dates,omitempty"` // required for custom
}

// CreateGroupResult reports a successfully created group.
type CreateGroupResult struct {
	GroupID    string   `json:"group_id"`
	BookingIDs []string `json:"booking_ids"` // in sequence order, parent first
}

// GroupManager orchestrates multi-record creation, scoped editing and scoped
// deletion of linked recurring bookings.
type GroupManager interface {
	CreateBooking(ctx context.Context, b models.Booking) (*models.Booking, error)
	CreateGroup(ctx context.Context, input CreateGroupInput) (*CreateGroupResult, error)
	EditScoped(ctx context.Context, bookingID string, scope Scope, updates map[string]interface{}) (int64, error)
	DeleteScoped(ctx context.Context, bookingID string, scope Scope) (int64, error)
	GetGroup(ctx context.Context, groupID string) (*models.RecurringGroup, error)
	GroupExists(ctx context.Context, groupID string) (bool, error)
}

// DefaultGroupManager implements GroupManager.
type DefaultGroupManager struct {
	Repo      bookingRepo.Repository
	Pricing   PricingEngine
	Conflicts ConflictDetector
	Events    events.Publisher
	Logger    *zap.Logger

	// Today returns the current date for "upcoming" aggregation; overridable
	// in tests. Nil means time.Now in the local zone.
	Today func() string
}

// linkageFields cannot be touched through scoped edits: group membership is
// immutable once created except via group creation and scoped deletion.
var linkageFields = map[string]bool{
	"id":                 true,
	"is_recurring":       true,
	"recurring_group_id": true,
	"recurring_sequence": true,
	"recurring_total":    true,
	"parent_booking_id":  true,
}

// statusFields only change through the transition operations, where the state
// machine validates the pair and the history entry is appended. A scoped edit
// must never smuggle a status past that path.
var statusFields = map[string]bool{
	"status":         true,
	"payment_status": true,
}

// editableFields is the whitelist of fields a scoped edit may set.
// total_price is only honored for manually priced bookings; when the edit
// touches a tiered booking's area or frequency the engine recomputes the
// price and staffing itself.
var editableFields = map[string]bool{
	"customer_id":  true,
	"staff_id":     true,
	"team_id":      true,
	"booking_date": true,
	"end_date":     true,
	"start_time":   true,
	"end_time":     true,
	"area_sqm":     true,
	"frequency":    true,
	"total_price":  true,
}

// CreateBooking prices (when tiered) and conflict-checks a single
// non-recurring booking, then inserts it through the checked-insert path so
// the overlap decision and the write happen under one transaction where the
// store supports it.
func (m *DefaultGroupManager) CreateBooking(ctx context.Context, b models.Booking) (*models.Booking, error) {
	if err := m.prepare(ctx, &b); err != nil {
		return nil, err
	}

	if err := m.Repo.CreateChecked(ctx, &b); err != nil {
		if errors.Is(err, bookingRepo.ErrConflict) {
			conflicts, ferr := m.Conflicts.FindConflicts(ctx, candidateFor(&b))
			if ferr != nil {
				m.Logger.Warn("could not enumerate conflicts after rejected insert", zap.Error(ferr))
			}
			return nil, &ConflictError{Conflicts: conflicts}
		}
		return nil, err
	}

	m.publish(ctx, events.BookingEvent{Type: events.EventBookingCreated, BookingID: b.ID})
	return &b, nil
}

// CreateGroup creates a linked sequence of bookings sharing a fresh group id.
// Creation is all-or-nothing from an external observer's point of view: the
// transactional path covers both writes, and the fallback path rolls back
// every created booking (parent included) if the child batch fails.
func (m *DefaultGroupManager) CreateGroup(ctx context.Context, input CreateGroupInput) (*CreateGroupResult, error) {
	dates, err := m.occurrenceDates(input)
	if err != nil {
		return nil, err
	}

	template := input.Template
	if err := m.prepare(ctx, &template); err != nil {
		return nil, err
	}

	// Every occurrence passes conflict detection before anything is written.
	// Multi-day templates keep their span on each occurrence.
	span := template.DurationDays()
	occs := make([]models.Booking, 0, len(dates))
	for _, date := range dates {
		occ := template
		occ.BookingDate = date
		occ.EndDate = shiftedEnd(date, span)
		occs = append(occs, occ)
	}

	// The occurrences must not collide with each other either: duplicate or
	// mutually overlapping custom dates would double-book the assignment
	// within the group itself, which no scan of persisted bookings can catch.
	for i := range occs {
		for j := i + 1; j < len(occs); j++ {
			if assignmentsCollide(&occs[i], &occs[j]) {
				return nil, &ValidationError{
					Field:  "dates",
					Reason: fmt.Sprintf("occurrences on %s and %s overlap each other", occs[i].BookingDate, occs[j].BookingDate),
				}
			}
		}
	}

	var allConflicts []models.Booking
	for i := range occs {
		conflicts, err := m.Conflicts.FindConflicts(ctx, candidateFor(&occs[i]))
		if err != nil {
			return nil, err
		}
		allConflicts = append(allConflicts, conflicts...)
	}
	if len(allConflicts) > 0 {
		return nil, &ConflictError{Conflicts: allConflicts}
	}

	groupID := uuid.New().String()
	parent, children := buildGroup(template, input.Pattern, groupID, dates)

	err = m.Repo.CreateGroup(ctx, parent, children)
	switch {
	case err == nil:
		// Transactional path committed both writes.
	case errors.Is(err, bookingRepo.ErrTxnUnsupported):
		if err := m.createGroupWithRollback(ctx, groupID, parent, children); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	ids := make([]string, 0, len(children)+1)
	ids = append(ids, parent.ID)
	for _, c := range children {
		ids = append(ids, c.ID)
	}

	m.publish(ctx, events.BookingEvent{
		Type:    events.EventGroupCreated,
		GroupID: groupID,
		Detail:  map[string]string{"occurrences": fmt.Sprintf("%d", len(ids))},
	})
	return &CreateGroupResult{GroupID: groupID, BookingIDs: ids}, nil
}

// createGroupWithRollback is the compensating-delete path for stores without
// multi-document transactions: parent first, then the child batch; any child
// failure deletes everything created so far before returning, so the group is
// never observable partially created.
func (m *DefaultGroupManager) createGroupWithRollback(ctx context.Context, groupID string, parent *models.Booking, children []*models.Booking) error {
	if err := m.Repo.Create(ctx, parent); err != nil {
		// Nothing written; abort with no partial state.
		return fmt.Errorf("create group parent: %w", err)
	}

	if err := m.Repo.CreateMany(ctx, children); err != nil {
		created := []string{parent.ID}
		for _, c := range children {
			if c.ID != "" {
				created = append(created, c.ID)
			}
		}
		deleted, derr := m.Repo.DeleteByIDs(ctx, created)
		if derr != nil {
			m.Logger.Error("rollback of partially created group failed",
				zap.String("groupId", groupID),
				zap.Error(derr),
			)
		}
		return &PartialFailureError{
			GroupID:    groupID,
			Attempted:  len(children) + 1,
			RolledBack: int(deleted),
			Cause:      err,
		}
	}
	return nil
}

// EditScoped applies field updates to the targeted booking and, depending on
// scope, its group siblings. Edits run the same pipeline as creation: the
// field set is whitelisted (status changes go through the transition
// operations, linkage fields are immutable), every affected member is
// re-checked for conflicts with its own id excluded, and a touched tier
// snapshot is re-resolved before anything is written.
func (m *DefaultGroupManager) EditScoped(ctx context.Context, bookingID string, scope Scope, updates map[string]interface{}) (int64, error) {
	target, err := m.scopeTarget(ctx, bookingID, scope)
	if err != nil {
		return 0, err
	}
	if err := validateEditFields(updates); err != nil {
		return 0, err
	}

	members, err := m.affectedMembers(ctx, target, scope)
	if err != nil {
		return 0, err
	}

	edited := make([]models.Booking, len(members))
	for i := range members {
		e, err := applyEdit(members[i], updates)
		if err != nil {
			return 0, err
		}
		edited[i] = e
	}

	fields := updates
	if touchesPricing(updates) {
		if fields, err = m.repriceUpdates(ctx, updates, &edited[0]); err != nil {
			return 0, err
		}
	}
	if touchesSchedule(updates) {
		if err := m.checkEditConflicts(ctx, edited); err != nil {
			return 0, err
		}
	}

	var updated int64
	switch scope {
	case ScopeThisOnly:
		updated, err = m.Repo.UpdateByID(ctx, bookingID, fields)
	case ScopeThisAndFuture:
		updated, err = m.Repo.UpdateByGroup(ctx, target.RecurringGroupID, target.RecurringSequence, fields)
	case ScopeAll:
		updated, err = m.Repo.UpdateByGroup(ctx, target.RecurringGroupID, 0, fields)
	}
	if err != nil {
		return 0, err
	}

	m.publish(ctx, events.BookingEvent{
		Type:      events.EventGroupUpdated,
		BookingID: bookingID,
		GroupID:   target.RecurringGroupID,
		Detail:    map[string]string{"scope": string(scope)},
	})
	return updated, nil
}

// DeleteScoped removes the targeted booking and, depending on scope, its
// group siblings.
func (m *DefaultGroupManager) DeleteScoped(ctx context.Context, bookingID string, scope Scope) (int64, error) {
	target, err := m.scopeTarget(ctx, bookingID, scope)
	if err != nil {
		return 0, err
	}

	var deleted int64
	switch scope {
	case ScopeThisOnly:
		deleted, err = m.Repo.DeleteByID(ctx, bookingID)
	case ScopeThisAndFuture:
		deleted, err = m.Repo.DeleteByGroup(ctx, target.RecurringGroupID, target.RecurringSequence)
	case ScopeAll:
		deleted, err = m.Repo.DeleteByGroup(ctx, target.RecurringGroupID, 0)
	}
	if err != nil {
		return 0, err
	}

	m.publish(ctx, events.BookingEvent{
		Type:      events.EventGroupDeleted,
		BookingID: bookingID,
		GroupID:   target.RecurringGroupID,
		Detail:    map[string]string{"scope": string(scope)},
	})
	return deleted, nil
}

// GetGroup fetches all member bookings ordered by sequence and computes the
// aggregate counts. A group with zero members returns nil, not an error: with
// no header record, a group that never existed is indistinguishable from an
// emptied one.
func (m *DefaultGroupManager) GetGroup(ctx context.Context, groupID string) (*models.RecurringGroup, error) {
	members, err := m.Repo.FindByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	today := m.today()
	group := &models.RecurringGroup{
		GroupID:    groupID,
		Bookings:   members,
		TotalCount: len(members),
	}
	for i := range members {
		switch members[i].Status {
		case models.StatusCompleted:
			group.CompletedCount++
		case models.StatusCancelled:
			group.CancelledCount++
		}
		if members[i].Status.IsActive() && members[i].BookingDate >= today {
			group.UpcomingCount++
		}
	}
	return group, nil
}

// GroupExists is a lightweight existence check used before cross-linking.
func (m *DefaultGroupManager) GroupExists(ctx context.Context, groupID string) (bool, error) {
	n, err := m.Repo.CountByGroup(ctx, groupID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// scopeTarget loads the booking a scoped operation addresses and validates
// the scope's preconditions against it.
func (m *DefaultGroupManager) scopeTarget(ctx context.Context, bookingID string, scope Scope) (*models.Booking, error) {
	if !scope.IsValid() {
		return nil, &InvalidScopeError{BookingID: bookingID, Scope: scope, Reason: "unknown scope"}
	}

	target, err := m.Repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, &NotFoundError{Resource: "booking", ID: bookingID}
		}
		return nil, err
	}

	if !target.IsRecurring {
		return nil, &InvalidScopeError{BookingID: bookingID, Scope: scope, Reason: "booking is not recurring"}
	}
	if scope != ScopeThisOnly && target.RecurringGroupID == "" {
		return nil, &InvalidScopeError{BookingID: bookingID, Scope: scope, Reason: "booking has no recurring group id"}
	}
	return target, nil
}

// validateEditFields rejects any field a scoped edit may not set, before any
// read or write happens.
func validateEditFields(updates map[string]interface{}) error {
	if len(updates) == 0 {
		return &ValidationError{Field: "updates", Reason: "no fields to update"}
	}
	for field := range updates {
		switch {
		case linkageFields[field]:
			return &ValidationError{Field: field, Reason: "recurrence linkage fields cannot be edited"}
		case statusFields[field]:
			return &ValidationError{Field: field, Reason: "status changes go through the status transition operations"}
		case !editableFields[field]:
			return &ValidationError{Field: field, Reason: "not an editable booking field"}
		}
	}
	return nil
}

// affectedMembers returns the bookings a scoped edit will touch, in sequence
// order.
func (m *DefaultGroupManager) affectedMembers(ctx context.Context, target *models.Booking, scope Scope) ([]models.Booking, error) {
	if scope == ScopeThisOnly {
		return []models.Booking{*target}, nil
	}
	members, err := m.Repo.FindByGroup(ctx, target.RecurringGroupID)
	if err != nil {
		return nil, err
	}
	if scope == ScopeAll {
		return members, nil
	}
	out := make([]models.Booking, 0, len(members))
	for _, b := range members {
		if b.RecurringSequence >= target.RecurringSequence {
			out = append(out, b)
		}
	}
	return out, nil
}

// applyEdit returns a copy of b with the updates applied, re-validating the
// record's own invariants. Update values arrive as JSON-decoded interface
// values, so numbers may be float64.
func applyEdit(b models.Booking, updates map[string]interface{}) (models.Booking, error) {
	for field, v := range updates {
		switch field {
		case "customer_id", "staff_id", "team_id", "booking_date", "end_date":
			s, ok := v.(string)
			if !ok {
				return b, &ValidationError{Field: field, Reason: "must be a string"}
			}
			switch field {
			case "customer_id":
				b.CustomerID = s
			case "staff_id":
				b.StaffID = s
			case "team_id":
				b.TeamID = s
			case "booking_date":
				b.BookingDate = s
			case "end_date":
				b.EndDate = s
			}
		case "start_time", "end_time", "frequency":
			n, ok := intValue(v)
			if !ok {
				return b, &ValidationError{Field: field, Reason: "must be a number"}
			}
			switch field {
			case "start_time":
				b.StartTime = n
			case "end_time":
				b.EndTime = n
			case "frequency":
				b.Frequency = n
			}
		case "area_sqm":
			f, ok := floatValue(v)
			if !ok {
				return b, &ValidationError{Field: field, Reason: "must be a number"}
			}
			b.AreaSqm = &f
		case "total_price":
			f, ok := floatValue(v)
			if !ok {
				return b, &ValidationError{Field: field, Reason: "must be a number"}
			}
			b.TotalPrice = f
		}
	}

	if _, err := models.ParseDate(b.BookingDate); err != nil {
		return b, &ValidationError{Field: "booking_date", Reason: fmt.Sprintf("not a valid date: %q", b.BookingDate)}
	}
	if b.EndDate != "" {
		if _, err := models.ParseDate(b.EndDate); err != nil {
			return b, &ValidationError{Field: "end_date", Reason: fmt.Sprintf("not a valid date: %q", b.EndDate)}
		}
		if b.EndDate < b.BookingDate {
			return b, &ValidationError{Field: "end_date", Reason: "before booking_date"}
		}
	}
	if b.EndTime <= b.StartTime {
		return b, &ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}
	return b, nil
}

func intValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func floatValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func touchesPricing(updates map[string]interface{}) bool {
	_, area := updates["area_sqm"]
	_, freq := updates["frequency"]
	return area || freq
}

func touchesSchedule(updates map[string]interface{}) bool {
	for _, f := range []string{"staff_id", "team_id", "booking_date", "end_date", "start_time", "end_time"} {
		if _, ok := updates[f]; ok {
			return true
		}
	}
	return false
}

// repriceUpdates re-resolves the tier snapshot for a tiered booking whose
// area or frequency is changing, returning a copy of the update map with the
// engine-computed price and staffing. Manually priced bookings pass through
// unchanged.
func (m *DefaultGroupManager) repriceUpdates(ctx context.Context, updates map[string]interface{}, edited *models.Booking) (map[string]interface{}, error) {
	if edited.AreaSqm == nil {
		return updates, nil
	}
	res, err := m.Pricing.CalculatePricing(ctx, edited.PackageID, *edited.AreaSqm, edited.Frequency)
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(updates)+2)
	for k, v := range updates {
		out[k] = v
	}
	out["total_price"] = res.Price
	out["required_staff"] = res.RequiredStaff
	return out, nil
}

// checkEditConflicts verifies every post-edit member against the store, with
// the members being updated excluded: their stored pre-edit state is about to
// be replaced and must not count as a collision. The post-edit members are
// also checked against each other, since an edit that lands several members
// on the same slot double-books the assignment within the group.
func (m *DefaultGroupManager) checkEditConflicts(ctx context.Context, edited []models.Booking) error {
	for i := range edited {
		for j := i + 1; j < len(edited); j++ {
			if assignmentsCollide(&edited[i], &edited[j]) {
				return &ValidationError{Field: "updates", Reason: "edit would make group members overlap each other"}
			}
		}
	}

	affected := make(map[string]bool, len(edited))
	for i := range edited {
		affected[edited[i].ID] = true
	}

	var all []models.Booking
	for i := range edited {
		cand := candidateFor(&edited[i])
		cand.ExcludeBookingID = edited[i].ID
		conflicts, err := m.Conflicts.FindConflicts(ctx, cand)
		if err != nil {
			return err
		}
		for _, c := range conflicts {
			if !affected[c.ID] {
				all = append(all, c)
			}
		}
	}
	if len(all) > 0 {
		return &ConflictError{Conflicts: all}
	}
	return nil
}

// prepare validates the template and snapshots tier pricing for tiered
// packages: the booking does not re-resolve price if tiers change later.
func (m *DefaultGroupManager) prepare(ctx context.Context, b *models.Booking) error {
	if b.PackageID == "" {
		return &ValidationError{Field: "package_id", Reason: "required"}
	}
	if _, err := models.ParseDate(b.BookingDate); err != nil {
		return &ValidationError{Field: "booking_date", Reason: fmt.Sprintf("not a valid date: %q", b.BookingDate)}
	}
	if b.EndDate != "" {
		if _, err := models.ParseDate(b.EndDate); err != nil {
			return &ValidationError{Field: "end_date", Reason: fmt.Sprintf("not a valid date: %q", b.EndDate)}
		}
		if b.EndDate < b.BookingDate {
			return &ValidationError{Field: "end_date", Reason: "before booking_date"}
		}
	}
	if b.EndTime <= b.StartTime {
		return &ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}

	if b.Status == "" {
		b.Status = models.StatusPending
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = models.PaymentUnpaid
	}
	if b.RequiredStaff == 0 {
		b.RequiredStaff = 1
	}

	if b.AreaSqm != nil {
		res, err := m.Pricing.CalculatePricing(ctx, b.PackageID, *b.AreaSqm, b.Frequency)
		if err != nil {
			return err
		}
		b.TotalPrice = res.Price
		b.RequiredStaff = res.RequiredStaff
	}
	return nil
}

func (m *DefaultGroupManager) occurrenceDates(input CreateGroupInput) ([]string, error) {
	if input.TotalOccurrences < 1 {
		return nil, &ValidationError{Field: "total_occurrences", Reason: "must be at least 1"}
	}
	switch input.Pattern {
	case models.PatternAutoWeekly, models.PatternAutoBiweekly:
		return GenerateOccurrenceDates(input.Template.BookingDate, input.Pattern, input.TotalOccurrences)
	case models.PatternCustom:
		if len(input.Dates) != input.TotalOccurrences {
			return nil, &ValidationError{
				Field:  "dates",
				Reason: fmt.Sprintf("custom pattern needs %d dates, got %d", input.TotalOccurrences, len(input.Dates)),
			}
		}
		for _, d := range input.Dates {
			if _, err := models.ParseDate(d); err != nil {
				return nil, &ValidationError{Field: "dates", Reason: fmt.Sprintf("not a valid date: %q", d)}
			}
		}
		return input.Dates, nil
	}
	return nil, &ValidationError{Field: "pattern", Reason: fmt.Sprintf("unknown pattern %q", input.Pattern)}
}

// buildGroup materializes the parent and child records for a group. Sequence
// numbers are consecutive from 1 and children reference the parent's id.
func buildGroup(template models.Booking, pattern, groupID string, dates []string) (*models.Booking, []*models.Booking) {
	span := template.DurationDays()

	parent := template
	parent.ID = uuid.New().String()
	parent.BookingDate = dates[0]
	parent.EndDate = shiftedEnd(dates[0], span)
	parent.IsRecurring = true
	parent.RecurringGroupID = groupID
	parent.RecurringSequence = 1
	parent.RecurringTotal = len(dates)
	parent.RecurringPattern = pattern
	parent.ParentBookingID = ""

	children := make([]*models.Booking, 0, len(dates)-1)
	for i, date := range dates[1:] {
		child := template
		child.ID = uuid.New().String()
		child.BookingDate = date
		child.EndDate = shiftedEnd(date, span)
		child.IsRecurring = true
		child.RecurringGroupID = groupID
		child.RecurringSequence = i + 2
		child.RecurringTotal = len(dates)
		child.RecurringPattern = pattern
		child.ParentBookingID = parent.ID
		children = append(children, &child)
	}
	return &parent, children
}

func candidateFor(b *models.Booking) Candidate {
	return Candidate{
		StaffID:   b.StaffID,
		TeamID:    b.TeamID,
		Date:      b.BookingDate,
		EndDate:   b.EndDate,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
	}
}

func (m *DefaultGroupManager) today() string {
	if m.Today != nil {
		return m.Today()
	}
	return models.FormatDate(time.Now())
}

func (m *DefaultGroupManager) publish(ctx context.Context, evt events.BookingEvent) {
	if m.Events == nil {
		return
	}
	if err := m.Events.Publish(ctx, evt); err != nil {
		m.Logger.Warn("failed to publish booking event", zap.String("type", evt.Type), zap.Error(err))
	}
}
