package bookingRepo

import (
	"context"
	"fmt"

	"tidycrm/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FindByGroup returns all members of a recurring group ordered by sequence.
func (r *mongoBookingRepo) FindByGroup(ctx context.Context, groupID string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "recurring_sequence", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"recurring_group_id": groupID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find group %s failed: %w", groupID, err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("decode group %s failed: %w", groupID, err)
	}
	return bookings, nil
}

// CountByGroup returns the number of bookings in a recurring group.
func (r *mongoBookingRepo) CountByGroup(ctx context.Context, groupID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"recurring_group_id": groupID})
	if err != nil {
		return 0, fmt.Errorf("count group %s failed: %w", groupID, err)
	}
	return n, nil
}

// FindActive returns active-status bookings matching the assignment query,
// coarse-filtered to those whose date span intersects the query range. The
// caller applies the exact time-of-day overlap test.
func (r *mongoBookingRepo) FindActive(ctx context.Context, q AssignmentQuery) ([]models.Booking, error) {
	filter, ok := activeFilter(q)
	if !ok {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("active booking scan failed: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("decode active bookings failed: %w", err)
	}
	return bookings, nil
}

// activeFilter builds the mongo filter for FindActive. Reports false when the
// query names neither a staff member nor a team, in which case nothing can
// conflict.
func activeFilter(q AssignmentQuery) (bson.M, bool) {
	var identity []bson.M
	if q.StaffID != "" {
		identity = append(identity, bson.M{"staff_id": q.StaffID})
	}
	if q.TeamID != "" {
		identity = append(identity, bson.M{"team_id": q.TeamID})
	}
	if len(identity) == 0 {
		return nil, false
	}

	statuses := models.ActiveStatuses()
	active := make([]string, 0, len(statuses))
	for _, s := range statuses {
		active = append(active, string(s))
	}

	filter := bson.M{
		"status": bson.M{"$in": active},
		"$or":    identity,
		// Date span intersects [RangeStart, RangeEnd]: the booking starts no
		// later than the range ends, and its effective end (end_date, or
		// booking_date when end_date is absent) is no earlier than the range
		// starts. ISO date strings order correctly.
		"booking_date": bson.M{"$lte": q.RangeEnd},
		"$and": []bson.M{{
			"$or": []bson.M{
				{"end_date": bson.M{"$gte": q.RangeStart}},
				{"end_date": bson.M{"$exists": false}, "booking_date": bson.M{"$gte": q.RangeStart}},
				{"end_date": "", "booking_date": bson.M{"$gte": q.RangeStart}},
			},
		}},
	}
	if q.ExcludeID != "" {
		filter["id"] = bson.M{"$ne": q.ExcludeID}
	}
	return filter, true
}
