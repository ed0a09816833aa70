package bookingRepo

import (
	"context"
	"errors"

	"tidycrm/database"
	"tidycrm/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound signals that no booking matched the given id.
	ErrNotFound = errors.New("booking not found")
	// ErrConflict signals that a checked insert found an overlapping active
	// booking for the same staff or team.
	ErrConflict = errors.New("conflicting booking exists")
	// ErrTxnUnsupported signals that the store cannot run multi-document
	// transactions; callers fall back to compensating deletes.
	ErrTxnUnsupported = errors.New("storage does not support transactions")
)

// AssignmentQuery narrows a scan to bookings that could collide with a
// candidate assignment. A booking matches when its staff OR team id equals
// the corresponding non-empty query id.
type AssignmentQuery struct {
	StaffID    string
	TeamID     string
	RangeStart string // "YYYY-MM-DD", inclusive
	RangeEnd   string // "YYYY-MM-DD", inclusive
	ExcludeID  string // booking id to skip (edit scenarios)
}

// Repository is the booking storage collaborator.
type Repository interface {
	Create(ctx context.Context, b *models.Booking) error
	CreateMany(ctx context.Context, bs []*models.Booking) error
	// CreateGroup persists a parent and its children atomically. Returns
	// ErrTxnUnsupported when the store cannot do so.
	CreateGroup(ctx context.Context, parent *models.Booking, children []*models.Booking) error
	// CreateChecked inserts b only if no overlapping active booking exists
	// for its staff/team assignment, under one transaction where supported.
	// Returns ErrConflict on a clash.
	CreateChecked(ctx context.Context, b *models.Booking) error

	GetByID(ctx context.Context, id string) (*models.Booking, error)
	FindByGroup(ctx context.Context, groupID string) ([]models.Booking, error)
	CountByGroup(ctx context.Context, groupID string) (int64, error)
	// FindActive returns bookings in an active status matching the
	// assignment query, coarse-filtered by date-range overlap.
	FindActive(ctx context.Context, q AssignmentQuery) ([]models.Booking, error)

	UpdateByID(ctx context.Context, id string, fields map[string]interface{}) (int64, error)
	// UpdateByGroup updates every group member with sequence >= minSequence;
	// a minSequence of 1 or less covers the whole group.
	UpdateByGroup(ctx context.Context, groupID string, minSequence int, fields map[string]interface{}) (int64, error)

	DeleteByID(ctx context.Context, id string) (int64, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	DeleteByGroup(ctx context.Context, groupID string, minSequence int) (int64, error)

	EnsureIndexes(ctx context.Context) error
}

type mongoBookingRepo struct {
	coll *mongo.Collection
	// transactional reports whether the deployment supports multi-document
	// transactions (replica set or mongos).
	transactional bool
}

// NewMongoBookingRepo returns a Repository backed by the bookings collection.
func NewMongoBookingRepo(dbName string, transactional bool) Repository {
	db := database.MongoClient.Database(dbName)
	return &mongoBookingRepo{
		coll:          db.Collection("bookings"),
		transactional: transactional,
	}
}
