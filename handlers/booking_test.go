package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tidycrm/models"
	"tidycrm/services/booking"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine implements the four engine interfaces with canned responses so
// the handler layer can be tested in isolation.
type stubEngine struct {
	createBookingErr error
	createGroupErr   error
	editErr          error
	statusErr        error
	pricing          booking.PricingResult
	pricingErr       error
	conflicts        []models.Booking
	conflictsErr     error
	group            *models.RecurringGroup
	history          []models.StatusHistory
}

func (s *stubEngine) CreateBooking(ctx context.Context, b models.Booking) (*models.Booking, error) {
	if s.createBookingErr != nil {
		return nil, s.createBookingErr
	}
	b.ID = "b-1"
	return &b, nil
}

func (s *stubEngine) CreateGroup(ctx context.Context, input booking.CreateGroupInput) (*booking.CreateGroupResult, error) {
	if s.createGroupErr != nil {
		return nil, s.createGroupErr
	}
	return &booking.CreateGroupResult{GroupID: "g-1", BookingIDs: []string{"b-1", "b-2"}}, nil
}

func (s *stubEngine) EditScoped(ctx context.Context, bookingID string, scope booking.Scope, updates map[string]interface{}) (int64, error) {
	if s.editErr != nil {
		return 0, s.editErr
	}
	return 3, nil
}

func (s *stubEngine) DeleteScoped(ctx context.Context, bookingID string, scope booking.Scope) (int64, error) {
	if s.editErr != nil {
		return 0, s.editErr
	}
	return 2, nil
}

func (s *stubEngine) GetGroup(ctx context.Context, groupID string) (*models.RecurringGroup, error) {
	return s.group, nil
}

func (s *stubEngine) GroupExists(ctx context.Context, groupID string) (bool, error) {
	return s.group != nil, nil
}

func (s *stubEngine) ChangeStatus(ctx context.Context, bookingID string, to models.BookingStatus, changedBy, notes string) error {
	return s.statusErr
}

func (s *stubEngine) ChangePaymentStatus(ctx context.Context, bookingID string, to models.PaymentStatus, changedBy, notes string) error {
	return s.statusErr
}

func (s *stubEngine) History(ctx context.Context, bookingID string, newestFirst bool) ([]models.StatusHistory, error) {
	return s.history, nil
}

func (s *stubEngine) ResolveTier(ctx context.Context, packageID string, areaSqm float64) (*models.PricingTier, error) {
	return s.pricing.Tier, s.pricingErr
}

func (s *stubEngine) CalculatePrice(ctx context.Context, packageID string, areaSqm float64, frequency int) (float64, error) {
	return s.pricing.Price, s.pricingErr
}

func (s *stubEngine) CalculatePricing(ctx context.Context, packageID string, areaSqm float64, frequency int) (booking.PricingResult, error) {
	return s.pricing, s.pricingErr
}

func (s *stubEngine) FindConflicts(ctx context.Context, cand booking.Candidate) ([]models.Booking, error) {
	return s.conflicts, s.conflictsErr
}

func newTestRouter(stub *stubEngine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewBookingHandler(stub, stub, stub, stub)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/pricing/quote", h.Quote)
	api.POST("/bookings", h.CreateBooking)
	api.POST("/bookings/conflicts", h.CheckConflicts)
	api.POST("/bookings/:id/status", h.ChangeStatus)
	api.POST("/bookings/:id/payment-status", h.ChangePaymentStatus)
	api.GET("/bookings/:id/history", h.GetHistory)
	api.POST("/recurring", h.CreateGroup)
	api.PATCH("/recurring/:id", h.EditScoped)
	api.DELETE("/recurring/:id", h.DeleteScoped)
	api.GET("/recurring/group/:groupId", h.GetGroup)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorStatusMapping(t *testing.T) {
	body := gin.H{"status": "confirmed"}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &booking.NotFoundError{Resource: "booking", ID: "x"}, http.StatusNotFound},
		{"validation", &booking.ValidationError{Field: "status", Reason: "unknown"}, http.StatusBadRequest},
		{"invalid transition", &booking.InvalidTransitionError{Field: "status", From: "completed", To: "pending"}, http.StatusUnprocessableEntity},
		{"storage failure", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&stubEngine{statusErr: tt.err})
			w := doJSON(t, r, http.MethodPost, "/api/bookings/b-1/status", body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCreateBookingConflictResponse(t *testing.T) {
	stub := &stubEngine{
		createBookingErr: &booking.ConflictError{
			Conflicts: []models.Booking{{ID: "other", BookingDate: "2025-01-15"}},
		},
	}
	r := newTestRouter(stub)

	w := doJSON(t, r, http.MethodPost, "/api/bookings", gin.H{
		"package_id": "deep-clean", "booking_date": "2025-01-15",
		"start_time": 540, "end_time": 720,
	})

	require.Equal(t, http.StatusConflict, w.Code)
	var resp struct {
		Conflicts []models.Booking `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "other", resp.Conflicts[0].ID)
}

func TestCreateBookingSuccess(t *testing.T) {
	r := newTestRouter(&stubEngine{})

	w := doJSON(t, r, http.MethodPost, "/api/bookings", gin.H{
		"package_id": "deep-clean", "booking_date": "2025-01-15",
		"start_time": 540, "end_time": 720,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "b-1", created.ID)
}

func TestCreateGroupRolledBackIsServerError(t *testing.T) {
	stub := &stubEngine{
		createGroupErr: &booking.PartialFailureError{GroupID: "g-1", Attempted: 4, RolledBack: 4, Cause: assert.AnError},
	}
	r := newTestRouter(stub)

	w := doJSON(t, r, http.MethodPost, "/api/recurring", gin.H{
		"template":          gin.H{"package_id": "p", "booking_date": "2025-01-15", "start_time": 540, "end_time": 720},
		"pattern":           "auto-weekly",
		"total_occurrences": 4,
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestEditScopedInvalidScopeResponse(t *testing.T) {
	stub := &stubEngine{
		editErr: &booking.InvalidScopeError{BookingID: "b-1", Scope: "all", Reason: "booking is not recurring"},
	}
	r := newTestRouter(stub)

	w := doJSON(t, r, http.MethodPatch, "/api/recurring/b-1?scope=all", gin.H{"start_time": 600})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDeleteScopedReportsCount(t *testing.T) {
	r := newTestRouter(&stubEngine{})

	w := doJSON(t, r, http.MethodDelete, "/api/recurring/b-1?scope=this_and_future", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success      bool  `json:"success"`
		DeletedCount int64 `json:"deleted_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(2), resp.DeletedCount)
}

func TestGetGroupNotFound(t *testing.T) {
	r := newTestRouter(&stubEngine{group: nil})

	w := doJSON(t, r, http.MethodGet, "/api/recurring/group/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetGroupView(t *testing.T) {
	stub := &stubEngine{group: &models.RecurringGroup{
		GroupID:    "g-1",
		Bookings:   []models.Booking{{ID: "b-1", RecurringSequence: 1}, {ID: "b-2", RecurringSequence: 2}},
		TotalCount: 2, UpcomingCount: 2,
	}}
	r := newTestRouter(stub)

	w := doJSON(t, r, http.MethodGet, "/api/recurring/group/g-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var group models.RecurringGroup
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &group))
	assert.Equal(t, "g-1", group.GroupID)
	assert.Len(t, group.Bookings, 2)
}

func TestQuoteReturnsSentinelForUnknownArea(t *testing.T) {
	stub := &stubEngine{pricing: booking.PricingResult{Price: 0, RequiredStaff: 1, Found: false}}
	r := newTestRouter(stub)

	w := doJSON(t, r, http.MethodPost, "/api/pricing/quote", gin.H{
		"package_id": "deep-clean", "area_sqm": 999, "frequency": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Pricing booking.PricingResult `json:"pricing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Pricing.Found)
	assert.Equal(t, 1, resp.Pricing.RequiredStaff)
}

func TestCheckConflictsResponseShape(t *testing.T) {
	stub := &stubEngine{conflicts: []models.Booking{{ID: "other"}}}
	r := newTestRouter(stub)

	w := doJSON(t, r, http.MethodPost, "/api/bookings/conflicts", gin.H{
		"staff_id": "staff-1", "date": "2025-01-15", "start_time": 540, "end_time": 720,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		HasConflicts bool             `json:"has_conflicts"`
		Conflicts    []models.Booking `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.HasConflicts)
	assert.Len(t, resp.Conflicts, 1)
}
