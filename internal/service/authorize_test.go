package service

import (
	"testing"
	"time"

	"avtoservis/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = Principal{ID: "user-1", Role: models.RoleUser}
	other = Principal{ID: "user-2", Role: models.RoleUser}
	admin = Principal{ID: "admin-1", Role: models.RoleAdmin}
)

func testBooking(ownerID, status string) *models.Booking {
	return &models.Booking{
		ID:            "booking-1",
		UserID:        ownerID,
		CarID:         "car-1",
		ServiceTypeID: "svc-1",
		Date:          time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Time:          "10:30",
		Status:        status,
	}
}

func validCreateInput() CreateBookingInput {
	return CreateBookingInput{
		CarID:         "car-1",
		ServiceTypeID: "svc-1",
		Date:          time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Time:          "10:30",
		Notes:         "замена масла",
	}
}

func TestAuthorizeCreateForcesOwnerAndStatus(t *testing.T) {
	in := validCreateInput()
	in.UserID = "someone-else"

	booking, err := authorizeCreate(owner, in)
	require.NoError(t, err)

	// A regular user cannot book on behalf of another user.
	assert.Equal(t, owner.ID, booking.UserID)
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.NotEmpty(t, booking.ID)
}

func TestAuthorizeCreateAdminOnBehalf(t *testing.T) {
	in := validCreateInput()
	in.UserID = "user-1"

	booking, err := authorizeCreate(admin, in)
	require.NoError(t, err)

	assert.Equal(t, "user-1", booking.UserID)
	assert.Equal(t, models.StatusPending, booking.Status)
}

func TestAuthorizeCreateAdminWithoutTarget(t *testing.T) {
	booking, err := authorizeCreate(admin, validCreateInput())
	require.NoError(t, err)
	assert.Equal(t, admin.ID, booking.UserID)
}

func TestAuthorizeCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateBookingInput)
		field  string
	}{
		{"missing car", func(in *CreateBookingInput) { in.CarID = "" }, "car_id"},
		{"missing service type", func(in *CreateBookingInput) { in.ServiceTypeID = "" }, "service_type_id"},
		{"missing date", func(in *CreateBookingInput) { in.Date = time.Time{} }, "date"},
		{"missing time", func(in *CreateBookingInput) { in.Time = "" }, "time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreateInput()
			tt.mutate(&in)

			_, err := authorizeCreate(owner, in)
			require.Error(t, err)
			assert.True(t, IsValidation(err))

			ve, ok := err.(*ValidationError)
			require.True(t, ok)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestAuthorizeRead(t *testing.T) {
	booking := testBooking(owner.ID, models.StatusPending)

	assert.NoError(t, authorizeRead(owner, booking))
	assert.NoError(t, authorizeRead(admin, booking))
	assert.ErrorIs(t, authorizeRead(other, booking), ErrForbidden)
}

func TestAuthorizeFieldPatchOwnerNotes(t *testing.T) {
	booking := testBooking(owner.ID, models.StatusPending)
	notes := "перенести на утро"

	merged, err := authorizeFieldPatch(owner, booking, BookingPatch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, merged.Notes)
	// Original record is untouched until the write happens.
	assert.Empty(t, booking.Notes)
}

func TestAuthorizeFieldPatchOwnerRestrictedFields(t *testing.T) {
	booking := testBooking(owner.ID, models.StatusPending)
	carID := "car-2"
	status := models.StatusConfirmed
	newTime := "12:00"
	newDate := time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC)

	for name, patch := range map[string]BookingPatch{
		"car":    {CarID: &carID},
		"status": {Status: &status},
		"time":   {Time: &newTime},
		"date":   {Date: &newDate},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := authorizeFieldPatch(owner, booking, patch)
			assert.ErrorIs(t, err, ErrForbidden)
		})
	}
}

func TestAuthorizeFieldPatchAdmin(t *testing.T) {
	booking := testBooking(owner.ID, models.StatusPending)
	carID := "car-2"
	status := models.StatusConfirmed

	merged, err := authorizeFieldPatch(admin, booking, BookingPatch{CarID: &carID, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "car-2", merged.CarID)
	assert.Equal(t, models.StatusConfirmed, merged.Status)
	// Owner reference never changes through a patch.
	assert.Equal(t, owner.ID, merged.UserID)
}

func TestAuthorizeFieldPatchUnknownStatus(t *testing.T) {
	booking := testBooking(owner.ID, models.StatusPending)
	bad := "archived"

	_, err := authorizeFieldPatch(admin, booking, BookingPatch{Status: &bad})
	assert.True(t, IsValidation(err))
}

func TestAuthorizeFieldPatchNonOwner(t *testing.T) {
	booking := testBooking(owner.ID, models.StatusPending)
	notes := "hi"

	_, err := authorizeFieldPatch(other, booking, BookingPatch{Notes: &notes})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorizeStatusOwnerCancelOnly(t *testing.T) {
	for _, from := range []string{models.StatusPending, models.StatusConfirmed, models.StatusCompleted, models.StatusCancelled} {
		booking := testBooking(owner.ID, from)

		// Cancelling is allowed from any status, including cancelled itself.
		assert.NoError(t, authorizeStatus(owner, booking, models.StatusCancelled), "from %s", from)

		for _, target := range []string{models.StatusPending, models.StatusConfirmed, models.StatusCompleted} {
			assert.ErrorIs(t, authorizeStatus(owner, booking, target), ErrForbidden, "from %s to %s", from, target)
		}
	}
}

func TestAuthorizeStatusAdminAnyDirection(t *testing.T) {
	booking := testBooking(owner.ID, models.StatusCompleted)

	// Backward transitions are an admin correction tool.
	for _, target := range []string{models.StatusPending, models.StatusConfirmed, models.StatusCompleted, models.StatusCancelled} {
		assert.NoError(t, authorizeStatus(admin, booking, target))
	}
}

func TestAuthorizeStatusNonOwner(t *testing.T) {
	booking := testBooking(owner.ID, models.StatusPending)
	assert.ErrorIs(t, authorizeStatus(other, booking, models.StatusCancelled), ErrForbidden)
}

func TestAuthorizeStatusUnknownTarget(t *testing.T) {
	booking := testBooking(owner.ID, models.StatusPending)

	err := authorizeStatus(admin, booking, "done")
	assert.True(t, IsValidation(err))

	// Validation beats authorization: non-owner with a bad status still gets 400.
	err = authorizeStatus(other, booking, "done")
	assert.True(t, IsValidation(err))
}

func TestAuthorizeDelete(t *testing.T) {
	tests := []struct {
		name    string
		p       Principal
		status  string
		wantErr error
	}{
		{"owner pending", owner, models.StatusPending, nil},
		{"owner cancelled", owner, models.StatusCancelled, nil},
		{"owner confirmed", owner, models.StatusConfirmed, ErrForbidden},
		{"owner completed", owner, models.StatusCompleted, ErrForbidden},
		{"admin completed", admin, models.StatusCompleted, nil},
		{"admin confirmed", admin, models.StatusConfirmed, nil},
		{"non-owner pending", other, models.StatusPending, ErrForbidden},
		{"non-owner cancelled", other, models.StatusCancelled, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := testBooking(owner.ID, tt.status)
			err := authorizeDelete(tt.p, booking)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
