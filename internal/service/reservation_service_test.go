package service

import (
	"context"
	"testing"

	"reservation-service/internal/apperrors"
	"reservation-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok, "expected *apperrors.AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func TestCreateReservationPreconditions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		req      CreateReservationRequest
		wantCode string
	}{
		{"unknown medicine", CreateReservationRequest{PharmacyID: 20, MedicineID: 99, Quantity: 1}, apperrors.CodeNotFound},
		{"unknown pharmacy", CreateReservationRequest{PharmacyID: 99, MedicineID: 10, Quantity: 1}, apperrors.CodeNotFound},
		{"zero quantity", CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 0}, apperrors.CodeValidation},
		{"negative quantity", CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: -3}, apperrors.CodeValidation},
		{"over stock", CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 11}, apperrors.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, svc := fixture(10)
			_, err := svc.CreateReservation(ctx, 1, &tt.req)
			assertCode(t, err, tt.wantCode)
		})
	}
}

func TestCreateReservationZeroQuantityFailsRegardlessOfStock(t *testing.T) {
	ctx := context.Background()
	_, _, svc := fixture(0)

	_, err := svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 0})
	assertCode(t, err, apperrors.CodeValidation)
}

func TestCreateReservationNotStockedAtPharmacy(t *testing.T) {
	ctx := context.Background()
	st, _, svc := fixture(10)
	st.medicines[11] = &models.Medicine{ID: 11, Name: "Paracetamol"}

	_, err := svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 11, Quantity: 1})
	assertCode(t, err, apperrors.CodeConflict)
	assert.Contains(t, err.Error(), "not available")
}

func TestCreateReservationInsufficientStockMessageHasAvailable(t *testing.T) {
	ctx := context.Background()
	_, _, svc := fixture(7)

	_, err := svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 8})
	assertCode(t, err, apperrors.CodeConflict)
	assert.Contains(t, err.Error(), "7")
}

func TestCreateReservationSuccess(t *testing.T) {
	ctx := context.Background()
	st, notifier, svc := fixture(10)

	detail, err := svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, models.ReservationStatusPending, detail.Status)
	assert.False(t, detail.RequestTime.IsZero())
	assert.Nil(t, detail.AcceptedTime)
	assert.Nil(t, detail.RejectedTime)
	assert.Nil(t, detail.NoResponseTime)
	assert.Equal(t, "Ibuprofen", detail.Medicine.Name)
	assert.Equal(t, "Main Street Pharmacy", detail.Pharmacy.Name)

	// Stock is advisory: creation never decrements it
	assert.Equal(t, 10, st.inventory[[2]int64{20, 10}].Quantity)

	// Pharmacy owner (user 2) is told who wants what
	sent := notifier.sentTo(2)
	require.Len(t, sent, 1)
	assert.Equal(t, models.NotificationTypeReservationCreated, sent[0].Type)
	assert.Contains(t, sent[0].Message, "Alice")
	assert.Contains(t, sent[0].Message, "3")
	assert.Contains(t, sent[0].Message, "Ibuprofen")
}

func TestAcceptReservation(t *testing.T) {
	ctx := context.Background()
	_, notifier, svc := fixture(10)

	created, err := svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 3})
	require.NoError(t, err)

	note := "ready in 10 min"
	detail, err := svc.AcceptReservation(ctx, 2, created.ID, &note)
	require.NoError(t, err)

	assert.Equal(t, models.ReservationStatusAccepted, detail.Status)
	require.NotNil(t, detail.AcceptedTime)
	require.NotNil(t, detail.Note)
	assert.Equal(t, note, *detail.Note)

	// Patient notification carries the pickup window
	sent := notifier.sentTo(1)
	require.Len(t, sent, 1)
	assert.Equal(t, models.NotificationTypeReservationAccepted, sent[0].Type)
	assert.Contains(t, sent[0].Message, "30 minutes")
	assert.Contains(t, sent[0].Message, "ready in 10 min")
}

func TestAcceptRequiresOwningPharmacyUser(t *testing.T) {
	ctx := context.Background()
	_, _, svc := fixture(10)

	created, err := svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 1})
	require.NoError(t, err)

	_, err = svc.AcceptReservation(ctx, 3, created.ID, nil)
	assertCode(t, err, apperrors.CodeForbidden)
}

func TestAcceptMissingReservation(t *testing.T) {
	_, _, svc := fixture(10)

	_, err := svc.AcceptReservation(context.Background(), 2, 999, nil)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestAcceptRejectOnTerminalStateConflictsAndLeavesFieldsUnchanged(t *testing.T) {
	ctx := context.Background()
	st, _, svc := fixture(10)

	created, err := svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 1})
	require.NoError(t, err)

	_, err = svc.RejectReservation(ctx, 2, created.ID, nil)
	require.NoError(t, err)

	before := *st.reservations[created.ID]

	_, err = svc.AcceptReservation(ctx, 2, created.ID, nil)
	assertCode(t, err, apperrors.CodeConflict)

	reason := "late"
	_, err = svc.RejectReservation(ctx, 2, created.ID, &reason)
	assertCode(t, err, apperrors.CodeConflict)

	after := *st.reservations[created.ID]
	assert.Equal(t, before, after)
	assert.Equal(t, models.ReservationStatusRejected, after.Status)
	assert.NotNil(t, after.RejectedTime)
	assert.Nil(t, after.AcceptedTime)
}

func TestAcceptFromNoResponse(t *testing.T) {
	ctx := context.Background()
	st, _, svc := fixture(10)

	created, err := svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 1})
	require.NoError(t, err)

	// Sweeper moved it to NO_RESPONSE; the pharmacy can still respond
	r := st.reservations[created.ID]
	now := r.RequestTime
	r.Status = models.ReservationStatusNoResponse
	r.NoResponseTime = &now

	detail, err := svc.AcceptReservation(ctx, 2, created.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ReservationStatusAccepted, detail.Status)
	assert.NotNil(t, detail.AcceptedTime)
	// The NO_RESPONSE passage stays recorded
	assert.NotNil(t, detail.NoResponseTime)
}

func TestRejectCarriesReason(t *testing.T) {
	ctx := context.Background()
	_, notifier, svc := fixture(10)

	created, err := svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 1})
	require.NoError(t, err)

	reason := "out of stock since this morning"
	detail, err := svc.RejectReservation(ctx, 2, created.ID, &reason)
	require.NoError(t, err)

	assert.Equal(t, models.ReservationStatusRejected, detail.Status)
	assert.NotNil(t, detail.RejectedTime)

	sent := notifier.sentTo(1)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Message, reason)
}

func TestCancelFromPendingAndAccepted(t *testing.T) {
	ctx := context.Background()
	_, _, svc := fixture(10)

	// Cancel from PENDING
	created, err := svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 1})
	require.NoError(t, err)
	detail, err := svc.CancelReservation(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, detail.Status)

	// Cancel from ACCEPTED
	created, err = svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AcceptReservation(ctx, 2, created.ID, nil)
	require.NoError(t, err)
	detail, err = svc.CancelReservation(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, detail.Status)

	// Not from REJECTED
	created, err = svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.RejectReservation(ctx, 2, created.ID, nil)
	require.NoError(t, err)
	_, err = svc.CancelReservation(ctx, 1, created.ID)
	assertCode(t, err, apperrors.CodeConflict)
}

func TestCancelRequiresOwningPatient(t *testing.T) {
	ctx := context.Background()
	_, _, svc := fixture(10)

	created, err := svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 1})
	require.NoError(t, err)

	_, err = svc.CancelReservation(ctx, 3, created.ID)
	assertCode(t, err, apperrors.CodeForbidden)
}

func TestProvidePhone(t *testing.T) {
	ctx := context.Background()
	st, notifier, svc := fixture(10)

	created, err := svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 1})
	require.NoError(t, err)

	// Only valid in NO_RESPONSE
	_, err = svc.ProvidePhone(ctx, 1, created.ID, "+15551234")
	assertCode(t, err, apperrors.CodeConflict)

	r := st.reservations[created.ID]
	now := r.RequestTime
	r.Status = models.ReservationStatusNoResponse
	r.NoResponseTime = &now

	detail, err := svc.ProvidePhone(ctx, 1, created.ID, "+15551234")
	require.NoError(t, err)

	// Annotation only: the status does not move
	assert.Equal(t, models.ReservationStatusNoResponse, detail.Status)
	require.NotNil(t, detail.PatientPhone)
	assert.Equal(t, "+15551234", *detail.PatientPhone)

	sent := notifier.sentTo(2)
	require.Len(t, sent, 2) // created + phone provided
	assert.Equal(t, models.NotificationTypePhoneProvided, sent[1].Type)
	assert.Contains(t, sent[1].Message, "+15551234")
}

func TestProvidePhoneRejectsEmptyPhone(t *testing.T) {
	_, _, svc := fixture(10)

	_, err := svc.ProvidePhone(context.Background(), 1, 1, "")
	assertCode(t, err, apperrors.CodeValidation)
}

func TestNotifierFailureDoesNotFailTransition(t *testing.T) {
	ctx := context.Background()
	_, notifier, svc := fixture(10)
	notifier.fail = true

	created, err := svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusPending, created.Status)

	detail, err := svc.AcceptReservation(ctx, 2, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusAccepted, detail.Status)
}

func TestReserveAcceptCancelScenario(t *testing.T) {
	ctx := context.Background()
	_, notifier, svc := fixture(10)

	created, err := svc.CreateReservation(ctx, 1, &CreateReservationRequest{PharmacyID: 20, MedicineID: 10, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusPending, created.Status)

	note := "ready in 10 min"
	accepted, err := svc.AcceptReservation(ctx, 2, created.ID, &note)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusAccepted, accepted.Status)
	assert.NotNil(t, accepted.AcceptedTime)

	patientInbox := notifier.sentTo(1)
	require.Len(t, patientInbox, 1)
	assert.Contains(t, patientInbox[0].Message, "30 minutes")

	cancelled, err := svc.CancelReservation(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, cancelled.Status)
}
