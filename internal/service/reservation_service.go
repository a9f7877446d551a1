package service

import (
	"context"
	"fmt"

	"reservation-service/internal/apperrors"
	"reservation-service/internal/models"
	"reservation-service/internal/util"

	"go.uber.org/zap"
)

// ReservationStore is the persistence surface the engine needs. *store.Store
// satisfies it; tests substitute an in-memory fake.
type ReservationStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetMedicineByID(ctx context.Context, id int64) (*models.Medicine, error)
	GetPharmacyByID(ctx context.Context, id int64) (*models.Pharmacy, error)
	GetInventoryRecord(ctx context.Context, pharmacyID, medicineID int64) (*models.InventoryRecord, error)

	CreateReservation(ctx context.Context, r *models.Reservation) error
	GetReservationByID(ctx context.Context, id int64) (*models.Reservation, error)
	ListReservationsByPatient(ctx context.Context, patientID int64) ([]models.Reservation, error)
	ListReservationsByPharmacy(ctx context.Context, pharmacyID int64) ([]models.Reservation, error)

	AcceptReservationIf(ctx context.Context, id int64, note *string) (bool, error)
	RejectReservationIf(ctx context.Context, id int64, note *string) (bool, error)
	CancelReservationIf(ctx context.Context, id int64) (bool, error)
	SetPatientPhoneIf(ctx context.Context, id int64, phone string) (bool, error)
}

// ReservationService executes the reservation lifecycle: creation with
// stock validation, pharmacy accept/reject, patient cancel and phone
// follow-up. Every state-changing write goes through a status-guarded
// update in the store, so racing callers cannot both win.
type ReservationService struct {
	store               ReservationStore
	notifier            Notifier
	pickupWindowMinutes int
	logger              *zap.Logger
}

// NewReservationService creates a new reservation service
func NewReservationService(store ReservationStore, notifier Notifier, pickupWindowMinutes int) *ReservationService {
	return &ReservationService{
		store:               store,
		notifier:            notifier,
		pickupWindowMinutes: pickupWindowMinutes,
		logger:              util.GetLogger(),
	}
}

// CreateReservationRequest represents a patient's reservation request
type CreateReservationRequest struct {
	PharmacyID int64 `json:"pharmacy_id" binding:"required"`
	MedicineID int64 `json:"medicine_id" binding:"required"`
	Quantity   int   `json:"quantity"`
}

// CreateReservation validates the request against the catalog and current
// stock and persists a PENDING reservation. Preconditions run in a fixed
// order and nothing is written until all of them pass. Stock is advisory:
// the quantity is checked but never decremented here.
func (s *ReservationService) CreateReservation(ctx context.Context, patientID int64, req *CreateReservationRequest) (*models.ReservationDetail, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.CreateReservation")
	defer span.End()

	medicine, err := s.store.GetMedicineByID(ctx, req.MedicineID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to load medicine", err)
	}
	if medicine == nil {
		util.ReservationsFailedTotal.WithLabelValues("medicine_not_found").Inc()
		return nil, apperrors.NewNotFound("medicine")
	}

	pharmacy, err := s.store.GetPharmacyByID(ctx, req.PharmacyID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to load pharmacy", err)
	}
	if pharmacy == nil {
		util.ReservationsFailedTotal.WithLabelValues("pharmacy_not_found").Inc()
		return nil, apperrors.NewNotFound("pharmacy")
	}

	inventory, err := s.store.GetInventoryRecord(ctx, req.PharmacyID, req.MedicineID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to load inventory", err)
	}
	if inventory == nil {
		util.ReservationsFailedTotal.WithLabelValues("not_stocked").Inc()
		return nil, apperrors.NewConflict("medicine is not available at this pharmacy")
	}

	if req.Quantity <= 0 {
		util.ReservationsFailedTotal.WithLabelValues("invalid_quantity").Inc()
		return nil, apperrors.NewValidation("quantity must be a positive integer")
	}

	if req.Quantity > inventory.Quantity {
		util.ReservationsFailedTotal.WithLabelValues("insufficient_stock").Inc()
		return nil, apperrors.NewInsufficientStock(inventory.Quantity, req.Quantity)
	}

	patient, err := s.store.GetUserByID(ctx, patientID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to load patient", err)
	}
	if patient == nil {
		return nil, apperrors.NewNotFound("patient")
	}

	reservation := &models.Reservation{
		PatientID:  patientID,
		PharmacyID: req.PharmacyID,
		MedicineID: req.MedicineID,
		Quantity:   req.Quantity,
		Status:     models.ReservationStatusPending,
	}

	if err := s.store.CreateReservation(ctx, reservation); err != nil {
		util.ReservationsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, apperrors.NewInternal("failed to create reservation", err)
	}

	util.ReservationsCreatedTotal.Inc()
	s.logger.Info("Reservation created",
		zap.Int64("reservation_id", reservation.ID),
		zap.Int64("patient_id", patientID),
		zap.Int64("pharmacy_id", req.PharmacyID))

	s.dispatch(ctx, pharmacy.OwnerUserID, models.NotificationTypeReservationCreated,
		"New reservation",
		fmt.Sprintf("%s reserved %d x %s", patient.Name, reservation.Quantity, medicine.Name))

	return s.toDetail(reservation, medicine, pharmacy), nil
}

// AcceptReservation transitions PENDING or NO_RESPONSE to ACCEPTED
func (s *ReservationService) AcceptReservation(ctx context.Context, callerID, reservationID int64, note *string) (*models.ReservationDetail, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.AcceptReservation")
	defer span.End()

	reservation, err := s.loadReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, callerID, reservation, models.RolePharmacy); err != nil {
		return nil, err
	}

	ok, err := s.store.AcceptReservationIf(ctx, reservationID, note)
	if err != nil {
		return nil, apperrors.NewInternal("failed to accept reservation", err)
	}
	if !ok {
		util.ReservationsFailedTotal.WithLabelValues("not_actionable").Inc()
		return nil, apperrors.NewConflict("reservation is not in an actionable state")
	}

	util.ReservationsAcceptedTotal.Inc()
	s.logger.Info("Reservation accepted", zap.Int64("reservation_id", reservationID))

	detail, err := s.getDetail(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Your reservation for %s was accepted. Please pick it up within %d minutes.",
		detail.Medicine.Name, s.pickupWindowMinutes)
	if note != nil && *note != "" {
		message += " Note from the pharmacy: " + *note
	}
	s.dispatch(ctx, reservation.PatientID, models.NotificationTypeReservationAccepted,
		"Reservation accepted", message)

	return detail, nil
}

// RejectReservation transitions PENDING or NO_RESPONSE to REJECTED
func (s *ReservationService) RejectReservation(ctx context.Context, callerID, reservationID int64, reason *string) (*models.ReservationDetail, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.RejectReservation")
	defer span.End()

	reservation, err := s.loadReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, callerID, reservation, models.RolePharmacy); err != nil {
		return nil, err
	}

	ok, err := s.store.RejectReservationIf(ctx, reservationID, reason)
	if err != nil {
		return nil, apperrors.NewInternal("failed to reject reservation", err)
	}
	if !ok {
		util.ReservationsFailedTotal.WithLabelValues("not_actionable").Inc()
		return nil, apperrors.NewConflict("reservation is not in an actionable state")
	}

	util.ReservationsRejectedTotal.Inc()
	s.logger.Info("Reservation rejected", zap.Int64("reservation_id", reservationID))

	detail, err := s.getDetail(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Your reservation for %s was rejected.", detail.Medicine.Name)
	if reason != nil && *reason != "" {
		message += " Reason: " + *reason
	}
	s.dispatch(ctx, reservation.PatientID, models.NotificationTypeReservationRejected,
		"Reservation rejected", message)

	return detail, nil
}

// CancelReservation lets the patient withdraw a PENDING or ACCEPTED
// reservation. Stock is never restored, symmetric with creation never
// decrementing it.
func (s *ReservationService) CancelReservation(ctx context.Context, callerID, reservationID int64) (*models.ReservationDetail, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.CancelReservation")
	defer span.End()

	reservation, err := s.loadReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, callerID, reservation, models.RolePatient); err != nil {
		return nil, err
	}

	ok, err := s.store.CancelReservationIf(ctx, reservationID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to cancel reservation", err)
	}
	if !ok {
		util.ReservationsFailedTotal.WithLabelValues("not_cancellable").Inc()
		return nil, apperrors.NewConflict("reservation cannot be cancelled in its current state")
	}

	util.ReservationsCancelledTotal.Inc()
	s.logger.Info("Reservation cancelled", zap.Int64("reservation_id", reservationID))

	return s.getDetail(ctx, reservationID)
}

// ProvidePhone attaches the patient's phone number to a NO_RESPONSE
// reservation and prompts the pharmacy to follow up manually. The status
// does not change.
func (s *ReservationService) ProvidePhone(ctx context.Context, callerID, reservationID int64, phone string) (*models.ReservationDetail, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.ProvidePhone")
	defer span.End()

	if phone == "" {
		return nil, apperrors.NewValidation("phone must not be empty")
	}

	reservation, err := s.loadReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, callerID, reservation, models.RolePatient); err != nil {
		return nil, err
	}

	ok, err := s.store.SetPatientPhoneIf(ctx, reservationID, phone)
	if err != nil {
		return nil, apperrors.NewInternal("failed to set patient phone", err)
	}
	if !ok {
		return nil, apperrors.NewConflict("reservation is not awaiting pharmacy follow-up")
	}

	detail, err := s.getDetail(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	patient, err := s.store.GetUserByID(ctx, callerID)
	if err != nil || patient == nil {
		s.logger.Warn("Failed to load patient for phone notification", zap.Error(err))
		patient = &models.User{Name: "The patient"}
	}

	pharmacy, err := s.store.GetPharmacyByID(ctx, reservation.PharmacyID)
	if err != nil || pharmacy == nil {
		return nil, apperrors.NewInternal("failed to load pharmacy", err)
	}

	s.dispatch(ctx, pharmacy.OwnerUserID, models.NotificationTypePhoneProvided,
		"Patient can be reached by phone",
		fmt.Sprintf("%s is waiting for a response on the %s reservation and can be reached at %s",
			patient.Name, detail.Medicine.Name, phone))

	return detail, nil
}

// GetReservation returns a reservation visible to its patient or to the
// owning pharmacy user
func (s *ReservationService) GetReservation(ctx context.Context, callerID, reservationID int64) (*models.ReservationDetail, error) {
	reservation, err := s.loadReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	if reservation.PatientID != callerID {
		if err := s.authorize(ctx, callerID, reservation, models.RolePharmacy); err != nil {
			return nil, err
		}
	}

	return s.getDetail(ctx, reservationID)
}

// ListPatientReservations returns the caller's own reservations
func (s *ReservationService) ListPatientReservations(ctx context.Context, patientID int64) ([]models.Reservation, error) {
	rs, err := s.store.ListReservationsByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list reservations", err)
	}
	return rs, nil
}

// ListPharmacyReservations returns a pharmacy's reservations for its owner
func (s *ReservationService) ListPharmacyReservations(ctx context.Context, callerID, pharmacyID int64) ([]models.Reservation, error) {
	pharmacy, err := s.store.GetPharmacyByID(ctx, pharmacyID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to load pharmacy", err)
	}
	if pharmacy == nil {
		return nil, apperrors.NewNotFound("pharmacy")
	}
	if pharmacy.OwnerUserID != callerID {
		return nil, apperrors.NewForbidden("pharmacy belongs to another user")
	}

	rs, err := s.store.ListReservationsByPharmacy(ctx, pharmacyID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list reservations", err)
	}
	return rs, nil
}

func (s *ReservationService) loadReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	reservation, err := s.store.GetReservationByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternal("failed to load reservation", err)
	}
	if reservation == nil {
		return nil, apperrors.NewNotFound("reservation")
	}
	return reservation, nil
}

// getDetail reloads the reservation and joins the display summaries
func (s *ReservationService) getDetail(ctx context.Context, id int64) (*models.ReservationDetail, error) {
	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	medicine, err := s.store.GetMedicineByID(ctx, reservation.MedicineID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to load medicine", err)
	}
	pharmacy, err := s.store.GetPharmacyByID(ctx, reservation.PharmacyID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to load pharmacy", err)
	}
	if medicine == nil || pharmacy == nil {
		return nil, apperrors.NewInternal("reservation references missing catalog rows", nil)
	}

	return s.toDetail(reservation, medicine, pharmacy), nil
}

func (s *ReservationService) toDetail(r *models.Reservation, m *models.Medicine, p *models.Pharmacy) *models.ReservationDetail {
	return &models.ReservationDetail{
		Reservation: *r,
		Medicine:    models.MedicineSummary{ID: m.ID, Name: m.Name},
		Pharmacy: models.PharmacySummary{
			ID:           p.ID,
			Name:         p.Name,
			Address:      p.Address,
			Phone:        p.Phone,
			WorkingHours: p.WorkingHours,
		},
	}
}

// dispatch enqueues a notification; failures are logged and absorbed so a
// committed transition is never rolled back over a dead dispatcher
func (s *ReservationService) dispatch(ctx context.Context, userID int64, ntype, title, message string) {
	if err := s.notifier.Enqueue(ctx, userID, ntype, title, message); err != nil {
		s.logger.Error("Failed to dispatch notification",
			zap.Int64("user_id", userID),
			zap.String("type", ntype),
			zap.Error(err))
	}
}
