package store

import (
	"context"
	"database/sql"
	"time"

	"reservation-service/internal/models"
)

// CreateReservation persists a new PENDING reservation
func (s *Store) CreateReservation(ctx context.Context, r *models.Reservation) error {
	query := `
		INSERT INTO reservations (patient_id, pharmacy_id, medicine_id, quantity, status, request_time)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, request_time, updated_at`

	return s.db.GetContext(ctx, r, query,
		r.PatientID, r.PharmacyID, r.MedicineID, r.Quantity, r.Status)
}

// GetReservationByID retrieves a reservation, nil if absent
func (s *Store) GetReservationByID(ctx context.Context, id int64) (*models.Reservation, error) {
	var r models.Reservation
	err := s.db.GetContext(ctx, &r, "SELECT * FROM reservations WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReservationsByPatient retrieves a patient's reservations, newest first
func (s *Store) ListReservationsByPatient(ctx context.Context, patientID int64) ([]models.Reservation, error) {
	var rs []models.Reservation
	err := s.db.SelectContext(ctx, &rs,
		"SELECT * FROM reservations WHERE patient_id = $1 ORDER BY request_time DESC", patientID)
	return rs, err
}

// ListReservationsByPharmacy retrieves a pharmacy's reservations, newest first
func (s *Store) ListReservationsByPharmacy(ctx context.Context, pharmacyID int64) ([]models.Reservation, error) {
	var rs []models.Reservation
	err := s.db.SelectContext(ctx, &rs,
		"SELECT * FROM reservations WHERE pharmacy_id = $1 ORDER BY request_time DESC", pharmacyID)
	return rs, err
}

// AcceptReservationIf transitions to ACCEPTED only while the row is still
// PENDING or NO_RESPONSE. Returns false if the guard did not match, which
// means another caller (or the sweeper) got there first or the state was
// never actionable.
func (s *Store) AcceptReservationIf(ctx context.Context, id int64, note *string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reservations
		SET status = $1, accepted_time = NOW(), note = $2, updated_at = NOW()
		WHERE id = $3 AND status IN ($4, $5)`,
		models.ReservationStatusAccepted, note, id,
		models.ReservationStatusPending, models.ReservationStatusNoResponse)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RejectReservationIf transitions to REJECTED under the same guard as accept
func (s *Store) RejectReservationIf(ctx context.Context, id int64, note *string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reservations
		SET status = $1, rejected_time = NOW(), note = $2, updated_at = NOW()
		WHERE id = $3 AND status IN ($4, $5)`,
		models.ReservationStatusRejected, note, id,
		models.ReservationStatusPending, models.ReservationStatusNoResponse)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CancelReservationIf transitions to CANCELLED only from PENDING or ACCEPTED
func (s *Store) CancelReservationIf(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reservations
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status IN ($3, $4)`,
		models.ReservationStatusCancelled, id,
		models.ReservationStatusPending, models.ReservationStatusAccepted)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkNoResponseIf transitions to NO_RESPONSE only while still PENDING.
// The guard is what makes concurrent sweeps transition each overdue
// reservation at most once.
func (s *Store) MarkNoResponseIf(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reservations
		SET status = $1, no_response_time = NOW(), updated_at = NOW()
		WHERE id = $2 AND status = $3`,
		models.ReservationStatusNoResponse, id, models.ReservationStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetPatientPhoneIf attaches the patient's phone while the reservation is
// in NO_RESPONSE; the status itself is left untouched
func (s *Store) SetPatientPhoneIf(ctx context.Context, id int64, phone string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reservations
		SET patient_phone = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`,
		phone, id, models.ReservationStatusNoResponse)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListOverduePending retrieves PENDING reservations requested at or before
// the cutoff, oldest first
func (s *Store) ListOverduePending(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	var rs []models.Reservation
	err := s.db.SelectContext(ctx, &rs, `
		SELECT * FROM reservations
		WHERE status = $1 AND request_time <= $2
		ORDER BY request_time`,
		models.ReservationStatusPending, cutoff)
	return rs, err
}
