package service

import (
	"context"

	"reservation-service/internal/apperrors"
	"reservation-service/internal/models"
)

// authorize is the single ownership check used by every mutating
// operation: patients must own the reservation, pharmacy users must own
// the reservation's pharmacy.
func (s *ReservationService) authorize(ctx context.Context, callerID int64, r *models.Reservation, requiredRole string) error {
	switch requiredRole {
	case models.RolePatient:
		if r.PatientID != callerID {
			return apperrors.NewForbidden("reservation belongs to another patient")
		}
		return nil

	case models.RolePharmacy:
		pharmacy, err := s.store.GetPharmacyByID(ctx, r.PharmacyID)
		if err != nil {
			return apperrors.NewInternal("failed to load pharmacy", err)
		}
		if pharmacy == nil {
			return apperrors.NewNotFound("pharmacy")
		}
		if pharmacy.OwnerUserID != callerID {
			return apperrors.NewForbidden("reservation belongs to another pharmacy")
		}
		return nil

	default:
		return apperrors.NewForbidden("caller role cannot act on reservations")
	}
}
