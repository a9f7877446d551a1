package service

import (
	"context"
	"time"

	"reservation-service/internal/apperrors"
	"reservation-service/internal/models"
	"reservation-service/internal/redisclient"
	"reservation-service/internal/util"

	"go.uber.org/zap"
)

const inventoryCacheTTL = 30 * time.Second

// InventoryStore is the persistence surface the inventory service needs
type InventoryStore interface {
	GetMedicineByID(ctx context.Context, id int64) (*models.Medicine, error)
	GetPharmacyByID(ctx context.Context, id int64) (*models.Pharmacy, error)
	ListInventoryByPharmacy(ctx context.Context, pharmacyID int64) ([]models.InventoryRecord, error)
	UpsertInventoryRecord(ctx context.Context, pharmacyID, medicineID int64, quantity int) (*models.InventoryRecord, error)
}

// InventoryService serves inventory reads (Redis-cached) and the
// pharmacy-side stock writes. The quantity/status pairing is enforced in
// the store: every write recomputes the derived status in one statement.
type InventoryService struct {
	store  InventoryStore
	cache  *redisclient.Client
	logger *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(store InventoryStore, cache *redisclient.Client) *InventoryService {
	return &InventoryService{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// GetPharmacyInventory lists a pharmacy's stock, from cache when warm
func (s *InventoryService) GetPharmacyInventory(ctx context.Context, pharmacyID int64) ([]models.InventoryRecord, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.GetPharmacyInventory")
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.GetCachedInventory(ctx, pharmacyID)
		if err != nil {
			s.logger.Warn("Inventory cache read failed", zap.Int64("pharmacy_id", pharmacyID), zap.Error(err))
		}
		if cached != nil {
			return cached, nil
		}
	}

	pharmacy, err := s.store.GetPharmacyByID(ctx, pharmacyID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to load pharmacy", err)
	}
	if pharmacy == nil {
		return nil, apperrors.NewNotFound("pharmacy")
	}

	recs, err := s.store.ListInventoryByPharmacy(ctx, pharmacyID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list inventory", err)
	}

	if s.cache != nil {
		if err := s.cache.CacheInventory(ctx, pharmacyID, recs, inventoryCacheTTL); err != nil {
			s.logger.Warn("Inventory cache write failed", zap.Int64("pharmacy_id", pharmacyID), zap.Error(err))
		}
	}

	return recs, nil
}

// UpsertStockRequest represents a pharmacy stock write
type UpsertStockRequest struct {
	MedicineID int64 `json:"medicine_id" binding:"required"`
	Quantity   int   `json:"quantity"`
}

// UpsertStock writes the quantity for a (pharmacy, medicine) pair; only
// the pharmacy's owner may write it
func (s *InventoryService) UpsertStock(ctx context.Context, callerID, pharmacyID int64, req *UpsertStockRequest) (*models.InventoryRecord, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.UpsertStock")
	defer span.End()

	if req.Quantity < 0 {
		return nil, apperrors.NewValidation("quantity must not be negative")
	}

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

	medicine, err := s.store.GetMedicineByID(ctx, req.MedicineID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to load medicine", err)
	}
	if medicine == nil {
		return nil, apperrors.NewNotFound("medicine")
	}

	rec, err := s.store.UpsertInventoryRecord(ctx, pharmacyID, req.MedicineID, req.Quantity)
	if err != nil {
		return nil, apperrors.NewInternal("failed to upsert inventory", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateInventory(ctx, pharmacyID); err != nil {
			s.logger.Warn("Inventory cache invalidation failed", zap.Int64("pharmacy_id", pharmacyID), zap.Error(err))
		}
	}

	s.logger.Info("Inventory updated",
		zap.Int64("pharmacy_id", pharmacyID),
		zap.Int64("medicine_id", req.MedicineID),
		zap.Int("quantity", rec.Quantity),
		zap.String("status", rec.Status))

	return rec, nil
}
