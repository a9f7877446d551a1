package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"reservation-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetMedicineByID retrieves a medicine by ID, nil if absent
func (s *Store) GetMedicineByID(ctx context.Context, id int64) (*models.Medicine, error) {
	var medicine models.Medicine
	err := s.db.GetContext(ctx, &medicine, "SELECT * FROM medicines WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &medicine, nil
}

// GetPharmacyByID retrieves a pharmacy by ID, nil if absent
func (s *Store) GetPharmacyByID(ctx context.Context, id int64) (*models.Pharmacy, error) {
	var pharmacy models.Pharmacy
	err := s.db.GetContext(ctx, &pharmacy, "SELECT * FROM pharmacies WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pharmacy, nil
}

// GetInventoryRecord retrieves the stock row for a (pharmacy, medicine)
// pair, nil if the pharmacy does not carry the medicine
func (s *Store) GetInventoryRecord(ctx context.Context, pharmacyID, medicineID int64) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := s.db.GetContext(ctx, &rec,
		"SELECT * FROM inventory WHERE pharmacy_id = $1 AND medicine_id = $2",
		pharmacyID, medicineID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListInventoryByPharmacy retrieves all stock rows for a pharmacy
func (s *Store) ListInventoryByPharmacy(ctx context.Context, pharmacyID int64) ([]models.InventoryRecord, error) {
	var recs []models.InventoryRecord
	err := s.db.SelectContext(ctx, &recs,
		"SELECT * FROM inventory WHERE pharmacy_id = $1 ORDER BY medicine_id", pharmacyID)
	return recs, err
}

// UpsertInventoryRecord writes quantity and its derived status in one
// statement, so the two can never disagree in the database.
func (s *Store) UpsertInventoryRecord(ctx context.Context, pharmacyID, medicineID int64, quantity int) (*models.InventoryRecord, error) {
	status := models.DeriveStockStatus(quantity)

	var rec models.InventoryRecord
	err := s.db.GetContext(ctx, &rec, `
		INSERT INTO inventory (pharmacy_id, medicine_id, quantity, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pharmacy_id, medicine_id)
		DO UPDATE SET quantity = $3, status = $4, updated_at = NOW()
		RETURNING *`,
		pharmacyID, medicineID, quantity, status)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert inventory: %w", err)
	}
	return &rec, nil
}

// IsEventProcessed checks if a notification event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks a notification event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
