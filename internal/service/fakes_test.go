package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"reservation-service/internal/models"
)

// fakeStore is an in-memory ReservationStore with the same conditional
// update semantics as the SQL store.
type fakeStore struct {
	mu           sync.Mutex
	users        map[int64]*models.User
	medicines    map[int64]*models.Medicine
	pharmacies   map[int64]*models.Pharmacy
	inventory    map[[2]int64]*models.InventoryRecord
	reservations map[int64]*models.Reservation
	nextID       int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[int64]*models.User),
		medicines:    make(map[int64]*models.Medicine),
		pharmacies:   make(map[int64]*models.Pharmacy),
		inventory:    make(map[[2]int64]*models.InventoryRecord),
		reservations: make(map[int64]*models.Reservation),
	}
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeStore) GetMedicineByID(_ context.Context, id int64) (*models.Medicine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.medicines[id], nil
}

func (f *fakeStore) GetPharmacyByID(_ context.Context, id int64) (*models.Pharmacy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pharmacies[id], nil
}

func (f *fakeStore) GetInventoryRecord(_ context.Context, pharmacyID, medicineID int64) (*models.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inventory[[2]int64{pharmacyID, medicineID}], nil
}

func (f *fakeStore) CreateReservation(_ context.Context, r *models.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = f.nextID
	r.RequestTime = time.Now()
	r.UpdatedAt = r.RequestTime
	cp := *r
	f.reservations[r.ID] = &cp
	return nil
}

func (f *fakeStore) GetReservationByID(_ context.Context, id int64) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) ListReservationsByPatient(_ context.Context, patientID int64) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rs []models.Reservation
	for _, r := range f.reservations {
		if r.PatientID == patientID {
			rs = append(rs, *r)
		}
	}
	return rs, nil
}

func (f *fakeStore) ListReservationsByPharmacy(_ context.Context, pharmacyID int64) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rs []models.Reservation
	for _, r := range f.reservations {
		if r.PharmacyID == pharmacyID {
			rs = append(rs, *r)
		}
	}
	return rs, nil
}

func (f *fakeStore) AcceptReservationIf(_ context.Context, id int64, note *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || (r.Status != models.ReservationStatusPending && r.Status != models.ReservationStatusNoResponse) {
		return false, nil
	}
	now := time.Now()
	r.Status = models.ReservationStatusAccepted
	r.AcceptedTime = &now
	r.Note = note
	r.UpdatedAt = now
	return true, nil
}

func (f *fakeStore) RejectReservationIf(_ context.Context, id int64, note *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || (r.Status != models.ReservationStatusPending && r.Status != models.ReservationStatusNoResponse) {
		return false, nil
	}
	now := time.Now()
	r.Status = models.ReservationStatusRejected
	r.RejectedTime = &now
	r.Note = note
	r.UpdatedAt = now
	return true, nil
}

func (f *fakeStore) CancelReservationIf(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || (r.Status != models.ReservationStatusPending && r.Status != models.ReservationStatusAccepted) {
		return false, nil
	}
	r.Status = models.ReservationStatusCancelled
	r.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeStore) SetPatientPhoneIf(_ context.Context, id int64, phone string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || r.Status != models.ReservationStatusNoResponse {
		return false, nil
	}
	r.PatientPhone = &phone
	r.UpdatedAt = time.Now()
	return true, nil
}

// sentNotification records one Enqueue call
type sentNotification struct {
	UserID  int64
	Type    string
	Title   string
	Message string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	fail bool
}

func (n *fakeNotifier) Enqueue(_ context.Context, userID int64, ntype, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("broker unavailable")
	}
	n.sent = append(n.sent, sentNotification{UserID: userID, Type: ntype, Title: title, Message: message})
	return nil
}

func (n *fakeNotifier) sentTo(userID int64) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

// fixture builds a store with one patient, one pharmacy owner, one
// pharmacy and one medicine with the given stock
func fixture(stock int) (*fakeStore, *fakeNotifier, *ReservationService) {
	st := newFakeStore()
	st.users[1] = &models.User{ID: 1, Name: "Alice", Role: models.RolePatient}
	st.users[2] = &models.User{ID: 2, Name: "Bob", Role: models.RolePharmacy}
	st.users[3] = &models.User{ID: 3, Name: "Carol", Role: models.RolePatient}
	st.medicines[10] = &models.Medicine{ID: 10, Name: "Ibuprofen"}
	st.pharmacies[20] = &models.Pharmacy{
		ID: 20, OwnerUserID: 2, Name: "Main Street Pharmacy",
		Address: "1 Main St", Phone: "555-0000", WorkingHours: "9-18",
	}
	st.inventory[[2]int64{20, 10}] = &models.InventoryRecord{
		PharmacyID: 20, MedicineID: 10,
		Quantity: stock, Status: models.DeriveStockStatus(stock),
	}

	notifier := &fakeNotifier{}
	svc := NewReservationService(st, notifier, 30)
	return st, notifier, svc
}
