package models

import "time"

// User represents an account that can act on reservations
type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// User roles
const (
	RolePatient  = "patient"
	RolePharmacy = "pharmacy"
)

// Medicine represents a catalog entry
type Medicine struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Manufacturer string    `db:"manufacturer" json:"manufacturer"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Pharmacy represents a pharmacy location owned by a pharmacy user
type Pharmacy struct {
	ID           int64     `db:"id" json:"id"`
	OwnerUserID  int64     `db:"owner_user_id" json:"owner_user_id"`
	Name         string    `db:"name" json:"name"`
	Address      string    `db:"address" json:"address"`
	Phone        string    `db:"phone" json:"phone"`
	WorkingHours string    `db:"working_hours" json:"working_hours"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// InventoryRecord represents the stock of one medicine at one pharmacy
type InventoryRecord struct {
	PharmacyID int64     `db:"pharmacy_id" json:"pharmacy_id"`
	MedicineID int64     `db:"medicine_id" json:"medicine_id"`
	Quantity   int       `db:"quantity" json:"quantity"`
	Status     string    `db:"status" json:"status"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Reservation represents a patient's claim on a quantity of a medicine
// at a pharmacy. Terminal timestamps are set exactly once and never
// cleared; a reservation accepted after timing out keeps both
// no_response_time and accepted_time.
type Reservation struct {
	ID             int64      `db:"id" json:"id"`
	PatientID      int64      `db:"patient_id" json:"patient_id"`
	PharmacyID     int64      `db:"pharmacy_id" json:"pharmacy_id"`
	MedicineID     int64      `db:"medicine_id" json:"medicine_id"`
	Quantity       int        `db:"quantity" json:"quantity"`
	Status         string     `db:"status" json:"status"`
	RequestTime    time.Time  `db:"request_time" json:"request_time"`
	AcceptedTime   *time.Time `db:"accepted_time" json:"accepted_time,omitempty"`
	RejectedTime   *time.Time `db:"rejected_time" json:"rejected_time,omitempty"`
	NoResponseTime *time.Time `db:"no_response_time" json:"no_response_time,omitempty"`
	PatientPhone   *string    `db:"patient_phone" json:"patient_phone,omitempty"`
	Note           *string    `db:"note" json:"note,omitempty"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Reservation statuses
const (
	ReservationStatusPending    = "PENDING"
	ReservationStatusAccepted   = "ACCEPTED"
	ReservationStatusRejected   = "REJECTED"
	ReservationStatusCancelled  = "CANCELLED"
	ReservationStatusNoResponse = "NO_RESPONSE"
)

// MedicineSummary is the display subset joined onto reservation responses
type MedicineSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PharmacySummary is the display subset joined onto reservation responses
type PharmacySummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	WorkingHours string `json:"working_hours"`
}

// ReservationDetail is a reservation joined with its medicine and
// pharmacy summaries for display by callers
type ReservationDetail struct {
	Reservation
	Medicine MedicineSummary `json:"medicine"`
	Pharmacy PharmacySummary `json:"pharmacy"`
}

// Notification represents a mailbox entry delivered to a user
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Notification types
const (
	NotificationTypeReservationCreated  = "RESERVATION_CREATED"
	NotificationTypeReservationAccepted = "RESERVATION_ACCEPTED"
	NotificationTypeReservationRejected = "RESERVATION_REJECTED"
	NotificationTypeNoResponse          = "RESERVATION_NO_RESPONSE"
	NotificationTypePhoneProvided       = "PATIENT_PHONE_PROVIDED"
)

// ProcessedEvent for notification delivery idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
