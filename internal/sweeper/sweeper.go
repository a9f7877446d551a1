package sweeper

import (
	"context"
	"fmt"
	"time"

	"reservation-service/internal/models"
	"reservation-service/internal/service"
	"reservation-service/internal/util"

	"go.uber.org/zap"
)

// Store is the persistence surface the sweeper needs
type Store interface {
	ListOverduePending(ctx context.Context, cutoff time.Time) ([]models.Reservation, error)
	MarkNoResponseIf(ctx context.Context, id int64) (bool, error)
	GetMedicineByID(ctx context.Context, id int64) (*models.Medicine, error)
}

// Locker is a best-effort distributed lock; sweep correctness does not
// depend on it, it only spares redundant scans when several instances
// share a schedule
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

const sweepLockKey = "reservation-sweep"

// Sweeper forces PENDING reservations past the response threshold into
// NO_RESPONSE. Each transition is guarded on the row still being PENDING
// at write time, so overlapping sweeps move a reservation at most once.
type Sweeper struct {
	store     Store
	notifier  service.Notifier
	locker    Locker
	threshold time.Duration
	interval  time.Duration
	logger    *zap.Logger
	stop      chan struct{}
}

// New creates a new sweeper. locker may be nil.
func New(store Store, notifier service.Notifier, locker Locker, threshold, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:     store,
		notifier:  notifier,
		locker:    locker,
		threshold: threshold,
		interval:  interval,
		logger:    util.GetLogger(),
		stop:      make(chan struct{}),
	}
}

// Run executes sweeps on the configured interval until the context is
// cancelled or Stop is called. The schedule is server-owned: the timeout
// rule holds with no client connected.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("Starting timeout sweeper",
		zap.Duration("threshold", s.threshold),
		zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper context cancelled, stopping")
			return
		case <-s.stop:
			s.logger.Info("Sweeper stopped")
			return
		case <-ticker.C:
			s.runLocked(ctx)
		}
	}
}

// Stop stops the Run loop
func (s *Sweeper) Stop() {
	close(s.stop)
}

func (s *Sweeper) runLocked(ctx context.Context) {
	if s.locker != nil {
		acquired, err := s.locker.AcquireLock(ctx, sweepLockKey, s.interval)
		if err != nil {
			// Lock service down: sweep anyway, the status guard keeps
			// concurrent passes safe.
			s.logger.Warn("Sweep lock unavailable, sweeping without it", zap.Error(err))
		} else if !acquired {
			s.logger.Debug("Sweep lock held elsewhere, skipping pass")
			return
		} else {
			defer func() {
				if err := s.locker.ReleaseLock(ctx, sweepLockKey); err != nil {
					s.logger.Warn("Failed to release sweep lock", zap.Error(err))
				}
			}()
		}
	}

	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("Sweep pass failed", zap.Error(err))
	}
}

// Sweep runs one pass: every reservation still PENDING after the
// threshold is moved to NO_RESPONSE and its patient notified. Returns the
// IDs actually transitioned. A failure on one reservation never blocks
// the rest of the scan.
func (s *Sweeper) Sweep(ctx context.Context) ([]int64, error) {
	ctx, span := util.StartSpan(ctx, "Sweeper.Sweep")
	defer span.End()

	start := time.Now()
	defer func() {
		util.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	cutoff := time.Now().Add(-s.threshold)
	candidates, err := s.store.ListOverduePending(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue reservations: %w", err)
	}

	updated := make([]int64, 0, len(candidates))
	for _, r := range candidates {
		ok, err := s.store.MarkNoResponseIf(ctx, r.ID)
		if err != nil {
			util.SweepFailuresTotal.Inc()
			s.logger.Error("Failed to time out reservation",
				zap.Int64("reservation_id", r.ID),
				zap.Error(err))
			continue
		}
		if !ok {
			// Lost the race to accept/reject/cancel or a concurrent sweep.
			continue
		}

		util.ReservationsTimedOutTotal.Inc()
		updated = append(updated, r.ID)
		s.logger.Info("Reservation timed out",
			zap.Int64("reservation_id", r.ID),
			zap.Int64("patient_id", r.PatientID))

		s.notifyPatient(ctx, &r)
	}

	return updated, nil
}

func (s *Sweeper) notifyPatient(ctx context.Context, r *models.Reservation) {
	medicineName := "your medicine"
	if medicine, err := s.store.GetMedicineByID(ctx, r.MedicineID); err == nil && medicine != nil {
		medicineName = medicine.Name
	}

	message := fmt.Sprintf(
		"The pharmacy has not responded to your reservation for %s within %d minutes. You can provide a phone number so they can reach you directly.",
		medicineName, int(s.threshold.Minutes()))

	if err := s.notifier.Enqueue(ctx, r.PatientID, models.NotificationTypeNoResponse,
		"Pharmacy did not respond", message); err != nil {
		s.logger.Error("Failed to dispatch no-response notification",
			zap.Int64("reservation_id", r.ID),
			zap.Error(err))
	}
}
