package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "reservo/internal/bookings/errors"
	bookingsrepo "reservo/internal/bookings/repository"
	"reservo/internal/events"
	"reservo/internal/keys/custody"
	keyserrors "reservo/internal/keys/errors"
	"reservo/internal/keys/repository"
	"reservo/internal/keys/validator"
	resourceserrors "reservo/internal/resources/errors"
	resourcesrepo "reservo/internal/resources/repository"
	"reservo/pkg/clock"
	"reservo/pkg/config"
	apperrors "reservo/pkg/errors"
	"reservo/pkg/lock"
	"reservo/pkg/metrics"
	"reservo/pkg/model"
	"reservo/pkg/sanitizer"
	"reservo/pkg/validation"

	"github.com/google/uuid"
)

const (
	actionCheckOut = "check_out"
	actionCheckIn  = "check_in"
	actionOverdue  = "overdue"
)

var errBusy = apperrors.Unavailable("Key")

type KeyService interface {
	CheckOutKey(ctx context.Context, keyID string, req *model.CheckOutRequest, custodian model.Requester) (*model.KeyTransaction, error)
	CheckInKey(ctx context.Context, transactionID string, actor model.Requester) (*model.KeyTransaction, error)
	GetByID(ctx context.Context, transactionID string) (*custody.View, error)
	ListOverdue(ctx context.Context, limit int) ([]custody.View, error)
	SweepOverdueKeys(ctx context.Context, now time.Time) (int, error)
}

type keyService struct {
	repo      repository.KeyTransactionRepository
	bookings  bookingsrepo.BookingRepository
	resources resourcesrepo.ResourceRepository
	locker    lock.Locker
	publisher events.Publisher
	validator *validator.KeyValidator
	clock     clock.Clock
	cfg       *config.Config
}

func NewKeyService(
	repo repository.KeyTransactionRepository,
	bookings bookingsrepo.BookingRepository,
	resources resourcesrepo.ResourceRepository,
	locker lock.Locker,
	publisher events.Publisher,
	validator *validator.KeyValidator,
	clk clock.Clock,
	cfg *config.Config,
) KeyService {
	return &keyService{
		repo:      repo,
		bookings:  bookings,
		resources: resources,
		locker:    locker,
		publisher: publisher,
		validator: validator,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *keyService) CheckOutKey(ctx context.Context, keyID string, req *model.CheckOutRequest, custodian model.Requester) (*model.KeyTransaction, error) {
	keyID = sanitizer.SanitizeIdentifier(keyID)
	if err := s.validator.ValidateCheckOut(keyID, req); err != nil {
		return nil, s.validationError("Invalid key checkout", err)
	}

	// Key lock, then the booked resource's lock. The resource lock keeps
	// booking transitions out until the transaction is stored.
	var opened *model.KeyTransaction
	err := s.withKeyLock(ctx, keyID, func(ctx context.Context) error {
		target, err := s.findBooking(ctx, req.BookingID)
		if err != nil {
			return err
		}
		return s.withResourceLock(ctx, target.ResourceID, func(ctx context.Context) error {
			return s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
				if open, err := s.repo.FindOpenByKey(ctx, keyID); err == nil {
					return apperrors.AlreadyCheckedOut(keyID, open.ID)
				} else if !errors.Is(err, keyserrors.ErrNotFound) {
					return err
				}

				resource, err := s.resources.FindByKeyID(ctx, keyID)
				if err != nil {
					if errors.Is(err, resourceserrors.ErrNotFound) {
						return apperrors.Validation("Unknown key", map[string]any{"key_id": keyID})
					}
					return err
				}
				booking, err := s.findBooking(ctx, req.BookingID)
				if err != nil {
					return err
				}

				now := s.clock.Now()
				co := custody.CheckOut{
					KeyID:            keyID,
					Booking:          booking,
					Resource:         resource,
					BorrowerID:       sanitizer.SanitizeIdentifier(req.BorrowerID),
					CustodianID:      custodian.UserID,
					ExpectedReturnAt: booking.EndTime,
				}
				if co.BorrowerID == "" {
					co.BorrowerID = booking.UserID
				}
				if req.ExpectedReturnAt != nil {
					co.ExpectedReturnAt = req.ExpectedReturnAt.UTC()
				}

				tx, err := custody.Open(co, now)
				if err != nil {
					return err
				}
				tx.ID = uuid.NewString()
				if err := s.repo.Create(ctx, tx); err != nil {
					return err
				}
				opened = tx
				return nil
			})
		})
	})
	if err != nil {
		return nil, s.custodyError(ctx, "check out", keyID, err)
	}

	s.applied(ctx, opened, model.EventKeyCheckedOut, actionCheckOut, custodian.UserID)
	s.cfg.Log.Info("Key checked out",
		"id", opened.ID,
		"key_id", keyID,
		"booking_id", opened.BookingID,
		"expected_return_at", opened.ExpectedReturnAt,
	)
	return opened, nil
}

// CheckInKey closes the transaction as returned whether or not it was
// overdue.
func (s *keyService) CheckInKey(ctx context.Context, transactionID string, actor model.Requester) (*model.KeyTransaction, error) {
	current, err := s.find(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	var closed *model.KeyTransaction
	err = s.withKeyLock(ctx, current.KeyID, func(ctx context.Context) error {
		return s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
			tx, err := s.repo.FindByID(ctx, transactionID)
			if err != nil {
				return err
			}
			if err := custody.CheckIn(tx, actor.UserID, s.clock.Now()); err != nil {
				return err
			}
			if err := s.repo.Update(ctx, tx); err != nil {
				return err
			}
			closed = tx
			return nil
		})
	})
	if err != nil {
		return nil, s.custodyError(ctx, "check in", current.KeyID, err)
	}

	s.applied(ctx, closed, model.EventKeyCheckedIn, actionCheckIn, actor.UserID)
	s.cfg.Log.Info("Key checked in", "id", closed.ID, "key_id", closed.KeyID, "late", closed.CheckedInAt.After(closed.ExpectedReturnAt))
	return closed, nil
}

func (s *keyService) GetByID(ctx context.Context, transactionID string) (*custody.View, error) {
	tx, err := s.find(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	v := custody.ViewAt(tx, s.clock.Now())
	return &v, nil
}

// ListOverdue derives overdue at read time, so rows the sweep has not
// reached yet are included.
func (s *keyService) ListOverdue(ctx context.Context, limit int) ([]custody.View, error) {
	now := s.clock.Now()
	txs, err := s.repo.FindOpenDueBefore(ctx, now, limit)
	if err != nil {
		return nil, apperrors.Internal("Failed to list overdue keys", err)
	}
	views := make([]custody.View, 0, len(txs))
	for _, tx := range txs {
		views = append(views, custody.ViewAt(tx, now))
	}
	return views, nil
}

func (s *keyService) find(ctx context.Context, transactionID string) (*model.KeyTransaction, error) {
	if transactionID == "" {
		return nil, apperrors.InvalidInput("Key transaction ID cannot be empty")
	}
	if err := uuid.Validate(transactionID); err != nil {
		return nil, apperrors.InvalidInput("Invalid key transaction ID format")
	}
	tx, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, keyserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Key transaction", transactionID)
		}
		return nil, apperrors.Internal("Failed to get key transaction", err)
	}
	return tx, nil
}

func (s *keyService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		return nil, err
	}
	return booking, nil
}

func (s *keyService) withKeyLock(ctx context.Context, keyID string, fn func(ctx context.Context) error) error {
	return s.withLock(ctx, lock.KeyCustodyKey(keyID), fn)
}

// withResourceLock is only ever taken while the key lock is held.
func (s *keyService) withResourceLock(ctx context.Context, resourceID string, fn func(ctx context.Context) error) error {
	return s.withLock(ctx, lock.ResourceKey(resourceID), fn)
}

func (s *keyService) withLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	unlock, err := s.locker.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return errBusy
		}
		return apperrors.Internal("Failed to acquire lock", err)
	}
	defer func() {
		if releaseErr := unlock(context.WithoutCancel(ctx)); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release lock", "lock", key, "error", releaseErr)
		}
	}()
	return fn(ctx)
}

// custodyError maps repository sentinels. A duplicate from the store means
// another instance won the race outside this process's lock.
func (s *keyService) custodyError(ctx context.Context, op, keyID string, err error) error {
	switch {
	case errors.Is(err, keyserrors.ErrAlreadyCheckedOut):
		openID := ""
		if open, findErr := s.repo.FindOpenByKey(ctx, keyID); findErr == nil {
			openID = open.ID
		}
		s.cfg.Log.Warn("Key already checked out", "key_id", keyID, "transaction_id", openID)
		return apperrors.AlreadyCheckedOut(keyID, openID)
	case errors.Is(err, keyserrors.ErrNotFound):
		return apperrors.NotFound("Key transaction")
	case apperrors.IsAppError(err):
		s.cfg.Log.Warn("Key "+op+" refused", "key_id", keyID, "error", err)
		return err
	default:
		s.cfg.Log.Error("Key "+op+" failed", "key_id", keyID, "error", err)
		return apperrors.Internal("Failed to "+op+" key", err)
	}
}

func (s *keyService) applied(ctx context.Context, tx *model.KeyTransaction, typ model.EventType, action, actorID string) {
	metrics.RecordCustody(action)
	ev := events.KeyEvent(typ, tx, actorID, s.clock.Now())
	if err := s.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.cfg.Log.Error("Failed to publish key event", "type", typ, "id", tx.ID, "error", err)
	}
}

func (s *keyService) validationError(message string, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		s.cfg.Log.Warn(message, "error", err)
		return apperrors.Validation(message, verrs.Fields())
	}
	return apperrors.Internal(message, err)
}
