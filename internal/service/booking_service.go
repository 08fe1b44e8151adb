package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"renthub/internal/apperr"
	"renthub/internal/database"
	"renthub/internal/domain"
	"renthub/internal/events"
	"renthub/internal/metrics"
	"renthub/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	clock    domain.Clock
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, clock domain.Clock, logger *zerolog.Logger) *BookingService {
	if clock == nil {
		clock = time.Now
	}
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		clock:    clock,
		logger:   logger,
	}
}

// CreateBooking validates the request and persists a WAITING booking. The
// checks run in a fixed order so each failure carries its own message.
func (s *BookingService) CreateBooking(ctx context.Context, bookerID int64, booking *models.Booking) (*models.Booking, error) {
	exists, err := s.repo.UserExists(ctx, bookerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("user with id %d not found", bookerID)
	}

	item, err := s.repo.GetItem(ctx, booking.ItemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("item with id %d not found", booking.ItemID)
	}
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, apperr.Invalid("item with id %d not available", item.ID)
	}
	if booking.Start.IsZero() {
		return nil, apperr.Invalid("start date is missing")
	}
	if booking.End.IsZero() {
		return nil, apperr.Invalid("end date is missing")
	}
	if booking.End.Before(booking.Start) {
		return nil, apperr.Invalid("end date should be after start date")
	}
	if booking.Start.Equal(booking.End) {
		return nil, apperr.Invalid("start date should not equal end date")
	}
	if !booking.Start.After(s.clock()) {
		return nil, apperr.Invalid("start date should be in the future")
	}
	if item.OwnerID == bookerID {
		return nil, apperr.NotFound("owner couldn't create booking")
	}

	booking.BookerID = bookerID
	booking.Status = models.StatusWaiting
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("item_id", booking.ItemID).
		Int64("booker_id", bookerID).
		Msg("booking created")
	metrics.IncBookingCreated()
	s.publishBookingEvent(events.EventBookingCreated, booking)

	return booking, nil
}

// SetApproval moves a WAITING booking to APPROVED or REJECTED. The transition
// is one-shot; the conditional update in the store decides the winner when
// two approvals race.
func (s *BookingService) SetApproval(ctx context.Context, actorID, bookingID int64, approved bool) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("booking with id %d not found", bookingID)
	}
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.UserExists(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("user with id %d not found", actorID)
	}

	item, err := s.repo.GetItem(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != actorID {
		return nil, apperr.NotFound("only owner of item can approve booking")
	}
	if booking.Status != models.StatusWaiting {
		return nil, apperr.Invalid("only WAITING bookings can be approved")
	}

	status := models.StatusRejected
	eventType := events.EventBookingRejected
	if approved {
		status = models.StatusApproved
		eventType = events.EventBookingApproved
	}

	err = s.repo.UpdateBookingStatusIfWaiting(ctx, bookingID, status)
	if errors.Is(err, database.ErrStatusConflict) {
		return nil, apperr.Invalid("only WAITING bookings can be approved")
	}
	if err != nil {
		return nil, err
	}

	booking.Status = status
	s.logger.Info().
		Int64("booking_id", bookingID).
		Int64("actor_id", actorID).
		Str("status", status).
		Msg("booking decided")
	metrics.IncBookingDecision(status)
	s.publishBookingEvent(eventType, booking)

	return booking, nil
}

// GetBooking returns a booking to its booker or to the item's owner.
func (s *BookingService) GetBooking(ctx context.Context, actorID, bookingID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("booking with id %d not found", bookingID)
	}
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.UserExists(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("user with id %d not found", actorID)
	}

	item, err := s.repo.GetItem(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if booking.BookerID != actorID && item.OwnerID != actorID {
		return nil, apperr.NotFound("only owner of item or booker can review booking")
	}

	return booking, nil
}

// ListByBooker returns the user's bookings filtered by state, newest start
// first.
func (s *BookingService) ListByBooker(ctx context.Context, bookerID int64, state string, from, size *int64) ([]*models.Booking, error) {
	filter, err := s.prepareListing(ctx, bookerID, state, from, size)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.GetBookingsByBooker(ctx, bookerID)
	if err != nil {
		return nil, err
	}
	return s.filterAndPage(bookings, filter, from, size), nil
}

// ListByOwner returns bookings against the owner's items filtered by state,
// newest start first.
func (s *BookingService) ListByOwner(ctx context.Context, ownerID int64, state string, from, size *int64) ([]*models.Booking, error) {
	filter, err := s.prepareListing(ctx, ownerID, state, from, size)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.GetBookingsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.filterAndPage(bookings, filter, from, size), nil
}

// prepareListing resolves the listing preconditions. The user check runs
// before the state parse, so an unknown user gets not-found even with a
// garbage state.
func (s *BookingService) prepareListing(ctx context.Context, userID int64, state string, from, size *int64) (models.BookingState, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", apperr.NotFound("user with id %d not found", userID)
	}

	filter, ok := models.ParseBookingState(state)
	if !ok {
		return "", apperr.ErrUnsupportedState
	}

	if err := validatePage(from, size); err != nil {
		return "", err
	}

	return filter, nil
}

func (s *BookingService) filterAndPage(bookings []*models.Booking, filter models.BookingState, from, size *int64) []*models.Booking {
	now := s.clock()
	matched := make([]*models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if MatchesState(filter, b.Status, b.Start, b.End, now) {
			matched = append(matched, b)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Start.After(matched[j].Start)
	})

	return paginate(matched, from, size)
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.PublishJSON(eventType, events.BookingEventPayload{
		BookingID: booking.ID,
		ItemID:    booking.ItemID,
		BookerID:  booking.BookerID,
		Status:    booking.Status,
		Start:     booking.Start,
		End:       booking.End,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}
