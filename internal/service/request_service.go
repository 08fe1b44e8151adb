package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"renthub/internal/apperr"
	"renthub/internal/database"
	"renthub/internal/domain"
	"renthub/internal/events"
	"renthub/internal/models"

	"github.com/rs/zerolog"
)

type RequestService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	clock    domain.Clock
	logger   *zerolog.Logger
}

func NewRequestService(repo domain.Repository, eventBus domain.EventPublisher, clock domain.Clock, logger *zerolog.Logger) *RequestService {
	if clock == nil {
		clock = time.Now
	}
	return &RequestService{
		repo:     repo,
		eventBus: eventBus,
		clock:    clock,
		logger:   logger,
	}
}

func (s *RequestService) CreateRequest(ctx context.Context, requestorID int64, description string) (*models.ItemRequest, error) {
	exists, err := s.repo.UserExists(ctx, requestorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("user with id %d not found", requestorID)
	}
	if strings.TrimSpace(description) == "" {
		return nil, apperr.Invalid("request description must not be blank")
	}

	request := &models.ItemRequest{
		Description: description,
		RequestorID: requestorID,
		Created:     s.clock(),
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("request_id", request.ID).Int64("requestor_id", requestorID).Msg("item request created")
	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventRequestCreated, request)
	}
	return request, nil
}

// GetRequest returns one wish with the items created to answer it.
func (s *RequestService) GetRequest(ctx context.Context, viewerID, requestID int64) (*models.ItemRequestDetails, error) {
	exists, err := s.repo.UserExists(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("user with id %d not found", viewerID)
	}

	request, err := s.repo.GetRequest(ctx, requestID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("request with id %d not found", requestID)
	}
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItemsByRequests(ctx, []int64{requestID})
	if err != nil {
		return nil, err
	}
	return &models.ItemRequestDetails{ItemRequest: *request, Items: items}, nil
}

// GetAllRequests returns every wish, newest first, each with its answering
// items.
func (s *RequestService) GetAllRequests(ctx context.Context, viewerID int64) ([]*models.ItemRequestDetails, error) {
	exists, err := s.repo.UserExists(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("user with id %d not found", viewerID)
	}

	requests, err := s.repo.GetAllRequests(ctx)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, requests)
}

// GetOtherRequests returns a page of other users' wishes, newest first. The
// viewer's own requests are excluded so the feed only shows wishes they could
// answer.
func (s *RequestService) GetOtherRequests(ctx context.Context, viewerID int64, from, size *int64) ([]*models.ItemRequestDetails, error) {
	exists, err := s.repo.UserExists(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("user with id %d not found", viewerID)
	}
	if err := validatePage(from, size); err != nil {
		return nil, err
	}

	requests, err := s.repo.GetAllRequests(ctx)
	if err != nil {
		return nil, err
	}

	others := make([]*models.ItemRequest, 0, len(requests))
	for _, r := range requests {
		if r.RequestorID != viewerID {
			others = append(others, r)
		}
	}
	return s.withItems(ctx, paginate(others, from, size))
}

func (s *RequestService) withItems(ctx context.Context, requests []*models.ItemRequest) ([]*models.ItemRequestDetails, error) {
	requestIDs := make([]int64, len(requests))
	for i, r := range requests {
		requestIDs[i] = r.ID
	}

	items, err := s.repo.GetItemsByRequests(ctx, requestIDs)
	if err != nil {
		return nil, err
	}

	byRequest := make(map[int64][]*models.Item)
	for _, item := range items {
		byRequest[item.RequestID] = append(byRequest[item.RequestID], item)
	}

	details := make([]*models.ItemRequestDetails, len(requests))
	for i, r := range requests {
		details[i] = &models.ItemRequestDetails{ItemRequest: *r, Items: byRequest[r.ID]}
	}
	return details, nil
}
