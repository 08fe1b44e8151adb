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
	"renthub/internal/metrics"
	"renthub/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	clock    domain.Clock
	logger   *zerolog.Logger
}

func NewItemService(repo domain.Repository, eventBus domain.EventPublisher, clock domain.Clock, logger *zerolog.Logger) *ItemService {
	if clock == nil {
		clock = time.Now
	}
	return &ItemService{
		repo:     repo,
		eventBus: eventBus,
		clock:    clock,
		logger:   logger,
	}
}

func (s *ItemService) AddItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error) {
	exists, err := s.repo.UserExists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("user with id %d not found", ownerID)
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil, apperr.Invalid("item name must not be blank")
	}
	if strings.TrimSpace(item.Description) == "" {
		return nil, apperr.Invalid("item description must not be blank")
	}
	if item.RequestID != 0 {
		ok, err := s.repo.RequestExists(ctx, item.RequestID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.NotFound("request with id %d not found", item.RequestID)
		}
	}

	item.OwnerID = ownerID
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventItemCreated, item)
	}
	return item, nil
}

// UpdateItem applies a partial edit. Only the owner may edit; anyone else is
// told the item does not exist.
func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID int64, patch *models.ItemPatch) (*models.Item, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("item with id %d not found", itemID)
	}
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, apperr.NotFound("only owner can edit item")
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperr.Invalid("item name must not be blank")
		}
		item.Name = *patch.Name
	}
	if patch.Description != nil {
		if strings.TrimSpace(*patch.Description) == "" {
			return nil, apperr.Invalid("item description must not be blank")
		}
		item.Description = *patch.Description
	}
	if patch.Available != nil {
		item.Available = *patch.Available
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem returns the item with its comments; the owner additionally sees the
// last and next approved bookings.
func (s *ItemService) GetItem(ctx context.Context, viewerID, itemID int64) (*models.ItemDetails, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("item with id %d not found", itemID)
	}
	if err != nil {
		return nil, err
	}

	details := &models.ItemDetails{Item: *item}

	comments, err := s.repo.GetCommentsByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	details.Comments = comments

	if item.OwnerID == viewerID {
		p := &projector{repo: s.repo, clock: s.clock}
		next, last, err := p.forItem(ctx, itemID, viewerID)
		if err != nil {
			return nil, err
		}
		details.NextBooking = next
		details.LastBooking = last
	}

	return details, nil
}

// ListByOwner returns a page of the owner's items enriched with their
// next/last approved bookings and comments. Pagination follows the booking
// listings: page-aligned from/size, everything when either is absent.
func (s *ItemService) ListByOwner(ctx context.Context, ownerID int64, from, size *int64) ([]*models.ItemDetails, error) {
	exists, err := s.repo.UserExists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("user with id %d not found", ownerID)
	}
	if err := validatePage(from, size); err != nil {
		return nil, err
	}

	items, err := s.repo.GetItemsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	items = paginate(items, from, size)

	itemIDs := make([]int64, len(items))
	for i, item := range items {
		itemIDs[i] = item.ID
	}

	p := &projector{repo: s.repo, clock: s.clock}
	projections, err := p.forItems(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	details := make([]*models.ItemDetails, len(items))
	for i, item := range items {
		comments, err := s.repo.GetCommentsByItem(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		proj := projections[item.ID]
		details[i] = &models.ItemDetails{
			Item:        *item,
			LastBooking: proj.last,
			NextBooking: proj.next,
			Comments:    comments,
		}
	}
	return details, nil
}

// Search finds available items matching the text in name or description.
// Blank text returns an empty result rather than everything.
func (s *ItemService) Search(ctx context.Context, text string) ([]*models.Item, error) {
	if strings.TrimSpace(text) == "" {
		return []*models.Item{}, nil
	}
	return s.repo.SearchAvailableItems(ctx, text)
}

// AddComment lets a user who finished a rental of the item leave a note.
func (s *ItemService) AddComment(ctx context.Context, authorID, itemID int64, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Invalid("comment text must not be blank")
	}

	author, err := s.repo.GetUser(ctx, authorID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("user with id %d not found", authorID)
	}
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ItemExists(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("item with id %d not found", itemID)
	}

	finished, err := s.repo.HasFinishedBooking(ctx, authorID, itemID, s.clock())
	if err != nil {
		return nil, err
	}
	if !finished {
		return nil, apperr.Invalid("user should have booking for item and booking should be finished")
	}

	comment := &models.Comment{
		ItemID:     itemID,
		AuthorID:   authorID,
		AuthorName: author.Name,
		Text:       text,
		Created:    s.clock(),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("comment_id", comment.ID).Int64("item_id", itemID).Msg("comment added")
	metrics.IncCommentAdded()
	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventCommentAdded, events.CommentEventPayload{
			CommentID: comment.ID,
			ItemID:    itemID,
			AuthorID:  authorID,
		})
	}
	return comment, nil
}
