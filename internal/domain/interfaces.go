package domain

import (
	"context"
	"time"

	"renthub/internal/models"
)

type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	ItemExists(ctx context.Context, id int64) (bool, error)
	GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error)
	SearchAvailableItems(ctx context.Context, text string) ([]*models.Item, error)
	GetItemsByRequests(ctx context.Context, requestIDs []int64) ([]*models.Item, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	BookingExists(ctx context.Context, id int64) (bool, error)
	UpdateBookingStatusIfWaiting(ctx context.Context, id int64, status string) error
	GetBookingsByBooker(ctx context.Context, bookerID int64) ([]*models.Booking, error)
	GetBookingsByOwner(ctx context.Context, ownerID int64) ([]*models.Booking, error)
	GetBookingsByItems(ctx context.Context, itemIDs []int64) ([]*models.Booking, error)
	GetNextBooking(ctx context.Context, itemID, ownerID int64, now time.Time) (*models.Booking, error)
	GetLastBooking(ctx context.Context, itemID, ownerID int64, now time.Time) (*models.Booking, error)
	CountBookingsForOwnerItem(ctx context.Context, itemID, ownerID int64) (int, error)
	GetSingleBookingForOwnerItem(ctx context.Context, itemID, ownerID int64) (*models.Booking, error)
	HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByItem(ctx context.Context, itemID int64) ([]*models.Comment, error)

	CreateRequest(ctx context.Context, request *models.ItemRequest) error
	GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error)
	RequestExists(ctx context.Context, id int64) (bool, error)
	GetAllRequests(ctx context.Context) ([]*models.ItemRequest, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Clock supplies the current instant so time-sensitive rules stay testable.
type Clock func() time.Time

type BookingService interface {
	CreateBooking(ctx context.Context, bookerID int64, booking *models.Booking) (*models.Booking, error)
	SetApproval(ctx context.Context, actorID, bookingID int64, approved bool) (*models.Booking, error)
	GetBooking(ctx context.Context, actorID, bookingID int64) (*models.Booking, error)
	ListByBooker(ctx context.Context, bookerID int64, state string, from, size *int64) ([]*models.Booking, error)
	ListByOwner(ctx context.Context, ownerID int64, state string, from, size *int64) ([]*models.Booking, error)
}

type ItemService interface {
	AddItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error)
	UpdateItem(ctx context.Context, ownerID, itemID int64, patch *models.ItemPatch) (*models.Item, error)
	GetItem(ctx context.Context, viewerID, itemID int64) (*models.ItemDetails, error)
	ListByOwner(ctx context.Context, ownerID int64, from, size *int64) ([]*models.ItemDetails, error)
	Search(ctx context.Context, text string) ([]*models.Item, error)
	AddComment(ctx context.Context, authorID, itemID int64, text string) (*models.Comment, error)
}

type UserService interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, patch *models.UserPatch) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type RequestService interface {
	CreateRequest(ctx context.Context, requestorID int64, description string) (*models.ItemRequest, error)
	GetRequest(ctx context.Context, viewerID, requestID int64) (*models.ItemRequestDetails, error)
	GetAllRequests(ctx context.Context, viewerID int64) ([]*models.ItemRequestDetails, error)
	GetOtherRequests(ctx context.Context, viewerID int64, from, size *int64) ([]*models.ItemRequestDetails, error)
}
