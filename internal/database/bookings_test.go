package database

import (
	"context"
	"testing"
	"time"

	"renthub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	booker := createTestUser(t, db, "Booker", "booker@example.com")
	item := createTestItem(t, db, owner.ID, "Drill", true)

	start := time.Now().Add(24 * time.Hour)
	end := start.Add(48 * time.Hour)
	booking := createTestBooking(t, db, item.ID, booker.ID, start, end, models.StatusWaiting)
	assert.NotZero(t, booking.ID)

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ItemID)
	assert.Equal(t, booker.ID, got.BookerID)
	assert.Equal(t, models.StatusWaiting, got.Status)
	assert.WithinDuration(t, start, got.Start, time.Second)
	assert.WithinDuration(t, end, got.End, time.Second)
}

func TestGetBookingNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetBooking(context.Background(), 9000)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBookingStatusIfWaiting(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	booker := createTestUser(t, db, "Booker", "booker@example.com")
	item := createTestItem(t, db, owner.ID, "Drill", true)
	booking := createTestBooking(t, db, item.ID, booker.ID,
		time.Now().Add(time.Hour), time.Now().Add(2*time.Hour), models.StatusWaiting)

	require.NoError(t, db.UpdateBookingStatusIfWaiting(ctx, booking.ID, models.StatusApproved))

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)

	// second transition must lose
	err = db.UpdateBookingStatusIfWaiting(ctx, booking.ID, models.StatusRejected)
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestGetBookingsByBookerOrder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	booker := createTestUser(t, db, "Booker", "booker@example.com")
	item := createTestItem(t, db, owner.ID, "Drill", true)

	base := time.Now()
	early := createTestBooking(t, db, item.ID, booker.ID, base.Add(time.Hour), base.Add(2*time.Hour), models.StatusWaiting)
	late := createTestBooking(t, db, item.ID, booker.ID, base.Add(10*time.Hour), base.Add(12*time.Hour), models.StatusApproved)

	bookings, err := db.GetBookingsByBooker(ctx, booker.ID)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, late.ID, bookings[0].ID)
	assert.Equal(t, early.ID, bookings[1].ID)
}

func TestGetBookingsByOwner(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	other := createTestUser(t, db, "Other", "other@example.com")
	booker := createTestUser(t, db, "Booker", "booker@example.com")
	mine := createTestItem(t, db, owner.ID, "Drill", true)
	theirs := createTestItem(t, db, other.ID, "Saw", true)

	base := time.Now()
	wanted := createTestBooking(t, db, mine.ID, booker.ID, base.Add(time.Hour), base.Add(2*time.Hour), models.StatusWaiting)
	createTestBooking(t, db, theirs.ID, booker.ID, base.Add(time.Hour), base.Add(2*time.Hour), models.StatusWaiting)

	bookings, err := db.GetBookingsByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, wanted.ID, bookings[0].ID)
}

func TestGetBookingsByItems(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	booker := createTestUser(t, db, "Booker", "booker@example.com")
	drill := createTestItem(t, db, owner.ID, "Drill", true)
	saw := createTestItem(t, db, owner.ID, "Saw", true)

	base := time.Now()
	createTestBooking(t, db, drill.ID, booker.ID, base.Add(time.Hour), base.Add(2*time.Hour), models.StatusApproved)
	createTestBooking(t, db, saw.ID, booker.ID, base.Add(time.Hour), base.Add(2*time.Hour), models.StatusApproved)

	bookings, err := db.GetBookingsByItems(ctx, []int64{drill.ID, saw.ID})
	require.NoError(t, err)
	assert.Len(t, bookings, 2)

	bookings, err = db.GetBookingsByItems(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestGetNextAndLastBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	booker := createTestUser(t, db, "Booker", "booker@example.com")
	item := createTestItem(t, db, owner.ID, "Drill", true)

	now := time.Now()
	past := createTestBooking(t, db, item.ID, booker.ID, now.Add(-48*time.Hour), now.Add(-24*time.Hour), models.StatusApproved)
	createTestBooking(t, db, item.ID, booker.ID, now.Add(-10*time.Hour), now.Add(-5*time.Hour), models.StatusRejected)
	nearFuture := createTestBooking(t, db, item.ID, booker.ID, now.Add(24*time.Hour), now.Add(48*time.Hour), models.StatusApproved)
	createTestBooking(t, db, item.ID, booker.ID, now.Add(72*time.Hour), now.Add(96*time.Hour), models.StatusApproved)

	next, err := db.GetNextBooking(ctx, item.ID, owner.ID, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, nearFuture.ID, next.ID)

	last, err := db.GetLastBooking(ctx, item.ID, owner.ID, now)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, past.ID, last.ID)

	// wrong owner sees nothing
	next, err = db.GetNextBooking(ctx, item.ID, booker.ID, now)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestCountAndSingleBookingForOwnerItem(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	booker := createTestUser(t, db, "Booker", "booker@example.com")
	item := createTestItem(t, db, owner.ID, "Drill", true)

	count, err := db.CountBookingsForOwnerItem(ctx, item.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	only := createTestBooking(t, db, item.ID, booker.ID,
		time.Now().Add(time.Hour), time.Now().Add(2*time.Hour), models.StatusApproved)

	count, err = db.CountBookingsForOwnerItem(ctx, item.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	single, err := db.GetSingleBookingForOwnerItem(ctx, item.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, single)
	assert.Equal(t, only.ID, single.ID)
}

func TestHasFinishedBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	booker := createTestUser(t, db, "Booker", "booker@example.com")
	item := createTestItem(t, db, owner.ID, "Drill", true)

	now := time.Now()
	createTestBooking(t, db, item.ID, booker.ID, now.Add(time.Hour), now.Add(2*time.Hour), models.StatusApproved)

	ok, err := db.HasFinishedBooking(ctx, booker.ID, item.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	createTestBooking(t, db, item.ID, booker.ID, now.Add(-3*time.Hour), now.Add(-time.Hour), models.StatusApproved)

	ok, err = db.HasFinishedBooking(ctx, booker.ID, item.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetBookingsByDateRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	booker := createTestUser(t, db, "Booker", "booker@example.com")
	item := createTestItem(t, db, owner.ID, "Drill", true)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	inside := createTestBooking(t, db, item.ID, booker.ID, base.Add(24*time.Hour), base.Add(48*time.Hour), models.StatusApproved)
	createTestBooking(t, db, item.ID, booker.ID, base.Add(240*time.Hour), base.Add(264*time.Hour), models.StatusApproved)

	bookings, err := db.GetBookingsByDateRange(ctx, base, base.Add(72*time.Hour))
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, inside.ID, bookings[0].ID)
}
