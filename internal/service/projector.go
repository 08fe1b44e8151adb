package service

import (
	"context"
	"time"

	"renthub/internal/domain"
	"renthub/internal/models"
)

// lastRule tags how the "last booking" slot of an item view was decided, so
// the single-booking special case stays visible instead of hiding inside a
// condition.
type lastRule int

const (
	lastNone lastRule = iota
	lastByMaxEnd
	lastSingleFallback
)

type lastDecision struct {
	rule    lastRule
	booking *models.Booking
}

// projector computes the owner-visible next/last approved booking per item.
type projector struct {
	repo  domain.Repository
	clock domain.Clock
}

// forItem resolves next and last for a single item. Next is the approved
// booking with the smallest future start. Last is the approved booking with
// the largest past end; when no booking has finished yet but the item has
// exactly one booking total and it is approved, that one counts as last.
func (p *projector) forItem(ctx context.Context, itemID, ownerID int64) (next, last *models.LastNextBooking, err error) {
	now := p.clock()

	nextBooking, err := p.repo.GetNextBooking(ctx, itemID, ownerID, now)
	if err != nil {
		return nil, nil, err
	}

	decision, err := p.decideLast(ctx, itemID, ownerID, now)
	if err != nil {
		return nil, nil, err
	}

	return toRef(nextBooking), toRef(decision.booking), nil
}

func (p *projector) decideLast(ctx context.Context, itemID, ownerID int64, now time.Time) (lastDecision, error) {
	finished, err := p.repo.GetLastBooking(ctx, itemID, ownerID, now)
	if err != nil {
		return lastDecision{}, err
	}
	if finished != nil {
		return lastDecision{rule: lastByMaxEnd, booking: finished}, nil
	}

	count, err := p.repo.CountBookingsForOwnerItem(ctx, itemID, ownerID)
	if err != nil {
		return lastDecision{}, err
	}
	if count != 1 {
		return lastDecision{rule: lastNone}, nil
	}

	only, err := p.repo.GetSingleBookingForOwnerItem(ctx, itemID, ownerID)
	if err != nil {
		return lastDecision{}, err
	}
	if only == nil || only.Status != models.StatusApproved {
		return lastDecision{rule: lastNone}, nil
	}
	return lastDecision{rule: lastSingleFallback, booking: only}, nil
}

// itemProjection is the batch result for one item.
type itemProjection struct {
	next *models.LastNextBooking
	last *models.LastNextBooking
}

// forItems resolves next/last across all the owner's items from one bulk
// fetch. The batch path splits approved bookings strictly by start against
// now and picks min/max by start, which differs from the single-item path on
// bookings already running at query time. A booking starting at the exact
// query instant lands in neither bucket. Ties on equal starts fall to
// whichever row came first.
func (p *projector) forItems(ctx context.Context, itemIDs []int64) (map[int64]itemProjection, error) {
	now := p.clock()
	projections := make(map[int64]itemProjection, len(itemIDs))

	bookings, err := p.repo.GetBookingsByItems(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	lastSeen := make(map[int64]*models.Booking)
	nextSeen := make(map[int64]*models.Booking)
	for _, b := range bookings {
		if b.Status != models.StatusApproved {
			continue
		}
		if b.Start.After(now) {
			if cur := nextSeen[b.ItemID]; cur == nil || b.Start.Before(cur.Start) {
				nextSeen[b.ItemID] = b
			}
		} else if b.Start.Before(now) {
			if cur := lastSeen[b.ItemID]; cur == nil || b.Start.After(cur.Start) {
				lastSeen[b.ItemID] = b
			}
		}
	}

	for _, id := range itemIDs {
		projections[id] = itemProjection{
			next: toRef(nextSeen[id]),
			last: toRef(lastSeen[id]),
		}
	}
	return projections, nil
}

func toRef(b *models.Booking) *models.LastNextBooking {
	if b == nil {
		return nil
	}
	return &models.LastNextBooking{ID: b.ID, BookerID: b.BookerID}
}
