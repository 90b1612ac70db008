package seatmap

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cinebook/internal/catalog"
	"cinebook/internal/locks"

	"github.com/google/uuid"
)

// CatalogSource resolves shows and halls. Satisfied by catalog.Service.
type CatalogSource interface {
	GetShow(ctx context.Context, showID string) (*catalog.Show, error)
	GetHall(ctx context.Context, hallID string) (*catalog.Hall, error)
}

// BookedSeatSource returns the sold seats of a show. Implemented by the
// bookings repository.
type BookedSeatSource interface {
	BookedSeatLabels(ctx context.Context, showID uuid.UUID) ([]string, error)
}

// LockSource returns the active holds on a show.
type LockSource interface {
	ActiveForShow(ctx context.Context, showID string) ([]locks.SeatLock, error)
}

type Service interface {
	// GetSeatMap derives the current seat map of a show from the hall
	// grid, the sold seats and the active locks.
	GetSeatMap(ctx context.Context, showID string) (*SeatMapResponse, error)
}

type service struct {
	shows  CatalogSource
	booked BookedSeatSource
	locks  LockSource
}

func NewService(shows CatalogSource, booked BookedSeatSource, lockSource LockSource) Service {
	return &service{
		shows:  shows,
		booked: booked,
		locks:  lockSource,
	}
}

func (s *service) GetSeatMap(ctx context.Context, showID string) (*SeatMapResponse, error) {
	show, err := s.shows.GetShow(ctx, showID)
	if err != nil {
		return nil, err
	}

	hall, err := s.shows.GetHall(ctx, show.HallID.String())
	if err != nil {
		return nil, err
	}

	booked, err := s.booked.BookedSeatLabels(ctx, show.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked seats: %w", err)
	}
	bookedSet := toSet(booked)

	activeLocks, err := s.locks.ActiveForShow(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seat locks: %w", err)
	}

	// A seat that is both sold and still carried by a stale lock entry
	// reports as booked.
	type holder struct {
		userID    string
		expiresAt time.Time
	}
	lockedSet := make(map[string]holder)
	now := time.Now()
	for _, lock := range activeLocks {
		if lock.Expired(now) {
			continue
		}
		for _, seat := range lock.Seats {
			if !bookedSet[seat] {
				lockedSet[seat] = holder{userID: lock.UserID, expiresAt: lock.ExpiresAt}
			}
		}
	}

	resp := &SeatMapResponse{
		ShowID:    showID,
		HallID:    hall.ID.String(),
		Rows:      hall.Rows,
		Cols:      hall.Cols,
		Seats:     make([]SeatStatus, 0, hall.Rows*hall.Cols),
		FetchedAt: now,
	}

	for r := 0; r < hall.Rows; r++ {
		for c := 0; c < hall.Cols; c++ {
			label := catalog.SeatLabel(r, c)
			seat := SeatStatus{
				Label:  label,
				Row:    r,
				Col:    c,
				Status: SeatAvailable,
			}
			if bookedSet[label] {
				seat.Status = SeatBooked
				resp.BookedSeats = append(resp.BookedSeats, label)
			} else if h, ok := lockedSet[label]; ok {
				seat.Status = SeatLocked
				seat.LockedBy = h.userID
				expiresAt := h.expiresAt
				seat.LockExpiresAt = &expiresAt
				resp.LockedSeats = append(resp.LockedSeats, label)
			} else {
				resp.AvailableSeats = append(resp.AvailableSeats, label)
			}
			resp.Seats = append(resp.Seats, seat)
		}
	}

	sort.Strings(resp.BookedSeats)
	sort.Strings(resp.LockedSeats)

	return resp, nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
