package catalog

import (
	"context"
	"errors"
	"fmt"

	"cinebook/internal/shared/constants"
	"cinebook/pkg/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrMovieNotFound = errors.New("movie not found")
	ErrShowNotFound  = errors.New("show not found")
	ErrHallNotFound  = errors.New("hall not found")
)

type Service interface {
	ListMovies(ctx context.Context) ([]Movie, error)
	GetMovie(ctx context.Context, movieID string) (*Movie, error)
	CreateMovie(ctx context.Context, movie *Movie) error

	ListTheatres(ctx context.Context, city string) ([]Theatre, error)
	CreateTheatre(ctx context.Context, theatre *Theatre) error

	GetHall(ctx context.Context, hallID string) (*Hall, error)
	CreateHall(ctx context.Context, req CreateHallRequest) (*Hall, error)

	GetShow(ctx context.Context, showID string) (*Show, error)
	ListShowsByMovie(ctx context.Context, movieID string) ([]ShowResponse, error)
	CreateShow(ctx context.Context, req CreateShowRequest) (*Show, error)
}

type service struct {
	repo  Repository
	cache cache.Service
}

func NewService(repo Repository, cacheService cache.Service) Service {
	return &service{repo: repo, cache: cacheService}
}

func (s *service) ListMovies(ctx context.Context) ([]Movie, error) {
	var movies []Movie
	err := s.cache.GetOrSet(ctx, constants.BuildMovieListKey(), constants.TTL_MOVIES,
		func() (interface{}, error) {
			return s.repo.ListMovies(ctx)
		}, &movies)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

func (s *service) GetMovie(ctx context.Context, movieID string) (*Movie, error) {
	id, err := uuid.Parse(movieID)
	if err != nil {
		return nil, ErrMovieNotFound
	}

	var movie Movie
	err = s.cache.GetOrSet(ctx, constants.BuildMovieKey(movieID), constants.TTL_MOVIES,
		func() (interface{}, error) {
			return s.repo.GetMovie(ctx, id)
		}, &movie)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return &movie, nil
}

func (s *service) CreateMovie(ctx context.Context, movie *Movie) error {
	if err := s.repo.CreateMovie(ctx, movie); err != nil {
		return fmt.Errorf("failed to create movie: %w", err)
	}
	// Listing cache is now stale.
	_ = s.cache.Delete(ctx, constants.BuildMovieListKey())
	return nil
}

func (s *service) ListTheatres(ctx context.Context, city string) ([]Theatre, error) {
	return s.repo.ListTheatres(ctx, city)
}

func (s *service) CreateTheatre(ctx context.Context, theatre *Theatre) error {
	return s.repo.CreateTheatre(ctx, theatre)
}

func (s *service) GetHall(ctx context.Context, hallID string) (*Hall, error) {
	id, err := uuid.Parse(hallID)
	if err != nil {
		return nil, ErrHallNotFound
	}
	hall, err := s.repo.GetHall(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHallNotFound
		}
		return nil, fmt.Errorf("failed to get hall: %w", err)
	}
	return hall, nil
}

// CreateHall stores the hall and seeds its full seat grid.
func (s *service) CreateHall(ctx context.Context, req CreateHallRequest) (*Hall, error) {
	theatreID, err := uuid.Parse(req.TheatreID)
	if err != nil {
		return nil, fmt.Errorf("invalid theatre id: %w", err)
	}

	hall := &Hall{
		TheatreID: theatreID,
		Name:      req.Name,
		Rows:      req.Rows,
		Cols:      req.Cols,
	}

	seats := make([]Seat, 0, req.Rows*req.Cols)
	for r := 0; r < req.Rows; r++ {
		for c := 0; c < req.Cols; c++ {
			seats = append(seats, Seat{
				Label: SeatLabel(r, c),
				Row:   r,
				Col:   c,
			})
		}
	}

	if err := s.repo.CreateHall(ctx, hall, seats); err != nil {
		return nil, fmt.Errorf("failed to create hall: %w", err)
	}
	return hall, nil
}

func (s *service) GetShow(ctx context.Context, showID string) (*Show, error) {
	id, err := uuid.Parse(showID)
	if err != nil {
		return nil, ErrShowNotFound
	}

	var show Show
	err = s.cache.GetOrSet(ctx, constants.BuildShowKey(showID), constants.TTL_SHOWS,
		func() (interface{}, error) {
			return s.repo.GetShow(ctx, id)
		}, &show)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShowNotFound
		}
		return nil, fmt.Errorf("failed to get show: %w", err)
	}
	return &show, nil
}

func (s *service) ListShowsByMovie(ctx context.Context, movieID string) ([]ShowResponse, error) {
	id, err := uuid.Parse(movieID)
	if err != nil {
		return nil, ErrMovieNotFound
	}

	var responses []ShowResponse
	err = s.cache.GetOrSet(ctx, constants.BuildMovieShowsKey(movieID), constants.TTL_SHOWS,
		func() (interface{}, error) {
			shows, err := s.repo.ListShowsByMovie(ctx, id)
			if err != nil {
				return nil, err
			}
			out := make([]ShowResponse, 0, len(shows))
			for _, show := range shows {
				out = append(out, toShowResponse(show))
			}
			return out, nil
		}, &responses)
	if err != nil {
		return nil, fmt.Errorf("failed to list shows: %w", err)
	}
	return responses, nil
}

func (s *service) CreateShow(ctx context.Context, req CreateShowRequest) (*Show, error) {
	movieID, err := uuid.Parse(req.MovieID)
	if err != nil {
		return nil, ErrMovieNotFound
	}
	hallID, err := uuid.Parse(req.HallID)
	if err != nil {
		return nil, ErrHallNotFound
	}

	if _, err := s.repo.GetMovie(ctx, movieID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	if _, err := s.repo.GetHall(ctx, hallID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}

	show := &Show{
		MovieID:   movieID,
		HallID:    hallID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		BasePrice: req.BasePrice,
	}
	if err := s.repo.CreateShow(ctx, show); err != nil {
		return nil, fmt.Errorf("failed to create show: %w", err)
	}
	_ = s.cache.Delete(ctx, constants.BuildMovieShowsKey(req.MovieID))
	return show, nil
}

func toShowResponse(show Show) ShowResponse {
	resp := ShowResponse{
		ShowID:    show.ID.String(),
		MovieID:   show.MovieID.String(),
		StartTime: show.StartTime,
		EndTime:   show.EndTime,
		BasePrice: show.BasePrice,
		HallID:    show.HallID.String(),
	}
	if show.Movie != nil {
		resp.MovieTitle = show.Movie.Title
	}
	if show.Hall != nil {
		resp.HallName = show.Hall.Name
		if show.Hall.Theatre != nil {
			resp.TheatreName = show.Hall.Theatre.Name
			resp.TheatreCity = show.Hall.Theatre.City
		}
	}
	return resp
}
