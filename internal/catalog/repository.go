package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	ListMovies(ctx context.Context) ([]Movie, error)
	GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error)
	CreateMovie(ctx context.Context, movie *Movie) error

	ListTheatres(ctx context.Context, city string) ([]Theatre, error)
	CreateTheatre(ctx context.Context, theatre *Theatre) error

	GetHall(ctx context.Context, id uuid.UUID) (*Hall, error)
	CreateHall(ctx context.Context, hall *Hall, seats []Seat) error

	GetShow(ctx context.Context, id uuid.UUID) (*Show, error)
	ListShowsByMovie(ctx context.Context, movieID uuid.UUID) ([]Show, error)
	CreateShow(ctx context.Context, show *Show) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListMovies(ctx context.Context) ([]Movie, error) {
	var movies []Movie
	err := r.db.WithContext(ctx).Order("title").Find(&movies).Error
	return movies, err
}

func (r *repository) GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error) {
	var movie Movie
	if err := r.db.WithContext(ctx).First(&movie, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &movie, nil
}

func (r *repository) CreateMovie(ctx context.Context, movie *Movie) error {
	return r.db.WithContext(ctx).Create(movie).Error
}

func (r *repository) ListTheatres(ctx context.Context, city string) ([]Theatre, error) {
	var theatres []Theatre
	query := r.db.WithContext(ctx).Preload("Halls")
	if city != "" {
		query = query.Where("city = ?", city)
	}
	err := query.Order("name").Find(&theatres).Error
	return theatres, err
}

func (r *repository) CreateTheatre(ctx context.Context, theatre *Theatre) error {
	return r.db.WithContext(ctx).Create(theatre).Error
}

func (r *repository) GetHall(ctx context.Context, id uuid.UUID) (*Hall, error) {
	var hall Hall
	err := r.db.WithContext(ctx).
		Preload("Theatre").
		Preload("Seats", func(db *gorm.DB) *gorm.DB {
			return db.Order("seats.row, seats.col")
		}).
		First(&hall, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &hall, nil
}

// CreateHall persists a hall together with its seat grid in one transaction.
func (r *repository) CreateHall(ctx context.Context, hall *Hall, seats []Seat) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(hall).Error; err != nil {
			return err
		}
		for i := range seats {
			seats[i].HallID = hall.ID
		}
		return tx.CreateInBatches(seats, 200).Error
	})
}

func (r *repository) GetShow(ctx context.Context, id uuid.UUID) (*Show, error) {
	var show Show
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Preload("Hall").
		Preload("Hall.Theatre").
		First(&show, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &show, nil
}

func (r *repository) ListShowsByMovie(ctx context.Context, movieID uuid.UUID) ([]Show, error) {
	var shows []Show
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Preload("Hall").
		Preload("Hall.Theatre").
		Where("movie_id = ?", movieID).
		Order("start_time").
		Find(&shows).Error
	return shows, err
}

func (r *repository) CreateShow(ctx context.Context, show *Show) error {
	return r.db.WithContext(ctx).Create(show).Error
}
