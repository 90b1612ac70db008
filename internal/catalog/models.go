package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Movie is catalog metadata for a film
type Movie struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title       string    `gorm:"not null;index" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Genre       string    `gorm:"type:varchar(50)" json:"genre"`
	Language    string    `gorm:"type:varchar(30)" json:"language"`
	DurationMin int       `json:"duration_min"`
	PosterURL   string    `json:"poster_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Theatre is a venue that owns one or more halls
type Theatre struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	City      string    `gorm:"index" json:"city"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`

	Halls []Hall `json:"halls,omitempty" gorm:"foreignKey:TheatreID"`
}

// Hall is a screen with a fixed rows x cols seat grid
type Hall struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TheatreID uuid.UUID `gorm:"type:uuid;index;not null" json:"theatre_id"`
	Name      string    `gorm:"not null" json:"name"`
	Rows      int       `gorm:"not null" json:"rows"`
	Cols      int       `gorm:"not null" json:"cols"`
	CreatedAt time.Time `json:"created_at"`

	Theatre *Theatre `json:"theatre,omitempty" gorm:"foreignKey:TheatreID"`
	Seats   []Seat   `json:"seats,omitempty" gorm:"foreignKey:HallID"`
}

// Seat is a static position in a hall. Its label (row letter + column
// number, e.g. "A1") is unique within the hall; dynamic status lives in
// the seat map, not here.
type Seat struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	HallID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:uniq_hall_seat_label,priority:1" json:"hall_id"`
	Label  string    `gorm:"type:varchar(8);not null;uniqueIndex:uniq_hall_seat_label,priority:2" json:"label"`
	Row    int       `gorm:"not null" json:"row"`
	Col    int       `gorm:"not null" json:"col"`
}

// Show is a scheduled screening. Immutable once scheduled; scheduling
// changes are an external concern.
type Show struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MovieID   uuid.UUID `gorm:"type:uuid;index;not null" json:"movie_id"`
	HallID    uuid.UUID `gorm:"type:uuid;index;not null" json:"hall_id"`
	StartTime time.Time `gorm:"not null;index" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`
	BasePrice float64   `gorm:"not null" json:"base_price"`
	CreatedAt time.Time `json:"created_at"`

	Movie *Movie `json:"movie,omitempty" gorm:"foreignKey:MovieID"`
	Hall  *Hall  `json:"hall,omitempty" gorm:"foreignKey:HallID"`
}

func (Movie) TableName() string   { return "movies" }
func (Theatre) TableName() string { return "theatres" }
func (Hall) TableName() string    { return "halls" }
func (Seat) TableName() string    { return "seats" }
func (Show) TableName() string    { return "shows" }

// SeatLabel builds the canonical row letter + column number label.
func SeatLabel(row, col int) string {
	return fmt.Sprintf("%c%d", 'A'+row, col+1)
}

// GridLabels returns every seat label of a rows x cols hall, row major.
func GridLabels(rows, cols int) []string {
	labels := make([]string, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			labels = append(labels, SeatLabel(r, c))
		}
	}
	return labels
}

// ShowResponse is the listing DTO the storefront renders show cards from
type ShowResponse struct {
	ShowID      string    `json:"showId"`
	MovieID     string    `json:"movieId"`
	MovieTitle  string    `json:"movieTitle"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	BasePrice   float64   `json:"basePrice"`
	HallID      string    `json:"hallId"`
	HallName    string    `json:"hallName"`
	TheatreName string    `json:"theatreName"`
	TheatreCity string    `json:"theatreCity"`
}

// CreateShowRequest represents an admin show-scheduling request
type CreateShowRequest struct {
	MovieID   string    `json:"movie_id" binding:"required,uuid"`
	HallID    string    `json:"hall_id" binding:"required,uuid"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	BasePrice float64   `json:"base_price" binding:"required,gt=0"`
}

// CreateHallRequest represents an admin hall-creation request
type CreateHallRequest struct {
	TheatreID string `json:"theatre_id" binding:"required,uuid"`
	Name      string `json:"name" binding:"required"`
	Rows      int    `json:"rows" binding:"required,min=1,max=26"`
	Cols      int    `json:"cols" binding:"required,min=1,max=50"`
}
