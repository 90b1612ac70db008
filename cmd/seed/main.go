// Seeds a development database with a small catalog: a few movies, one
// theatre with two halls, and a week of shows.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"cinebook/internal/catalog"
	"cinebook/internal/shared/config"
	"cinebook/internal/shared/database"
	"cinebook/pkg/cache"
	"cinebook/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	appLogger := logger.GetDefault()

	if err := godotenv.Load(); err != nil {
		appLogger.Info("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	service := catalog.NewService(
		catalog.NewRepository(db.GetPostgreSQL()),
		cache.NewService(db.GetRedisClient()),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := seed(ctx, service, appLogger); err != nil {
		appLogger.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}

	appLogger.Info("Seeding complete")
}

func seed(ctx context.Context, service catalog.Service, log *logger.Logger) error {
	movies := []catalog.Movie{
		{Title: "Interstellar", Genre: "Sci-Fi", Language: "English", DurationMin: 169,
			Description: "A team of explorers travel through a wormhole in space."},
		{Title: "3 Idiots", Genre: "Comedy", Language: "Hindi", DurationMin: 170,
			Description: "Two friends search for their long lost companion."},
		{Title: "Inception", Genre: "Thriller", Language: "English", DurationMin: 148,
			Description: "A thief who steals corporate secrets through dream-sharing."},
	}
	for i := range movies {
		if err := service.CreateMovie(ctx, &movies[i]); err != nil {
			return err
		}
		log.Info("movie seeded", "title", movies[i].Title)
	}

	theatre := catalog.Theatre{
		Name:    "Galaxy Cinemas",
		City:    "Mumbai",
		Address: "12 Marine Drive",
	}
	if err := service.CreateTheatre(ctx, &theatre); err != nil {
		return err
	}

	halls := make([]*catalog.Hall, 0, 2)
	for _, req := range []catalog.CreateHallRequest{
		{TheatreID: theatre.ID.String(), Name: "Screen 1", Rows: 8, Cols: 10},
		{TheatreID: theatre.ID.String(), Name: "Screen 2", Rows: 6, Cols: 8},
	} {
		hall, err := service.CreateHall(ctx, req)
		if err != nil {
			return err
		}
		log.Info("hall seeded", "name", hall.Name, "seats", hall.Rows*hall.Cols)
		halls = append(halls, hall)
	}

	// One evening show per movie per hall for the next 7 days.
	start := time.Now().Truncate(24 * time.Hour).Add(18 * time.Hour)
	for day := 0; day < 7; day++ {
		for i, movie := range movies {
			hall := halls[i%len(halls)]
			showStart := start.AddDate(0, 0, day).Add(time.Duration(i) * 30 * time.Minute)
			_, err := service.CreateShow(ctx, catalog.CreateShowRequest{
				MovieID:   movie.ID.String(),
				HallID:    hall.ID.String(),
				StartTime: showStart,
				EndTime:   showStart.Add(time.Duration(movie.DurationMin) * time.Minute),
				BasePrice: 150,
			})
			if err != nil {
				return err
			}
		}
	}

	return nil
}
