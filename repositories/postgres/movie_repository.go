package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/upb/casting-agency/models"
	"github.com/upb/casting-agency/repositories"
	"go.uber.org/zap"
)

// MovieRepository implements the repositories.MovieRepository interface
type MovieRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewMovieRepository creates a new movie repository
func NewMovieRepository(db *DB, logger *zap.Logger) repositories.MovieRepository {
	return &MovieRepository{
		db:     db,
		logger: logger,
	}
}

// List returns every movie ordered by id
func (r *MovieRepository) List(ctx context.Context) ([]*models.Movie, error) {
	query := `
		SELECT id, title, release_date, created_at, updated_at
		FROM movies
		ORDER BY id
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	movies := []*models.Movie{}
	ids := []int64{}
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, movie)
		ids = append(ids, movie.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movie rows: %w", err)
	}
	rows.Close()

	links, err := movieActors.load(ctx, executor, ids)
	if err != nil {
		return nil, err
	}
	for _, movie := range movies {
		movie.Actors = orEmpty(links[movie.ID])
	}

	return movies, nil
}

// GetByID retrieves a movie by ID
func (r *MovieRepository) GetByID(ctx context.Context, id int64) (*models.Movie, error) {
	query := `
		SELECT id, title, release_date, created_at, updated_at
		FROM movies
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	movie, err := scanMovie(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("movie %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	links, err := movieActors.load(ctx, executor, []int64{id})
	if err != nil {
		return nil, err
	}
	movie.Actors = orEmpty(links[id])

	return movie, nil
}

// Create inserts the movie and sets its ID. The cast is linked separately
// with SetActors.
func (r *MovieRepository) Create(ctx context.Context, movie *models.Movie) error {
	query := `
		INSERT INTO movies (title, release_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	now := time.Now().UTC()
	movie.CreatedAt, movie.UpdatedAt = now, now

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		movie.Title,
		movie.ReleaseDate.Time,
		movie.CreatedAt,
		movie.UpdatedAt,
	).Scan(&movie.ID)
	if err != nil {
		return fmt.Errorf("failed to create movie: %w", err)
	}

	r.logger.Debug("movie created", zap.Int64("id", movie.ID), zap.String("title", movie.Title))
	return nil
}

// Update updates title and release date
func (r *MovieRepository) Update(ctx context.Context, movie *models.Movie) error {
	query := `
		UPDATE movies
		SET title = $2,
		    release_date = $3,
		    updated_at = $4
		WHERE id = $1
	`

	movie.UpdatedAt = time.Now().UTC()

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		movie.ID,
		movie.Title,
		movie.ReleaseDate.Time,
		movie.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update movie: %w", err)
	}

	if err := expectOneRow(result, "movie", movie.ID); err != nil {
		return err
	}

	r.logger.Debug("movie updated", zap.Int64("id", movie.ID))
	return nil
}

// Delete deletes a movie. Casting rows are removed by the foreign key cascade.
func (r *MovieRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM movies WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	if err := expectOneRow(result, "movie", id); err != nil {
		return err
	}

	r.logger.Debug("movie deleted", zap.Int64("id", id))
	return nil
}

// SetActors replaces the cast of the movie
func (r *MovieRepository) SetActors(ctx context.Context, movieID int64, actorIDs []int64) error {
	if err := movieActors.replace(ctx, GetExecutor(ctx, r.db), movieID, actorIDs); err != nil {
		return err
	}
	r.logger.Debug("movie cast replaced", zap.Int64("id", movieID), zap.Int64s("actors", actorIDs))
	return nil
}

// AddActor casts the actor in the movie
func (r *MovieRepository) AddActor(ctx context.Context, movieID, actorID int64) error {
	if err := movieActors.add(ctx, GetExecutor(ctx, r.db), movieID, actorID); err != nil {
		return err
	}
	r.logger.Debug("actor added to movie", zap.Int64("id", movieID), zap.Int64("actor_id", actorID))
	return nil
}

// RemoveActor removes the actor from the movie's cast
func (r *MovieRepository) RemoveActor(ctx context.Context, movieID, actorID int64) error {
	if err := movieActors.remove(ctx, GetExecutor(ctx, r.db), movieID, actorID); err != nil {
		return err
	}
	r.logger.Debug("actor removed from movie", zap.Int64("id", movieID), zap.Int64("actor_id", actorID))
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMovie(row rowScanner) (*models.Movie, error) {
	movie := &models.Movie{}
	var released time.Time
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&released,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	movie.ReleaseDate = models.NewDate(released)
	return movie, nil
}
