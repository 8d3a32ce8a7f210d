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

// ActorRepository implements the repositories.ActorRepository interface
type ActorRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewActorRepository creates a new actor repository
func NewActorRepository(db *DB, logger *zap.Logger) repositories.ActorRepository {
	return &ActorRepository{
		db:     db,
		logger: logger,
	}
}

// List returns every actor ordered by id
func (r *ActorRepository) List(ctx context.Context) ([]*models.Actor, error) {
	query := `
		SELECT id, name, age, gender, created_at, updated_at
		FROM actors
		ORDER BY id
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query actors: %w", err)
	}
	defer rows.Close()

	actors := []*models.Actor{}
	ids := []int64{}
	for rows.Next() {
		actor := &models.Actor{}
		err := rows.Scan(
			&actor.ID,
			&actor.Name,
			&actor.Age,
			&actor.Gender,
			&actor.CreatedAt,
			&actor.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan actor: %w", err)
		}
		actors = append(actors, actor)
		ids = append(ids, actor.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actor rows: %w", err)
	}
	rows.Close()

	links, err := actorMovies.load(ctx, executor, ids)
	if err != nil {
		return nil, err
	}
	for _, actor := range actors {
		actor.Movies = orEmpty(links[actor.ID])
	}

	return actors, nil
}

// GetByID retrieves an actor by ID
func (r *ActorRepository) GetByID(ctx context.Context, id int64) (*models.Actor, error) {
	query := `
		SELECT id, name, age, gender, created_at, updated_at
		FROM actors
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	actor := &models.Actor{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&actor.ID,
		&actor.Name,
		&actor.Age,
		&actor.Gender,
		&actor.CreatedAt,
		&actor.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("actor %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}

	links, err := actorMovies.load(ctx, executor, []int64{id})
	if err != nil {
		return nil, err
	}
	actor.Movies = orEmpty(links[id])

	return actor, nil
}

// Create inserts the actor and sets its ID. Movies are linked separately
// with SetMovies.
func (r *ActorRepository) Create(ctx context.Context, actor *models.Actor) error {
	query := `
		INSERT INTO actors (name, age, gender, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	now := time.Now().UTC()
	actor.CreatedAt, actor.UpdatedAt = now, now

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		actor.Name,
		actor.Age,
		actor.Gender,
		actor.CreatedAt,
		actor.UpdatedAt,
	).Scan(&actor.ID)
	if err != nil {
		return fmt.Errorf("failed to create actor: %w", err)
	}

	r.logger.Debug("actor created", zap.Int64("id", actor.ID), zap.String("name", actor.Name))
	return nil
}

// Update updates name, age and gender
func (r *ActorRepository) Update(ctx context.Context, actor *models.Actor) error {
	query := `
		UPDATE actors
		SET name = $2,
		    age = $3,
		    gender = $4,
		    updated_at = $5
		WHERE id = $1
	`

	actor.UpdatedAt = time.Now().UTC()

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		actor.ID,
		actor.Name,
		actor.Age,
		actor.Gender,
		actor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update actor: %w", err)
	}

	if err := expectOneRow(result, "actor", actor.ID); err != nil {
		return err
	}

	r.logger.Debug("actor updated", zap.Int64("id", actor.ID))
	return nil
}

// Delete deletes an actor. Casting rows are removed by the foreign key cascade.
func (r *ActorRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM actors WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete actor: %w", err)
	}

	if err := expectOneRow(result, "actor", id); err != nil {
		return err
	}

	r.logger.Debug("actor deleted", zap.Int64("id", id))
	return nil
}

// SetMovies replaces the movies the actor is cast in
func (r *ActorRepository) SetMovies(ctx context.Context, actorID int64, movieIDs []int64) error {
	if err := actorMovies.replace(ctx, GetExecutor(ctx, r.db), actorID, movieIDs); err != nil {
		return err
	}
	r.logger.Debug("actor movies replaced", zap.Int64("id", actorID), zap.Int64s("movies", movieIDs))
	return nil
}

func expectOneRow(result sql.Result, entity string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, repositories.ErrNotFound)
	}
	return nil
}

func orEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
