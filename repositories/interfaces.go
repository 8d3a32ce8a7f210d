package repositories

import (
	"context"
	"errors"

	"github.com/upb/casting-agency/models"
)

var (
	// ErrNotFound is returned when the addressed row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrInvalidReference is returned when an association names an id that
	// does not exist
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns a context carrying the transaction. Repository calls
	// made with it run inside the transaction.
	Context() context.Context
}

// ActorRepository handles actor data operations
type ActorRepository interface {
	// List returns every actor ordered by id, each with its movie ids
	List(ctx context.Context) ([]*models.Actor, error)

	// GetByID retrieves an actor by ID
	GetByID(ctx context.Context, id int64) (*models.Actor, error)

	// Create inserts the actor and sets its ID
	Create(ctx context.Context, actor *models.Actor) error

	// Update updates name, age and gender
	Update(ctx context.Context, actor *models.Actor) error

	// Delete deletes an actor and its casting rows
	Delete(ctx context.Context, id int64) error

	// SetMovies replaces the movies the actor is cast in
	SetMovies(ctx context.Context, actorID int64, movieIDs []int64) error
}

// MovieRepository handles movie data operations
type MovieRepository interface {
	// List returns every movie ordered by id, each with its actor ids
	List(ctx context.Context) ([]*models.Movie, error)

	// GetByID retrieves a movie by ID
	GetByID(ctx context.Context, id int64) (*models.Movie, error)

	// Create inserts the movie and sets its ID
	Create(ctx context.Context, movie *models.Movie) error

	// Update updates title and release date
	Update(ctx context.Context, movie *models.Movie) error

	// Delete deletes a movie and its casting rows
	Delete(ctx context.Context, id int64) error

	// SetActors replaces the cast of the movie
	SetActors(ctx context.Context, movieID int64, actorIDs []int64) error

	// AddActor links one actor to the movie; an existing link is kept
	AddActor(ctx context.Context, movieID, actorID int64) error

	// RemoveActor unlinks one actor from the movie; a missing link is ignored
	RemoveActor(ctx context.Context, movieID, actorID int64) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Actors ActorRepository
	Movies MovieRepository
}
