// Package casting implements the actor and movie operations behind the API.
package casting

import (
	"context"
	"errors"
	"slices"

	"github.com/upb/casting-agency/models"
	"github.com/upb/casting-agency/repositories"
	"github.com/upb/casting-agency/services"
	"go.uber.org/zap"
)

// Service manages actors, movies and the casting between them
type Service struct {
	actors repositories.ActorRepository
	movies repositories.MovieRepository
	txMgr  repositories.TransactionManager
	logger *zap.Logger
}

// NewService creates a new casting service
func NewService(repos *repositories.Repositories, txMgr repositories.TransactionManager, logger *zap.Logger) *Service {
	return &Service{
		actors: repos.Actors,
		movies: repos.Movies,
		txMgr:  txMgr,
		logger: logger,
	}
}

// ListActors returns every actor
func (s *Service) ListActors(ctx context.Context) ([]*models.Actor, error) {
	actors, err := s.actors.List(ctx)
	if err != nil {
		return nil, translate(err, services.ErrActorNotFound)
	}
	return actors, nil
}

// CreateActor inserts an actor and links the requested movies atomically
func (s *Service) CreateActor(ctx context.Context, req *models.CreateActorRequest) (*models.Actor, error) {
	actor := req.ToActor()

	err := services.WithTransaction(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) error {
		if err := s.actors.Create(ctx, actor); err != nil {
			return err
		}
		if len(actor.Movies) > 0 {
			return s.actors.SetMovies(ctx, actor.ID, actor.Movies)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, services.ErrActorNotFound)
	}

	actor.Movies = sortedIDs(actor.Movies)
	s.logger.Info("actor created", zap.Int64("actor_id", actor.ID))
	return actor, nil
}

// UpdateActor applies a partial update. A present movies list replaces the
// actor's casting in the same transaction.
func (s *Service) UpdateActor(ctx context.Context, id int64, req *models.UpdateActorRequest) (*models.Actor, error) {
	actor, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) (*models.Actor, error) {
		actor, err := s.actors.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		replaceMovies := req.Apply(actor)
		if err := s.actors.Update(ctx, actor); err != nil {
			return nil, err
		}
		if replaceMovies {
			if err := s.actors.SetMovies(ctx, actor.ID, actor.Movies); err != nil {
				return nil, err
			}
		}
		return actor, nil
	})
	if err != nil {
		return nil, translate(err, services.ErrActorNotFound)
	}

	actor.Movies = sortedIDs(actor.Movies)
	s.logger.Info("actor updated", zap.Int64("actor_id", actor.ID))
	return actor, nil
}

// DeleteActor removes an actor and its casting
func (s *Service) DeleteActor(ctx context.Context, id int64) error {
	if err := s.actors.Delete(ctx, id); err != nil {
		return translate(err, services.ErrActorNotFound)
	}
	s.logger.Info("actor deleted", zap.Int64("actor_id", id))
	return nil
}

// ListMovies returns every movie
func (s *Service) ListMovies(ctx context.Context) ([]*models.Movie, error) {
	movies, err := s.movies.List(ctx)
	if err != nil {
		return nil, translate(err, services.ErrMovieNotFound)
	}
	return movies, nil
}

// CreateMovie inserts a movie and links the requested cast atomically
func (s *Service) CreateMovie(ctx context.Context, req *models.CreateMovieRequest) (*models.Movie, error) {
	movie, err := req.ToMovie()
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeValidation, err.Error(), err)
	}

	err = services.WithTransaction(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) error {
		if err := s.movies.Create(ctx, movie); err != nil {
			return err
		}
		if len(movie.Actors) > 0 {
			return s.movies.SetActors(ctx, movie.ID, movie.Actors)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, services.ErrMovieNotFound)
	}

	movie.Actors = sortedIDs(movie.Actors)
	s.logger.Info("movie created", zap.Int64("movie_id", movie.ID))
	return movie, nil
}

// UpdateMovie applies a partial update. A present actors list replaces the
// cast in the same transaction.
func (s *Service) UpdateMovie(ctx context.Context, id int64, req *models.UpdateMovieRequest) (*models.Movie, error) {
	movie, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) (*models.Movie, error) {
		movie, err := s.movies.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		replaceActors, err := req.Apply(movie)
		if err != nil {
			return nil, services.NewDomainError(services.ErrorTypeValidation, err.Error(), err)
		}
		if err := s.movies.Update(ctx, movie); err != nil {
			return nil, err
		}
		if replaceActors {
			if err := s.movies.SetActors(ctx, movie.ID, movie.Actors); err != nil {
				return nil, err
			}
		}
		return movie, nil
	})
	if err != nil {
		return nil, translate(err, services.ErrMovieNotFound)
	}

	movie.Actors = sortedIDs(movie.Actors)
	s.logger.Info("movie updated", zap.Int64("movie_id", movie.ID))
	return movie, nil
}

// DeleteMovie removes a movie and its cast links
func (s *Service) DeleteMovie(ctx context.Context, id int64) error {
	if err := s.movies.Delete(ctx, id); err != nil {
		return translate(err, services.ErrMovieNotFound)
	}
	s.logger.Info("movie deleted", zap.Int64("movie_id", id))
	return nil
}

// GetActor returns one actor
func (s *Service) GetActor(ctx context.Context, id int64) (*models.Actor, error) {
	actor, err := s.actors.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, services.ErrActorNotFound)
	}
	return actor, nil
}

// GetMovie returns one movie
func (s *Service) GetMovie(ctx context.Context, id int64) (*models.Movie, error) {
	movie, err := s.movies.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, services.ErrMovieNotFound)
	}
	return movie, nil
}

// AddMovieActor casts an existing actor in an existing movie. Casting the
// same actor twice leaves a single link.
func (s *Service) AddMovieActor(ctx context.Context, movieID, actorID int64) (*models.Movie, error) {
	movie, err := s.recast(ctx, movieID, actorID, s.movies.AddActor)
	if err != nil {
		return nil, err
	}
	s.logger.Info("actor added to movie", zap.Int64("movie_id", movieID), zap.Int64("actor_id", actorID))
	return movie, nil
}

// RemoveMovieActor drops an actor from a movie's cast. Both must exist; the
// link itself may already be gone.
func (s *Service) RemoveMovieActor(ctx context.Context, movieID, actorID int64) (*models.Movie, error) {
	movie, err := s.recast(ctx, movieID, actorID, s.movies.RemoveActor)
	if err != nil {
		return nil, err
	}
	s.logger.Info("actor removed from movie", zap.Int64("movie_id", movieID), zap.Int64("actor_id", actorID))
	return movie, nil
}

// recast checks that both sides exist, applies change and reloads the movie,
// all in one transaction.
func (s *Service) recast(ctx context.Context, movieID, actorID int64, change func(ctx context.Context, movieID, actorID int64) error) (*models.Movie, error) {
	movie, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) (*models.Movie, error) {
		if _, err := s.movies.GetByID(ctx, movieID); err != nil {
			return nil, translate(err, services.ErrMovieNotFound)
		}
		if _, err := s.actors.GetByID(ctx, actorID); err != nil {
			return nil, translate(err, services.ErrActorNotFound)
		}
		if err := change(ctx, movieID, actorID); err != nil {
			return nil, err
		}
		return s.movies.GetByID(ctx, movieID)
	})
	if err != nil {
		return nil, translate(err, services.ErrMovieNotFound)
	}

	movie.Actors = sortedIDs(movie.Actors)
	return movie, nil
}

// translate maps repository errors onto domain errors. notFound names the
// entity the operation addressed.
func translate(err error, notFound *services.DomainError) error {
	var domainErr *services.DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, repositories.ErrNotFound):
		return services.NewDomainError(services.ErrorTypeNotFound, notFound.Message, err)
	case errors.Is(err, repositories.ErrInvalidReference):
		return services.NewDomainError(services.ErrorTypeValidation, services.ErrUnknownReference.Message, err)
	default:
		return services.WrapInternal("database error", err)
	}
}

func sortedIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	if out == nil {
		return []int64{}
	}
	slices.Sort(out)
	return out
}
