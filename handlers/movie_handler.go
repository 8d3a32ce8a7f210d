package handlers

import (
	"context"
	"net/http"

	"github.com/upb/casting-agency/middleware"
	"github.com/upb/casting-agency/models"
	"github.com/upb/casting-agency/utils"
	"go.uber.org/zap"
)

// MovieService defines the movie operations the handler depends on
type MovieService interface {
	ListMovies(ctx context.Context) ([]*models.Movie, error)
	GetMovie(ctx context.Context, id int64) (*models.Movie, error)
	CreateMovie(ctx context.Context, req *models.CreateMovieRequest) (*models.Movie, error)
	UpdateMovie(ctx context.Context, id int64, req *models.UpdateMovieRequest) (*models.Movie, error)
	DeleteMovie(ctx context.Context, id int64) error
	AddMovieActor(ctx context.Context, movieID, actorID int64) (*models.Movie, error)
	RemoveMovieActor(ctx context.Context, movieID, actorID int64) (*models.Movie, error)
}

// MovieHandler handles movie-related HTTP requests
type MovieHandler struct {
	service MovieService
	logger  *zap.Logger
}

// NewMovieHandler creates a new MovieHandler
func NewMovieHandler(service MovieService, logger *zap.Logger) *MovieHandler {
	return &MovieHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /movies
func (h *MovieHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	movies, err := h.service.ListMovies(ctx)
	if err != nil {
		h.logger.Error("failed to list movies",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, map[string]interface{}{"movies": movies})
}

// HandleCreate handles POST /movies
func (h *MovieHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateMovieRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	movie, err := h.service.CreateMovie(ctx, &req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("movie created",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.Int64("movie_id", movie.ID))

	_ = utils.WriteCreated(w, map[string]interface{}{"movie": movie})
}

// HandleUpdate handles PATCH /movies/{id}
func (h *MovieHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	if _, err := h.service.GetMovie(ctx, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	var req models.UpdateMovieRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	movie, err := h.service.UpdateMovie(ctx, id, &req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, map[string]interface{}{"movie": movie})
}

// HandleDelete handles DELETE /movies/{id}
func (h *MovieHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.DeleteMovie(ctx, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("movie deleted",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.Int64("movie_id", id))

	_ = utils.WriteOK(w, map[string]interface{}{"delete": id})
}

// HandleAddActor handles POST /movies/{id}/actors
func (h *MovieHandler) HandleAddActor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	var req models.CastActorRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	movie, err := h.service.AddMovieActor(ctx, id, *req.ActorID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, map[string]interface{}{"movie": movie})
}

// HandleRemoveActor handles DELETE /movies/{id}/actors/{actor_id}
func (h *MovieHandler) HandleRemoveActor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	actorID, ok := pathParamID(w, r, "actor_id", h.logger)
	if !ok {
		return
	}

	movie, err := h.service.RemoveMovieActor(ctx, id, actorID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, map[string]interface{}{"movie": movie})
}
