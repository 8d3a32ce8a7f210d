package handlers

import (
	"context"
	"net/http"

	"github.com/upb/casting-agency/middleware"
	"github.com/upb/casting-agency/models"
	"github.com/upb/casting-agency/utils"
	"go.uber.org/zap"
)

// ActorService defines the actor operations the handler depends on
type ActorService interface {
	ListActors(ctx context.Context) ([]*models.Actor, error)
	GetActor(ctx context.Context, id int64) (*models.Actor, error)
	CreateActor(ctx context.Context, req *models.CreateActorRequest) (*models.Actor, error)
	UpdateActor(ctx context.Context, id int64, req *models.UpdateActorRequest) (*models.Actor, error)
	DeleteActor(ctx context.Context, id int64) error
}

// ActorHandler handles actor-related HTTP requests
type ActorHandler struct {
	service ActorService
	logger  *zap.Logger
}

// NewActorHandler creates a new ActorHandler
func NewActorHandler(service ActorService, logger *zap.Logger) *ActorHandler {
	return &ActorHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /actors
func (h *ActorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actors, err := h.service.ListActors(ctx)
	if err != nil {
		h.logger.Error("failed to list actors",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, map[string]interface{}{"actors": actors})
}

// HandleCreate handles POST /actors
func (h *ActorHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateActorRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	actor, err := h.service.CreateActor(ctx, &req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("actor created",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.Int64("actor_id", actor.ID))

	_ = utils.WriteCreated(w, map[string]interface{}{"actor": actor})
}

// HandleUpdate handles PATCH /actors/{id}
func (h *ActorHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	if _, err := h.service.GetActor(ctx, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	var req models.UpdateActorRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	actor, err := h.service.UpdateActor(ctx, id, &req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, map[string]interface{}{"actor": actor})
}

// HandleDelete handles DELETE /actors/{id}
func (h *ActorHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.DeleteActor(ctx, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("actor deleted",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.Int64("actor_id", id))

	_ = utils.WriteOK(w, map[string]interface{}{"delete": id})
}
