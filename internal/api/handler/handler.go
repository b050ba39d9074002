package handler

import (
	"reqtrack/backend/internal/feedhub"
	"reqtrack/backend/internal/lifecycle"
	"reqtrack/backend/internal/storage"
)

// Handler bundles the dependencies of the HTTP surface.
type Handler struct {
	Engine  *lifecycle.Engine
	Storage storage.Storage
	Hub     *feedhub.ManagerService
}

func NewHandler(engine *lifecycle.Engine, s storage.Storage, hub *feedhub.ManagerService) *Handler {
	return &Handler{Engine: engine, Storage: s, Hub: hub}
}
