// Package handlers holds the HTTP surface of the bid-receiving service.
// Handlers are thin: decode, call the auction engine, encode. No business
// logic lives here.
package handlers

import (
	"goxbridge/auction"
	"goxbridge/registry"

	"go.uber.org/zap"
)

type Handler struct {
	logger    *zap.SugaredLogger
	engine    *auction.Engine
	transfers registry.TransferStore
}

func New(logger *zap.SugaredLogger, engine *auction.Engine, transfers registry.TransferStore) *Handler {
	return &Handler{
		logger:    logger,
		engine:    engine,
		transfers: transfers,
	}
}
