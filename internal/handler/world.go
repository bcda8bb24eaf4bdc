package handler

import (
	"context"
	"log/slog"

	"github.com/cxuy/cxkit/internal/eventbus"
	"github.com/cxuy/cxkit/internal/middleware"
	"github.com/cxuy/cxkit/internal/server"
)

type WorldBody struct {
	Name string `json:"name" validate:"required"`
	ID   int    `json:"id"`
}

// WorldReceived is posted on the bus for every accepted helloworld request.
type WorldReceived struct {
	Name string
	Body WorldBody
}

type World struct {
	bus *eventbus.Bus
}

func NewWorld(bus *eventbus.Bus) *World {
	return &World{bus: bus}
}

func (h *World) Routes() (*server.Handler, error) {
	r := server.NewHandler("/helloworld")
	r.Use(middleware.CheckContentType)
	if err := r.Handle("", h.Receive, server.Query("name"), server.Body()); err != nil {
		return nil, err
	}
	return r, nil
}

func (h *World) Receive(ctx context.Context, name string, body WorldBody) error {
	slog.InfoContext(ctx, "World received.", "name", name, "body_name", body.Name, "body_id", body.ID)
	if h.bus == nil {
		return nil
	}
	return h.bus.Post(WorldReceived{Name: name, Body: body})
}
