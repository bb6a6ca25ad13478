package admin

import "github.com/freshbasket/freshbasket/internal/provider"

// Handler serves the operations console API.
type Handler struct {
	*provider.Container
}

// New creates the admin handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
