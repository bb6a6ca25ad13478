package public

import "github.com/freshbasket/freshbasket/internal/provider"

// Handler serves the storefront API: order intake, order lookup, the
// payment webhook, substitution responses and delivery listings.
type Handler struct {
	*provider.Container
}

// New creates the public handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
