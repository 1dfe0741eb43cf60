package tui

import (
	"context"
	"fmt"

	"github.com/kingrea/skillmatch/internal/onboarding"
)

// Router hands destinations from the controller to the running program.
type Router struct {
	routes chan onboarding.Destination
}

// NewRouter returns a router with room for one pending destination.
func NewRouter() *Router {
	return &Router{routes: make(chan onboarding.Destination, 1)}
}

// Navigate queues dest for the program. It fails rather than blocks when a
// destination is already waiting.
func (r *Router) Navigate(ctx context.Context, dest onboarding.Destination) error {
	select {
	case r.routes <- dest:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("tui: route to %s dropped, another destination is pending", dest)
	}
}

// Routes exposes the destination channel.
func (r *Router) Routes() <-chan onboarding.Destination {
	return r.routes
}
