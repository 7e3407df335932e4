// Package activity defines the contract every swappable content module
// implements, plus the descriptor registry the director resolves ids
// against.
package activity

import (
	"context"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/milk9111/playkit/loader"
)

// Args are the runtime arguments handed to an activity at start.
type Args map[string]any

// Activity is the lifecycle every content module implements. The director
// drives the hooks in order: Initialize, Preload, Create, then Start once
// the loading view is hidden again. Teardown is AsyncShutdown followed by
// Shutdown.
type Activity interface {
	// Initialize runs before any content loading and resets activity-local
	// state such as caption routing and the return-to-parent callback.
	Initialize(ctx context.Context, desc Descriptor, args Args) error

	// Preload issues resource loader requests. The loader is owned by this
	// activity for its whole life.
	Preload(ld *loader.Loader)

	// Create constructs content. The director yields one scheduling tick
	// after Create before treating the activity as loaded.
	Create() error

	// Start begins active gameplay; called only after the loading view is
	// hidden.
	Start()

	// Resize applies the uniform layout scale.
	Resize(scale float64)

	// AsyncShutdown is the asynchronous half of teardown, e.g. flushing
	// persisted state. It completes before Shutdown is invoked.
	AsyncShutdown(ctx context.Context) error

	// Shutdown stops this activity's music and sfx, cancels its timed
	// effects, disposes its tracked disposables, and unloads everything
	// its loader loaded.
	Shutdown()
}

// Updater is the optional per-frame capability the game loop drives.
type Updater interface {
	Update() error
}

// Drawer is the optional render capability.
type Drawer interface {
	Draw(screen *ebiten.Image)
}

// Pauser is the optional whole-activity pause capability.
type Pauser interface {
	SetPaused(paused bool)
}
