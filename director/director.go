// Package director owns the activity lifecycle: it serializes transitions
// behind a navigation guard, drives each activity's hooks in order, shows
// and hides the loading view, and propagates resize, pause, title, and
// navigation side effects.
package director

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/milk9111/playkit/activity"
	"github.com/milk9111/playkit/assets"
	"github.com/milk9111/playkit/common"
	"github.com/milk9111/playkit/loader"
	"github.com/milk9111/playkit/sound"
)

// State is the director's position in the transition state machine.
type State int32

const (
	Idle State = iota
	Transitioning
	Loading
	Active
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Transitioning:
		return "transitioning"
	case Loading:
		return "loading"
	case Active:
		return "active"
	}
	return "unknown"
}

// ErrUnknownActivity reports a transition to an id the registry cannot
// resolve.
var ErrUnknownActivity = errors.New("director: unknown activity id")

const (
	defaultResizeDelay     = 50 * time.Millisecond
	defaultShutdownTimeout = 5 * time.Second
)

// Config wires the director's collaborators. Registry, UI, Stage, Cache,
// and Fetcher are required; the rest may be nil.
type Config struct {
	Registry *activity.Registry
	Mixer    *sound.Mixer
	Cache    *assets.Cache
	Fetcher  assets.Fetcher

	UI      LoadingUI
	Overlay Overlay
	Nav     NavState
	Focus   Focus
	Stage   Stage

	DesignWidth  float64
	DesignHeight float64
	BaseTitle    string

	ResizeDelay     time.Duration
	ShutdownTimeout time.Duration

	Log zerolog.Logger
}

// running is the single live activity, present only between setup and
// teardown.
type running struct {
	id   string
	desc activity.Descriptor
	act  activity.Activity
	ld   *loader.Loader
}

// Director is the top-level orchestrator. At most one transition executes
// at a time; requests arriving while one is in flight are silently dropped.
type Director struct {
	cfg Config
	log zerolog.Logger

	guard atomic.Bool
	state atomic.Int32

	mu  sync.Mutex
	cur *running

	resizeMu    sync.Mutex
	resizeTimer *time.Timer
}

func New(cfg Config) (*Director, error) {
	if cfg.Registry == nil || cfg.UI == nil || cfg.Stage == nil {
		return nil, errors.New("director: registry, ui, and stage are required")
	}
	if cfg.Cache == nil || cfg.Fetcher == nil {
		return nil, errors.New("director: cache and fetcher are required")
	}
	if cfg.ResizeDelay <= 0 {
		cfg.ResizeDelay = defaultResizeDelay
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	return &Director{cfg: cfg, log: cfg.Log}, nil
}

// State reports the current machine state.
func (d *Director) State() State {
	return State(d.state.Load())
}

// InFlight reports whether a transition holds the navigation guard.
func (d *Director) InFlight() bool {
	return d.guard.Load()
}

// Current returns the live activity's id, if any.
func (d *Director) Current() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur == nil {
		return "", false
	}
	return d.cur.id, true
}

// CurrentActivity returns the live activity instance, for the game loop to
// drive its optional per-frame capabilities.
func (d *Director) CurrentActivity() (activity.Activity, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur == nil {
		return nil, false
	}
	return d.cur.act, true
}

// GoToActivity tears down the current activity and starts the one named by
// id. While a transition is in flight the request is dropped, not queued.
func (d *Director) GoToActivity(id string, args activity.Args) {
	if !d.guard.CompareAndSwap(false, true) {
		d.log.Debug().Str("id", id).Msg("director: transition in flight, dropping request")
		return
	}
	go d.transition(id, args)
}

// ExitActivity tears down the current activity and leaves none active.
func (d *Director) ExitActivity() {
	if !d.guard.CompareAndSwap(false, true) {
		d.log.Debug().Msg("director: transition in flight, dropping exit")
		return
	}
	go func() {
		ctx := context.Background()
		d.state.Store(int32(Transitioning))
		if err := d.cfg.UI.Show(ctx); err != nil {
			d.log.Warn().Err(err).Msg("director: show loading view failed")
		}
		d.teardown(ctx)
		if err := d.cfg.UI.Hide(ctx); err != nil {
			d.log.Warn().Err(err).Msg("director: hide loading view failed")
		}
		d.state.Store(int32(Idle))
		d.guard.Store(false)
	}()
}

// ShowLoader shows the loading view, resolving once the visual change has
// completed. Interaction is disabled while it is up.
func (d *Director) ShowLoader(ctx context.Context) error {
	return d.cfg.UI.Show(ctx)
}

// HideLoader hides the loading view, resolving on confirmed completion.
func (d *Director) HideLoader(ctx context.Context) error {
	return d.cfg.UI.Hide(ctx)
}

// RunLoader runs a supplementary loading pass for the live activity. It
// returns two independently awaitable signals: assets resolves when the
// activity's queued loads drain, and cycle closes once the loading view has
// been shown and then hidden again.
func (d *Director) RunLoader(ctx context.Context) (assets <-chan error, cycle <-chan struct{}) {
	assetsCh := make(chan error, 1)
	cycleCh := make(chan struct{})
	go func() {
		defer close(cycleCh)
		if err := d.cfg.UI.Show(ctx); err != nil {
			d.log.Warn().Err(err).Msg("director: show loading view failed")
		}
		var err error
		if ld := d.currentLoader(); ld != nil {
			err = ld.Load(ctx)
		}
		assetsCh <- err
		if err := d.cfg.UI.Hide(ctx); err != nil {
			d.log.Warn().Err(err).Msg("director: hide loading view failed")
		}
	}()
	return assetsCh, cycleCh
}

// RequestResize debounces environment resize signals: repeated requests
// within the delay window collapse into a single recompute.
func (d *Director) RequestResize() {
	d.resizeMu.Lock()
	defer d.resizeMu.Unlock()
	if d.resizeTimer != nil {
		d.resizeTimer.Stop()
	}
	d.resizeTimer = time.AfterFunc(d.cfg.ResizeDelay, d.Resize)
}

// Resize recomputes the uniform scale from the design size and live
// viewport and applies it to the render surface, the persistent overlay,
// and the live activity.
func (d *Director) Resize() {
	dw, dh := d.cfg.DesignWidth, d.cfg.DesignHeight
	if dw <= 0 || dh <= 0 {
		return
	}
	vw, vh := d.cfg.Stage.ViewportSize()
	if vw <= 0 || vh <= 0 {
		return
	}

	scale := common.Min(vw/dw, vh/dh)
	d.cfg.Stage.ApplyLayout(Layout{
		Scale:   scale,
		OffsetX: (vw - dw*scale) / 2,
		OffsetY: (vh - dh*scale) / 2,
	})
	if d.cfg.Overlay != nil {
		d.cfg.Overlay.Resize(scale)
	}
	d.mu.Lock()
	cur := d.cur
	d.mu.Unlock()
	if cur != nil {
		cur.act.Resize(scale)
	}
}

// SetPaused pauses or resumes the live activity: the voice-over channel is
// paused directly, and the activity itself when it supports pausing.
func (d *Director) SetPaused(paused bool) {
	if d.cfg.Mixer != nil {
		d.cfg.Mixer.SetVOPaused(paused)
	}
	d.mu.Lock()
	cur := d.cur
	d.mu.Unlock()
	if cur == nil {
		return
	}
	if p, ok := cur.act.(activity.Pauser); ok {
		p.SetPaused(paused)
	}
}

// transition runs one guarded teardown+setup pass. Every step completes
// before the next begins; failures degrade to a logged abandonment that
// leaves no activity active with the guard cleared.
func (d *Director) transition(id string, args activity.Args) {
	ctx := context.Background()
	d.state.Store(int32(Transitioning))

	if err := d.cfg.UI.Show(ctx); err != nil {
		d.log.Warn().Err(err).Msg("director: show loading view failed")
	}
	d.teardown(ctx)

	desc, ctor, ok := d.cfg.Registry.Resolve(id)
	if !ok {
		d.log.Error().Err(ErrUnknownActivity).Str("id", id).Msg("director: abandoning transition")
		d.abandon(ctx)
		return
	}

	act := ctor()
	if err := act.Initialize(ctx, desc, args); err != nil {
		d.log.Error().Err(err).Str("id", id).Msg("director: initialize failed, abandoning transition")
		d.abandon(ctx)
		return
	}

	d.state.Store(int32(Loading))
	ld := loader.New(d.cfg.Cache, d.cfg.Fetcher, d.log)
	ld.SetProgressFunc(d.cfg.UI.UpdateProgress)
	if desc.HUD != nil {
		d.cfg.UI.ShowHUD(*desc.HUD)
	}

	act.Preload(ld)
	if err := ld.Load(ctx); err != nil {
		d.log.Warn().Err(err).Str("id", id).Msg("director: asset batch failed")
	}
	if err := act.Create(); err != nil {
		d.log.Error().Err(err).Str("id", id).Msg("director: create failed, abandoning transition")
		ld.UnloadAll()
		d.abandon(ctx)
		return
	}
	// One settle tick between construction and readiness.
	runtime.Gosched()

	d.mu.Lock()
	d.cur = &running{id: id, desc: desc, act: act, ld: ld}
	d.mu.Unlock()

	d.cfg.Stage.RaiseActivity()
	if err := d.cfg.UI.Hide(ctx); err != nil {
		d.log.Warn().Err(err).Msg("director: hide loading view failed")
	}

	title := desc.Title
	if title == "" {
		title = d.cfg.BaseTitle
	}
	d.cfg.Stage.SetTitle(title)
	if d.cfg.Nav != nil {
		d.cfg.Nav.ActivityChanged(id)
	}
	if d.cfg.Focus != nil {
		d.cfg.Focus.RestoreDefaultOrder()
	}
	d.Resize()

	act.Start()
	d.state.Store(int32(Active))
	d.guard.Store(false)
}

// teardown completes the current activity's shutdown in strict order:
// async hook awaited, then the synchronous hook, then the reference is
// dropped and the focus subsystem reset to its baseline.
func (d *Director) teardown(ctx context.Context) {
	d.mu.Lock()
	cur := d.cur
	d.mu.Unlock()

	if cur != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, d.cfg.ShutdownTimeout)
		if err := cur.act.AsyncShutdown(shutdownCtx); err != nil {
			d.log.Warn().Err(err).Str("id", cur.id).Msg("director: async shutdown failed")
		}
		cancel()
		cur.act.Shutdown()
		if d.cfg.Mixer != nil {
			d.cfg.Mixer.StopVO()
		}

		d.mu.Lock()
		d.cur = nil
		d.mu.Unlock()
	}

	if d.cfg.Focus != nil {
		d.cfg.Focus.Reset()
		d.cfg.Focus.ClearContexts()
	}
}

// abandon ends a failed transition with no live activity. The guard is
// cleared so navigation stays possible; the app is idle, not wedged on a
// loading screen.
func (d *Director) abandon(ctx context.Context) {
	if err := d.cfg.UI.Hide(ctx); err != nil {
		d.log.Warn().Err(err).Msg("director: hide loading view failed")
	}
	d.state.Store(int32(Idle))
	d.guard.Store(false)
}

func (d *Director) currentLoader() *loader.Loader {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur == nil {
		return nil
	}
	return d.cur.ld
}
