package activity

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/milk9111/playkit/loader"
	"github.com/milk9111/playkit/sound"
)

// Disposable is anything the activity tears down with itself.
type Disposable interface {
	Dispose()
}

// Base is an embeddable helper that carries the bookkeeping every activity
// needs: the owned loader, disposables, timed-effect stoppers, caption
// routing, and the return-to-parent callback. It also supplies no-op
// defaults for the optional hooks, so content modules only override what
// they use. Embedders that override Preload must still call Base.Preload
// to keep the loader reference for Shutdown.
type Base struct {
	Log   zerolog.Logger
	Mixer *sound.Mixer

	Desc Descriptor
	Args Args

	ld          *loader.Loader
	disposables []Disposable
	stoppers    []func()
	captionSink func(text string)
	onReturn    func()
}

// Initialize resets activity-local state. Runs before any content loading.
func (b *Base) Initialize(_ context.Context, desc Descriptor, args Args) error {
	b.Desc = desc
	b.Args = args
	b.captionSink = nil
	b.onReturn = nil
	b.disposables = nil
	b.stoppers = nil
	return nil
}

// Preload records the loader this activity owns.
func (b *Base) Preload(ld *loader.Loader) {
	b.ld = ld
}

func (b *Base) Create() error { return nil }

func (b *Base) Start() {}

func (b *Base) Resize(scale float64) {}

func (b *Base) AsyncShutdown(ctx context.Context) error { return nil }

// Shutdown stops this activity's music and sfx, cancels every tracked
// timed effect, disposes every disposable, and unloads every asset the
// loader loaded. Voice-over is left to the director's transition handling.
func (b *Base) Shutdown() {
	if b.Mixer != nil {
		b.Mixer.StopMusic()
		b.Mixer.StopSfx()
	}
	for _, stop := range b.stoppers {
		stop()
	}
	b.stoppers = nil
	for _, d := range b.disposables {
		d.Dispose()
	}
	b.disposables = nil
	if b.ld != nil {
		b.ld.UnloadAll()
	}
}

// Loader returns the loader recorded by Preload, nil before then.
func (b *Base) Loader() *loader.Loader {
	return b.ld
}

// Track registers a disposable torn down by Shutdown.
func (b *Base) Track(d Disposable) {
	if d == nil {
		return
	}
	b.disposables = append(b.disposables, d)
}

// TrackEffect registers a cancel func for a timed or animated effect.
func (b *Base) TrackEffect(stop func()) {
	if stop == nil {
		return
	}
	b.stoppers = append(b.stoppers, stop)
}

// SetCaptionSink routes caption text for this activity.
func (b *Base) SetCaptionSink(sink func(text string)) {
	b.captionSink = sink
}

// Caption emits caption text to the current sink, if any.
func (b *Base) Caption(text string) {
	if b.captionSink != nil {
		b.captionSink(text)
	}
}

// SetReturnCallback installs the return-to-parent callback.
func (b *Base) SetReturnCallback(fn func()) {
	b.onReturn = fn
}

// Return invokes the return-to-parent callback, if installed.
func (b *Base) Return() {
	if b.onReturn != nil {
		b.onReturn()
	}
}
