package director

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/milk9111/playkit/activity"
	"github.com/milk9111/playkit/assets"
	"github.com/milk9111/playkit/loader"
	"github.com/milk9111/playkit/sound"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *eventLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

type fakeUI struct {
	log *eventLog

	mu       sync.Mutex
	progress []float64
	huds     []activity.HUDConfig
}

func (u *fakeUI) Show(context.Context) error { u.log.add("ui.show"); return nil }
func (u *fakeUI) Hide(context.Context) error { u.log.add("ui.hide"); return nil }

func (u *fakeUI) UpdateProgress(fraction float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.progress = append(u.progress, fraction)
}

func (u *fakeUI) ShowHUD(cfg activity.HUDConfig) {
	u.log.add("ui.hud")
	u.mu.Lock()
	defer u.mu.Unlock()
	u.huds = append(u.huds, cfg)
}

type fakeStage struct {
	log  *eventLog
	w, h float64

	mu      sync.Mutex
	layouts []Layout
}

func (s *fakeStage) ApplyLayout(l Layout) {
	s.log.add("stage.layout")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layouts = append(s.layouts, l)
}

func (s *fakeStage) RaiseActivity()        { s.log.add("stage.raise") }
func (s *fakeStage) SetTitle(title string) { s.log.add("stage.title:" + title) }

func (s *fakeStage) ViewportSize() (w, h float64) { return s.w, s.h }

func (s *fakeStage) layoutCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.layouts)
}

func (s *fakeStage) lastLayout() Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layouts[len(s.layouts)-1]
}

type fakeNav struct{ log *eventLog }

func (n *fakeNav) ActivityChanged(id string) { n.log.add("nav:" + id) }

type fakeFocus struct{ log *eventLog }

func (f *fakeFocus) Reset()               { f.log.add("focus.reset") }
func (f *fakeFocus) ClearContexts()       { f.log.add("focus.clear") }
func (f *fakeFocus) RestoreDefaultOrder() { f.log.add("focus.restore") }

type mapFetcher map[string][]byte

func (m mapFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	if b, ok := m[url]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("missing %s", url)
}

// recorder is a scriptable activity that appends every hook call to the
// shared event log.
type recorder struct {
	log *eventLog

	initErr   error
	createErr error
	gate      chan struct{}
	preload   func(ld *loader.Loader)
}

func (r *recorder) Initialize(_ context.Context, _ activity.Descriptor, _ activity.Args) error {
	r.log.add("act.initialize")
	return r.initErr
}

func (r *recorder) Preload(ld *loader.Loader) {
	r.log.add("act.preload")
	if r.preload != nil {
		r.preload(ld)
	}
}

func (r *recorder) Create() error {
	if r.gate != nil {
		<-r.gate
	}
	r.log.add("act.create")
	return r.createErr
}

func (r *recorder) Start()               { r.log.add("act.start") }
func (r *recorder) Resize(scale float64) { r.log.add(fmt.Sprintf("act.resize:%g", scale)) }

func (r *recorder) AsyncShutdown(context.Context) error {
	r.log.add("act.asyncShutdown")
	return nil
}

func (r *recorder) Shutdown()             { r.log.add("act.shutdown") }
func (r *recorder) SetPaused(paused bool) { r.log.add(fmt.Sprintf("act.pause:%v", paused)) }

type fixture struct {
	dir   *Director
	log   *eventLog
	ui    *fakeUI
	stage *fakeStage
	cache *assets.Cache
	reg   *activity.Registry
	mixer *sound.Mixer
}

func newFixture(t *testing.T, data map[string][]byte) *fixture {
	t.Helper()

	log := &eventLog{}
	ui := &fakeUI{log: log}
	stage := &fakeStage{log: log, w: 960, h: 540}
	cache := assets.NewCache(nil)
	mixer := sound.NewMixer(zerolog.Nop())
	reg := activity.NewRegistry(zerolog.Nop())

	dir, err := New(Config{
		Registry:     reg,
		Mixer:        mixer,
		Cache:        cache,
		Fetcher:      mapFetcher(data),
		UI:           ui,
		Nav:          &fakeNav{log: log},
		Focus:        &fakeFocus{log: log},
		Stage:        stage,
		DesignWidth:  1920,
		DesignHeight: 1080,
		BaseTitle:    "playkit",
		ResizeDelay:  10 * time.Millisecond,
		Log:          zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new director: %v", err)
	}
	return &fixture{dir: dir, log: log, ui: ui, stage: stage, cache: cache, reg: reg, mixer: mixer}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition never satisfied")
		}
		time.Sleep(time.Millisecond)
	}
}

func (f *fixture) settle(t *testing.T) {
	t.Helper()
	waitFor(t, func() bool { return !f.dir.InFlight() })
}

func TestActivationOrder(t *testing.T) {
	f := newFixture(t, nil)
	f.reg.Register("home", activity.Descriptor{Title: "Home"}, func() activity.Activity {
		return &recorder{log: f.log}
	})

	f.dir.GoToActivity("home", nil)
	f.settle(t)

	if got := f.dir.State(); got != Active {
		t.Fatalf("expected active state, got %s", got)
	}
	if id, ok := f.dir.Current(); !ok || id != "home" {
		t.Fatalf("expected home live, got %q ok=%v", id, ok)
	}

	want := []string{
		"ui.show",
		"focus.reset",
		"focus.clear",
		"act.initialize",
		"act.preload",
		"act.create",
		"stage.raise",
		"ui.hide",
		"stage.title:Home",
		"nav:home",
		"focus.restore",
		"stage.layout",
		"act.resize:0.5",
		"act.start",
	}
	if got := f.log.snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("side-effect order mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestGuardDropsConcurrentRequests(t *testing.T) {
	f := newFixture(t, nil)

	gate := make(chan struct{})
	f.reg.Register("slow", activity.Descriptor{}, func() activity.Activity {
		return &recorder{log: f.log, gate: gate}
	})
	f.reg.Register("other", activity.Descriptor{}, func() activity.Activity {
		return &recorder{log: f.log}
	})

	f.dir.GoToActivity("slow", nil)
	waitFor(t, f.dir.InFlight)

	f.dir.GoToActivity("other", nil)
	f.dir.ExitActivity()
	close(gate)
	f.settle(t)

	if id, ok := f.dir.Current(); !ok || id != "slow" {
		t.Fatalf("in-flight transition should win, got %q ok=%v", id, ok)
	}
	for _, e := range f.log.snapshot() {
		if e == "nav:other" {
			t.Fatalf("dropped request must not activate")
		}
	}
}

func TestUnknownActivityAbandons(t *testing.T) {
	f := newFixture(t, nil)
	f.reg.Register("home", activity.Descriptor{Title: "Home"}, func() activity.Activity {
		return &recorder{log: f.log}
	})

	f.dir.GoToActivity("home", nil)
	f.settle(t)
	f.log.reset()

	f.dir.GoToActivity("missing", nil)
	f.settle(t)

	if got := f.dir.State(); got != Idle {
		t.Fatalf("expected idle after abandoned transition, got %s", got)
	}
	if _, ok := f.dir.Current(); ok {
		t.Fatalf("no activity should be live")
	}
	// The old activity is fully torn down before resolution fails, and the
	// loading view comes back down.
	want := []string{
		"ui.show",
		"act.asyncShutdown",
		"act.shutdown",
		"focus.reset",
		"focus.clear",
		"ui.hide",
	}
	if got := f.log.snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("abandon order mismatch:\n got %v\nwant %v", got, want)
	}

	// Navigation still works afterwards.
	f.dir.GoToActivity("home", nil)
	f.settle(t)
	if got := f.dir.State(); got != Active {
		t.Fatalf("director should recover, got %s", got)
	}
}

func TestInitializeFailureAbandons(t *testing.T) {
	f := newFixture(t, nil)
	f.reg.Register("broken", activity.Descriptor{}, func() activity.Activity {
		return &recorder{log: f.log, initErr: fmt.Errorf("boom")}
	})

	f.dir.GoToActivity("broken", nil)
	f.settle(t)

	if got := f.dir.State(); got != Idle {
		t.Fatalf("expected idle, got %s", got)
	}
	if _, ok := f.dir.Current(); ok {
		t.Fatalf("failed initialize must not leave an activity live")
	}
}

func TestCreateFailureUnloadsAssets(t *testing.T) {
	f := newFixture(t, map[string][]byte{"cfg.json": []byte(`{}`)})
	f.reg.Register("broken", activity.Descriptor{}, func() activity.Activity {
		return &recorder{
			log:       f.log,
			createErr: fmt.Errorf("boom"),
			preload:   func(ld *loader.Loader) { ld.LoadJSON("cfg", "cfg.json") },
		}
	})

	f.dir.GoToActivity("broken", nil)
	f.settle(t)

	if got := f.dir.State(); got != Idle {
		t.Fatalf("expected idle, got %s", got)
	}
	if !f.cache.Empty() {
		t.Fatalf("failed create must unload what preload loaded")
	}
	if got := f.ui.progress; len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected one full progress tick, got %v", got)
	}
}

func TestExitActivity(t *testing.T) {
	f := newFixture(t, nil)
	f.reg.Register("home", activity.Descriptor{}, func() activity.Activity {
		return &recorder{log: f.log}
	})

	f.dir.GoToActivity("home", nil)
	f.settle(t)

	// An abandoned voice-over line should not survive the exit.
	f.mixer.PlaySingleVO(&sound.Clip{ID: "line", Volume: 1, Player: &pausePlayer{playing: true}})
	f.log.reset()

	f.dir.ExitActivity()
	f.settle(t)

	if got := f.dir.State(); got != Idle {
		t.Fatalf("expected idle after exit, got %s", got)
	}
	if _, ok := f.dir.Current(); ok {
		t.Fatalf("exit should leave no activity")
	}
	if got := f.mixer.VoiceID(); got != "" {
		t.Fatalf("teardown should stop voice-over, got %q", got)
	}
	want := []string{
		"ui.show",
		"act.asyncShutdown",
		"act.shutdown",
		"focus.reset",
		"focus.clear",
		"ui.hide",
	}
	if got := f.log.snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("exit order mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestHUDConfigForwarded(t *testing.T) {
	f := newFixture(t, nil)
	f.reg.Register("hud", activity.Descriptor{
		HUD: &activity.HUDConfig{Panels: map[string]bool{"score": true}},
	}, func() activity.Activity {
		return &recorder{log: f.log}
	})

	f.dir.GoToActivity("hud", nil)
	f.settle(t)

	f.ui.mu.Lock()
	defer f.ui.mu.Unlock()
	if len(f.ui.huds) != 1 || !f.ui.huds[0].Panels["score"] {
		t.Fatalf("descriptor hud config should reach the view, got %+v", f.ui.huds)
	}
}

func TestTitleFallsBackToBase(t *testing.T) {
	f := newFixture(t, nil)
	f.reg.Register("untitled", activity.Descriptor{}, func() activity.Activity {
		return &recorder{log: f.log}
	})

	f.dir.GoToActivity("untitled", nil)
	f.settle(t)

	var found bool
	for _, e := range f.log.snapshot() {
		if e == "stage.title:playkit" {
			found = true
		}
	}
	if !found {
		t.Fatalf("empty descriptor title should fall back to the base title")
	}
}

func TestResizeLayout(t *testing.T) {
	f := newFixture(t, nil)

	f.stage.w, f.stage.h = 960, 540
	f.dir.Resize()
	if got := f.stage.lastLayout(); got != (Layout{Scale: 0.5}) {
		t.Fatalf("expected centered half scale, got %+v", got)
	}

	// Letterboxing splits the leftover space evenly.
	f.stage.w, f.stage.h = 1000, 540
	f.dir.Resize()
	if got := f.stage.lastLayout(); got != (Layout{Scale: 0.5, OffsetX: 20}) {
		t.Fatalf("expected horizontal letterbox, got %+v", got)
	}

	// A degenerate viewport is ignored.
	before := f.stage.layoutCount()
	f.stage.w, f.stage.h = 0, 540
	f.dir.Resize()
	if f.stage.layoutCount() != before {
		t.Fatalf("zero viewport must not produce a layout")
	}
}

func TestRequestResizeDebounce(t *testing.T) {
	f := newFixture(t, nil)

	for i := 0; i < 5; i++ {
		f.dir.RequestResize()
	}
	waitFor(t, func() bool { return f.stage.layoutCount() > 0 })
	time.Sleep(50 * time.Millisecond)

	if got := f.stage.layoutCount(); got != 1 {
		t.Fatalf("burst of resize requests should collapse to one pass, got %d", got)
	}
}

func TestRunLoader(t *testing.T) {
	f := newFixture(t, map[string][]byte{"late.json": []byte(`{}`)})
	f.reg.Register("home", activity.Descriptor{}, func() activity.Activity {
		return &recorder{log: f.log}
	})
	f.dir.GoToActivity("home", nil)
	f.settle(t)
	f.log.reset()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assetCh, cycle := f.dir.RunLoader(ctx)

	select {
	case err := <-assetCh:
		if err != nil {
			t.Fatalf("asset signal: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("asset signal never resolved")
	}
	select {
	case <-cycle:
	case <-time.After(5 * time.Second):
		t.Fatalf("view cycle never completed")
	}

	want := []string{"ui.show", "ui.hide"}
	if got := f.log.snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("loader cycle mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestSetPaused(t *testing.T) {
	f := newFixture(t, nil)
	f.reg.Register("home", activity.Descriptor{}, func() activity.Activity {
		return &recorder{log: f.log}
	})
	f.dir.GoToActivity("home", nil)
	f.settle(t)

	vp := &pausePlayer{playing: true}
	f.mixer.PlaySingleVO(&sound.Clip{ID: "line", Volume: 1, Player: vp})
	f.log.reset()

	f.dir.SetPaused(true)
	if vp.playing {
		t.Fatalf("voice-over should pause with the activity")
	}
	f.dir.SetPaused(false)
	if !vp.playing {
		t.Fatalf("voice-over should resume")
	}

	want := []string{"act.pause:true", "act.pause:false"}
	if got := f.log.snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("pause events mismatch:\n got %v\nwant %v", got, want)
	}
}

type pausePlayer struct{ playing bool }

func (p *pausePlayer) Play()             { p.playing = true }
func (p *pausePlayer) Pause()            { p.playing = false }
func (p *pausePlayer) Rewind() error     { return nil }
func (p *pausePlayer) SetVolume(float64) {}
func (p *pausePlayer) IsPlaying() bool   { return p.playing }
