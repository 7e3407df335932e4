package main

import (
	"flag"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/rs/zerolog"

	"github.com/milk9111/playkit/activity"
	"github.com/milk9111/playkit/assets"
	"github.com/milk9111/playkit/director"
	"github.com/milk9111/playkit/hud"
	"github.com/milk9111/playkit/sound"
	"github.com/milk9111/playkit/watch"
)

const (
	designWidth  = 1920
	designHeight = 1080
)

func main() {
	mute := flag.Bool("mute", false, "start with all audio muted")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	contentDir := flag.String("content", "", "directory of activity descriptors and scripts to hot reload")
	start := flag.String("start", "menu", "activity id to start with")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	w, h := ebiten.Monitor().Size()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("playkit demo")

	audioCtx := audio.NewContext(44100)
	cache := assets.NewCache(audioCtx)
	fetcher := &assets.FSFetcher{Root: "assets"}
	mixer := sound.NewMixer(logger)
	mixer.SetAllMute(*mute)

	reg := activity.NewRegistry(logger)
	registerActivities(reg, cache, mixer, logger)
	if *contentDir != "" {
		if err := reg.LoadDescriptors(os.DirFS(*contentDir), "."); err != nil {
			logger.Warn().Err(err).Str("dir", *contentDir).Msg("load descriptors failed")
		}
	}

	view := hud.New("captions", "score", "pause")
	stage := newStage(designWidth, designHeight)

	dir, err := director.New(director.Config{
		Registry:     reg,
		Mixer:        mixer,
		Cache:        cache,
		Fetcher:      fetcher,
		UI:           view,
		Overlay:      view,
		Nav:          logNav{log: logger},
		Focus:        &noopFocus{},
		Stage:        stage,
		DesignWidth:  designWidth,
		DesignHeight: designHeight,
		BaseTitle:    "playkit demo",
		Log:          logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("director setup failed")
	}

	game := newGame(dir, mixer, view, stage, reg, logger)
	if *contentDir != "" {
		watcher, err := watch.New(*contentDir)
		if err != nil {
			logger.Warn().Err(err).Str("dir", *contentDir).Msg("content watch failed")
		} else {
			game.watcher = watcher
			defer watcher.Close()
		}
	}

	dir.GoToActivity(*start, nil)

	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal().Err(err).Msg("game loop exited")
	}
}

// registerActivities binds the built-in content modules. Script-based
// modules from the content dir register through descriptors instead.
func registerActivities(reg *activity.Registry, cache *assets.Cache, mixer *sound.Mixer, log zerolog.Logger) {
	reg.Register("menu", activity.Descriptor{
		Title: "playkit demo: menu",
		HUD:   &activity.HUDConfig{Panels: map[string]bool{"captions": true}},
	}, func() activity.Activity {
		return newMenu(mixer, log)
	})

	reg.Register("bouncer", activity.Descriptor{
		Title: "playkit demo: bouncer",
		HUD:   &activity.HUDConfig{ShowAll: true},
	}, func() activity.Activity {
		return newBouncer(cache, mixer, log)
	})
}

// logNav stands in for history/url handling in the demo.
type logNav struct {
	log zerolog.Logger
}

func (n logNav) ActivityChanged(id string) {
	n.log.Info().Str("id", id).Msg("navigation state changed")
}

// noopFocus stands in for the accessibility focus subsystem.
type noopFocus struct{}

func (*noopFocus) Reset()               {}
func (*noopFocus) ClearContexts()       {}
func (*noopFocus) RestoreDefaultOrder() {}
