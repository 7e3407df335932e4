package main

import (
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"

	"github.com/milk9111/playkit/activity"
	"github.com/milk9111/playkit/director"
	"github.com/milk9111/playkit/hud"
	"github.com/milk9111/playkit/sound"
	"github.com/milk9111/playkit/watch"
)

type Game struct {
	dir     *director.Director
	mixer   *sound.Mixer
	view    *hud.HUD
	stage   *stage
	reg     *activity.Registry
	watcher *watch.Watcher
	log     zerolog.Logger

	paused bool
}

func newGame(dir *director.Director, mixer *sound.Mixer, view *hud.HUD, st *stage, reg *activity.Registry, log zerolog.Logger) *Game {
	return &Game{dir: dir, mixer: mixer, view: view, stage: st, reg: reg, log: log}
}

func (g *Game) Update() error {
	g.drainWatcher()

	g.mixer.Update()
	g.view.Update()

	if !g.view.InputBlocked() {
		g.handleInput()
	}

	if act, ok := g.dir.CurrentActivity(); ok && !g.paused {
		if u, ok := act.(activity.Updater); ok {
			if err := u.Update(); err != nil {
				g.log.Warn().Err(err).Msg("activity update failed")
			}
		}
	}
	return nil
}

func (g *Game) handleInput() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.Key1):
		g.dir.GoToActivity("menu", nil)
	case inpututil.IsKeyJustPressed(ebiten.Key2):
		g.dir.GoToActivity("bouncer", nil)
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		g.dir.ExitActivity()
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.paused = !g.paused
		g.dir.SetPaused(g.paused)
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		g.mixer.SetAllMute(true)
	case inpututil.IsKeyJustPressed(ebiten.KeyU):
		g.mixer.SetAllMute(false)
	case inpututil.IsKeyJustPressed(ebiten.KeyF12):
		g.copyStateDump()
	}
}

// drainWatcher applies hot-reloaded descriptor files without blocking the
// frame.
func (g *Game) drainWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case path, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			data, err := os.ReadFile(path)
			if err != nil {
				g.log.Warn().Err(err).Str("file", path).Msg("reload read failed")
				continue
			}
			if err := g.reg.Reload(filepath.Base(path), data); err != nil {
				g.log.Warn().Err(err).Str("file", path).Msg("reload failed")
				continue
			}
			g.log.Info().Str("file", path).Msg("descriptor reloaded")
		case err := <-g.watcher.Errors:
			if err != nil {
				g.log.Warn().Err(err).Msg("content watch error")
			}
		default:
			return
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.stage.draw(screen, func(surface *ebiten.Image) {
		if act, ok := g.dir.CurrentActivity(); ok {
			if d, ok := act.(activity.Drawer); ok {
				d.Draw(surface)
			}
		}
	})
	g.view.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.stage.setViewport(float64(outsideWidth), float64(outsideHeight)) {
		g.dir.RequestResize()
	}
	return outsideWidth, outsideHeight
}
