package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/rs/zerolog"

	"github.com/milk9111/playkit/activity"
	"github.com/milk9111/playkit/sound"
)

// Menu is the landing activity: keyboard hints plus a slow caption pulse
// so there is a timed effect for shutdown to cancel.
type Menu struct {
	activity.Base

	frames int
	pulse  bool
	active bool
}

func newMenu(mixer *sound.Mixer, log zerolog.Logger) *Menu {
	m := &Menu{}
	m.Mixer = mixer
	m.Log = log
	return m
}

func (m *Menu) Start() {
	m.active = true
	m.TrackEffect(func() { m.active = false })
	m.Caption("press 2 for the bouncer")
}

func (m *Menu) Update() error {
	if !m.active {
		return nil
	}
	m.frames++
	if m.frames%90 == 0 {
		m.pulse = !m.pulse
	}
	return nil
}

func (m *Menu) Draw(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, "playkit demo", 40, 40)
	ebitenutil.DebugPrintAt(screen, "1: menu    2: bouncer    esc: exit", 40, 70)
	ebitenutil.DebugPrintAt(screen, "p: pause   m/u: mute/unmute   f12: copy state", 40, 90)
	if m.pulse {
		ebitenutil.DebugPrintAt(screen, ">", 24, 70)
	}
}
