package main

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/milk9111/playkit/director"
)

// stage owns the design-space render surface. Activities draw in design
// coordinates; the stage blits the surface to the window with the uniform
// scale and centering offsets the director computed.
type stage struct {
	mu      sync.Mutex
	surface *ebiten.Image
	layout  director.Layout
	vw, vh  float64
	raised  bool
}

func newStage(designWidth, designHeight int) *stage {
	return &stage{
		surface: ebiten.NewImage(designWidth, designHeight),
		layout:  director.Layout{Scale: 1},
	}
}

func (s *stage) ApplyLayout(l director.Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout = l
}

func (s *stage) RaiseActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raised = true
}

func (s *stage) SetTitle(title string) {
	ebiten.SetWindowTitle(title)
}

func (s *stage) ViewportSize() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vw, s.vh
}

// setViewport records the live window size, reporting whether it changed.
func (s *stage) setViewport(w, h float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vw == w && s.vh == h {
		return false
	}
	s.vw = w
	s.vh = h
	return true
}

func (s *stage) draw(screen *ebiten.Image, drawActivity func(surface *ebiten.Image)) {
	s.mu.Lock()
	layout := s.layout
	s.mu.Unlock()

	s.surface.Clear()
	drawActivity(s.surface)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(layout.Scale, layout.Scale)
	op.GeoM.Translate(layout.OffsetX, layout.OffsetY)
	screen.DrawImage(s.surface, op)
}
