package main

import (
	"image/color"
	"math/rand"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/rs/zerolog"

	"github.com/milk9111/playkit/activity"
	"github.com/milk9111/playkit/assets"
	"github.com/milk9111/playkit/loader"
	"github.com/milk9111/playkit/sound"
)

const (
	ballCount  = 12
	ballRadius = 24.0
)

// Bouncer is a small physics playground: a box of elastic balls stepped by
// chipmunk. It exists to exercise a full activity lifecycle with real
// content.
type Bouncer struct {
	activity.Base

	cache *assets.Cache

	space  *cp.Space
	balls  []*cp.Body
	paused bool
}

func newBouncer(cache *assets.Cache, mixer *sound.Mixer, log zerolog.Logger) *Bouncer {
	b := &Bouncer{cache: cache}
	b.Mixer = mixer
	b.Log = log
	return b
}

func (b *Bouncer) Preload(ld *loader.Loader) {
	b.Base.Preload(ld)
	ld.PreloadAudioList(b.Desc.Audio, nil)
}

func (b *Bouncer) Create() error {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{X: 0, Y: 900})

	walls := []struct{ a, b cp.Vector }{
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: designWidth, Y: 0}},
		{a: cp.Vector{X: 0, Y: designHeight}, b: cp.Vector{X: designWidth, Y: designHeight}},
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: 0, Y: designHeight}},
		{a: cp.Vector{X: designWidth, Y: 0}, b: cp.Vector{X: designWidth, Y: designHeight}},
	}
	for _, wall := range walls {
		seg := cp.NewSegment(space.StaticBody, wall.a, wall.b, 4)
		seg.SetElasticity(0.95)
		space.AddShape(seg)
	}

	for i := 0; i < ballCount; i++ {
		mass := 1.0
		moment := cp.MomentForCircle(mass, 0, ballRadius, cp.Vector{})
		body := cp.NewBody(mass, moment)
		body.SetPosition(cp.Vector{
			X: ballRadius + rand.Float64()*(designWidth-2*ballRadius),
			Y: ballRadius + rand.Float64()*designHeight/3,
		})
		shape := cp.NewCircle(body, ballRadius, cp.Vector{})
		shape.SetElasticity(0.9)
		shape.SetFriction(0.2)
		space.AddBody(body)
		space.AddShape(shape)
		b.balls = append(b.balls, body)
	}

	b.space = space
	return nil
}

func (b *Bouncer) Start() {
	for _, e := range b.Desc.Audio {
		if e != nil && e.ID == "music" && e.Clip != nil {
			b.Mixer.PlayMusic(e.Clip, true)
			return
		}
	}
}

func (b *Bouncer) SetPaused(paused bool) {
	b.paused = paused
}

func (b *Bouncer) Update() error {
	if b.paused || b.space == nil {
		return nil
	}
	b.space.Step(1.0 / 60)
	return nil
}

func (b *Bouncer) Draw(screen *ebiten.Image) {
	for i, ball := range b.balls {
		pos := ball.Position()
		hue := uint8(40 + (i*17)%180)
		vector.FillCircle(screen, float32(pos.X), float32(pos.Y), ballRadius, color.NRGBA{R: hue, G: 0x99, B: 0xdd, A: 0xff}, true)
	}
}
