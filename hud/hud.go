// Package hud is the concrete loading view and persistent overlay: an
// ebitenui panel stack with a smoothed progress bar, faded in and out by
// the game loop so show/hide resolve on confirmed completion.
package hud

import (
	"context"
	"image/color"
	"sync"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/milk9111/playkit/activity"
	"github.com/milk9111/playkit/common"
)

const (
	fadeStep       = 1.0 / 15 // full fade in 15 frames
	progressSmooth = 0.2
)

// HUD implements the director's LoadingUI and Overlay collaborators. All
// visual state advances in Update, driven by the game loop; Show and Hide
// block until the fade they requested has finished.
type HUD struct {
	mu sync.Mutex

	ui     *ebitenui.UI
	panels map[string]*widget.Container

	visible bool
	alpha   float64
	target  float64

	showWaiters []chan struct{}
	hideWaiters []chan struct{}

	progress  float64
	displayed float64

	scale float64
}

// New builds the HUD with the given named sub-panels, hidden by default.
func New(panelNames ...string) *HUD {
	h := &HUD{
		panels: map[string]*widget.Container{},
		scale:  1,
	}

	panelImg := imageui.NewNineSliceColor(color.NRGBA{A: 200})
	goFace := ebtext.NewGoXFace(basicfont.Face7x13)
	var face ebtext.Face = goFace
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	title := widget.NewText(
		widget.TextOpts.Text("Loading...", &face, white),
		widget.TextOpts.WidgetOpts(widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionCenter})),
	)

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(8),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 16, Bottom: 16, Left: 24, Right: 24}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionCenter,
				VerticalPosition:   widget.AnchorLayoutPositionCenter,
			}),
		),
	)
	panel.AddChild(title)

	for _, name := range panelNames {
		sub := widget.NewContainer(
			widget.ContainerOpts.BackgroundImage(imageui.NewNineSliceColor(color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff})),
			widget.ContainerOpts.Layout(widget.NewRowLayout(
				widget.RowLayoutOpts.Padding(&widget.Insets{Top: 4, Bottom: 4, Left: 8, Right: 8}),
			)),
			widget.ContainerOpts.WidgetOpts(widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionCenter})),
		)
		sub.AddChild(widget.NewText(widget.TextOpts.Text(name, &face, white)))
		sub.GetWidget().Visibility = widget.Visibility_Hide
		h.panels[name] = sub
		panel.AddChild(sub)
	}

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(panel)

	h.ui = &ebitenui.UI{Container: root}
	return h
}

// Show fades the view in and returns once fully visible.
func (h *HUD) Show(ctx context.Context) error {
	h.mu.Lock()
	h.visible = true
	h.target = 1
	if h.alpha >= 1 {
		h.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	h.showWaiters = append(h.showWaiters, ch)
	h.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Hide fades the view out and returns once fully gone.
func (h *HUD) Hide(ctx context.Context) error {
	h.mu.Lock()
	h.target = 0
	if h.alpha <= 0 {
		h.visible = false
		h.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	h.hideWaiters = append(h.hideWaiters, ch)
	h.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateProgress records the latest load fraction; the bar eases toward it.
func (h *HUD) UpdateProgress(fraction float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.progress = common.Clamp01(fraction)
}

// ShowHUD applies an activity's panel-visibility configuration.
func (h *HUD) ShowHUD(cfg activity.HUDConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for name, sub := range h.panels {
		if cfg.ShowAll || cfg.Panels[name] {
			sub.GetWidget().Visibility = widget.Visibility_Show
		} else {
			sub.GetWidget().Visibility = widget.Visibility_Hide
		}
	}
}

// Resize follows the director's layout scale.
func (h *HUD) Resize(scale float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if scale > 0 {
		h.scale = scale
	}
}

// InputBlocked reports whether end-user interaction should be swallowed.
func (h *HUD) InputBlocked() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.visible || h.alpha > 0
}

// Update advances fades and the smoothed progress bar, and resolves any
// Show/Hide calls whose fade just finished.
func (h *HUD) Update() {
	h.mu.Lock()

	if h.alpha < h.target {
		h.alpha += fadeStep
		if h.alpha >= h.target {
			h.alpha = h.target
			h.fireLocked(&h.showWaiters)
		}
	} else if h.alpha > h.target {
		h.alpha -= fadeStep
		if h.alpha <= h.target {
			h.alpha = h.target
			h.visible = false
			h.fireLocked(&h.hideWaiters)
		}
	}

	h.displayed = common.Lerp(h.displayed, h.progress, progressSmooth)
	active := h.alpha > 0
	h.mu.Unlock()

	if active {
		h.ui.Update()
	}
}

// Draw renders the dimmer, widgets, and progress bar.
func (h *HUD) Draw(screen *ebiten.Image) {
	h.mu.Lock()
	alpha := h.alpha
	displayed := h.displayed
	scale := h.scale
	h.mu.Unlock()

	if alpha <= 0 {
		return
	}

	w := float32(screen.Bounds().Dx())
	hgt := float32(screen.Bounds().Dy())
	vector.FillRect(screen, 0, 0, w, hgt, color.NRGBA{A: uint8(180 * alpha)}, false)

	h.ui.Draw(screen)

	barW := w * 0.5
	barH := float32(8 * scale)
	barX := (w - barW) / 2
	barY := hgt * 0.75
	vector.FillRect(screen, barX, barY, barW, barH, color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: uint8(255 * alpha)}, false)
	vector.FillRect(screen, barX, barY, barW*float32(displayed), barH, color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: uint8(255 * alpha)}, false)
}

func (h *HUD) fireLocked(waiters *[]chan struct{}) {
	for _, ch := range *waiters {
		close(ch)
	}
	*waiters = nil
}
