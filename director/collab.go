package director

import (
	"context"

	"github.com/milk9111/playkit/activity"
)

// LoadingUI is the externally supplied loading view. Show and Hide return
// once the visual change has completed, not merely been requested; end-user
// interaction stays disabled while the view is up.
type LoadingUI interface {
	Show(ctx context.Context) error
	Hide(ctx context.Context) error
	UpdateProgress(fraction float64)
	ShowHUD(cfg activity.HUDConfig)
}

// Overlay is the persistent overlay UI that survives transitions and
// follows the layout scale.
type Overlay interface {
	Resize(scale float64)
}

// NavState receives navigation-state updates on successful activation
// (history/url handling lives behind it).
type NavState interface {
	ActivityChanged(id string)
}

// Focus is the input-focus subsystem. Reset empties the tab order to the
// baseline, ClearContexts drops keyboard focus contexts, and
// RestoreDefaultOrder reinstates the default ordering for a new activity.
type Focus interface {
	Reset()
	ClearContexts()
	RestoreDefaultOrder()
}

// Layout is one resolved layout pass: a single uniform scale plus the
// translation that keeps the design-space rect centered in the viewport.
type Layout struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// Stage is the render-surface collaborator: it applies layout to the
// surface and accessibility overlay, restacks the live activity above the
// persistent overlay, and owns the window chrome.
type Stage interface {
	ApplyLayout(l Layout)
	RaiseActivity()
	SetTitle(title string)
	ViewportSize() (w, h float64)
}
