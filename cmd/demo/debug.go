package main

import (
	"fmt"
	"strings"
	"sync"

	"golang.design/x/clipboard"
)

var clipboardInit = sync.OnceValue(func() error {
	return clipboard.Init()
})

// copyStateDump puts a snapshot of the lifecycle state on the clipboard,
// for pasting into bug reports.
func (g *Game) copyStateDump() {
	if err := clipboardInit(); err != nil {
		g.log.Warn().Err(err).Msg("clipboard unavailable")
		return
	}

	var sb strings.Builder
	sb.WriteString("playkit state\n")
	fmt.Fprintf(&sb, "state: %s\n", g.dir.State())
	fmt.Fprintf(&sb, "in flight: %v\n", g.dir.InFlight())
	if id, ok := g.dir.Current(); ok {
		fmt.Fprintf(&sb, "activity: %s\n", id)
	} else {
		sb.WriteString("activity: none\n")
	}
	fmt.Fprintf(&sb, "paused: %v\n", g.paused)
	fmt.Fprintf(&sb, "music clips: %d\n", g.mixer.MusicCount())
	fmt.Fprintf(&sb, "sfx clips: %d\n", g.mixer.SfxCount())
	if vo := g.mixer.VoiceID(); vo != "" {
		fmt.Fprintf(&sb, "voice: %s\n", vo)
	}

	clipboard.Write(clipboard.FmtText, []byte(sb.String()))
	g.log.Info().Msg("state copied to clipboard")
}
