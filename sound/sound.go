package sound

// Player is the playback surface the mixer drives. *audio.Player from
// ebiten satisfies it directly.
type Player interface {
	Play()
	Pause()
	Rewind() error
	SetVolume(volume float64)
	IsPlaying() bool
}

// Clip is a ready-to-play sound handle. The loader produces clips with the
// player already decoded; the mixer only starts, stops, and re-volumes them.
type Clip struct {
	ID     string
	Volume float64
	Loop   bool
	Player Player
}

func (c *Clip) volume() float64 {
	if c == nil || c.Volume <= 0 {
		return 1
	}
	if c.Volume > 1 {
		return 1
	}
	return c.Volume
}
