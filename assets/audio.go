package assets

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// decodePlayer turns raw audio bytes into a player, choosing the decoder by
// the url's extension.
func decodePlayer(actx *audio.Context, data []byte, url string) (*audio.Player, error) {
	reader := bytes.NewReader(data)
	clean := strings.ToLower(url)

	switch {
	case strings.HasSuffix(clean, ".wav"):
		stream, err := wav.DecodeWithSampleRate(actx.SampleRate(), reader)
		if err != nil {
			return nil, fmt.Errorf("decode wav %q: %w", url, err)
		}
		return actx.NewPlayer(stream)
	case strings.HasSuffix(clean, ".ogg"):
		stream, err := vorbis.DecodeWithSampleRate(actx.SampleRate(), reader)
		if err != nil {
			return nil, fmt.Errorf("decode ogg %q: %w", url, err)
		}
		return actx.NewPlayer(stream)
	case strings.HasSuffix(clean, ".mp3"):
		stream, err := mp3.DecodeWithSampleRate(actx.SampleRate(), reader)
		if err != nil {
			return nil, fmt.Errorf("decode mp3 %q: %w", url, err)
		}
		return actx.NewPlayer(stream)
	}
	return nil, fmt.Errorf("unsupported audio format %q", url)
}

// SupportedAudio reports whether the url names a format we can decode.
func SupportedAudio(url string) bool {
	clean := strings.ToLower(url)
	return strings.HasSuffix(clean, ".wav") ||
		strings.HasSuffix(clean, ".ogg") ||
		strings.HasSuffix(clean, ".mp3")
}
