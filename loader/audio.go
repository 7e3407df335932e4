package loader

import (
	"context"
	"errors"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/playkit/assets"
	"github.com/milk9111/playkit/sound"
)

// ErrInvalidRequest reports an audio load with no urls to try.
var ErrInvalidRequest = errors.New("loader: audio request has no urls")

// ErrKeyConflict reports an audio load whose id is already held by a
// non-audio asset.
var ErrKeyConflict = errors.New("loader: key already used by a non-audio asset")

// AudioEntry is one manifest row: urls ordered by format preference plus
// playback defaults. Clip is written once, when the load resolves, and a
// resolved entry is skipped by later preload passes.
type AudioEntry struct {
	ID     string   `yaml:"id"`
	Audio  []string `yaml:"audio"`
	Volume float64  `yaml:"volume"`
	Loop   bool     `yaml:"loop"`

	Clip *sound.Clip `yaml:"-"`
}

// AudioResult resolves an audio load future.
type AudioResult struct {
	Clip *sound.Clip
	Err  error
}

// ParseAudioManifest reads a YAML list of audio entries.
func ParseAudioManifest(data []byte) ([]*AudioEntry, error) {
	var entries []*AudioEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// LoadAudio queues an audio fetch and returns a one-shot future for the
// ready-to-play handle. Resolution follows this specific file's completion,
// not the batch's, since other files may still be loading. An empty url
// list fails immediately.
func (l *Loader) LoadAudio(id string, urls []string, volume float64) <-chan AudioResult {
	ch := make(chan AudioResult, 1)
	l.requestAudio(id, urls, volume, func(res AudioResult) {
		ch <- res
	})
	return ch
}

// PreloadAudioList issues one audio load per usable entry. Entries whose id
// contains an exclusion keyword are skipped; malformed entries (no url
// list) are skipped with a warning; entries with an already-resolved clip
// are left alone. Resolved clips are written back onto the entry.
func (l *Loader) PreloadAudioList(entries []*AudioEntry, exclude []string) {
	for _, e := range entries {
		if e == nil || e.Clip != nil {
			continue
		}
		if len(e.Audio) == 0 {
			l.log.Warn().Str("id", e.ID).Msg("loader: audio entry has no urls, skipping")
			continue
		}
		if excluded(e.ID, exclude) {
			continue
		}
		e := e
		l.requestAudio(e.ID, e.Audio, e.Volume, func(res AudioResult) {
			if res.Err != nil {
				l.log.Warn().Err(res.Err).Str("id", e.ID).Msg("loader: audio preload failed")
				return
			}
			res.Clip.Loop = e.Loop
			e.Clip = res.Clip
		})
	}
}

// PreloadAudioMap is PreloadAudioList over a keyed collection; map keys fill
// in missing ids.
func (l *Loader) PreloadAudioMap(entries map[string]*AudioEntry, exclude []string) {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	list := make([]*AudioEntry, 0, len(entries))
	for _, id := range ids {
		e := entries[id]
		if e != nil && e.ID == "" {
			e.ID = id
		}
		list = append(list, e)
	}
	l.PreloadAudioList(list, exclude)
}

// requestAudio resolves deliver exactly once: immediately when the sound is
// cached or the request is invalid, otherwise from the fetch goroutine
// before the batch is allowed to complete.
func (l *Loader) requestAudio(id string, urls []string, volume float64, deliver func(AudioResult)) {
	if len(urls) == 0 {
		deliver(AudioResult{Err: ErrInvalidRequest})
		return
	}

	l.mu.Lock()
	if clip := l.cache.Sound(id); clip != nil {
		l.mu.Unlock()
		deliver(AudioResult{Clip: clip})
		return
	}
	if ent, ok := l.entries[id]; ok {
		if ent.kind != KindAudio {
			l.mu.Unlock()
			l.log.Warn().Str("id", id).Str("kind", string(ent.kind)).Msg("loader: audio request collides with non-audio entry")
			deliver(AudioResult{Err: ErrKeyConflict})
			return
		}
		if ent.pending {
			l.audioSubs[id] = append(l.audioSubs[id], deliver)
		}
		l.mu.Unlock()
		return
	}
	l.entries[id] = &entry{kind: KindAudio, pending: true}
	l.audioSubs[id] = []func(AudioResult){deliver}
	l.beginLocked(1)
	l.mu.Unlock()

	go func() {
		url := pickURL(urls)
		clip, err := l.fetchAudio(id, url, volume)
		if err != nil {
			l.log.Warn().Err(err).Str("id", id).Msg("loader: audio load failed")
		}

		l.mu.Lock()
		subs := l.audioSubs[id]
		delete(l.audioSubs, id)
		if ent, ok := l.entries[id]; ok {
			ent.pending = false
			if err != nil {
				delete(l.entries, id)
			}
		}
		l.mu.Unlock()

		for _, fn := range subs {
			fn(AudioResult{Clip: clip, Err: err})
		}
		l.finish(1)
	}()
}

func (l *Loader) fetchAudio(id, url string, volume float64) (*sound.Clip, error) {
	b, err := l.fetch.Fetch(context.Background(), url)
	if err != nil {
		return nil, err
	}
	l.cache.AddAudio(id, b)
	clip, err := l.cache.DecodeSound(id, b, url, volume)
	if err != nil {
		l.cache.RemoveAudio(id)
		return nil, err
	}
	l.cache.AddSound(id, clip)
	return clip, nil
}

// pickURL honors the caller's format preference order, taking the first
// decodable format and falling back to the first url.
func pickURL(urls []string) string {
	for _, u := range urls {
		if assets.SupportedAudio(u) {
			return u
		}
	}
	return urls[0]
}

func excluded(id string, keywords []string) bool {
	lowered := strings.ToLower(id)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
