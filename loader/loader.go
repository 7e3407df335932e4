package loader

import (
	"context"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/milk9111/playkit/assets"
)

// Kind classifies what a load entry holds so unload can reverse it.
type Kind string

const (
	KindJSON        Kind = "json"
	KindAtlas       Kind = "atlas"
	KindSpritesheet Kind = "spritesheet"
	KindSkeleton    Kind = "skeleton"
	KindImage       Kind = "image"
	KindAudio       Kind = "audio"
)

// entry tracks one requested asset key from request until unload. aux holds
// the keys of constituent sub-resources recorded at load time (atlas pages,
// skeleton page images) so composite unload removes everything.
type entry struct {
	kind    Kind
	aux     []string
	pending bool
}

// Loader tracks which asset keys one activity has loaded or is loading.
// One loader per activity; never shared. Requests are idempotent: a key
// that is already cached or already pending is a no-op, so double-loading
// is prevented at the call site.
type Loader struct {
	mu    sync.Mutex
	cache *assets.Cache
	fetch assets.Fetcher
	log   zerolog.Logger

	entries   map[string]*entry
	audioSubs map[string][]func(AudioResult)

	pending   bool
	inFlight  int
	total     int
	completed int
	waiters   []chan struct{}

	onProgress func(float64)
}

func New(cache *assets.Cache, fetch assets.Fetcher, log zerolog.Logger) *Loader {
	return &Loader{
		cache:     cache,
		fetch:     fetch,
		log:       log,
		entries:   map[string]*entry{},
		audioSubs: map[string][]func(AudioResult){},
	}
}

// SetProgressFunc installs the per-file progress callback. It fires with
// the drained fraction after every file, always before the batch itself
// completes.
func (l *Loader) SetProgressFunc(fn func(fraction float64)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onProgress = fn
}

// Pending reports whether at least one fetch has been queued since the last
// full drain.
func (l *Loader) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// Has reports whether the loader holds an entry for key.
func (l *Loader) Has(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[key]
	return ok
}

// Keys lists every key this loader currently tracks.
func (l *Loader) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	return keys
}

// LoadImage queues a texture fetch unless the key is already cached or
// pending.
func (l *Loader) LoadImage(key, url string) {
	l.mu.Lock()
	if _, ok := l.entries[key]; ok || l.cache.HasImage(key) {
		l.mu.Unlock()
		return
	}
	l.entries[key] = &entry{kind: KindImage, pending: true}
	l.beginLocked(1)
	l.mu.Unlock()

	go func() {
		ok := l.fetchImage(key, url)
		l.settle(key, ok)
		l.finish(1)
	}()
}

// LoadJSON queues a JSON fetch unless the key is already cached or pending.
func (l *Loader) LoadJSON(key, url string) {
	l.mu.Lock()
	if _, ok := l.entries[key]; ok || l.cache.HasJSON(key) {
		l.mu.Unlock()
		return
	}
	l.entries[key] = &entry{kind: KindJSON, pending: true}
	l.beginLocked(1)
	l.mu.Unlock()

	go func() {
		ok := l.fetchJSON(key, url)
		l.settle(key, ok)
		l.finish(1)
	}()
}

// LoadAtlas queues an atlas: descriptor JSON under key plus its page image
// as a recorded sub-resource.
func (l *Loader) LoadAtlas(key, jsonURL, imageURL string) {
	l.loadComposite(key, KindAtlas, jsonURL, imageURL)
}

// LoadSpritesheet queues a spritesheet: frame JSON under key plus the sheet
// image as a recorded sub-resource.
func (l *Loader) LoadSpritesheet(key, jsonURL, imageURL string) {
	l.loadComposite(key, KindSpritesheet, jsonURL, imageURL)
}

func (l *Loader) loadComposite(key string, kind Kind, jsonURL, imageURL string) {
	imageKey := key + "#image"

	l.mu.Lock()
	if _, ok := l.entries[key]; ok || l.cache.HasJSON(key) {
		l.mu.Unlock()
		return
	}
	l.entries[key] = &entry{kind: kind, aux: []string{imageKey}, pending: true}
	l.beginLocked(2)
	l.mu.Unlock()

	go func() {
		ok := l.fetchJSON(key, jsonURL)
		l.finish(1)
		if !l.fetchImage(imageKey, imageURL) {
			ok = false
		}
		l.settle(key, ok)
		l.finish(1)
	}()
}

// LoadSkeleton queues a skeletal animation: skeleton data, atlas text, and
// every page image, all recorded on the entry for composite unload. pages
// maps page key to url.
func (l *Loader) LoadSkeleton(key, skeletonURL, atlasURL string, pages map[string]string) {
	l.mu.Lock()
	if _, ok := l.entries[key]; ok || l.cache.HasAnimation(key) {
		l.mu.Unlock()
		return
	}
	aux := make([]string, 0, len(pages))
	for pageKey := range pages {
		aux = append(aux, pageKey)
	}
	l.entries[key] = &entry{kind: KindSkeleton, aux: aux, pending: true}
	l.beginLocked(2 + len(pages))
	l.mu.Unlock()

	go func() {
		ok := true
		anim := &assets.Animation{}

		if b, err := l.fetch.Fetch(context.Background(), skeletonURL); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("loader: skeleton fetch failed")
			ok = false
		} else {
			anim.Skeleton = b
		}
		l.finish(1)

		if b, err := l.fetch.Fetch(context.Background(), atlasURL); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("loader: atlas fetch failed")
			ok = false
		} else {
			anim.Atlas = b
		}
		l.finish(1)

		for pageKey, url := range pages {
			if l.fetchImage(pageKey, url) {
				anim.Pages = append(anim.Pages, pageKey)
			} else {
				ok = false
			}
			l.finish(1)
		}

		if ok {
			l.cache.AddAnimation(key, anim)
		}
		l.settle(key, ok)
	}()
}

// Load waits for every queued fetch to drain. It returns immediately when
// nothing is pending; otherwise it returns once the batch completes, after
// a scheduling yield so callers observe fully settled caches.
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.inFlight == 0 {
		l.pending = false
		l.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	l.waiters = append(l.waiters, ch)
	l.mu.Unlock()

	select {
	case <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}
	runtime.Gosched()
	return nil
}

// Unload reverses loading for the given keys by kind, including every
// recorded sub-resource of composite kinds. Unknown keys are ignored.
func (l *Loader) Unload(keys ...string) {
	for _, key := range keys {
		l.mu.Lock()
		ent, ok := l.entries[key]
		if !ok {
			l.mu.Unlock()
			continue
		}
		delete(l.entries, key)
		l.mu.Unlock()

		switch ent.kind {
		case KindImage:
			l.cache.RemoveImage(key)
		case KindJSON:
			l.cache.RemoveJSON(key)
		case KindAtlas, KindSpritesheet:
			l.cache.RemoveJSON(key)
			for _, sub := range ent.aux {
				l.cache.RemoveImage(sub)
			}
		case KindSkeleton:
			l.cache.RemoveAnimation(key)
			for _, sub := range ent.aux {
				l.cache.RemoveImage(sub)
			}
		case KindAudio:
			l.cache.RemoveSound(key)
			l.cache.RemoveAudio(key)
		}
	}
}

// UnloadAll unloads every key this loader has ever loaded.
func (l *Loader) UnloadAll() {
	l.Unload(l.Keys()...)
}

func (l *Loader) fetchImage(key, url string) bool {
	b, err := l.fetch.Fetch(context.Background(), url)
	if err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("loader: image fetch failed")
		return false
	}
	img, err := assets.DecodeImage(b)
	if err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("loader: image decode failed")
		return false
	}
	l.cache.AddImage(key, img)
	return true
}

func (l *Loader) fetchJSON(key, url string) bool {
	b, err := l.fetch.Fetch(context.Background(), url)
	if err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("loader: json fetch failed")
		return false
	}
	l.cache.AddJSON(key, b)
	return true
}

// settle finalizes an entry after its fetches ran. A failed entry is
// dropped so a later request retries instead of mapping to nothing.
func (l *Loader) settle(key string, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ent, found := l.entries[key]
	if !found {
		return
	}
	ent.pending = false
	if !ok {
		delete(l.entries, key)
	}
}

func (l *Loader) beginLocked(n int) {
	l.pending = true
	l.inFlight += n
	l.total += n
}

// finish retires n fetches: progress first, then, on full drain, the batch
// waiters. The progress callback runs under the mutex so ticks arrive in
// fraction order and every tick for a batch lands before its completion.
func (l *Loader) finish(n int) {
	l.mu.Lock()
	l.completed += n
	l.inFlight -= n

	var fraction float64
	if l.total > 0 {
		fraction = float64(l.completed) / float64(l.total)
	}
	if l.onProgress != nil {
		l.onProgress(fraction)
	}

	var drained []chan struct{}
	if l.inFlight == 0 {
		drained = l.waiters
		l.waiters = nil
		l.total = 0
		l.completed = 0
		l.pending = false
	}
	l.mu.Unlock()

	for _, ch := range drained {
		close(ch)
	}
}
