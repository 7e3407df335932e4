package assets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/milk9111/playkit/sound"
)

// Animation is a cached skeletal-animation bundle: the skeleton data, its
// atlas description, and the keys of the page images it referenced at load
// time. The page keys are what symmetric unload walks.
type Animation struct {
	Skeleton []byte
	Atlas    []byte
	Pages    []string
}

// Cache is the engine-level asset store shared by every loader instance.
// It replaces ad-hoc package registries with one explicitly constructed
// object: images, raw JSON, skeletal animations, raw audio bytes, and the
// decoded sound-instance registry each get their own keyed table.
type Cache struct {
	mu         sync.RWMutex
	images     map[string]*ebiten.Image
	jsonData   map[string][]byte
	animations map[string]*Animation
	audioData  map[string][]byte
	sounds     map[string]*sound.Clip

	// DecodeSound builds a ready-to-play clip from fetched bytes. The
	// default decodes wav/ogg/mp3 through the audio context; tests swap in
	// a stub so no audio device is needed.
	DecodeSound func(id string, data []byte, url string, volume float64) (*sound.Clip, error)
}

// NewCache creates an empty cache. actx may be nil when audio decoding is
// never exercised (tests, headless tools).
func NewCache(actx *audio.Context) *Cache {
	c := &Cache{
		images:     map[string]*ebiten.Image{},
		jsonData:   map[string][]byte{},
		animations: map[string]*Animation{},
		audioData:  map[string][]byte{},
		sounds:     map[string]*sound.Clip{},
	}
	c.DecodeSound = func(id string, data []byte, url string, volume float64) (*sound.Clip, error) {
		if actx == nil {
			return nil, fmt.Errorf("assets: no audio context for %q", id)
		}
		player, err := decodePlayer(actx, data, url)
		if err != nil {
			return nil, err
		}
		return &sound.Clip{ID: id, Volume: volume, Player: player}, nil
	}
	return c
}

// DecodeImage decodes fetched bytes into an ebiten image.
func DecodeImage(data []byte) (*ebiten.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return ebiten.NewImageFromImage(img), nil
}

func (c *Cache) HasImage(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.images[key]
	return ok
}

func (c *Cache) Image(key string) *ebiten.Image {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.images[key]
}

func (c *Cache) AddImage(key string, img *ebiten.Image) {
	if key == "" || img == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[key] = img
}

func (c *Cache) RemoveImage(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.images, key)
}

func (c *Cache) HasJSON(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.jsonData[key]
	return ok
}

func (c *Cache) JSON(key string) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jsonData[key]
}

func (c *Cache) AddJSON(key string, data []byte) {
	if key == "" || data == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jsonData[key] = data
}

func (c *Cache) RemoveJSON(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.jsonData, key)
}

func (c *Cache) HasAnimation(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.animations[key]
	return ok
}

func (c *Cache) Animation(key string) *Animation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.animations[key]
}

func (c *Cache) AddAnimation(key string, anim *Animation) {
	if key == "" || anim == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.animations[key] = anim
}

func (c *Cache) RemoveAnimation(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.animations, key)
}

func (c *Cache) HasAudio(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.audioData[key]
	return ok
}

func (c *Cache) AddAudio(key string, data []byte) {
	if key == "" || data == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audioData[key] = data
}

func (c *Cache) RemoveAudio(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.audioData, key)
}

func (c *Cache) HasSound(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sounds[key]
	return ok
}

func (c *Cache) Sound(key string) *sound.Clip {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sounds[key]
}

func (c *Cache) AddSound(key string, clip *sound.Clip) {
	if key == "" || clip == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sounds[key] = clip
}

func (c *Cache) RemoveSound(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sounds, key)
}

// Empty reports whether every table is empty. Used to verify symmetric
// unload.
func (c *Cache) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images) == 0 && len(c.jsonData) == 0 && len(c.animations) == 0 &&
		len(c.audioData) == 0 && len(c.sounds) == 0
}
