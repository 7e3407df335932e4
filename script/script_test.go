package script

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/milk9111/playkit/assets"
	"github.com/milk9111/playkit/loader"
	"github.com/milk9111/playkit/sound"
)

type scriptPlayer struct{ playing bool }

func (p *scriptPlayer) Play()             { p.playing = true }
func (p *scriptPlayer) Pause()            { p.playing = false }
func (p *scriptPlayer) Rewind() error     { return nil }
func (p *scriptPlayer) SetVolume(float64) {}
func (p *scriptPlayer) IsPlaying() bool   { return p.playing }

type scriptFetcher map[string][]byte

func (m scriptFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	if b, ok := m[url]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("missing %s", url)
}

const demoScript = `
preload := func(api) {
	api.load_json("cfg", "cfg.json")
	api.load_audio("pop", "pop.wav")
}
create := func(api) {
	api.caption("created")
}
start := func(api) {
	api.play_music("pop")
	api.caption("started")
}
shutdown := func(api) {
	api.stop_music()
	api.exit()
}
`

func newScriptActivity(t *testing.T, src string, data map[string][]byte) (*Activity, *assets.Cache, *sound.Mixer, *loader.Loader) {
	t.Helper()

	cache := assets.NewCache(nil)
	cache.DecodeSound = func(id string, _ []byte, _ string, volume float64) (*sound.Clip, error) {
		return &sound.Clip{ID: id, Volume: volume, Player: &scriptPlayer{}}, nil
	}
	mixer := sound.NewMixer(zerolog.Nop())
	ld := loader.New(cache, scriptFetcher(data), zerolog.Nop())

	a := New("test", []byte(src), cache, mixer, zerolog.Nop())
	return a, cache, mixer, ld
}

func TestScriptLifecycle(t *testing.T) {
	a, cache, mixer, ld := newScriptActivity(t, demoScript, map[string][]byte{
		"cfg.json": []byte(`{}`),
		"pop.wav":  {0x01},
	})

	if err := a.Initialize(context.Background(), a.Desc, nil); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	var captions []string
	a.SetCaptionSink(func(text string) { captions = append(captions, text) })
	var returned bool
	a.SetReturnCallback(func() { returned = true })

	a.Preload(ld)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ld.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if !cache.HasJSON("cfg") || !cache.HasSound("pop") {
		t.Fatalf("preload phase should queue asset loads")
	}

	if err := a.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}
	a.Start()

	if mixer.MusicCount() != 1 {
		t.Fatalf("start phase should play music, got %d clips", mixer.MusicCount())
	}
	wantCaptions := []string{"created", "started"}
	if len(captions) != 2 || captions[0] != wantCaptions[0] || captions[1] != wantCaptions[1] {
		t.Fatalf("caption order mismatch: got %v want %v", captions, wantCaptions)
	}

	a.Shutdown()

	if mixer.MusicCount() != 0 {
		t.Fatalf("shutdown phase should stop music")
	}
	if !returned {
		t.Fatalf("exit should invoke the return callback")
	}
	if !cache.Empty() {
		t.Fatalf("base shutdown should unload script assets")
	}
}

func TestScriptCompileError(t *testing.T) {
	a, _, _, _ := newScriptActivity(t, "preload := func(api {", nil)
	if err := a.Initialize(context.Background(), a.Desc, nil); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestScriptPhaseBeforeInitialize(t *testing.T) {
	a, _, _, _ := newScriptActivity(t, demoScript, nil)
	if err := a.Create(); err == nil {
		t.Fatalf("phases must fail before initialize compiles the script")
	}
}

func TestScriptRuntimeErrorSurfacesFromCreate(t *testing.T) {
	src := `
preload := func(api) {}
create := func(api) {
	api.caption()
}
start := func(api) {}
shutdown := func(api) {}
`
	a, _, _, _ := newScriptActivity(t, src, nil)
	if err := a.Initialize(context.Background(), a.Desc, nil); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := a.Create(); err == nil {
		t.Fatalf("bad host call should surface as a create error")
	}
}
