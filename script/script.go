// Package script lets content modules be authored as tengo scripts. A
// script defines preload, create, start, and shutdown functions; each
// lifecycle hook dispatches into the matching function with a small host
// api for loading assets and driving the mixer.
package script

import (
	"context"
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/rs/zerolog"

	"github.com/milk9111/playkit/activity"
	"github.com/milk9111/playkit/assets"
	"github.com/milk9111/playkit/loader"
	"github.com/milk9111/playkit/sound"
)

const lifecycleDispatch = `
if __phase == "preload" {
	preload(__api)
} else if __phase == "create" {
	create(__api)
} else if __phase == "start" {
	start(__api)
} else if __phase == "shutdown" {
	shutdown(__api)
}
`

// Activity runs one tengo content script through the standard lifecycle.
type Activity struct {
	activity.Base

	name  string
	src   []byte
	cache *assets.Cache

	compiled *tengo.Compiled
}

func New(name string, src []byte, cache *assets.Cache, mixer *sound.Mixer, log zerolog.Logger) *Activity {
	a := &Activity{name: name, src: src, cache: cache}
	a.Mixer = mixer
	a.Log = log
	return a
}

// Initialize compiles the script once, with the host api bound in.
func (a *Activity) Initialize(ctx context.Context, desc activity.Descriptor, args activity.Args) error {
	if err := a.Base.Initialize(ctx, desc, args); err != nil {
		return err
	}

	source := append(append([]byte{}, a.src...), []byte(lifecycleDispatch)...)
	s := tengo.NewScript(source)
	s.SetImports(stdlib.GetModuleMap("math", "text", "rand"))
	if err := s.Add("__phase", ""); err != nil {
		return fmt.Errorf("script %s: %w", a.name, err)
	}
	if err := s.Add("__api", a.hostAPI()); err != nil {
		return fmt.Errorf("script %s: %w", a.name, err)
	}

	compiled, err := s.Compile()
	if err != nil {
		return fmt.Errorf("script %s: compile: %w", a.name, err)
	}
	a.compiled = compiled
	return nil
}

func (a *Activity) Preload(ld *loader.Loader) {
	a.Base.Preload(ld)
	if err := a.runPhase("preload"); err != nil {
		a.Log.Warn().Err(err).Str("script", a.name).Msg("script: preload phase failed")
	}
}

func (a *Activity) Create() error {
	return a.runPhase("create")
}

func (a *Activity) Start() {
	if err := a.runPhase("start"); err != nil {
		a.Log.Warn().Err(err).Str("script", a.name).Msg("script: start phase failed")
	}
}

func (a *Activity) Shutdown() {
	if err := a.runPhase("shutdown"); err != nil {
		a.Log.Warn().Err(err).Str("script", a.name).Msg("script: shutdown phase failed")
	}
	a.Base.Shutdown()
}

func (a *Activity) runPhase(phase string) error {
	if a.compiled == nil {
		return fmt.Errorf("script %s: not initialized", a.name)
	}
	if err := a.compiled.Set("__phase", phase); err != nil {
		return err
	}
	return a.compiled.Run()
}

// hostAPI is the immutable map of host functions scripts call. Asset
// loading goes through the activity's own loader; playback through the
// shared mixer.
func (a *Activity) hostAPI() tengo.Object {
	return &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"load_image": &tengo.UserFunction{Name: "load_image", Value: func(args ...tengo.Object) (tengo.Object, error) {
			key, url, err := twoStrings("load_image", args)
			if err != nil {
				return nil, err
			}
			if ld := a.Loader(); ld != nil {
				ld.LoadImage(key, url)
			}
			return tengo.UndefinedValue, nil
		}},
		"load_json": &tengo.UserFunction{Name: "load_json", Value: func(args ...tengo.Object) (tengo.Object, error) {
			key, url, err := twoStrings("load_json", args)
			if err != nil {
				return nil, err
			}
			if ld := a.Loader(); ld != nil {
				ld.LoadJSON(key, url)
			}
			return tengo.UndefinedValue, nil
		}},
		"load_audio": &tengo.UserFunction{Name: "load_audio", Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) < 2 {
				return nil, tengo.ErrWrongNumArguments
			}
			id, ok := tengo.ToString(args[0])
			if !ok {
				return nil, tengo.ErrInvalidArgumentType{Name: "id", Expected: "string"}
			}
			urls := make([]string, 0, len(args)-1)
			for _, arg := range args[1:] {
				u, ok := tengo.ToString(arg)
				if !ok {
					return nil, tengo.ErrInvalidArgumentType{Name: "url", Expected: "string"}
				}
				urls = append(urls, u)
			}
			if ld := a.Loader(); ld != nil {
				ld.LoadAudio(id, urls, 1)
			}
			return tengo.UndefinedValue, nil
		}},
		"play_music": &tengo.UserFunction{Name: "play_music", Value: func(args ...tengo.Object) (tengo.Object, error) {
			id, err := oneString("play_music", args)
			if err != nil {
				return nil, err
			}
			a.Mixer.PlayMusic(a.cache.Sound(id), true)
			return tengo.UndefinedValue, nil
		}},
		"play_sfx": &tengo.UserFunction{Name: "play_sfx", Value: func(args ...tengo.Object) (tengo.Object, error) {
			id, err := oneString("play_sfx", args)
			if err != nil {
				return nil, err
			}
			a.Mixer.PlaySfx(a.cache.Sound(id), false, false)
			return tengo.UndefinedValue, nil
		}},
		"play_vo": &tengo.UserFunction{Name: "play_vo", Value: func(args ...tengo.Object) (tengo.Object, error) {
			id, err := oneString("play_vo", args)
			if err != nil {
				return nil, err
			}
			a.Mixer.PlaySingleVO(a.cache.Sound(id))
			return tengo.UndefinedValue, nil
		}},
		"stop_music": &tengo.UserFunction{Name: "stop_music", Value: func(args ...tengo.Object) (tengo.Object, error) {
			a.Mixer.StopMusic()
			return tengo.UndefinedValue, nil
		}},
		"caption": &tengo.UserFunction{Name: "caption", Value: func(args ...tengo.Object) (tengo.Object, error) {
			text, err := oneString("caption", args)
			if err != nil {
				return nil, err
			}
			a.Caption(text)
			return tengo.UndefinedValue, nil
		}},
		"exit": &tengo.UserFunction{Name: "exit", Value: func(args ...tengo.Object) (tengo.Object, error) {
			a.Return()
			return tengo.UndefinedValue, nil
		}},
	}}
}

func oneString(name string, args []tengo.Object) (string, error) {
	if len(args) != 1 {
		return "", tengo.ErrWrongNumArguments
	}
	s, ok := tengo.ToString(args[0])
	if !ok {
		return "", tengo.ErrInvalidArgumentType{Name: name, Expected: "string"}
	}
	return s, nil
}

func twoStrings(name string, args []tengo.Object) (string, string, error) {
	if len(args) != 2 {
		return "", "", tengo.ErrWrongNumArguments
	}
	a, ok := tengo.ToString(args[0])
	if !ok {
		return "", "", tengo.ErrInvalidArgumentType{Name: name, Expected: "string"}
	}
	b, ok := tengo.ToString(args[1])
	if !ok {
		return "", "", tengo.ErrInvalidArgumentType{Name: name, Expected: "string"}
	}
	return a, b, nil
}
