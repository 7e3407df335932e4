package activity

import "github.com/milk9111/playkit/loader"

// HUDConfig selects which named HUD sub-panels the loading view shows for
// an activity. ShowAll overrides the panel map.
type HUDConfig struct {
	ShowAll bool            `yaml:"show_all"`
	Panels  map[string]bool `yaml:"panels"`
}

// Descriptor is an activity's static configuration. The core reads only
// Title and HUD; everything else is content the activity interprets
// itself.
type Descriptor struct {
	Name   string               `yaml:"name"`
	Title  string               `yaml:"title"`
	HUD    *HUDConfig           `yaml:"hud"`
	Script string               `yaml:"script"`
	Audio  []*loader.AudioEntry `yaml:"audio"`
}
