package config

import "sort"

var Presets = map[string]map[string]*Config{
	"StandardMap": {
		"integrable": {
			Map: "StandardMap", Steps: 1000,
			Constants: map[string]float64{"K": 0},
			Initial:   InitialConfig{Q: 0.5, P: 0.3, Count: 12, SpreadP: 5.5},
		},
		"islands": {
			Map: "StandardMap", Steps: 1500,
			Constants: map[string]float64{"K": 0.97},
			Initial:   InitialConfig{Q: 3.1, P: 0.2, Count: 16, SpreadP: 5.8},
		},
		"chaos": {
			Map: "StandardMap", Steps: 5000,
			Constants: map[string]float64{"K": 5},
			Initial:   InitialConfig{Q: 0.5, P: 0.5, Count: 1},
		},
	},
	"AdjustedStandardMap": {
		"symmetric": {
			Map: "AdjustedStandardMap", Steps: 1000,
			Constants: map[string]float64{"K": 1, "L": 1},
			Initial:   InitialConfig{Q: 0.1, P: 0.1, Count: 10, SpreadQ: 3, SpreadP: 3},
		},
		"weak": {
			Map: "AdjustedStandardMap", Steps: 1000,
			Constants: map[string]float64{"K": 0.3, "L": 0.3},
			Initial:   InitialConfig{Q: 0.2, P: 3.1, Count: 10, SpreadQ: 5.8},
		},
	},
	"ArnoldCatMap": {
		"single": {
			Map: "ArnoldCatMap", Steps: 2000,
			Initial: InitialConfig{Q: 0.1234, P: 0.5678, Count: 1},
		},
		"rational": {
			Map: "ArnoldCatMap", Steps: 50,
			Initial: InitialConfig{Q: 0.2, P: 0.4, Count: 1},
		},
	},
	"HarperMap": {
		"harper": {
			Map: "HarperMap", Steps: 1000,
			Constants: map[string]float64{"K": 0.5, "L": 0.5},
			Initial:   InitialConfig{Q: 0.3, P: 0.3, Count: 12, SpreadQ: 5.5, SpreadP: 2},
		},
		"strong": {
			Map: "HarperMap", Steps: 2000,
			Constants: map[string]float64{"K": 2, "L": 2},
			Initial:   InitialConfig{Q: 1, P: 1, Count: 4, SpreadQ: 2},
		},
	},
}

func GetPreset(mapName, preset string) *Config {
	mapPresets, ok := Presets[mapName]
	if !ok {
		return nil
	}
	cfg, ok := mapPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(mapName string) []string {
	mapPresets, ok := Presets[mapName]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(mapPresets))
	for name := range mapPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
