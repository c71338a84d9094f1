package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EngineCfg carries the resolution-engine tunables. Zero values are
// replaced with the shipped defaults on load.
type EngineCfg struct {
	CandidateLimit    int     `yaml:"candidate_limit" json:"candidate_limit"`
	ProfileTTLSeconds int     `yaml:"profile_ttl_seconds" json:"profile_ttl_seconds"`
	SuggestLimit      int     `yaml:"suggest_limit" json:"suggest_limit"`
	SuggestThreshold  float64 `yaml:"suggest_threshold" json:"suggest_threshold"`
}

// HistoryCfg names the persistence keys the history namespaces live
// under.
type HistoryCfg struct {
	FavoritesKey string `yaml:"favorites_key" json:"favorites_key"`
	RecentsKey   string `yaml:"recents_key" json:"recents_key"`
}

// SelectorCfg is the full engine configuration file.
type SelectorCfg struct {
	Engine  EngineCfg  `yaml:"engine" json:"engine"`
	History HistoryCfg `yaml:"history" json:"history"`
}

var C SelectorCfg

// Defaults returns the configuration the engine ships with.
func Defaults() SelectorCfg {
	return SelectorCfg{
		Engine: EngineCfg{
			CandidateLimit:    12000,
			ProfileTTLSeconds: 300,
			SuggestLimit:      5,
			SuggestThreshold:  0.6,
		},
		History: HistoryCfg{
			FavoritesKey: "history:favorites",
			RecentsKey:   "history:recents",
		},
	}
}

// Load fills C from the yaml file at path, keeping defaults for absent
// fields. C holds the defaults even when the read fails, so callers may
// log and continue.
func Load(path string) error {
	C = Defaults()

	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, &C); err != nil {
		return err
	}

	// ENV overrides
	if v := os.Getenv("CANDIDATE_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			C.Engine.CandidateLimit = limit
		}
	}
	if v := os.Getenv("PROFILE_TTL_SECONDS"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil && ttl > 0 {
			C.Engine.ProfileTTLSeconds = ttl
		}
	}

	C = C.withDefaults()
	return nil
}

func (c SelectorCfg) withDefaults() SelectorCfg {
	d := Defaults()
	if c.Engine.CandidateLimit <= 0 {
		c.Engine.CandidateLimit = d.Engine.CandidateLimit
	}
	if c.Engine.ProfileTTLSeconds <= 0 {
		c.Engine.ProfileTTLSeconds = d.Engine.ProfileTTLSeconds
	}
	if c.Engine.SuggestLimit <= 0 {
		c.Engine.SuggestLimit = d.Engine.SuggestLimit
	}
	if c.Engine.SuggestThreshold <= 0 {
		c.Engine.SuggestThreshold = d.Engine.SuggestThreshold
	}
	if c.History.FavoritesKey == "" {
		c.History.FavoritesKey = d.History.FavoritesKey
	}
	if c.History.RecentsKey == "" {
		c.History.RecentsKey = d.History.RecentsKey
	}
	return c
}

// ProfileTTL returns the profile cache time-to-live as a duration.
func ProfileTTL() time.Duration {
	ttl := C.Engine.ProfileTTLSeconds
	if ttl <= 0 {
		ttl = Defaults().Engine.ProfileTTLSeconds
	}
	return time.Duration(ttl) * time.Second
}

// FetchTimeout bounds one profile fetch round-trip.
func FetchTimeout() time.Duration { return 10 * time.Second }
