// Package config handles loading and saving animation runtime settings.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/highlands/pkg/anim"
)

// Config holds all runtime settings.
type Config struct {
	Animation AnimationConfig `yaml:"animation"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Data      DataConfig      `yaml:"data"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AnimationConfig holds clip defaults applied at import and play time.
type AnimationConfig struct {
	DefaultSpeed  float32       `yaml:"default_speed"`
	Repeat        bool          `yaml:"repeat"`
	BlendDuration time.Duration `yaml:"blend_duration"` // Cross-fade length; 0 switches clips instantly
	BlendEase     string        `yaml:"blend_ease"`
}

// PlaybackConfig holds world update settings.
type PlaybackConfig struct {
	FPS     int `yaml:"fps"`
	Workers int `yaml:"workers"` // Parallel node updates; 0 means GOMAXPROCS
}

// DataConfig holds rig file locations.
type DataConfig struct {
	RigPaths []string `yaml:"rig_paths"`
	Watch    bool     `yaml:"watch"` // Reload rigs when their files change
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Animation: AnimationConfig{
			DefaultSpeed:  1,
			Repeat:        true,
			BlendDuration: 200 * time.Millisecond,
			BlendEase:     "in_out_quad",
		},
		Playback: PlaybackConfig{
			FPS:     60,
			Workers: 0,
		},
		Data: DataConfig{
			RigPaths: []string{"rigs"},
			Watch:    false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings that cannot drive playback.
func (c *Config) Validate() error {
	var errs []error
	if c.Animation.DefaultSpeed < 0 {
		errs = append(errs, fmt.Errorf("animation.default_speed must not be negative, got %g", c.Animation.DefaultSpeed))
	}
	if c.Animation.BlendDuration < 0 {
		errs = append(errs, fmt.Errorf("animation.blend_duration must not be negative, got %s", c.Animation.BlendDuration))
	}
	if _, ok := anim.EaseByName(c.Animation.BlendEase); !ok {
		errs = append(errs, fmt.Errorf("animation.blend_ease: unknown easing %q", c.Animation.BlendEase))
	}
	if c.Playback.FPS <= 0 {
		errs = append(errs, fmt.Errorf("playback.fps must be positive, got %d", c.Playback.FPS))
	}
	if c.Playback.Workers < 0 {
		errs = append(errs, fmt.Errorf("playback.workers must not be negative, got %d", c.Playback.Workers))
	}
	return errors.Join(errs...)
}

// FrameTime returns the fixed tick length for the configured FPS.
func (c *Config) FrameTime() time.Duration {
	if c.Playback.FPS <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.Playback.FPS)
}
