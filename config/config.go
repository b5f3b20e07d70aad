package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Defaults mirror a 30 fps, medium-quality capture in one-minute segments.
const (
	DefaultSegmentSeconds = 60
	DefaultFrameRate      = 30
	DefaultQuality        = "medium"
	DefaultScreenIndex    = 1
	DefaultAudioDevice    = "BlackHole 2ch" // macOS loopback device; Linux uses "default" (PulseAudio)
	DefaultS3Prefix       = "recordings"
	DefaultGeminiModel    = "gemini-2.0-flash"
)

type Config struct {
	OutputDir      string
	SegmentSeconds int
	FrameRate      int
	Quality        string // low | medium | high
	AudioDevice    string
	ScreenIndex    int
	Accumulate     bool

	GeminiAPIKey string
	GeminiModel  string

	S3Bucket   string
	S3Region   string
	S3Prefix   string
	AWSProfile string
}

type fileConfig struct {
	OutputDir      string `toml:"output_dir"`
	SegmentSeconds int    `toml:"segment_seconds"`
	FrameRate      int    `toml:"frame_rate"`
	Quality        string `toml:"quality"`
	AudioDevice    string `toml:"audio_device"`
	ScreenIndex    *int   `toml:"screen_index"`
	Accumulate     *bool  `toml:"accumulate"`
	GeminiAPIKey   string `toml:"gemini_api_key"`
	GeminiModel    string `toml:"gemini_model"`
	S3Bucket       string `toml:"s3_bucket"`
	S3Region       string `toml:"s3_region"`
	S3Prefix       string `toml:"s3_prefix"`
	AWSProfile     string `toml:"aws_profile"`
}

func Load() (*Config, error) {
	cfg := &Config{
		OutputDir:      defaultOutputDir(),
		SegmentSeconds: DefaultSegmentSeconds,
		FrameRate:      DefaultFrameRate,
		Quality:        DefaultQuality,
		AudioDevice:    DefaultAudioDevice,
		ScreenIndex:    DefaultScreenIndex,
		S3Region:       "us-east-1",
		S3Prefix:       DefaultS3Prefix,
		GeminiModel:    DefaultGeminiModel,
	}

	if configPath := configFilePath(); configPath != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(configPath, &fc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", configPath, err)
		}
		applyFile(cfg, fc)
	}

	applyEnvOverrides(cfg)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return cfg, nil
}

// UploadConfigured reports whether a remote storage target is set.
func (c *Config) UploadConfigured() bool {
	return c.S3Bucket != ""
}

// TranscriptionConfigured reports whether a transcription backend is set.
func (c *Config) TranscriptionConfigured() bool {
	return c.GeminiAPIKey != ""
}

func applyFile(cfg *Config, fc fileConfig) {
	if fc.OutputDir != "" {
		cfg.OutputDir = expandTilde(fc.OutputDir)
	}
	if fc.SegmentSeconds > 0 {
		cfg.SegmentSeconds = fc.SegmentSeconds
	}
	if fc.FrameRate > 0 {
		cfg.FrameRate = fc.FrameRate
	}
	if fc.Quality != "" {
		cfg.Quality = fc.Quality
	}
	if fc.AudioDevice != "" {
		cfg.AudioDevice = fc.AudioDevice
	}
	if fc.ScreenIndex != nil {
		cfg.ScreenIndex = *fc.ScreenIndex
	}
	if fc.Accumulate != nil {
		cfg.Accumulate = *fc.Accumulate
	}
	if fc.GeminiAPIKey != "" {
		cfg.GeminiAPIKey = fc.GeminiAPIKey
	}
	if fc.GeminiModel != "" {
		cfg.GeminiModel = fc.GeminiModel
	}
	if fc.S3Bucket != "" {
		cfg.S3Bucket = fc.S3Bucket
	}
	if fc.S3Region != "" {
		cfg.S3Region = fc.S3Region
	}
	if fc.S3Prefix != "" {
		cfg.S3Prefix = fc.S3Prefix
	}
	if fc.AWSProfile != "" {
		cfg.AWSProfile = fc.AWSProfile
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SCREENCAP_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = expandTilde(v)
	}
	if v := os.Getenv("SCREENCAP_SEGMENT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SegmentSeconds = n
		}
	}
	if v := os.Getenv("SCREENCAP_QUALITY"); v != "" {
		cfg.Quality = v
	}
	if v := os.Getenv("SCREENCAP_AUDIO_DEVICE"); v != "" {
		cfg.AudioDevice = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("SCREENCAP_S3_BUCKET"); v != "" {
		cfg.S3Bucket = v
	}
	if v := os.Getenv("SCREENCAP_S3_REGION"); v != "" {
		cfg.S3Region = v
	}
	if v := os.Getenv("SCREENCAP_S3_PREFIX"); v != "" {
		cfg.S3Prefix = v
	}
	if v := os.Getenv("AWS_PROFILE"); v != "" {
		cfg.AWSProfile = v
	}
}

func configFilePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "screencap")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "screencap")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func defaultOutputDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "recordings")
	}
	return filepath.Join(".", "recordings")
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
