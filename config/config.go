// Package config reads runtime settings from the environment and an optional .env file.
package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/RyanBlaney/sonido-jam/algorithms/stats"
	"github.com/RyanBlaney/sonido-jam/algorithms/tonal"
	"github.com/RyanBlaney/sonido-jam/alignment"
	"github.com/RyanBlaney/sonido-jam/jam"
	"github.com/RyanBlaney/sonido-jam/logging"
	"github.com/RyanBlaney/sonido-jam/transcode"
)

type Config struct {
	LogLevel              logging.Level `json:"log_level"`
	FFmpegPath            string        `json:"ffmpeg_path"`
	FFprobePath           string        `json:"ffprobe_path"`
	SampleRate            int           `json:"sample_rate"`
	DecodeTimeout         time.Duration `json:"decode_timeout"`
	Workers               int           `json:"workers"`
	ChunkBars             int           `json:"chunk_bars"`
	BinTolerance          float64       `json:"bin_tolerance"`
	Seed                  int64         `json:"seed"`
	InvertAverageRelative bool          `json:"invert_average_relative"`
}

const (
	ffmpeg        = "ffmpeg"
	ffprobe       = "ffprobe"
	sampleRate    = 22050
	decodeTimeout = 2 * time.Minute
	chunkBars     = 8
)

// Load reads JAM_* variables, loading .env first when one exists. Unparseable
// values fall back to their defaults with a warning. An unset JAM_SEED seeds
// from the clock.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:              parseLevelOrDefault(os.Getenv("JAM_LOG_LEVEL"), logging.InfoLevel),
		FFmpegPath:            os.Getenv("JAM_FFMPEG_PATH"),
		FFprobePath:           os.Getenv("JAM_FFPROBE_PATH"),
		SampleRate:            parseIntOrDefault("JAM_SAMPLE_RATE", sampleRate),
		DecodeTimeout:         parseDurationOrDefault("JAM_DECODE_TIMEOUT", decodeTimeout),
		Workers:               parseIntOrDefault("JAM_WORKERS", runtime.NumCPU()),
		ChunkBars:             parseIntOrDefault("JAM_CHUNK_BARS", chunkBars),
		BinTolerance:          parseFloatOrDefault("JAM_BIN_TOLERANCE", stats.DefaultBinTolerance),
		Seed:                  int64(parseIntOrDefault("JAM_SEED", int(time.Now().UnixNano()))),
		InvertAverageRelative: parseBoolOrDefault("JAM_INVERT_AVERAGE_RELATIVE", false),
	}

	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = ffmpeg
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = ffprobe
	}

	return cfg
}

// DecoderConfig builds the ffmpeg decoder settings.
func (c *Config) DecoderConfig() *transcode.DecoderConfig {
	dc := transcode.DefaultDecoderConfig()
	dc.FFmpegPath = c.FFmpegPath
	dc.FFprobePath = c.FFprobePath
	dc.TargetSampleRate = c.SampleRate
	dc.Timeout = c.DecodeTimeout
	return dc
}

// EncoderConfig builds the ffmpeg encoder settings.
func (c *Config) EncoderConfig() *transcode.EncoderConfig {
	ec := transcode.DefaultEncoderConfig()
	ec.FFmpegPath = c.FFmpegPath
	return ec
}

func (c *Config) AlignerParams() alignment.AlignerParams {
	return alignment.AlignerParams{
		Workers: c.Workers,
		Match:   tonal.MatchParams{InvertAverageRelative: c.InvertAverageRelative},
	}
}

func (c *Config) TuneParams() jam.TuneParams {
	return jam.TuneParams{BinTolerance: c.BinTolerance}
}

// JamParams fills in the chunking and seed; solo chorus count comes from the caller.
func (c *Config) JamParams(soloChoruses int) jam.Params {
	params := jam.DefaultParams()
	params.SoloChoruses = soloChoruses
	params.ChunkBars = c.ChunkBars
	params.Seed = c.Seed
	return params
}

func parseLevelOrDefault(s string, defaultValue logging.Level) logging.Level {
	level, err := logging.ParseLevel(s)
	if err != nil {
		logging.Warn("Could not parse log level, using default", logging.Fields{
			"value":   s,
			"default": defaultValue.String(),
		})
		return defaultValue
	}
	return level
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		warnDefault(key, s, defaultValue, err)
		return defaultValue
	}
	return d
}

func parseIntOrDefault(key string, defaultValue int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		warnDefault(key, s, defaultValue, err)
		return defaultValue
	}
	return n
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		warnDefault(key, s, defaultValue, err)
		return defaultValue
	}
	return f
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		warnDefault(key, s, defaultValue, err)
		return defaultValue
	}
	return b
}

func warnDefault(key, value string, defaultValue any, err error) {
	logging.Warn("Could not parse setting, using default", logging.Fields{
		"key":     key,
		"value":   value,
		"default": defaultValue,
		"error":   err.Error(),
	})
}
