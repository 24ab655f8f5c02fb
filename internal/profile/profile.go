package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory; image files live under <Data>/images
	Data string
	// DSN points to where moodgram stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// ExtractorURL is the base URL of the face-embedding sidecar.
	// Empty means no remote extractor is configured.
	ExtractorURL string
	// EmbeddingDim is the fixed dimensionality of stored face embeddings.
	EmbeddingDim int
	// ClassifierThreshold is the minimum confidence for an emotion
	// prediction to be usable.
	ClassifierThreshold float64
	// StageTTLMinutes is how long a staged image may linger before the
	// sweeper reclaims it.
	StageTTLMinutes int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from MOODGRAM_* environment variables.
// Values already set on the profile are only overridden when the
// corresponding variable is present.
func (p *Profile) FromEnv() {
	getIntEnv := func(key string, fallback int) int {
		if val := os.Getenv(key); val != "" {
			if n, err := strconv.Atoi(val); err == nil {
				return n
			}
		}
		return fallback
	}
	getFloatEnv := func(key string, fallback float64) float64 {
		if val := os.Getenv(key); val != "" {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return f
			}
		}
		return fallback
	}

	if val := os.Getenv("MOODGRAM_MODE"); val != "" {
		p.Mode = val
	}
	if val := os.Getenv("MOODGRAM_ADDR"); val != "" {
		p.Addr = val
	}
	p.Port = getIntEnv("MOODGRAM_PORT", p.Port)
	if val := os.Getenv("MOODGRAM_DATA"); val != "" {
		p.Data = val
	}
	if val := os.Getenv("MOODGRAM_DSN"); val != "" {
		p.DSN = val
	}
	if val := os.Getenv("MOODGRAM_DRIVER"); val != "" {
		p.Driver = val
	}

	p.ExtractorURL = getEnvOrDefault("MOODGRAM_EXTRACTOR_URL", p.ExtractorURL)
	p.EmbeddingDim = getIntEnv("MOODGRAM_EMBEDDING_DIM", p.EmbeddingDim)
	p.ClassifierThreshold = getFloatEnv("MOODGRAM_CLASSIFIER_THRESHOLD", p.ClassifierThreshold)
	p.StageTTLMinutes = getIntEnv("MOODGRAM_STAGE_TTL_MINUTES", p.StageTTLMinutes)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "moodgram")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/moodgram"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("moodgram_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.EmbeddingDim <= 0 {
		p.EmbeddingDim = 128
	}
	if p.ClassifierThreshold <= 0 {
		p.ClassifierThreshold = 0.80
	}
	if p.StageTTLMinutes <= 0 {
		p.StageTTLMinutes = 30
	}

	return nil
}
