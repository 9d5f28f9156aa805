package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// APIBaseURL is the root of the remote analysis/auth/chat API.
	APIBaseURL string `json:"api_base_url"`

	// HTTPTimeoutSeconds bounds non-streaming API calls. Chat streams are
	// bounded only by their context.
	HTTPTimeoutSeconds int `json:"http_timeout_seconds"`

	// LogMode selects the logger preset: "dev" or "prod".
	LogMode string `json:"log_mode"`

	// LabelMaxImageBytes is the size limit for care-label photos.
	LabelMaxImageBytes int64 `json:"label_max_image_bytes"`

	// ClothesMaxImageBytes is the size limit for garment photos.
	ClothesMaxImageBytes int64 `json:"clothes_max_image_bytes"`

	// JPEGQuality is used when re-encoding intake images to JPEG (1-100).
	JPEGQuality int `json:"jpeg_quality"`

	// OutputFormats maps an input extension to the re-encoding format.
	// Extensions not listed are re-encoded to jpeg.
	OutputFormats map[string]string `json:"output_formats,omitempty"`

	// SkipImageValidation disables the remote "is this a care label" check
	// before analysis.
	SkipImageValidation bool `json:"skip_image_validation,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// AllowedPaths lists extra absolute directories where basket export/import
	// files may live, in addition to ~/.hamper/exports.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths lifts the directory restriction for export/import.
	// Symlinks are still rejected.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type names to disable entirely.
	// Known types: "laundry", "symbol".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:           "http://localhost:8080/api",
		HTTPTimeoutSeconds:   60,
		LogMode:              "dev",
		LabelMaxImageBytes:   20 << 20,
		ClothesMaxImageBytes: 5 << 20,
		JPEGQuality:          90,
		OutputFormats:        map[string]string{"png": "png"},
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.hamper) and repo (.hamper) directories.
// Repo config is found by walking upward from startDir to find the nearest .hamper/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Environment overrides are applied last.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return ApplyEnv(Merge(Merge(DefaultConfig(), global), repo)), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .hamper/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".hamper", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated;
// output format entries from overlay replace the same keys in base.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.APIBaseURL = firstString(overlay.APIBaseURL, base.APIBaseURL)
	result.LogMode = firstString(overlay.LogMode, base.LogMode)
	result.HTTPTimeoutSeconds = firstInt(overlay.HTTPTimeoutSeconds, base.HTTPTimeoutSeconds)
	result.JPEGQuality = firstInt(overlay.JPEGQuality, base.JPEGQuality)
	result.DBMaxOpenConns = firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	result.LabelMaxImageBytes = overlay.LabelMaxImageBytes
	if result.LabelMaxImageBytes == 0 {
		result.LabelMaxImageBytes = base.LabelMaxImageBytes
	}
	result.ClothesMaxImageBytes = overlay.ClothesMaxImageBytes
	if result.ClothesMaxImageBytes == 0 {
		result.ClothesMaxImageBytes = base.ClothesMaxImageBytes
	}

	// Booleans: overlay wins if true, else base
	result.SkipImageValidation = base.SkipImageValidation || overlay.SkipImageValidation
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	if len(base.OutputFormats)+len(overlay.OutputFormats) > 0 {
		result.OutputFormats = make(map[string]string, len(base.OutputFormats)+len(overlay.OutputFormats))
		for k, v := range base.OutputFormats {
			result.OutputFormats[normalizeExt(k)] = normalizeExt(v)
		}
		for k, v := range overlay.OutputFormats {
			result.OutputFormats[normalizeExt(k)] = normalizeExt(v)
		}
	}

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

// ApplyEnv overrides selected fields from HAMPER_* environment variables.
func ApplyEnv(cfg *Config) *Config {
	cfg.APIBaseURL = envString("HAMPER_API_BASE_URL", cfg.APIBaseURL)
	cfg.LogMode = envString("HAMPER_LOG_MODE", cfg.LogMode)
	cfg.LabelMaxImageBytes = envInt64("HAMPER_MAX_IMAGE_BYTES", cfg.LabelMaxImageBytes)
	cfg.HTTPTimeoutSeconds = int(envInt64("HAMPER_HTTP_TIMEOUT_SECONDS", int64(cfg.HTTPTimeoutSeconds)))
	return cfg
}

func envString(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt64(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func firstString(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func firstInt(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

func normalizeExt(s string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
