package config

import (
	"os"
	"path/filepath"
	"testing"
)

// clearEnv blanks every HAMPER_* override so host settings don't leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HAMPER_API_BASE_URL", "HAMPER_LOG_MODE", "HAMPER_MAX_IMAGE_BYTES", "HAMPER_HTTP_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}
}

func writeRepoConfig(t *testing.T, root, content string) string {
	t.Helper()
	dir := filepath.Join(root, ".hamper")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := DefaultConfig()
	if cfg.LabelMaxImageBytes != def.LabelMaxImageBytes {
		t.Fatalf("LabelMaxImageBytes = %d, want %d", cfg.LabelMaxImageBytes, def.LabelMaxImageBytes)
	}
	if cfg.ClothesMaxImageBytes != 5<<20 {
		t.Fatalf("ClothesMaxImageBytes = %d, want %d", cfg.ClothesMaxImageBytes, 5<<20)
	}
	if cfg.OutputFormats["png"] != "png" {
		t.Fatalf("OutputFormats[png] = %q, want png", cfg.OutputFormats["png"])
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"label_max_image_bytes": 1000, "api_base_url": "https://api.example.com"}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LabelMaxImageBytes != 1000 {
		t.Fatalf("LabelMaxImageBytes = %d, want %d", cfg.LabelMaxImageBytes, 1000)
	}
	if cfg.APIBaseURL != "https://api.example.com" {
		t.Fatalf("APIBaseURL = %q, want %q", cfg.APIBaseURL, "https://api.example.com")
	}
	if cfg.JPEGQuality != 90 {
		t.Fatalf("JPEGQuality = %d, want default 90", cfg.JPEGQuality)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"disabled_tools": ["laundry_clear", "laundry_bulk_delete"]}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[0] != "laundry_clear" {
		t.Errorf("DisabledTools[0] = %q, want %q", cfg.DisabledTools[0], "laundry_clear")
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	clearEnv(t)
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	globalConfig := `{"jpeg_quality": 70, "disabled_tools": ["laundry_clear"]}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	writeRepoConfig(t, repoRoot, `{"jpeg_quality": 80, "disabled_tools": ["laundry_bulk_delete"]}`)

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.JPEGQuality != 80 {
		t.Errorf("JPEGQuality = %d, want 80 (repo override)", cfg.JPEGQuality)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.APIBaseURL != DefaultConfig().APIBaseURL {
		t.Errorf("APIBaseURL = %q, want default", cfg.APIBaseURL)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HAMPER_API_BASE_URL", "https://staging.example.com/api")
	t.Setenv("HAMPER_MAX_IMAGE_BYTES", "1234")
	t.Setenv("HAMPER_LOG_MODE", "prod")

	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.APIBaseURL != "https://staging.example.com/api" {
		t.Errorf("APIBaseURL = %q, want env value", cfg.APIBaseURL)
	}
	if cfg.LabelMaxImageBytes != 1234 {
		t.Errorf("LabelMaxImageBytes = %d, want 1234", cfg.LabelMaxImageBytes)
	}
	if cfg.LogMode != "prod" {
		t.Errorf("LogMode = %q, want prod", cfg.LogMode)
	}
}

func TestApplyEnv_InvalidNumberKeepsValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("HAMPER_MAX_IMAGE_BYTES", "lots")

	cfg := ApplyEnv(DefaultConfig())
	if cfg.LabelMaxImageBytes != 20<<20 {
		t.Errorf("LabelMaxImageBytes = %d, want default", cfg.LabelMaxImageBytes)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{JPEGQuality: 90, DBMaxOpenConns: 5}
	overlay := &Config{JPEGQuality: 60}

	result := Merge(base, overlay)

	if result.JPEGQuality != 60 {
		t.Errorf("JPEGQuality = %d, want 60 (overlay)", result.JPEGQuality)
	}
	if result.DBMaxOpenConns != 5 {
		t.Errorf("DBMaxOpenConns = %d, want 5 (base, overlay is zero)", result.DBMaxOpenConns)
	}
}

func TestMerge_BooleanOr(t *testing.T) {
	base := &Config{SkipImageValidation: true}
	overlay := &Config{SkipImageValidation: false}

	result := Merge(base, overlay)

	if !result.SkipImageValidation {
		t.Error("SkipImageValidation should be true (base OR overlay)")
	}
}

func TestMerge_OutputFormats(t *testing.T) {
	base := &Config{OutputFormats: map[string]string{"png": "png"}}
	overlay := &Config{OutputFormats: map[string]string{".PNG": "jpeg", "bmp": "png"}}

	result := Merge(base, overlay)

	if result.OutputFormats["png"] != "jpeg" {
		t.Errorf("OutputFormats[png] = %q, want jpeg (overlay)", result.OutputFormats["png"])
	}
	if result.OutputFormats["bmp"] != "png" {
		t.Errorf("OutputFormats[bmp] = %q, want png", result.OutputFormats["bmp"])
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{"laundry_clear", "laundry_bulk_delete"}}
	overlay := &Config{DisabledTools: []string{"laundry_bulk_delete", "symbol_lookup"}}

	result := Merge(base, overlay)

	if len(result.DisabledTools) != 3 {
		t.Errorf("DisabledTools length = %d, want 3 (merged, deduped)", len(result.DisabledTools))
	}
}

func TestFindRepoConfig_InParentDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeRepoConfig(t, tmpDir, `{}`)

	subdir := filepath.Join(tmpDir, "subdir", "deeper")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	found := FindRepoConfig(subdir)
	if found != configPath {
		t.Errorf("FindRepoConfig() = %q, want %q", found, configPath)
	}
}

func TestFindRepoConfig_NotFound(t *testing.T) {
	found := FindRepoConfig(t.TempDir())
	if found != "" {
		t.Errorf("FindRepoConfig() = %q, want empty string", found)
	}
}

func TestMerge_AllowedPaths(t *testing.T) {
	base := &Config{AllowedPaths: []string{"/backups"}}
	overlay := &Config{AllowedPaths: []string{"/backups", "/mnt/usb"}, AllowUnsafePaths: true}

	result := Merge(base, overlay)

	if len(result.AllowedPaths) != 2 {
		t.Errorf("AllowedPaths = %v, want 2 entries", result.AllowedPaths)
	}
	if !result.AllowUnsafePaths {
		t.Error("AllowUnsafePaths should be true (base OR overlay)")
	}
}
