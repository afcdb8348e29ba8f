package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Log.Level", cfg.Log.Level, "info"},
		{"Playback.Channels", cfg.Playback.Channels, 1},
		{"Waveform.Bars", cfg.Waveform.Bars, 128},
		{"Waveform.Width", cfg.Waveform.Width, 600},
		{"Waveform.Height", cfg.Waveform.Height, 120},
		{"Waveform.PixelRatio", cfg.Waveform.PixelRatio, 1.0},
		{"Synth.Engine", cfg.Synth.Engine, "edge"},
		{"Synth.Edge.Voice", cfg.Synth.Edge.Voice, "zh-CN-XiaoxiaoNeural"},
		{"Synth.Defaults.Speed", cfg.Synth.Defaults.Speed, 1.0},
		{"Synth.Defaults.Volume", cfg.Synth.Defaults.Volume, 1.0},
		{"Tencent.Region", cfg.Synth.Tencent.Region, "ap-guangzhou"},
	}

	for _, c := range checks {
		switch want := c.want.(type) {
		case int:
			if c.got.(int) != want {
				t.Errorf("%s: got %v, want %v", c.name, c.got, want)
			}
		case float64:
			if c.got.(float64) != want {
				t.Errorf("%s: got %v, want %v", c.name, c.got, want)
			}
		case string:
			if c.got.(string) != want {
				t.Errorf("%s: got %v, want %v", c.name, c.got, want)
			}
		}
	}

	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir should default to a non-empty path")
	}
	if cfg.Storage.CacheDir == "" {
		t.Error("Storage.CacheDir should default to a non-empty path")
	}
}

func TestSetDefaults_DoesNotOverride(t *testing.T) {
	cfg := &Config{
		Log:      LogConfig{Level: "debug"},
		Waveform: WaveformConfig{Bars: 64, PixelRatio: 2},
		Synth: SynthConfig{
			Engine: "tencent",
			Edge:   EdgeConfig{Voice: "custom-voice"},
		},
	}
	setDefaults(cfg)

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level should not be overridden: got %s", cfg.Log.Level)
	}
	if cfg.Waveform.Bars != 64 {
		t.Errorf("Waveform.Bars should not be overridden: got %d", cfg.Waveform.Bars)
	}
	if cfg.Waveform.PixelRatio != 2 {
		t.Errorf("Waveform.PixelRatio should not be overridden: got %f", cfg.Waveform.PixelRatio)
	}
	if cfg.Synth.Engine != "tencent" {
		t.Errorf("Synth.Engine should not be overridden: got %s", cfg.Synth.Engine)
	}
	if cfg.Synth.Edge.Voice != "custom-voice" {
		t.Errorf("Synth.Edge.Voice should not be overridden: got %s", cfg.Synth.Edge.Voice)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	yamlContent := `
log:
  level: debug
waveform:
  bars: 256
  width: 800
  pixel_ratio: 2
synth:
  engine: mock
  defaults:
    speed: 1.25
storage:
  data_dir: /tmp/voxstudio-test
`
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level: got %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Waveform.Bars != 256 {
		t.Errorf("Waveform.Bars: got %d, want 256", cfg.Waveform.Bars)
	}
	if cfg.Waveform.Width != 800 {
		t.Errorf("Waveform.Width: got %d, want 800", cfg.Waveform.Width)
	}
	if cfg.Synth.Engine != "mock" {
		t.Errorf("Synth.Engine: got %q, want %q", cfg.Synth.Engine, "mock")
	}
	if cfg.Synth.Defaults.Speed != 1.25 {
		t.Errorf("Synth.Defaults.Speed: got %f, want 1.25", cfg.Synth.Defaults.Speed)
	}
	// Defaults should be applied for unset fields
	if cfg.Waveform.Height != 120 {
		t.Errorf("Waveform.Height should default to 120, got %d", cfg.Waveform.Height)
	}
	if cfg.Storage.CacheDir != "/tmp/voxstudio-test/cache" {
		t.Errorf("CacheDir should derive from DataDir, got %q", cfg.Storage.CacheDir)
	}
}

func TestLoad_CacheMaxSizeSentinel(t *testing.T) {
	// -1 禁用缓存淘汰，不能被默认值覆盖；缺省时取 200
	yamlContent := `
storage:
  data_dir: /tmp/voxstudio-test
  cache_max_size: -1
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.CacheMaxSize != -1 {
		t.Errorf("CacheMaxSize: got %d, want -1", cfg.Storage.CacheMaxSize)
	}

	absent := &Config{}
	setDefaults(absent)
	if absent.Storage.CacheMaxSize != 200 {
		t.Errorf("absent CacheMaxSize should default to 200, got %d", absent.Storage.CacheMaxSize)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_SECRET_KEY", "secret-from-env")

	yamlContent := `
synth:
  tencent:
    secret_key: "${TEST_SECRET_KEY}"
`
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Synth.Tencent.SecretKey != "secret-from-env" {
		t.Errorf("expected env var expansion, got %q", cfg.Synth.Tencent.SecretKey)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestSetDefaults_TrimsSecrets(t *testing.T) {
	cfg := &Config{
		Synth: SynthConfig{Tencent: TencentConfig{SecretID: "  id-with-spaces  "}},
	}
	setDefaults(cfg)
	if cfg.Synth.Tencent.SecretID != "id-with-spaces" {
		t.Errorf("expected trimmed secret id, got %q", cfg.Synth.Tencent.SecretID)
	}
}
