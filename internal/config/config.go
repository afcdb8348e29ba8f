package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 是 VoxStudio 的顶层配置结构。
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Waveform  WaveformConfig  `yaml:"waveform"`
	Synth     SynthConfig     `yaml:"synth"`
	Translate TranslateConfig `yaml:"translate"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// StorageConfig 数据与缓存目录配置。
type StorageConfig struct {
	// DataDir 工程数据目录（SQLite 工程文件存放于此）。
	DataDir string `yaml:"data_dir"`
	// CacheDir 生成音频的缓存目录。
	CacheDir string `yaml:"cache_dir"`
	// CacheMaxSize 缓存上限（MB）。-1 表示禁用缓存索引与淘汰，
	// 0 或缺省使用默认值 200。
	CacheMaxSize int64 `yaml:"cache_max_size"`
}

// PlaybackConfig 本地播放设备配置。
type PlaybackConfig struct {
	Channels int `yaml:"channels"`
}

// WaveformConfig 波形渲染配置。
type WaveformConfig struct {
	// Bars 波形条数量（振幅序列的桶数）。
	Bars int `yaml:"bars"`
	// Width/Height 逻辑尺寸（设备无关像素）。
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// PixelRatio 设备像素比，高密度屏幕上 >1。
	PixelRatio float64 `yaml:"pixel_ratio"`
	// 颜色均为 #RRGGBB 格式。
	PlayedColor   string `yaml:"played_color"`
	UnplayedColor string `yaml:"unplayed_color"`
	MarkerColor   string `yaml:"marker_color"`
	PlayheadColor string `yaml:"playhead_color"`
	Background    string `yaml:"background"`
}

// SynthConfig 语音合成配置。
type SynthConfig struct {
	// Engine 合成引擎: edge, tencent, mock。
	Engine   string         `yaml:"engine"`
	Edge     EdgeConfig     `yaml:"edge"`
	Tencent  TencentConfig  `yaml:"tencent"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// EdgeConfig Edge TTS 配置。
type EdgeConfig struct {
	Voice string `yaml:"voice"`
}

// TencentConfig 腾讯云 TTS 配置。
type TencentConfig struct {
	SecretID  string `yaml:"secret_id"`
	SecretKey string `yaml:"secret_key"`
	VoiceType int64  `yaml:"voice_type"`
	Region    string `yaml:"region"`
}

// DefaultsConfig 合成参数默认值。
type DefaultsConfig struct {
	Pitch  float64 `yaml:"pitch"`
	Speed  float64 `yaml:"speed"`
	Volume float64 `yaml:"volume"`
	// PauseMs 句间停顿（毫秒）。
	PauseMs int `yaml:"pause_ms"`
}

// TranslateConfig 腾讯云机器翻译配置（配音翻译工作流使用）。
type TranslateConfig struct {
	Enabled   bool   `yaml:"enabled"`
	SecretID  string `yaml:"secret_id"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
}

// Load 读取 YAML 配置文件并返回 Config。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	// 展开环境变量，如 ${VOXSTUDIO_TENCENT_SECRET_KEY}
	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	setDefaults(cfg)
	return cfg, nil
}

// Default 返回一份全默认值的配置（不读取文件）。
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Playback.Channels == 0 {
		cfg.Playback.Channels = 1
	}
	if cfg.Waveform.Bars == 0 {
		cfg.Waveform.Bars = 128
	}
	if cfg.Waveform.Width == 0 {
		cfg.Waveform.Width = 600
	}
	if cfg.Waveform.Height == 0 {
		cfg.Waveform.Height = 120
	}
	if cfg.Waveform.PixelRatio == 0 {
		cfg.Waveform.PixelRatio = 1
	}
	if cfg.Waveform.PlayedColor == "" {
		cfg.Waveform.PlayedColor = "#4F7CFF"
	}
	if cfg.Waveform.UnplayedColor == "" {
		cfg.Waveform.UnplayedColor = "#C3CAD9"
	}
	if cfg.Waveform.MarkerColor == "" {
		cfg.Waveform.MarkerColor = "#FFB020"
	}
	if cfg.Waveform.PlayheadColor == "" {
		cfg.Waveform.PlayheadColor = "#E5484D"
	}
	if cfg.Waveform.Background == "" {
		cfg.Waveform.Background = "#FFFFFF"
	}
	if cfg.Synth.Engine == "" {
		cfg.Synth.Engine = "edge"
	}
	if cfg.Synth.Edge.Voice == "" {
		cfg.Synth.Edge.Voice = "zh-CN-XiaoxiaoNeural"
	}
	if cfg.Synth.Tencent.Region == "" {
		cfg.Synth.Tencent.Region = "ap-guangzhou"
	}
	if cfg.Synth.Defaults.Speed == 0 {
		cfg.Synth.Defaults.Speed = 1.0
	}
	if cfg.Synth.Defaults.Volume == 0 {
		cfg.Synth.Defaults.Volume = 1.0
	}
	if cfg.Translate.Region == "" {
		cfg.Translate.Region = "ap-guangzhou"
	}
	if cfg.Storage.CacheMaxSize == 0 {
		cfg.Storage.CacheMaxSize = 200
	}

	if cfg.Storage.DataDir == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.Storage.DataDir = home + "/.voxstudio"
		} else {
			cfg.Storage.DataDir = "./.voxstudio-data"
		}
	} else if strings.HasPrefix(cfg.Storage.DataDir, "~/") {
		// Go 不会自动展开 ~，需要手动替换为用户主目录
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.Storage.DataDir = home + cfg.Storage.DataDir[1:]
		}
	}
	if cfg.Storage.CacheDir == "" {
		cfg.Storage.CacheDir = cfg.Storage.DataDir + "/cache"
	}

	// 去除密钥两端可能的空白（环境变量展开后常见）
	cfg.Synth.Tencent.SecretID = strings.TrimSpace(cfg.Synth.Tencent.SecretID)
	cfg.Synth.Tencent.SecretKey = strings.TrimSpace(cfg.Synth.Tencent.SecretKey)
	cfg.Translate.SecretID = strings.TrimSpace(cfg.Translate.SecretID)
	cfg.Translate.SecretKey = strings.TrimSpace(cfg.Translate.SecretKey)
}
