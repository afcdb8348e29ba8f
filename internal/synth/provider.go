package synth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/voxkit/voxstudio/internal/audio"
	"github.com/voxkit/voxstudio/internal/config"
	"github.com/voxkit/voxstudio/internal/logger"
	"github.com/voxkit/voxstudio/internal/segment"
	"github.com/voxkit/voxstudio/internal/waveform"
)

// Provider 定义语音合成后端接口。
type Provider interface {
	// Generate 把一段文本合成为可播放的音频资源。
	// 返回的 AudioAsset 已落盘（URL 指向缓存文件）并带好波形数据。
	Generate(ctx context.Context, text string, voice segment.VoiceRef, settings segment.Settings) (*segment.AudioAsset, error)
}

// NewProvider 根据配置创建合成后端。
func NewProvider(cfg config.SynthConfig, cache *audio.AssetCache, bars int) (Provider, error) {
	switch cfg.Engine {
	case "edge":
		return NewEdgeProvider(cfg.Edge.Voice, cache, bars), nil
	case "tencent":
		return NewTencentProvider(TencentOptions{
			SecretID:  cfg.Tencent.SecretID,
			SecretKey: cfg.Tencent.SecretKey,
			VoiceType: cfg.Tencent.VoiceType,
			Region:    cfg.Tencent.Region,
		}, cache, bars)
	case "mock":
		return NewMockProvider(bars), nil
	default:
		return nil, fmt.Errorf("未知的合成引擎: %q", cfg.Engine)
	}
}

// assetKey 由引擎、音色、文本和合成参数派生确定性的缓存键。
// 相同输入重新生成时直接命中缓存文件，不再请求合成服务。
func assetKey(engine, voiceID, text string, settings segment.Settings) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%.3f|%.3f|%.3f|%d|%s",
		engine, voiceID, settings.Pitch, settings.Speed, settings.Volume, settings.PauseMs, text)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// cachedAsset 尝试从缓存文件重建资源；未命中或文件解不开时返回 false，
// 由调用方照常走合成路径覆盖掉坏文件。
func cachedAsset(cache *audio.AssetCache, bars int, key string) (*segment.AudioAsset, bool) {
	path, ok := cache.Lookup(key)
	if !ok {
		return nil, false
	}

	samples, sampleRate, err := audio.DecodeMP3File(path)
	if err != nil || sampleRate <= 0 || len(samples) == 0 {
		logger.Warnf("[synth] 缓存文件损坏，忽略: %s", path)
		return nil, false
	}

	return &segment.AudioAsset{
		ID:       key,
		URL:      path,
		Waveform: waveform.BuildPeaks(samples, bars),
		Duration: float64(len(samples)) / float64(sampleRate),
		Format:   "mp3",
	}, true
}

// buildAsset 把合成得到的 MP3 字节转成落盘的 AudioAsset：
// 解码取得时长和波形桶，原始 MP3 以 key 为名写入缓存，URL 即缓存文件路径。
func buildAsset(cache *audio.AssetCache, bars int, key string, mp3Data []byte, voiceName string) (*segment.AudioAsset, error) {
	samples, sampleRate, err := audio.DecodeMP3(mp3Data)
	if err != nil {
		return nil, err
	}
	if sampleRate <= 0 || len(samples) == 0 {
		return nil, fmt.Errorf("合成结果为空")
	}

	duration := float64(len(samples)) / float64(sampleRate)

	path, err := cache.Put(key, mp3Data, voiceName, duration)
	if err != nil {
		return nil, err
	}

	return &segment.AudioAsset{
		ID:       key,
		URL:      path,
		Waveform: waveform.BuildPeaks(samples, bars),
		Duration: duration,
		Format:   "mp3",
	}, nil
}
