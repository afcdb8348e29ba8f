package synth

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/voxkit/voxstudio/internal/segment"
	"github.com/voxkit/voxstudio/internal/waveform"
)

// MockProvider 离线合成后端：不访问任何网络服务，
// 用正弦波生成确定性的假音频，时长与文本长度成正比。
// 用于测试和在没有凭证的环境里演示完整流程。
type MockProvider struct {
	bars int
}

// NewMockProvider 创建离线合成后端。
func NewMockProvider(bars int) *MockProvider {
	return &MockProvider{bars: bars}
}

// Generate 生成假音频资源。每个字符约 80ms，最短 300ms。
func (p *MockProvider) Generate(ctx context.Context, text string, voice segment.VoiceRef, settings segment.Settings) (*segment.AudioAsset, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	const sampleRate = 24000
	duration := 0.08 * float64(len([]rune(text)))
	if duration < 0.3 {
		duration = 0.3
	}

	n := int(duration * sampleRate)
	samples := make([]float32, n)
	for i := range samples {
		// 440Hz 正弦，带线性淡出，让波形桶有可见的起伏
		fade := 1 - float64(i)/float64(n)
		samples[i] = float32(0.6 * fade * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}

	return &segment.AudioAsset{
		ID:       uuid.NewString(),
		URL:      "mock://" + voice.ID,
		Waveform: waveform.BuildPeaks(samples, p.bars),
		Duration: duration,
		Format:   "pcm",
	}, nil
}
