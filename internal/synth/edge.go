package synth

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pp-group/edge-tts-go/biz/service/tts/edge"

	"github.com/voxkit/voxstudio/internal/audio"
	"github.com/voxkit/voxstudio/internal/logger"
	"github.com/voxkit/voxstudio/internal/segment"
)

// EdgeProvider 使用微软 Edge TTS 合成语音，
// 通过 edge-tts-go 获取 MP3 音频块。免费，不需要任何凭证。
type EdgeProvider struct {
	defaultVoice string
	cache        *audio.AssetCache
	bars         int
}

// NewEdgeProvider 创建 Edge TTS 合成后端。
// defaultVoice 在段未指定音色时使用。
func NewEdgeProvider(defaultVoice string, cache *audio.AssetCache, bars int) *EdgeProvider {
	return &EdgeProvider{
		defaultVoice: defaultVoice,
		cache:        cache,
		bars:         bars,
	}
}

// Generate 合成一段文本。
// Edge TTS 只接受音色参数，速率/音量由播放端应用。
func (p *EdgeProvider) Generate(ctx context.Context, text string, voice segment.VoiceRef, settings segment.Settings) (*segment.AudioAsset, error) {
	voiceID := voice.ID
	if voiceID == "" {
		voiceID = p.defaultVoice
	}

	key := assetKey("edge", voiceID, text, settings)
	if asset, ok := cachedAsset(p.cache, p.bars, key); ok {
		logger.Debugf("[synth] edge-tts: 缓存命中 %s", key)
		return asset, nil
	}

	logger.Infof("[synth] edge-tts: 正在合成 %d 个字符，音色=%s", len([]rune(text)), voiceID)

	comm, err := edge.NewCommunicate(text, edge.WithVoice(voiceID))
	if err != nil {
		return nil, fmt.Errorf("edge-tts 创建实例失败: %w", err)
	}

	ch, err := comm.Stream()
	if err != nil {
		return nil, fmt.Errorf("edge-tts 开始流式合成失败: %w", err)
	}

	mp3Data, err := collectAudio(ctx, ch)
	if err != nil {
		return nil, err
	}
	if len(mp3Data) == 0 {
		return nil, fmt.Errorf("edge-tts 未收到音频数据")
	}

	logger.Debugf("[synth] edge-tts: 收到 %d 字节 MP3 数据", len(mp3Data))

	return buildAsset(p.cache, p.bars, key, mp3Data, voiceID)
}

// collectAudio 从流式合成 channel 收集所有音频数据。
// ctx 取消后不能直接返回：必须把 channel 取完再报错，
// 否则生产者 goroutine 会永远阻塞在发送上。
func collectAudio(ctx context.Context, ch <-chan map[string]interface{}) ([]byte, error) {
	var mp3Buf bytes.Buffer
	var ctxErr error

	for msg := range ch {
		if ctxErr == nil {
			select {
			case <-ctx.Done():
				ctxErr = ctx.Err()
			default:
			}
		}
		if ctxErr != nil {
			continue
		}

		// Stream() 返回的 map 中，type=="audio" 的条目包含音频数据
		if msgType, ok := msg["type"].(string); ok && msgType == "audio" {
			if data, ok := msg["data"].([]byte); ok {
				mp3Buf.Write(data)
			}
		}
	}

	if ctxErr != nil {
		return nil, ctxErr
	}
	return mp3Buf.Bytes(), nil
}
