package synth

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tts "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tts/v20190823"

	"github.com/voxkit/voxstudio/internal/audio"
	"github.com/voxkit/voxstudio/internal/logger"
	"github.com/voxkit/voxstudio/internal/segment"
)

// TencentProvider 使用腾讯云 TTS 合成语音。
// 适用于中国大陆网络环境，支持多种中文音色。
type TencentProvider struct {
	client    *tts.Client
	voiceType int64
	cache     *audio.AssetCache
	bars      int
}

// TencentOptions 腾讯云 TTS 配置。
type TencentOptions struct {
	SecretID  string
	SecretKey string
	VoiceType int64
	Region    string
}

// NewTencentProvider 创建腾讯云 TTS 合成后端。
func NewTencentProvider(opts TencentOptions, cache *audio.AssetCache, bars int) (*TencentProvider, error) {
	if opts.SecretID == "" || opts.SecretKey == "" {
		return nil, fmt.Errorf("腾讯云 TTS 需要 SecretID 和 SecretKey")
	}

	if opts.VoiceType == 0 {
		opts.VoiceType = 1001 // 默认音色：智瑜（女声）
	}
	if opts.Region == "" {
		opts.Region = "ap-guangzhou"
	}

	credential := common.NewCredential(opts.SecretID, opts.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tts.tencentcloudapi.com"

	client, err := tts.NewClient(credential, opts.Region, cpf)
	if err != nil {
		return nil, fmt.Errorf("创建腾讯云 TTS 客户端失败: %w", err)
	}

	logger.Infof("[synth] 腾讯云 TTS 已初始化 (voice=%d, region=%s)", opts.VoiceType, opts.Region)

	return &TencentProvider{
		client:    client,
		voiceType: opts.VoiceType,
		cache:     cache,
		bars:      bars,
	}, nil
}

// Generate 合成一段文本。腾讯云返回 Base64 编码的 MP3。
func (p *TencentProvider) Generate(ctx context.Context, text string, voice segment.VoiceRef, settings segment.Settings) (*segment.AudioAsset, error) {
	voiceType := p.voiceType
	if voice.ID != "" {
		if vt, err := strconv.ParseInt(voice.ID, 10, 64); err == nil {
			voiceType = vt
		}
	}

	voiceName := strconv.FormatInt(voiceType, 10)
	key := assetKey("tencent", voiceName, text, settings)
	if asset, ok := cachedAsset(p.cache, p.bars, key); ok {
		logger.Debugf("[synth] 腾讯云 TTS: 缓存命中 %s", key)
		return asset, nil
	}

	logger.Infof("[synth] 腾讯云 TTS: 正在合成 %d 个字符，音色=%d", len([]rune(text)), voiceType)

	request := tts.NewTextToVoiceRequest()
	request.Text = common.StringPtr(text)
	request.VoiceType = common.Int64Ptr(voiceType)
	request.Codec = common.StringPtr("mp3")
	request.Speed = common.Float64Ptr(tencentSpeed(settings.Speed))
	request.Volume = common.Float64Ptr(tencentVolume(settings.Volume))

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	response, err := p.client.TextToVoice(request)
	if err != nil {
		return nil, fmt.Errorf("腾讯云 TTS 合成失败: %w", err)
	}

	if response.Response == nil || response.Response.Audio == nil {
		return nil, fmt.Errorf("腾讯云 TTS 未返回音频数据")
	}

	mp3Data, err := base64.StdEncoding.DecodeString(*response.Response.Audio)
	if err != nil {
		return nil, fmt.Errorf("Base64 解码失败: %w", err)
	}

	logger.Debugf("[synth] 腾讯云 TTS: 收到 %d 字节 MP3 数据", len(mp3Data))

	return buildAsset(p.cache, p.bars, key, mp3Data, voiceName)
}

// tencentSpeed 把速率倍数映射到腾讯云的 [-2, 6] 区间（0 为正常语速）。
func tencentSpeed(multiplier float64) float64 {
	if multiplier <= 0 {
		return 0
	}
	s := (multiplier - 1) * 2
	if s < -2 {
		s = -2
	} else if s > 6 {
		s = 6
	}
	return s
}

// tencentVolume 把音量增益 [0, 1] 映射到腾讯云的 [0, 10] 区间（5 为正常音量）。
func tencentVolume(gain float64) float64 {
	if gain <= 0 {
		return 5
	}
	v := gain * 5
	if v > 10 {
		v = 10
	}
	return v
}
