package studio

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/voxkit/voxstudio/internal/audio"
	"github.com/voxkit/voxstudio/internal/config"
	"github.com/voxkit/voxstudio/internal/logger"
	"github.com/voxkit/voxstudio/internal/player"
	"github.com/voxkit/voxstudio/internal/segment"
	"github.com/voxkit/voxstudio/internal/synth"
	"github.com/voxkit/voxstudio/internal/translate"
	"github.com/voxkit/voxstudio/internal/waveform"
)

// Studio 把段集合、持久化、合成、渲染和播放拼装成一个工程会话。
// cmd 层只和它打交道。
type Studio struct {
	cfg   *config.Config
	store *segment.Store
	repo  *segment.Repository
	cache *audio.AssetCache
	orch  *synth.Orchestrator

	// translator 仅在配置启用翻译时存在。
	translator *translate.Translator

	// controller 按需初始化：headless 环境下不碰音频设备。
	controller *player.Controller
}

// New 打开（或初始化）一个工程会话。
func New(cfg *config.Config) (*Studio, error) {
	repo, err := segment.NewRepository(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("打开工程库失败: %w", err)
	}

	store, err := repo.Load()
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("加载工程失败: %w", err)
	}

	cache, err := audio.NewAssetCache(cfg.Storage.CacheDir, cfg.Storage.CacheMaxSize)
	if err != nil {
		repo.Close()
		return nil, err
	}

	provider, err := synth.NewProvider(cfg.Synth, cache, cfg.Waveform.Bars)
	if err != nil {
		repo.Close()
		return nil, err
	}

	settings := segment.Settings{
		Pitch:   cfg.Synth.Defaults.Pitch,
		Speed:   cfg.Synth.Defaults.Speed,
		Volume:  cfg.Synth.Defaults.Volume,
		PauseMs: cfg.Synth.Defaults.PauseMs,
	}

	s := &Studio{
		cfg:   cfg,
		store: store,
		repo:  repo,
		cache: cache,
		orch:  synth.NewOrchestrator(provider, settings),
	}

	if cfg.Translate.Enabled {
		tr, err := translate.New(cfg.Translate.SecretID, cfg.Translate.SecretKey, cfg.Translate.Region)
		if err != nil {
			repo.Close()
			return nil, err
		}
		s.translator = tr
	}

	logger.Infof("[studio] 工程已打开，共 %d 段 (engine=%s)", store.Len(), cfg.Synth.Engine)
	return s, nil
}

// Store 返回段集合。
func (s *Studio) Store() *segment.Store {
	return s.store
}

// AddSegment 在末尾追加一个文本段，返回其 ID。
func (s *Studio) AddSegment(content string, voice segment.VoiceRef) string {
	seg := segment.NewTextSegment(content, voice)
	s.store.Append(seg)
	return seg.ID
}

// GenerateAll 按显示顺序串行生成所有段的音频。
func (s *Studio) GenerateAll(ctx context.Context, progress func(completed, total int)) error {
	return s.orch.GenerateAll(ctx, s.store, progress)
}

// GenerateSegment 重新生成单个段的音频。
func (s *Studio) GenerateSegment(ctx context.Context, id string) error {
	return s.orch.GenerateSegment(ctx, s.store, id)
}

// TranslateAll 把所有段的文本翻成目标语言。
// 音频保留但会被标记为过期，调用方随后应重新生成。
func (s *Studio) TranslateAll(ctx context.Context, target string) error {
	if s.translator == nil {
		return fmt.Errorf("翻译未启用（translate.enabled=false 或缺少凭证）")
	}

	for _, seg := range s.store.List() {
		translated, err := s.translator.Translate(ctx, seg.Content, "", target)
		if err != nil {
			return fmt.Errorf("段 %s 翻译失败: %w", seg.ID, err)
		}
		if err := s.store.Update(seg.ID, segment.Update{Content: &translated}); err != nil {
			return err
		}
	}

	logger.Infof("[studio] 已翻译 %d 段 -> %s", s.store.Len(), target)
	return nil
}

// ExportWaveforms 把每个已生成段的波形渲染成 PNG 写入 dir。
func (s *Studio) ExportWaveforms(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	r := waveform.NewRenderer(rendererOptions(s.cfg.Waveform))
	exported := 0
	for _, seg := range s.store.List() {
		if seg.Asset == nil {
			continue
		}

		r.Render(seg.Asset.Waveform, 0, seg.Asset.Duration, nil)

		path := filepath.Join(dir, fmt.Sprintf("%03d_%s.png", seg.Order, seg.ID))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("创建波形文件失败: %w", err)
		}
		if err := png.Encode(f, r.Surface()); err != nil {
			f.Close()
			return fmt.Errorf("写入波形失败: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		exported++
	}

	logger.Infof("[studio] 已导出 %d 张波形图到 %s", exported, dir)
	return nil
}

// PlayAll 按显示顺序串行播放所有已生成的段，段间停顿 PauseMs。
func (s *Studio) PlayAll(ctx context.Context) error {
	if err := s.ensurePlayer(); err != nil {
		return err
	}

	pause := time.Duration(s.cfg.Synth.Defaults.PauseMs) * time.Millisecond
	for _, seg := range s.store.List() {
		if seg.Asset == nil {
			logger.Warnf("[studio] 跳过未生成的段 %s", seg.ID)
			continue
		}

		if err := s.playOne(ctx, seg); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
	return nil
}

// PlaySegment 播放单个段。
func (s *Studio) PlaySegment(ctx context.Context, id string) error {
	seg := s.store.Get(id)
	if seg == nil {
		return fmt.Errorf("段不存在: %s", id)
	}
	if seg.Asset == nil {
		return fmt.Errorf("段 %s 尚未生成音频", id)
	}

	if err := s.ensurePlayer(); err != nil {
		return err
	}
	return s.playOne(ctx, seg)
}

// playOne 绑定、等待就绪、播放并等待自然结束。
// 就绪与结束各用一个容量 1 的专用 channel 送达，
// 时间进度快照可以任意丢，终态信号不能丢。
func (s *Studio) playOne(ctx context.Context, seg *segment.TextSegment) error {
	ready := make(chan struct{}, 1)
	done := make(chan error, 1)

	var mu sync.Mutex
	started := false

	s.controller.SetOnChange(func(sess player.Session) {
		mu.Lock()
		playing := started
		mu.Unlock()

		switch {
		case sess.State == player.StateError:
			select {
			case done <- sess.Err:
			default:
			}
		case sess.State == player.StateReady && !playing:
			select {
			case ready <- struct{}{}:
			default:
			}
		case playing && !sess.Playing && sess.CurrentTime == 0:
			// 自然播放到末尾：位置归零、停止
			select {
			case done <- nil:
			default:
			}
		}
	})
	defer s.controller.SetOnChange(nil)

	s.store.SetPlaying(seg.ID)
	defer s.store.SetPlaying("")

	logger.Infof("[studio] 播放段 %s (%.2fs)", seg.ID, seg.Asset.Duration)
	s.controller.Bind(seg.Asset)

	for {
		select {
		case <-ctx.Done():
			s.controller.Pause()
			return ctx.Err()
		case <-ready:
			mu.Lock()
			started = true
			mu.Unlock()
			s.controller.Play()
		case err := <-done:
			if err != nil {
				return fmt.Errorf("段 %s 播放失败: %w", seg.ID, err)
			}
			return nil
		}
	}
}

// Save 把当前段集合持久化到工程库。
func (s *Studio) Save() error {
	return s.repo.Save(s.store)
}

// Close 释放播放设备和工程库。
func (s *Studio) Close() {
	if s.controller != nil {
		s.controller.Close()
	}
	s.repo.Close()
}

// ensurePlayer 按需初始化播放链路。
func (s *Studio) ensurePlayer() error {
	if s.controller != nil {
		return nil
	}

	device, err := audio.NewDevice(s.cfg.Playback.Channels)
	if err != nil {
		return fmt.Errorf("初始化播放设备失败: %w", err)
	}
	s.controller = player.NewController(device)
	return nil
}

// rendererOptions 把波形配置转换为渲染参数，非法颜色回落到默认值。
func rendererOptions(cfg config.WaveformConfig) waveform.Options {
	opts := waveform.DefaultOptions()
	if cfg.Width > 0 {
		opts.Width = cfg.Width
	}
	if cfg.Height > 0 {
		opts.Height = cfg.Height
	}
	if cfg.PixelRatio > 0 {
		opts.PixelRatio = cfg.PixelRatio
	}

	if c, err := waveform.ParseHexColor(cfg.PlayedColor); err == nil {
		opts.Played = c
	}
	if c, err := waveform.ParseHexColor(cfg.UnplayedColor); err == nil {
		opts.Unplayed = c
	}
	if c, err := waveform.ParseHexColor(cfg.MarkerColor); err == nil {
		opts.MarkerLine = c
	}
	if c, err := waveform.ParseHexColor(cfg.PlayheadColor); err == nil {
		opts.Playhead = c
	}
	if c, err := waveform.ParseHexColor(cfg.Background); err == nil {
		opts.Background = c
	}
	return opts
}
