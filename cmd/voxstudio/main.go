package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/voxkit/voxstudio/internal/config"
	"github.com/voxkit/voxstudio/internal/logger"
	"github.com/voxkit/voxstudio/internal/segment"
	"github.com/voxkit/voxstudio/internal/studio"
)

func main() {
	configPath := flag.String("config", "configs/voxstudio.yaml", "配置文件路径")
	addText := flag.String("add", "", "追加一个文本段")
	voiceID := flag.String("voice", "", "新段使用的音色（缺省用配置里的默认音色）")
	translateTo := flag.String("translate", "", "把所有段翻成目标语言（如 en、ja）")
	generate := flag.Bool("generate", false, "为所有段生成音频")
	exportDir := flag.String("export", "", "把各段波形渲染为 PNG 写入该目录")
	play := flag.Bool("play", false, "按顺序播放所有已生成的段")
	list := flag.Bool("list", false, "列出所有段")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// 配置文件缺失时用默认配置跑通本地流程
		fmt.Fprintf(os.Stderr, "加载配置失败（使用默认配置）: %v\n", err)
		cfg = config.Default()
	}

	if err := logger.Init(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infof("[main] VoxStudio 启动中 (engine=%s)", cfg.Synth.Engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅关闭
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("[main] 收到信号 %v，正在关闭...", sig)
		cancel()
	}()

	s, err := studio.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "打开工程失败: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	if err := run(ctx, s, cfg, runFlags{
		addText:     *addText,
		voiceID:     *voiceID,
		translateTo: *translateTo,
		generate:    *generate,
		exportDir:   *exportDir,
		play:        *play,
		list:        *list,
	}); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if err := s.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "保存工程失败: %v\n", err)
		os.Exit(1)
	}

	logger.Info("[main] VoxStudio 已退出")
}

type runFlags struct {
	addText     string
	voiceID     string
	translateTo string
	generate    bool
	exportDir   string
	play        bool
	list        bool
}

func run(ctx context.Context, s *studio.Studio, cfg *config.Config, f runFlags) error {
	if f.addText != "" {
		voice := segment.VoiceRef{ID: f.voiceID}
		if voice.ID == "" {
			voice.ID = cfg.Synth.Edge.Voice
		}
		id := s.AddSegment(f.addText, voice)
		fmt.Printf("已追加段 %s\n", id)
	}

	if f.translateTo != "" {
		if err := s.TranslateAll(ctx, f.translateTo); err != nil {
			return fmt.Errorf("翻译失败: %w", err)
		}
	}

	if f.generate {
		err := s.GenerateAll(ctx, func(completed, total int) {
			fmt.Printf("生成进度 %d/%d\n", completed, total)
		})
		if err != nil {
			return fmt.Errorf("生成失败: %w", err)
		}
	}

	if f.exportDir != "" {
		if err := s.ExportWaveforms(f.exportDir); err != nil {
			return fmt.Errorf("导出波形失败: %w", err)
		}
	}

	if f.play {
		if err := s.PlayAll(ctx); err != nil {
			return fmt.Errorf("播放失败: %w", err)
		}
	}

	if f.list {
		printSegments(s)
	}

	return nil
}

func printSegments(s *studio.Studio) {
	segs := s.Store().List()
	if len(segs) == 0 {
		fmt.Println("工程为空")
		return
	}

	for _, seg := range segs {
		status := "未生成"
		if seg.Asset != nil {
			status = fmt.Sprintf("%.2fs", seg.Asset.Duration)
			if seg.Stale() {
				status += " (已过期)"
			}
		}
		fmt.Printf("%3d  %-36s  %-8s  %s\n", seg.Order, seg.ID, status, seg.Content)
	}
}
