package waveform

import (
	"image/color"
	"testing"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Width = 40
	opts.Height = 20
	return opts
}

func TestRenderer_SurfaceScalesWithPixelRatio(t *testing.T) {
	tests := []struct {
		ratio        float64
		wantW, wantH int
	}{
		{1, 40, 20},
		{2, 80, 40},
		{1.5, 60, 30},
		{0, 40, 20}, // 非法比率按 1 处理
	}

	for _, tt := range tests {
		opts := testOptions()
		opts.PixelRatio = tt.ratio
		r := NewRenderer(opts)

		b := r.Surface().Bounds()
		if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
			t.Errorf("ratio %v: surface %dx%d, want %dx%d", tt.ratio, b.Dx(), b.Dy(), tt.wantW, tt.wantH)
		}
	}
}

func TestRenderer_PlayedUnplayedSplit(t *testing.T) {
	r := NewRenderer(testOptions())

	// 4 根满幅条，播放到一半：前 2 根已播，后 2 根未播
	data := []float32{1, 1, 1, 1}
	r.Render(data, 0.5, 1.0, nil)

	img := r.Surface()
	if got := img.RGBAAt(5, 10); got != r.opts.Played {
		t.Errorf("bar 0 center = %v, want played color %v", got, r.opts.Played)
	}
	if got := img.RGBAAt(15, 10); got != r.opts.Played {
		t.Errorf("bar 1 center = %v, want played color %v", got, r.opts.Played)
	}
	if got := img.RGBAAt(25, 10); got != r.opts.Unplayed {
		t.Errorf("bar 2 center = %v, want unplayed color %v", got, r.opts.Unplayed)
	}
	if got := img.RGBAAt(35, 10); got != r.opts.Unplayed {
		t.Errorf("bar 3 center = %v, want unplayed color %v", got, r.opts.Unplayed)
	}
}

func TestRenderer_TimeAdvanceOnlyRecolors(t *testing.T) {
	r := NewRenderer(testOptions())
	data := []float32{0.5, 0.5}

	r.Render(data, 0, 10, nil)
	before := r.Surface().RGBAAt(5, 3) // bar 外的背景像素

	r.Render(data, 9, 10, nil)
	after := r.Surface().RGBAAt(5, 3)

	if before != after {
		t.Errorf("bar geometry changed with time: %v -> %v", before, after)
	}
	// 但条的颜色确实变了
	if got := r.Surface().RGBAAt(5, 10); got != r.opts.Played {
		t.Errorf("bar 0 should be recolored to played, got %v", got)
	}
}

func TestRenderer_ZeroDurationIsSafe(t *testing.T) {
	r := NewRenderer(testOptions())

	// duration 为 0：不 panic，进度按 0，全部未播
	r.Render([]float32{1, 1}, 5, 0, []Marker{{Start: 1, End: 2}})

	if got := r.Surface().RGBAAt(30, 10); got != r.opts.Unplayed {
		t.Errorf("with zero duration all bars should be unplayed, got %v", got)
	}
}

func TestRenderer_EmptyWaveformDrawsPlaceholder(t *testing.T) {
	r := NewRenderer(testOptions())
	r.Render(nil, 0, 0, nil)

	img := r.Surface()
	if got := img.RGBAAt(20, 10); got != r.opts.Unplayed {
		t.Errorf("placeholder baseline missing at center: %v", got)
	}
	if got := img.RGBAAt(20, 3); got != r.opts.Background {
		t.Errorf("off-baseline pixel should be background: %v", got)
	}
}

func TestRenderer_MarkersAndPlayheadOnTop(t *testing.T) {
	r := NewRenderer(testOptions())
	data := []float32{1, 1, 1, 1}

	// 标记线位于 0.25s 和 0.75s（x=10 和 x=30）
	r.Render(data, 0, 1, []Marker{{Start: 0.25, End: 0.75}})
	img := r.Surface()
	if got := img.RGBAAt(10, 10); got != r.opts.MarkerLine {
		t.Errorf("marker start line missing: %v", got)
	}
	if got := img.RGBAAt(30, 10); got != r.opts.MarkerLine {
		t.Errorf("marker end line missing: %v", got)
	}

	// 播放头与标记线重合时，播放头在最上层
	r.Render(data, 0.25, 1, []Marker{{Start: 0.25, End: 0.75}})
	if got := r.Surface().RGBAAt(10, 10); got != r.opts.Playhead {
		t.Errorf("playhead should be drawn on top of marker: %v", got)
	}
}

func TestRenderer_Resize(t *testing.T) {
	opts := testOptions()
	opts.PixelRatio = 2
	r := NewRenderer(opts)

	r.Resize(100, 50)
	b := r.Surface().Bounds()
	if b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("after resize surface is %dx%d, want 200x100", b.Dx(), b.Dy())
	}

	// 重绘后不 panic 即可
	r.Render([]float32{0.5}, 0, 1, nil)
}

func TestBuildPeaks(t *testing.T) {
	samples := []float32{0.1, -0.9, 0.2, 0.3, -0.1, 0.6, 0, 0}

	peaks := BuildPeaks(samples, 4)
	if len(peaks) != 4 {
		t.Fatalf("expected 4 peaks, got %d", len(peaks))
	}
	want := []float32{0.9, 0.3, 0.6, 0}
	for i, w := range want {
		if peaks[i] != w {
			t.Errorf("peaks[%d] = %v, want %v", i, peaks[i], w)
		}
	}
}

func TestBuildPeaks_Degenerate(t *testing.T) {
	if got := BuildPeaks(nil, 4); got != nil {
		t.Errorf("nil samples should yield nil, got %v", got)
	}
	if got := BuildPeaks([]float32{0.5}, 0); got != nil {
		t.Errorf("zero buckets should yield nil, got %v", got)
	}

	// 异常样本钳位到 1
	peaks := BuildPeaks([]float32{2.5}, 1)
	if peaks[0] != 1 {
		t.Errorf("out-of-range sample should clamp to 1, got %v", peaks[0])
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#4F7CFF")
	if err != nil {
		t.Fatalf("ParseHexColor failed: %v", err)
	}
	if c != (color.RGBA{R: 0x4F, G: 0x7C, B: 0xFF, A: 0xFF}) {
		t.Errorf("unexpected color: %v", c)
	}

	for _, bad := range []string{"", "4F7CFF", "#12345", "#GGGGGG"} {
		if _, err := ParseHexColor(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
