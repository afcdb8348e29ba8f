package waveform

import (
	"fmt"
	"image"
	"image/color"

	"github.com/voxkit/voxstudio/internal/timeline"
)

// Marker 一个段在整条时间轴上的起止边界（秒）。
type Marker struct {
	Start float64
	End   float64
}

// Options 渲染配置。尺寸为逻辑像素（设备无关），
// PixelRatio 为设备像素比，缺省按 1 处理。
type Options struct {
	Width      int
	Height     int
	PixelRatio float64

	Played     color.RGBA
	Unplayed   color.RGBA
	MarkerLine color.RGBA
	Playhead   color.RGBA
	Background color.RGBA
}

// DefaultOptions 返回一套可用的默认配色和尺寸。
func DefaultOptions() Options {
	return Options{
		Width:      600,
		Height:     120,
		PixelRatio: 1,
		Played:     color.RGBA{R: 0x4F, G: 0x7C, B: 0xFF, A: 0xFF},
		Unplayed:   color.RGBA{R: 0xC3, G: 0xCA, B: 0xD9, A: 0xFF},
		MarkerLine: color.RGBA{R: 0xFF, G: 0xB0, B: 0x20, A: 0xFF},
		Playhead:   color.RGBA{R: 0xE5, G: 0x48, B: 0x4D, A: 0xFF},
		Background: color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	}
}

// Renderer 把振幅序列画到一块像素表面上。
// 表面的物理分辨率 = 逻辑尺寸 × 设备像素比；所有绘制坐标按逻辑单位计算、
// 统一缩放到物理像素，高密度屏幕上条宽保持清晰而布局不变。
//
// Render 每次都整帧重绘：正确性只依赖当前状态，不依赖上一帧画了什么。
type Renderer struct {
	opts Options
	img  *image.RGBA
}

// NewRenderer 创建渲染器并分配像素表面。
func NewRenderer(opts Options) *Renderer {
	if opts.PixelRatio <= 0 {
		opts.PixelRatio = 1
	}
	r := &Renderer{opts: opts}
	r.allocate()
	return r
}

// Resize 调整逻辑尺寸并重新分配表面。调用方随后应重新 Render。
func (r *Renderer) Resize(width, height int) {
	r.opts.Width = width
	r.opts.Height = height
	r.allocate()
}

// Surface 返回当前像素表面（物理分辨率）。
func (r *Renderer) Surface() *image.RGBA {
	return r.img
}

// Render 整帧重绘：背景、振幅条（按播放进度分色）、段边界线、播放头。
// data 为空时画占位基线，这不是错误状态。
// duration 为 0 时进度按 0 处理，绝不触发除零。
func (r *Renderer) Render(data []float32, currentTime, duration float64, markers []Marker) {
	w := float64(r.opts.Width)
	h := float64(r.opts.Height)

	r.fillRect(0, 0, w, h, r.opts.Background)

	if len(data) == 0 {
		// 占位状态：只画一条中线
		r.fillRect(0, h/2-0.5, w, h/2+0.5, r.opts.Unplayed)
		r.drawOverlays(currentTime, duration, markers)
		return
	}

	// 进度分数，duration 为 0 时恒为 0
	progress := 0.0
	if duration > 0 {
		progress = currentTime / duration
		if progress < 0 {
			progress = 0
		} else if progress > 1 {
			progress = 1
		}
	}

	n := len(data)
	barWidth := w / float64(n)
	playedBars := progress * float64(n)

	for i, sample := range data {
		amp := float64(sample)
		if amp < 0 {
			amp = -amp
		}
		if amp > 1 {
			amp = 1
		}

		barH := amp * h
		if barH < 1 {
			barH = 1 // 静音段也保留一条可见的细线
		}

		col := r.opts.Unplayed
		if float64(i) < playedBars {
			col = r.opts.Played
		}

		x0 := float64(i) * barWidth
		y0 := (h - barH) / 2
		r.fillRect(x0, y0, x0+barWidth, y0+barH, col)
	}

	r.drawOverlays(currentTime, duration, markers)
}

// drawOverlays 画段边界线和播放头。播放头最后画，始终在最上层。
func (r *Renderer) drawOverlays(currentTime, duration float64, markers []Marker) {
	w := float64(r.opts.Width)

	for _, m := range markers {
		r.vline(timeline.TimeToPixel(m.Start, duration, w), r.opts.MarkerLine)
		r.vline(timeline.TimeToPixel(m.End, duration, w), r.opts.MarkerLine)
	}

	r.vline(timeline.TimeToPixel(currentTime, duration, w), r.opts.Playhead)
}

// vline 在逻辑横坐标 x 处画一条 1 逻辑像素宽的竖线。
func (r *Renderer) vline(x float64, col color.RGBA) {
	h := float64(r.opts.Height)
	x0 := x - 0.5
	if x0 < 0 {
		x0 = 0
	}
	x1 := x0 + 1
	if x1 > float64(r.opts.Width) {
		x1 = float64(r.opts.Width)
		x0 = x1 - 1
	}
	r.fillRect(x0, 0, x1, h, col)
}

// fillRect 以逻辑坐标填充矩形，内部按设备像素比缩放到物理像素。
func (r *Renderer) fillRect(x0, y0, x1, y1 float64, col color.RGBA) {
	ratio := r.opts.PixelRatio
	px0 := int(x0 * ratio)
	py0 := int(y0 * ratio)
	px1 := int(x1*ratio + 0.5)
	py1 := int(y1*ratio + 0.5)

	b := r.img.Bounds()
	if px0 < b.Min.X {
		px0 = b.Min.X
	}
	if py0 < b.Min.Y {
		py0 = b.Min.Y
	}
	if px1 > b.Max.X {
		px1 = b.Max.X
	}
	if py1 > b.Max.Y {
		py1 = b.Max.Y
	}

	for y := py0; y < py1; y++ {
		for x := px0; x < px1; x++ {
			r.img.SetRGBA(x, y, col)
		}
	}
}

// allocate 按逻辑尺寸 × 像素比分配物理表面。
func (r *Renderer) allocate() {
	pw := int(float64(r.opts.Width) * r.opts.PixelRatio)
	ph := int(float64(r.opts.Height) * r.opts.PixelRatio)
	if pw < 1 {
		pw = 1
	}
	if ph < 1 {
		ph = 1
	}
	r.img = image.NewRGBA(image.Rect(0, 0, pw, ph))
}

// ParseHexColor 解析 #RRGGBB 格式的颜色。
func ParseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xFF}
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("非法颜色值: %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("非法颜色值 %q: %w", s, err)
	}
	return c, nil
}
