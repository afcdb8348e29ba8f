package audio

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/voxkit/voxstudio/internal/logger"
	"github.com/voxkit/voxstudio/internal/player"
)

// Device 使用 malgo (miniaudio) 实现的播放原语。
// 加载时把整段 MP3 解码进内存，播放从内存中的单声道样本出声，
// 因此 Seek 只是移动样本游标。
type Device struct {
	mctx     *malgo.AllocatedContext
	channels uint32

	mu         sync.Mutex
	ev         player.Events
	samples    []float32
	sampleRate int
	pos        int // 当前样本游标
	volume     float32
	rate       float64
	device     *malgo.Device
	closed     bool
}

// NewDevice 创建播放设备。
// channels: 声道数，通常为 1（单声道）
func NewDevice(channels int) (*Device, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("初始化播放上下文失败: %w", err)
	}

	return &Device{
		mctx:     mctx,
		channels: uint32(channels),
		volume:   1,
		rate:     1,
	}, nil
}

// Subscribe 注册事件回调。
func (d *Device) Subscribe(ev player.Events) {
	d.mu.Lock()
	d.ev = ev
	d.mu.Unlock()
}

// Load 异步加载并解码 url 指向的本地 MP3 文件。
// 成功时触发 OnMetadata，失败时触发 OnError。
func (d *Device) Load(url string) {
	go func() {
		path := strings.TrimPrefix(url, "file://")

		samples, sampleRate, err := DecodeMP3File(path)
		if err != nil {
			logger.Errorf("[audio] 加载失败 %s: %v", path, err)
			d.mu.Lock()
			ev := d.ev
			d.mu.Unlock()
			if ev.OnError != nil {
				ev.OnError(err)
			}
			return
		}

		d.mu.Lock()
		d.samples = samples
		d.sampleRate = sampleRate
		d.pos = 0
		ev := d.ev
		d.mu.Unlock()

		duration := float64(len(samples)) / float64(sampleRate)
		logger.Debugf("[audio] 已加载 %s: %d 样本, %d Hz, %.2fs", path, len(samples), sampleRate, duration)
		if ev.OnMetadata != nil {
			ev.OnMetadata(duration)
		}
	}()
}

// Play 从当前游标开始播放。重复调用或未加载音频时是 no-op。
func (d *Device) Play() {
	d.mu.Lock()
	if d.closed || d.device != nil || len(d.samples) == 0 {
		d.mu.Unlock()
		return
	}
	sampleRate := d.sampleRate
	rate := d.rate
	d.mu.Unlock()

	ended := make(chan struct{})

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = d.channels
	// 速率通过重设设备采样率实现，在下一次启动时生效
	deviceConfig.SampleRate = uint32(rate * float64(sampleRate))
	deviceConfig.PeriodSizeInFrames = 512
	deviceConfig.Periods = 2

	callbacks := malgo.DeviceCallbacks{
		Data: func(outputSamples, inputSamples []byte, frameCount uint32) {
			d.fillFrames(outputSamples, int(frameCount), ended)
		},
	}

	device, err := malgo.InitDevice(d.mctx.Context, deviceConfig, callbacks)
	if err != nil {
		logger.Errorf("[audio] 初始化播放设备失败: %v", err)
		d.emitError(fmt.Errorf("初始化播放设备失败: %w", err))
		return
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		logger.Errorf("[audio] 启动播放设备失败: %v", err)
		d.emitError(fmt.Errorf("启动播放设备失败: %w", err))
		return
	}

	d.mu.Lock()
	d.device = device
	d.mu.Unlock()

	// 等待样本耗尽，随后回收设备并上报 ended
	go func() {
		<-ended

		d.mu.Lock()
		dev := d.device
		d.device = nil
		d.pos = 0
		ev := d.ev
		d.mu.Unlock()

		if dev != nil {
			_ = dev.Stop()
			dev.Uninit()
		}

		logger.Debug("[audio] 播放结束")
		if ev.OnEnded != nil {
			ev.OnEnded()
		}
	}()
}

// fillFrames 设备数据回调：从样本游标处取数据、应用音量并上报进度。
func (d *Device) fillFrames(out []byte, frames int, ended chan struct{}) {
	d.mu.Lock()

	bytesNeeded := frames * int(d.channels) * 2 // 每个 int16 采样点 2 字节
	if d.pos >= len(d.samples) {
		// 数据播完，填充静音
		for i := range out[:bytesNeeded] {
			out[i] = 0
		}
		d.mu.Unlock()
		select {
		case ended <- struct{}{}:
		default:
		}
		return
	}

	end := d.pos + frames
	if end > len(d.samples) {
		end = len(d.samples)
	}

	vol := d.volume
	window := make([]float32, end-d.pos)
	for i, s := range d.samples[d.pos:end] {
		window[i] = s * vol
	}
	data := renderFrames(window, int(d.channels))
	copy(out, data)
	// 数据不够一个周期时剩余部分填零
	for i := len(data); i < bytesNeeded; i++ {
		out[i] = 0
	}

	d.pos = end
	t := float64(d.pos) / float64(d.sampleRate)
	ev := d.ev
	d.mu.Unlock()

	if ev.OnTimeUpdate != nil {
		ev.OnTimeUpdate(t)
	}
}

// renderFrames 把单声道 float32 窗口编码为交织的 S16LE 输出帧，
// 多声道设备把同一样本复制到每个声道。音量已由调用方施加，
// 量化时的钳位由转换函数负责。
func renderFrames(window []float32, channels int) []byte {
	if channels <= 1 {
		return Float32ToBytes(window)
	}

	pcm := Float32ToInt16(window)
	frames := make([]int16, len(pcm)*channels)
	for i, s := range pcm {
		for ch := 0; ch < channels; ch++ {
			frames[i*channels+ch] = s
		}
	}
	return Int16ToBytes(frames)
}

// Pause 停止出声，保留样本游标。
func (d *Device) Pause() {
	d.mu.Lock()
	dev := d.device
	d.device = nil
	d.mu.Unlock()

	if dev != nil {
		_ = dev.Stop()
		dev.Uninit()
	}
}

// Seek 将样本游标移动到指定时间（秒），钳位到有效范围。
func (d *Device) Seek(t float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sampleRate <= 0 {
		return
	}
	pos := int(t * float64(d.sampleRate))
	if pos < 0 {
		pos = 0
	} else if pos > len(d.samples) {
		pos = len(d.samples)
	}
	d.pos = pos
}

// SetVolume 设置音量，范围 [0, 1]。立即对正在播放的音频生效。
func (d *Device) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	d.mu.Lock()
	d.volume = float32(v)
	d.mu.Unlock()
}

// SetRate 设置播放速率。通过调整设备采样率实现，在下一次 Play 时生效。
func (d *Device) SetRate(r float64) {
	if r <= 0 {
		return
	}
	d.mu.Lock()
	d.rate = r
	d.mu.Unlock()
}

// Close 释放设备和上下文。
func (d *Device) Close() {
	d.Pause()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true

	if d.mctx != nil {
		_ = d.mctx.Uninit()
		d.mctx.Free()
		d.mctx = nil
	}
}

// emitError 在不持锁的情况下上报错误。
func (d *Device) emitError(err error) {
	d.mu.Lock()
	ev := d.ev
	d.mu.Unlock()
	if ev.OnError != nil {
		ev.OnError(err)
	}
}
