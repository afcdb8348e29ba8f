package audio

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// DecodeMP3 将 MP3 字节流解码为单声道 float32 样本，返回样本和采样率。
func DecodeMP3(data []byte) ([]float32, int, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("MP3 解码失败: %w", err)
	}

	sampleRate := decoder.SampleRate()

	pcmData, err := io.ReadAll(decoder)
	if err != nil {
		return nil, 0, fmt.Errorf("读取 PCM 数据失败: %w", err)
	}

	// go-mp3 的输出固定为立体声 signed 16-bit LE PCM，
	// 每帧 4 字节：左声道 2 字节 + 右声道 2 字节
	const bytesPerFrame = 4
	if len(pcmData)%bytesPerFrame != 0 {
		// 截掉不完整的尾部帧
		pcmData = pcmData[:len(pcmData)/bytesPerFrame*bytesPerFrame]
	}

	return downmixStereo(pcmData), sampleRate, nil
}

// downmixStereo 将立体声 S16LE PCM 下混为单声道 float32，左右声道取平均。
func downmixStereo(pcm []byte) []float32 {
	interleaved := BytesToFloat32(pcm)
	mono := make([]float32, len(interleaved)/2)
	for i := range mono {
		mono[i] = (interleaved[2*i] + interleaved[2*i+1]) / 2
	}
	return mono
}

// DecodeMP3File 从文件解码 MP3，语义同 DecodeMP3。
func DecodeMP3File(path string) ([]float32, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("读取音频文件失败: %w", err)
	}
	return DecodeMP3(data)
}
