package audio

import (
	"fmt"

	"github.com/yuanying/epub2audiobook/internal/pcm"
)

// EstimateCapacity sizes a converted buffer ahead of time:
// frames * target.sampleRate / source.sampleRate, plus slack for rounding.
func EstimateCapacity(frames, sourceRate, targetRate int) int {
	if sourceRate <= 0 {
		return frames
	}
	estimate := frames * targetRate / sourceRate
	return estimate + 4
}

// ConvertBuffer converts buf to target format (sample rate, channel count,
// sample encoding) when it doesn't already match bit-for-bit. There is no
// resampling library in this stack, so rate conversion uses linear
// interpolation and channel conversion uses duplication/averaging —
// adequate for narration-grade speech audio.
func ConvertBuffer(buf pcm.Buffer, target pcm.Format) (pcm.Buffer, error) {
	if buf.Format.Equal(target) {
		return buf, nil
	}
	if buf.Format.SampleRate <= 0 || target.SampleRate <= 0 {
		return pcm.Buffer{}, fmt.Errorf("%w: invalid sample rate (src=%d, target=%d)", ErrFormatConversionFailed, buf.Format.SampleRate, target.SampleRate)
	}
	if buf.Format.Channels <= 0 || target.Channels <= 0 {
		return pcm.Buffer{}, fmt.Errorf("%w: invalid channel count (src=%d, target=%d)", ErrFormatConversionFailed, buf.Format.Channels, target.Channels)
	}

	samples := toFloat32(buf)
	samples = convertChannels(samples, buf.Format.Channels, target.Channels)
	frames := buf.Frames
	if buf.Format.SampleRate != target.SampleRate {
		samples, frames = resample(samples, frames, target.Channels, buf.Format.SampleRate, target.SampleRate)
	}

	out := pcm.NewFloat32(frames, target, samples)
	if target.Sample == pcm.Int16 {
		out = pcm.NewInt16(frames, target, float32ToInt16(samples))
	}
	return out, nil
}

func toFloat32(buf pcm.Buffer) []float32 {
	if buf.Format.Sample == pcm.Float32 {
		return buf.Float32Samples
	}
	out := make([]float32, len(buf.Int16Samples))
	for i, s := range buf.Int16Samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

func float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out[i] = int16(s * 32767)
	}
	return out
}

// convertChannels maps interleaved samples from srcChannels to dstChannels
// per frame: mono duplicates to every destination channel, multi-channel
// averages down to mono, and otherwise the first min(src,dst) channels are
// kept with any extra destination channels zero-filled.
func convertChannels(samples []float32, srcChannels, dstChannels int) []float32 {
	if srcChannels == dstChannels {
		return samples
	}
	frames := 0
	if srcChannels > 0 {
		frames = len(samples) / srcChannels
	}
	out := make([]float32, frames*dstChannels)

	switch {
	case srcChannels == 1:
		for f := 0; f < frames; f++ {
			v := samples[f]
			for c := 0; c < dstChannels; c++ {
				out[f*dstChannels+c] = v
			}
		}
	case dstChannels == 1:
		for f := 0; f < frames; f++ {
			var sum float32
			for c := 0; c < srcChannels; c++ {
				sum += samples[f*srcChannels+c]
			}
			out[f] = sum / float32(srcChannels)
		}
	default:
		keep := srcChannels
		if dstChannels < keep {
			keep = dstChannels
		}
		for f := 0; f < frames; f++ {
			for c := 0; c < keep; c++ {
				out[f*dstChannels+c] = samples[f*srcChannels+c]
			}
		}
	}
	return out
}

// resample performs linear-interpolation rate conversion on interleaved
// samples, returning the new sample slice and resulting frame count.
func resample(samples []float32, frames, channels, srcRate, dstRate int) ([]float32, int) {
	if srcRate == dstRate || frames == 0 {
		return samples, frames
	}

	dstFrames := frames * dstRate / srcRate
	if dstFrames < 1 {
		dstFrames = 1
	}
	out := make([]float32, dstFrames*channels)

	ratio := float64(srcRate) / float64(dstRate)
	for i := 0; i < dstFrames; i++ {
		srcPos := float64(i) * ratio
		lo := int(srcPos)
		frac := float32(srcPos - float64(lo))
		hi := lo + 1
		if hi >= frames {
			hi = frames - 1
		}
		if lo >= frames {
			lo = frames - 1
		}
		for c := 0; c < channels; c++ {
			a := samples[lo*channels+c]
			b := samples[hi*channels+c]
			out[i*channels+c] = a + (b-a)*frac
		}
	}
	return out, dstFrames
}
