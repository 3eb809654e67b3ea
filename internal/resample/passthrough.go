package resample

// passthrough is used when in_rate == target_rate: no resampling, just
// channel mapping and quantization.
type passthrough struct{}

func (p *passthrough) process(input []float32, inChannels int, out []byte) []byte {
	frames := len(input) / inChannels
	for i := 0; i < frames; i++ {
		frame := input[i*inChannels : i*inChannels+inChannels]
		l, r := mapChannels(frame, inChannels)
		out = appendI16LE(out, quantize(l))
		out = appendI16LE(out, quantize(r))
	}
	return out
}
