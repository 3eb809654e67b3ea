package resample

import "math"

// sincParams configures a windowed-sinc polyphase converter. The kernel is
// precomputed once per Blackman-Harris-windowed lowpass and chunked into
// oversample phases, so per-sample work at runtime is a single dot product.
type sincParams struct {
	halfTaps   int     // kernel half-width in input samples
	oversample int     // number of fractional phases
	cutoff     float64 // normalized cutoff relative to min(inRate, targetRate)/2
}

var sincFastParams = sincParams{
	halfTaps:   64,
	oversample: 64,
	cutoff:     0.90,
}

var sincQualityParams = sincParams{
	halfTaps:   128,
	oversample: 256,
	cutoff:     0.95,
}

// chunkFrames is the block size in which input frames are channel-mapped
// and appended to the history; all appended input is then filtered within
// the same process call.
const chunkFrames = 1024

// transientRatioCap caps the read-position step per output frame at 2.0
// input frames; a converter whose ratio is larger advances by this cap
// instead of by its ratio.
const transientRatioCap = 2.0

type sincConverter struct {
	params      sincParams
	ratio       float64
	maxBuffered int

	kernel  [][]float32 // kernel[phase][tap], length oversample, each 2*halfTaps+1 wide
	history [][2]float32
	pos     float64
}

func newSincConverter(p sincParams, inRate, targetRate uint32) *sincConverter {
	c := &sincConverter{
		params:      p,
		ratio:       float64(inRate) / float64(targetRate),
		maxBuffered: int(targetRate),
		// the first output frame needs halfTaps frames of history before it
		pos: float64(p.halfTaps),
	}
	c.buildKernel()
	return c
}

// buildKernel precomputes one windowed-sinc filter per fractional phase
// using a Blackman-Harris window, following the classic polyphase-resampler
// construction: kernel[p][t] = sinc(cutoff*(t-halfTaps-p/oversample)) *
// window(t).
func (c *sincConverter) buildKernel() {
	n := 2*c.params.halfTaps + 1
	c.kernel = make([][]float32, c.params.oversample)
	cutoff := c.params.cutoff
	if c.ratio > 1 {
		// downsampling: scale the cutoff by the ratio to suppress aliasing
		cutoff /= c.ratio
	}

	for p := 0; p < c.params.oversample; p++ {
		frac := float64(p) / float64(c.params.oversample)
		taps := make([]float32, n)
		var sum float64
		for t := 0; t < n; t++ {
			x := float64(t) - float64(c.params.halfTaps) - frac
			s := sincFn(cutoff * x)
			w := blackmanHarris(float64(t)/float64(n-1), 0)
			v := s * cutoff * w
			taps[t] = float32(v)
			sum += v
		}
		if sum != 0 {
			for t := range taps {
				taps[t] = float32(float64(taps[t]) / sum)
			}
		}
		c.kernel[p] = taps
	}
}

func sincFn(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// blackmanHarris is the 4-term Blackman-Harris window, w(x) for x in [0,1].
func blackmanHarris(x float64, _ int) float64 {
	const (
		a0 = 0.35875
		a1 = 0.48829
		a2 = 0.14128
		a3 = 0.01168
	)
	t := 2 * math.Pi * x
	return a0 - a1*math.Cos(t) + a2*math.Cos(2*t) - a3*math.Cos(3*t)
}

func (c *sincConverter) process(input []float32, inChannels int, out []byte) []byte {
	frames := len(input) / inChannels
	for base := 0; base < frames; base += chunkFrames {
		end := base + chunkFrames
		if end > frames {
			end = frames
		}
		for i := base; i < end; i++ {
			frame := input[i*inChannels : i*inChannels+inChannels]
			l, r := mapChannels(frame, inChannels)
			c.history = append(c.history, [2]float32{l, r})
		}
	}

	half := c.params.halfTaps
	n := 2*half + 1
	if len(c.history) > c.maxBuffered {
		drop := len(c.history) - c.maxBuffered
		c.history = c.history[drop:]
		c.pos -= float64(drop)
		if c.pos < float64(half) {
			c.pos = float64(half)
		}
	}

	ratio := c.ratio
	if ratio > transientRatioCap {
		ratio = transientRatioCap
	}

	for {
		idx := int(c.pos)
		if idx-half < 0 || idx+half+1 >= len(c.history) {
			break
		}
		frac := c.pos - float64(idx)
		phase := int(frac * float64(c.params.oversample))
		if phase >= c.params.oversample {
			phase = c.params.oversample - 1
		}
		taps := c.kernel[phase]

		var accL, accR float64
		for t := 0; t < n; t++ {
			s := c.history[idx-half+t]
			w := float64(taps[t])
			accL += float64(s[0]) * w
			accR += float64(s[1]) * w
		}
		out = appendI16LE(out, quantize(float32(accL)))
		out = appendI16LE(out, quantize(float32(accR)))
		c.pos += ratio
	}

	consumed := int(c.pos) - half
	if consumed > 0 && consumed < len(c.history) {
		c.history = c.history[consumed:]
		c.pos -= float64(consumed)
	}

	return out
}
