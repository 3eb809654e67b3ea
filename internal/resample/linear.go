package resample

// linearConverter performs simple linear-interpolation rate conversion. It
// keeps a small ring of previously seen stereo-mapped samples so that
// interpolation can cross callback boundaries, and advances a fractional
// read position by the in/target ratio for every output frame produced.
//
// maxBuffered caps how many input frames are retained between calls so a
// stalled pipeline cannot grow this buffer unbounded: one second's worth of
// frames at the target rate.
type linearConverter struct {
	ratio       float64 // input frames per output frame
	maxBuffered int

	// buffered holds mapped (not yet quantized) stereo samples not yet
	// consumed, in frame order: buffered[i] = [left, right].
	buffered [][2]float32
	pos      float64 // fractional read position into buffered
}

func newLinearConverter(inRate, targetRate uint32) *linearConverter {
	return &linearConverter{
		ratio:       float64(inRate) / float64(targetRate),
		maxBuffered: int(targetRate),
	}
}

func (c *linearConverter) process(input []float32, inChannels int, out []byte) []byte {
	frames := len(input) / inChannels
	for i := 0; i < frames; i++ {
		frame := input[i*inChannels : i*inChannels+inChannels]
		l, r := mapChannels(frame, inChannels)
		c.buffered = append(c.buffered, [2]float32{l, r})
	}
	if len(c.buffered) > c.maxBuffered {
		drop := len(c.buffered) - c.maxBuffered
		c.buffered = c.buffered[drop:]
		c.pos -= float64(drop)
		if c.pos < 0 {
			c.pos = 0
		}
	}

	for {
		idx := int(c.pos)
		frac := c.pos - float64(idx)
		if idx+1 >= len(c.buffered) {
			break
		}
		a := c.buffered[idx]
		b := c.buffered[idx+1]
		l := a[0] + float32(frac)*(b[0]-a[0])
		r := a[1] + float32(frac)*(b[1]-a[1])
		out = appendI16LE(out, quantize(l))
		out = appendI16LE(out, quantize(r))
		c.pos += c.ratio
	}

	// drop consumed frames, keep the remainder (and one lookback frame so
	// interpolation across the boundary stays correct)
	consumed := int(c.pos)
	if consumed > 0 && consumed < len(c.buffered) {
		c.buffered = c.buffered[consumed:]
		c.pos -= float64(consumed)
	} else if consumed >= len(c.buffered) {
		c.pos -= float64(len(c.buffered) - 1)
		if c.pos < 0 {
			c.pos = 0
		}
		if len(c.buffered) > 0 {
			c.buffered = c.buffered[len(c.buffered)-1:]
		}
	}

	return out
}
