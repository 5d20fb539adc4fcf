package main

import (
	"math"

	"github.com/veandco/go-sdl2/sdl"
)

// waterfall is a ring of one-line textures; add pushes the newest
// spectrum and blit repaints oldest-first. Power maps onto a
// cold-to-hot ramp spanning [lo, hi] dB: dim blue at the floor,
// through green and yellow, to bright red at the top.
type waterfall struct {
	r       *sdl.Renderer
	rows    []*sdl.Texture
	rowIdx  int // wraps around
	w       int
	lo, hi  float64
	row8888 []byte
	rowRect *sdl.Rect
}

func newWaterfall(r *sdl.Renderer, w, h int, loDB, hiDB float64) *waterfall {
	wf := &waterfall{
		r:       r,
		rows:    make([]*sdl.Texture, h),
		w:       w,
		lo:      loDB,
		hi:      hiDB,
		row8888: make([]byte, w*4),
		rowRect: &sdl.Rect{X: 0, Y: 0, W: int32(w), H: 1},
	}
	for i := 0; i < w; i++ {
		wf.row8888[4*i+3] = 0xff
	}
	for i := range wf.rows {
		var err error
		wf.rows[i], err = r.CreateTexture(
			sdl.PIXELFORMAT_RGB888, sdl.TEXTUREACCESS_STREAMING, int32(w), 1)
		if err != nil {
			panic(err)
		}
		if err = wf.rows[i].Update(wf.rowRect, wf.row8888, 4); err != nil {
			panic(err)
		}
	}
	return wf
}

func (wf *waterfall) heatColor(db float64) (byte, byte, byte) {
	t := (db - wf.lo) / (wf.hi - wf.lo)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	// hue sweeps from blue (240°) at the floor down to red (0°) at the
	// top of the range; brightness rises with power so the floor stays
	// dark.
	h := (1 - t) * 4
	v := 0.25 + 0.75*t
	sector := int(h)
	f := h - float64(sector)
	if sector > 3 {
		sector, f = 3, 1
	}
	p, q, u := 0.0, v*(1-f), v*f
	var r, g, b float64
	switch sector {
	case 0: // red → yellow
		r, g, b = v, u, p
	case 1: // yellow → green
		r, g, b = q, v, p
	case 2: // green → cyan
		r, g, b = p, v, u
	default: // cyan → blue
		r, g, b = p, q, v
	}
	return byte(math.Round(255 * r)), byte(math.Round(255 * g)), byte(math.Round(255 * b))
}

func (wf *waterfall) add(psd []float64) {
	for i, db := range psd {
		if i >= wf.w {
			break
		}
		r, g, b := wf.heatColor(db)
		// RGB888 is packed XRGB: blue is the lowest byte.
		wf.row8888[4*i] = b
		wf.row8888[4*i+1] = g
		wf.row8888[4*i+2] = r
	}
	wf.rows[wf.rowIdx].Update(wf.rowRect, wf.row8888, 4)
	wf.rowIdx++
	if wf.rowIdx >= len(wf.rows) {
		wf.rowIdx = 0
	}
}

func (wf *waterfall) blit() {
	dstRect := &sdl.Rect{X: 0 /* Y set in loops */, W: int32(wf.w), H: 1}
	for i := wf.rowIdx; i < len(wf.rows); i++ {
		if err := wf.r.Copy(wf.rows[i], wf.rowRect, dstRect); err != nil {
			panic(err)
		}
		dstRect.Y++
	}
	for i := 0; i < wf.rowIdx; i++ {
		if err := wf.r.Copy(wf.rows[i], wf.rowRect, dstRect); err != nil {
			panic(err)
		}
		dstRect.Y++
	}
}

func (wf *waterfall) Destroy() {
	for _, t := range wf.rows {
		t.Destroy()
	}
}
