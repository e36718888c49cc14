package raster

// Grid is an in-memory RGB raster. It is used for synthetic tracks and is
// safe to share between goroutines once it is no longer modified.
type Grid struct {
	w, h int
	pix  []uint8
}

// NewGrid creates a w x h raster filled with the gray level fill.
func NewGrid(w, h int, fill uint8) *Grid {
	g := &Grid{w: w, h: h, pix: make([]uint8, w*h*3)}
	for i := range g.pix {
		g.pix[i] = fill
	}
	return g
}

func (g *Grid) Width() int  { return g.w }
func (g *Grid) Height() int { return g.h }

func (g *Grid) RGB(x, y int) (uint8, uint8, uint8) {
	i := (y*g.w + x) * 3
	return g.pix[i], g.pix[i+1], g.pix[i+2]
}

// Set stores a color. Writes outside the grid are ignored.
func (g *Grid) Set(x, y int, r, gr, b uint8) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	i := (y*g.w + x) * 3
	g.pix[i], g.pix[i+1], g.pix[i+2] = r, gr, b
}

// FillRect paints the rectangle [x0,x1) x [y0,y1) with a gray level.
func (g *Grid) FillRect(x0, y0, x1, y1 int, level uint8) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			g.Set(x, y, level, level, level)
		}
	}
}

// Border paints a dark frame of the given thickness around the grid, the
// simplest closed track.
func (g *Grid) Border(thickness int, level uint8) {
	g.FillRect(0, 0, g.w, thickness, level)
	g.FillRect(0, g.h-thickness, g.w, g.h, level)
	g.FillRect(0, 0, thickness, g.h, level)
	g.FillRect(g.w-thickness, 0, g.w, g.h, level)
}
