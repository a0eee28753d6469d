package strokes

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/noah-isme/sketch-eval-api/internal/models"
)

// Luminance values of the output bitmap.
const (
	White uint8 = 255
	Black uint8 = 0
)

// Defaults used by the dashboard.
const (
	DefaultImageSize = 256
	DefaultLineWidth = 3
)

// Render rasterizes the drawing onto a white imageSize x imageSize grayscale canvas,
// drawing each stroke as a black polyline lineWidth pixels thick.
//
// Points are rounded to the nearest pixel and every segment is walked with
// Bresenham's algorithm, stamping a lineWidth square brush at each step. Anything
// falling outside the canvas is clipped.
func Render(drawing models.Drawing, imageSize, lineWidth int) (*image.Gray, error) {
	if imageSize <= 0 {
		return nil, fmt.Errorf("%w: image size must be positive, got %d", models.ErrInvalidParameter, imageSize)
	}
	if lineWidth <= 0 {
		return nil, fmt.Errorf("%w: line width must be positive, got %d", models.ErrInvalidParameter, lineWidth)
	}
	if err := Validate(drawing); err != nil {
		return nil, err
	}

	img := image.NewGray(image.Rect(0, 0, imageSize, imageSize))
	for i := range img.Pix {
		img.Pix[i] = White
	}

	c := canvas{
		img:  img,
		size: imageSize,
		lo:   -(lineWidth - 1) / 2,
		hi:   lineWidth / 2,
	}

	for _, stroke := range drawing.Strokes {
		for i := 1; i < len(stroke.X); i++ {
			c.segment(stroke.X[i-1], stroke.Y[i-1], stroke.X[i], stroke.Y[i])
		}
	}

	return img, nil
}

// EncodePNG serializes the bitmap as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

type canvas struct {
	img  *image.Gray
	size int
	// brush offsets relative to the visited pixel
	lo, hi int
}

func (c *canvas) segment(x0, y0, x1, y1 float64) {
	for _, v := range [4]float64{x0, y0, x1, y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return
		}
	}

	// Pixels outside [-hi, size-1-lo] cannot reach the canvas; keep one pixel of slack for rounding.
	minBound := float64(-c.hi - 1)
	maxBound := float64(c.size - c.lo)
	cx0, cy0, cx1, cy1, ok := clipSegment(x0, y0, x1, y1, minBound, maxBound)
	if !ok {
		return
	}

	c.line(int(math.Round(cx0)), int(math.Round(cy0)), int(math.Round(cx1)), int(math.Round(cy1)))
}

func (c *canvas) line(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		c.stamp(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *canvas) stamp(px, py int) {
	for y := py + c.lo; y <= py+c.hi; y++ {
		if y < 0 || y >= c.size {
			continue
		}
		row := y * c.img.Stride
		for x := px + c.lo; x <= px+c.hi; x++ {
			if x < 0 || x >= c.size {
				continue
			}
			c.img.Pix[row+x] = Black
		}
	}
}

// clipSegment clips a segment to the square [lower, upper]^2 (Liang-Barsky).
// Segments already inside are returned unchanged.
func clipSegment(x0, y0, x1, y1, lower, upper float64) (float64, float64, float64, float64, bool) {
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{x0 - lower, upper - x0, y0 - lower, upper - y0}

	for i := range p {
		if p[i] == 0 {
			if q[i] < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q[i] / p[i]
		if p[i] < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}

	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
