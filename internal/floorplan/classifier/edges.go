package classifier

import (
	"errors"
	"image"
)

// ErrEdgeDetectionUnavailable is returned by detectors that cannot run in
// the current build or environment.
var ErrEdgeDetectionUnavailable = errors.New("edge detection not available")

// EdgeDetector counts edge pixels in a grayscale image.
type EdgeDetector interface {
	CountEdges(gray *image.Gray) (int, error)
}

// ============================================================
// Canny
// ============================================================

// Canny is a Canny detector over a 3x3 Sobel gradient with L1 magnitude and
// no pre-blur, the behaviour of OpenCV's Canny(gray, low, high).
type Canny struct {
	Low  int
	High int
}

func NewCanny() *Canny {
	return &Canny{Low: CannyLowThreshold, High: CannyHighThreshold}
}

const (
	// tan(22.5°) and tan(67.5°) scaled by 2^15
	tan22 = 13573
	tan67 = 79109
)

func (c *Canny) CountEdges(gray *image.Gray) (int, error) {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0, nil
	}

	at := func(x, y int) int32 {
		x = clampInt(x, 0, w-1)
		y = clampInt(y, 0, h-1)
		return int32(gray.Pix[y*gray.Stride+x])
	}

	// mag is padded by one pixel of zeros on every side.
	stride := w + 2
	mag := make([]int16, stride*(h+2))
	dx := make([]int16, w*h)
	dy := make([]int16, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			gy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))

			dx[y*w+x] = int16(gx)
			dy[y*w+x] = int16(gy)
			mag[(y+1)*stride+x+1] = int16(abs32(gx) + abs32(gy))
		}
	}

	const (
		none   = 0
		weak   = 1
		strong = 2
	)
	state := make([]uint8, w*h)
	var stack []int

	low, high := int16(c.Low), int16(c.High)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			j := (y+1)*stride + x + 1
			m := mag[j]
			if m <= low {
				continue
			}

			xs := int32(dx[y*w+x])
			ys := int32(dy[y*w+x])
			ax, ay := abs32(xs), abs32(ys)<<15

			var keep bool
			switch {
			case ay < ax*tan22:
				keep = m > mag[j-1] && m >= mag[j+1]
			case ay > ax*tan67:
				keep = m > mag[j-stride] && m >= mag[j+stride]
			default:
				s := 1
				if (xs ^ ys) < 0 {
					s = -1
				}
				keep = m > mag[j-stride-s] && m > mag[j+stride+s]
			}
			if !keep {
				continue
			}

			if m > high {
				state[y*w+x] = strong
				stack = append(stack, y*w+x)
			} else {
				state[y*w+x] = weak
			}
		}
	}

	// hysteresis: grow strong edges through 8-connected weak candidates
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w

		for ny := y - 1; ny <= y+1; ny++ {
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				k := ny*w + nx
				if state[k] == weak {
					state[k] = strong
					stack = append(stack, k)
				}
			}
		}
	}

	count := 0
	for _, s := range state {
		if s == strong {
			count++
		}
	}
	return count, nil
}

// ============================================================
// Helpers
// ============================================================

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
