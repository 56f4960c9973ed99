package classifier

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// pixelStats holds the colour statistics the heuristics need plus the luma
// plane reused by edge detection.
type pixelStats struct {
	colorStd float64
	grayStd  float64
	gray     *image.Gray
}

// computeStats treats the image as opaque RGB: alpha is dropped, not composited.
func computeStats(img image.Image) pixelStats {
	src := toNRGBA(img)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	gray := image.NewGray(image.Rect(0, 0, w, h))

	var sum, sumSq float64
	var gSum, gSumSq float64

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		grow := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x := 0; x < w; x++ {
			r := uint32(row[x*4])
			g := uint32(row[x*4+1])
			bl := uint32(row[x*4+2])

			sum += float64(r + g + bl)
			sumSq += float64(r*r + g*g + bl*bl)

			l := luma(r, g, bl)
			grow[x] = uint8(l)
			gSum += float64(l)
			gSumSq += float64(l * l)
		}
	}

	n := float64(w * h)
	return pixelStats{
		colorStd: stdDev(sum, sumSq, 3*n),
		grayStd:  stdDev(gSum, gSumSq, n),
		gray:     gray,
	}
}

// luma is the ITU-R 601-2 transform with the same rounding Pillow's "L" mode uses.
func luma(r, g, b uint32) uint32 {
	return (r*19595 + g*38470 + b*7471 + 0x8000) >> 16
}

func stdDev(sum, sumSq, n float64) float64 {
	if n == 0 {
		return 0
	}
	mean := sum / n
	v := sumSq/n - mean*mean
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
