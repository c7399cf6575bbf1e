// Package yolo decodes raw YOLOv8 network output into candidate boxes.
package yolo

import (
	"fmt"
	"image"
	"math"
)

// Output describes a YOLOv8 detection tensor laid out as [1, 4+classes, anchors].
type Output struct {
	Data     []float32
	Channels int
	Anchors  int
}

// Candidate is a decoded detection in source image pixels, before suppression.
type Candidate struct {
	X1, Y1, X2, Y2 float64
	Confidence     float64
}

// Rect returns the candidate as an integer rectangle.
func (c Candidate) Rect() image.Rectangle {
	return image.Rect(int(math.Round(c.X1)), int(math.Round(c.Y1)), int(math.Round(c.X2)), int(math.Round(c.Y2)))
}

// Options controls which anchors survive decoding.
type Options struct {
	ClassID   int
	Threshold float64
	// Scale maps network input pixels back to source pixels.
	Scale float64
	// Width and Height of the source image; boxes are clamped to it.
	Width, Height int
}

// Decode keeps anchors whose best class is ClassID with a score at or above Threshold.
func Decode(out Output, opts Options) ([]Candidate, error) {
	if out.Channels < 5 {
		return nil, fmt.Errorf("unexpected output channels: %d", out.Channels)
	}
	if len(out.Data) != out.Channels*out.Anchors {
		return nil, fmt.Errorf("output size %d does not match %dx%d", len(out.Data), out.Channels, out.Anchors)
	}
	classes := out.Channels - 4
	if opts.ClassID < 0 || opts.ClassID >= classes {
		return nil, fmt.Errorf("class id %d out of range for %d classes", opts.ClassID, classes)
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	at := func(ch, i int) float64 {
		return float64(out.Data[ch*out.Anchors+i])
	}

	var candidates []Candidate
	for i := 0; i < out.Anchors; i++ {
		score := at(4+opts.ClassID, i)
		if score < opts.Threshold {
			continue
		}
		if !isBestClass(at, classes, opts.ClassID, i, score) {
			continue
		}

		cx, cy, w, h := at(0, i), at(1, i), at(2, i), at(3, i)
		c := Candidate{
			X1:         (cx - w/2) * scale,
			Y1:         (cy - h/2) * scale,
			X2:         (cx + w/2) * scale,
			Y2:         (cy + h/2) * scale,
			Confidence: score,
		}
		if opts.Width > 0 && opts.Height > 0 {
			c = clamp(c, float64(opts.Width), float64(opts.Height))
		}
		if c.X2 <= c.X1 || c.Y2 <= c.Y1 {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func isBestClass(at func(ch, i int) float64, classes, classID, i int, score float64) bool {
	for c := 0; c < classes; c++ {
		if c != classID && at(4+c, i) > score {
			return false
		}
	}
	return true
}

func clamp(c Candidate, w, h float64) Candidate {
	c.X1 = math.Max(0, math.Min(c.X1, w))
	c.X2 = math.Max(0, math.Min(c.X2, w))
	c.Y1 = math.Max(0, math.Min(c.Y1, h))
	c.Y2 = math.Max(0, math.Min(c.Y2, h))
	return c
}

// Letterbox returns the square side a w x h image is padded to and the scale
// from a size x size network input back to source pixels.
func Letterbox(w, h, size int) (side int, scale float64) {
	side = w
	if h > side {
		side = h
	}
	return side, float64(side) / float64(size)
}
