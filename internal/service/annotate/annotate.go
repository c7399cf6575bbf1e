// Package annotate draws detection boxes onto images without OpenCV.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"horsecounter/internal/model"
)

// BoxColor is the outline and label colour for detections.
var BoxColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

const (
	// Thickness is the outline width in pixels.
	Thickness = 3
	// LabelOffset is how far above the box top the label baseline sits.
	LabelOffset = 10
)

// FormatLabel renders the caption drawn next to a box, e.g. "Horse: 0.91".
func FormatLabel(label string, confidence float64) string {
	return fmt.Sprintf("%s: %.2f", label, confidence)
}

// Native annotates images using imaging and x/image fonts.
type Native struct {
	Label string
}

// NewNative creates an annotator captioning boxes with label.
func NewNative(label string) *Native {
	return &Native{Label: label}
}

// Annotate draws every box on sourcePath and saves to outputPath, overwriting it.
// The output format follows the output file extension.
func (n *Native) Annotate(sourcePath string, boxes []model.Box, outputPath string) error {
	src, err := imaging.Open(sourcePath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to open image %s: %w", sourcePath, err)
	}

	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)

	for _, b := range boxes {
		rect := image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2)).Add(bounds.Min).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		drawOutline(dst, rect, BoxColor, Thickness)
		drawLabel(dst, rect, FormatLabel(n.Label, b.Confidence), BoxColor)
	}

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create result directory: %w", err)
		}
	}
	if err := imaging.Save(dst, outputPath); err != nil {
		return fmt.Errorf("failed to save annotated image: %w", err)
	}
	return nil
}

func drawOutline(img draw.Image, r image.Rectangle, c color.Color, thickness int) {
	u := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(r), u, image.Point{}, draw.Src)
	}
}

func drawLabel(img draw.Image, r image.Rectangle, text string, c color.Color) {
	face := basicfont.Face7x13
	y := r.Min.Y - LabelOffset
	if y < img.Bounds().Min.Y+face.Ascent {
		// no room above the box: draw inside it
		y = r.Min.Y + face.Ascent + Thickness
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(r.Min.X), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
