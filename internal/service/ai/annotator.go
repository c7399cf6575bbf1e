package ai

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"horsecounter/internal/model"
	"horsecounter/internal/service/annotate"
)

// Annotator draws detections with OpenCV primitives.
type Annotator struct {
	label string
}

// NewAnnotator creates an OpenCV annotator captioning boxes with label.
func NewAnnotator(label string) *Annotator {
	return &Annotator{label: label}
}

// Annotate draws boxes on sourcePath and writes outputPath, overwriting it.
func (a *Annotator) Annotate(sourcePath string, boxes []model.Box, outputPath string) error {
	mat := gocv.IMRead(sourcePath, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return fmt.Errorf("failed to read image %s", sourcePath)
	}

	for _, b := range boxes {
		rect := image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
		if err := gocv.Rectangle(&mat, rect, annotate.BoxColor, annotate.Thickness); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}

		pt := image.Pt(rect.Min.X, rect.Min.Y-annotate.LabelOffset)
		label := annotate.FormatLabel(a.label, b.Confidence)
		if err := gocv.PutText(&mat, label, pt, gocv.FontHersheySimplex, 0.9, annotate.BoxColor, 2); err != nil {
			return fmt.Errorf("failed to draw text: %w", err)
		}
	}

	if ok := gocv.IMWrite(outputPath, mat); !ok {
		return fmt.Errorf("failed to write annotated image %s", outputPath)
	}
	return nil
}
