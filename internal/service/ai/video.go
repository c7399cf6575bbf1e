package ai

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"
)

// maxProbeFrames bounds how many leading frames are read looking for a decodable one.
const maxProbeFrames = 30

// FrameExtractor reads uploaded videos through OpenCV's VideoCapture.
type FrameExtractor struct{}

// NewFrameExtractor creates a frame extractor.
func NewFrameExtractor() *FrameExtractor {
	return &FrameExtractor{}
}

// ExtractFirstFrame writes the first non-empty frame of videoPath to outputPath.
func (e *FrameExtractor) ExtractFirstFrame(ctx context.Context, videoPath, outputPath string) error {
	capture, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return fmt.Errorf("failed to open video %s: %w", videoPath, err)
	}
	defer capture.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	for i := 0; i < maxProbeFrames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ok := capture.Read(&frame); !ok {
			break
		}
		if frame.Empty() {
			continue
		}
		if ok := gocv.IMWrite(outputPath, frame); !ok {
			return fmt.Errorf("failed to write frame %s", outputPath)
		}
		return nil
	}
	return fmt.Errorf("no decodable frame in %s", videoPath)
}
