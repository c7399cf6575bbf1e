package service

import (
	"context"

	"horsecounter/internal/model"
)

// Detector finds target objects in an image on disk.
type Detector interface {
	Detect(ctx context.Context, imagePath string) ([]model.Box, error)
}

// Annotator draws boxes onto the source image and writes the result to outputPath.
type Annotator interface {
	Annotate(sourcePath string, boxes []model.Box, outputPath string) error
}

// FrameExtractor writes the first decodable frame of a video as an image.
type FrameExtractor interface {
	ExtractFirstFrame(ctx context.Context, videoPath, outputPath string) error
}

// Publisher receives every entry once it is recorded.
type Publisher interface {
	Publish(entry *model.HistoryEntry)
}
