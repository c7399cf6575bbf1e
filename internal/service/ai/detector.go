package ai

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"horsecounter/internal/config"
	"horsecounter/internal/logger"
	"horsecounter/internal/model"
	"horsecounter/internal/service"
	"horsecounter/internal/service/ai/yolo"
)

// DetectorService runs a YOLOv8 ONNX export through the OpenCV DNN module.
type DetectorService struct {
	net       gocv.Net
	mutex     sync.Mutex
	modelPath string
	inputSize int
	classID   int
	threshold float64
	nms       float64
	logger    *logger.Logger
}

// NewDetectorService loads the network once; the model must exist.
func NewDetectorService(cfg *config.Config, logger *logger.Logger) (*DetectorService, error) {
	s := &DetectorService{
		modelPath: cfg.ModelPath,
		inputSize: cfg.ModelInputSize,
		classID:   cfg.TargetClassID,
		threshold: cfg.ConfidenceThreshold,
		nms:       cfg.NMSThreshold,
		logger:    logger,
	}

	if err := s.initializeNet(); err != nil {
		return nil, err
	}
	return s, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}

	net := gocv.ReadNet(s.modelPath, "")
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", s.modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.logger.Info("Detection network %s initialized successfully", s.modelPath)
	return nil
}

// Detect returns target-class boxes in source pixels, highest confidence first.
func (s *DetectorService) Detect(ctx context.Context, imagePath string) ([]model.Box, error) {
	mat := gocv.IMRead(imagePath, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("%w: %s", service.ErrDecode, imagePath)
	}

	width, height := mat.Cols(), mat.Rows()
	side, scale := yolo.Letterbox(width, height, s.inputSize)

	square := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), side, side, gocv.MatTypeCV8UC3)
	defer square.Close()
	roi := square.Region(image.Rect(0, 0, width, height))
	mat.CopyTo(&roi)
	roi.Close()

	blob := gocv.BlobFromImage(square, 1.0/255.0, image.Pt(s.inputSize, s.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := s.forward(blob)
	if err != nil {
		return nil, err
	}

	candidates, err := yolo.Decode(out, yolo.Options{
		ClassID:   s.classID,
		Threshold: s.threshold,
		Scale:     scale,
		Width:     width,
		Height:    height,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode network output: %w", err)
	}

	boxes := s.suppress(candidates)
	s.logger.Debug("Detected %d object(s) of class %d in %s", len(boxes), s.classID, imagePath)
	return boxes, nil
}

// forward runs the net under the mutex and copies the output out of OpenCV memory.
func (s *DetectorService) forward(blob gocv.Mat) (yolo.Output, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.net.Empty() {
		return yolo.Output{}, fmt.Errorf("detection network not initialized")
	}

	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	sizes := output.Size()
	if len(sizes) != 3 || sizes[0] != 1 {
		return yolo.Output{}, fmt.Errorf("unexpected output shape %v", sizes)
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return yolo.Output{}, fmt.Errorf("failed to read network output: %w", err)
	}

	copied := make([]float32, len(data))
	copy(copied, data)
	return yolo.Output{Data: copied, Channels: sizes[1], Anchors: sizes[2]}, nil
}

// suppress applies non-maximum suppression and orders the survivors by confidence.
func (s *DetectorService) suppress(candidates []yolo.Candidate) []model.Box {
	if len(candidates) == 0 {
		return []model.Box{}
	}

	rects := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		rects[i] = c.Rect()
		scores[i] = float32(c.Confidence)
	}

	indices := gocv.NMSBoxes(rects, scores, float32(s.threshold), float32(s.nms))

	boxes := make([]model.Box, 0, len(indices))
	for _, idx := range indices {
		c := candidates[idx]
		boxes = append(boxes, model.Box{X1: c.X1, Y1: c.Y1, X2: c.X2, Y2: c.Y2, Confidence: c.Confidence})
	}
	return boxes
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.net.Close()
}
