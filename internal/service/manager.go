package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"horsecounter/internal/config"
	"horsecounter/internal/logger"
	"horsecounter/internal/model"
	"horsecounter/internal/repository"
)

// Upload is one submitted file as received from the client.
type Upload struct {
	Filename  string
	Size      int64
	Content   io.Reader
	InputType model.InputType
}

// Dependencies are the collaborators a Manager coordinates.
type Dependencies struct {
	Detector  Detector
	Annotator Annotator
	Frames    FrameExtractor // nil disables video input
	History   repository.HistoryRepository
	Publisher Publisher // optional
}

// Manager runs the upload pipeline: save, detect, annotate, record, publish.
type Manager struct {
	uploadDir string
	resultDir string

	detector  Detector
	annotator Annotator
	frames    FrameExtractor
	history   repository.HistoryRepository
	publisher Publisher
	logger    *logger.Logger

	now func() time.Time
}

// NewManager creates the pipeline and makes sure its directories exist.
func NewManager(cfg *config.Config, logger *logger.Logger, deps Dependencies) (*Manager, error) {
	for _, dir := range []string{cfg.UploadDirectory, cfg.ResultDirectory} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return &Manager{
		uploadDir: cfg.UploadDirectory,
		resultDir: cfg.ResultDirectory,
		detector:  deps.Detector,
		annotator: deps.Annotator,
		frames:    deps.Frames,
		history:   deps.History,
		publisher: deps.Publisher,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// GetHistory returns the history store the manager appends to.
func (m *Manager) GetHistory() repository.HistoryRepository {
	return m.history
}

// Process handles one upload end to end. On ErrHistoryWrite the returned entry is
// non-nil: the annotated image exists but the log does not reference it.
func (m *Manager) Process(ctx context.Context, upload Upload) (*model.HistoryEntry, error) {
	inputType, ext, err := validateUpload(upload)
	if err != nil {
		return nil, err
	}

	base := strings.ReplaceAll(uuid.NewString(), "-", "")
	storedName := base + ext
	storedPath := filepath.Join(m.uploadDir, storedName)

	if err := saveUpload(storedPath, upload.Content); err != nil {
		return nil, err
	}

	source := storedPath
	resultName := "result_" + storedName
	if inputType == model.InputVideo {
		if m.frames == nil {
			m.discard(storedPath)
			return nil, ErrVideoUnsupported
		}
		source = filepath.Join(m.uploadDir, base+"_frame.jpg")
		resultName = "result_" + base + ".jpg"
		if err := m.frames.ExtractFirstFrame(ctx, storedPath, source); err != nil {
			m.discard(storedPath, source)
			return nil, wrap(ErrDecode, err)
		}
		defer os.Remove(source)
	}

	if err := ctx.Err(); err != nil {
		m.discard(storedPath)
		return nil, err
	}

	boxes, err := m.detector.Detect(ctx, source)
	if err != nil {
		m.discard(storedPath)
		if errors.Is(err, ErrDecode) {
			m.logger.Warning("Rejected undecodable upload %s: %v", upload.Filename, err)
			return nil, err
		}
		return nil, wrap(ErrDetection, err)
	}
	sortByConfidence(boxes)

	resultPath := filepath.Join(m.resultDir, resultName)
	if err := m.annotator.Annotate(source, boxes, resultPath); err != nil {
		m.discard(storedPath)
		if errors.Is(err, ErrDecode) {
			return nil, err
		}
		return nil, wrap(ErrAnnotation, err)
	}

	entry := model.NewHistoryEntry(inputType, storedName, resultName, boxes, m.now())
	if err := m.history.Append(entry); err != nil {
		m.logger.WithFields(logger.Fields{
			"result_file": resultPath,
			"entry_id":    entry.ID,
		}).Errorf("History append failed, result file is orphaned: %v", err)
		return entry, wrap(ErrHistoryWrite, err)
	}

	m.logger.Info("Processed %s (%s): %d horse(s)", storedName, inputType, entry.HorseCount)

	if m.publisher != nil {
		m.publisher.Publish(entry)
	}
	return entry, nil
}

func validateUpload(upload Upload) (model.InputType, string, error) {
	inputType := upload.InputType
	if inputType == "" {
		inputType = model.InputImage
	}
	switch inputType {
	case model.InputImage, model.InputVideo:
	case model.InputStream:
		return "", "", ErrUnsupportedInput
	default:
		return "", "", ErrInvalidType
	}

	name := filepath.Base(strings.TrimSpace(upload.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", "", ErrEmptyFilename
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || ext == "." {
		return "", "", ErrMissingExtension
	}
	if upload.Content == nil || upload.Size == 0 {
		return "", "", ErrEmptyFile
	}
	return inputType, ext, nil
}

func saveUpload(path string, content io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return wrap(ErrStorage, err)
	}

	n, err := io.Copy(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return wrap(ErrStorage, err)
	}
	if n == 0 {
		os.Remove(path)
		return ErrEmptyFile
	}
	return nil
}

func (m *Manager) discard(paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			m.logger.Warning("Failed to remove %s: %v", p, err)
		}
	}
}

func sortByConfidence(boxes []model.Box) {
	sort.SliceStable(boxes, func(i, j int) bool {
		return boxes[i].Confidence > boxes[j].Confidence
	})
}

// wrap keeps kind as the matchable error and appends the cause's text.
func wrap(kind, cause error) error {
	return fmt.Errorf("%w: %v", kind, cause)
}
