package handler_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"horsecounter/internal/config"
	"horsecounter/internal/dto"
	"horsecounter/internal/handler"
	"horsecounter/internal/logger"
	"horsecounter/internal/model"
	"horsecounter/internal/repository/jsonfile"
	"horsecounter/internal/route"
	"horsecounter/internal/service"
	"horsecounter/internal/service/annotate"
	"horsecounter/internal/service/report"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type stubDetector struct {
	boxes []model.Box
	calls int
}

func (d *stubDetector) Detect(context.Context, string) ([]model.Box, error) {
	d.calls++
	return append([]model.Box(nil), d.boxes...), nil
}

type server struct {
	handler  http.Handler
	repo     *jsonfile.HistoryRepository
	detector *stubDetector
	cfg      *config.Config
}

func newServer(t *testing.T) *server {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		UploadDirectory: filepath.Join(dir, "static", "uploads"),
		ResultDirectory: filepath.Join(dir, "static", "results"),
		ReportDirectory: filepath.Join(dir, "reports"),
		ReportFontPath:  filepath.Join(dir, "missing.ttf"),
		ReportTitle:     "Report",
		ReportPDFLimit:  10,
		HomeRecentLimit: 5,
		MaxUploadSize:   1 << 20,
		RateLimit:       0,
		RateBurst:       1,
	}

	log, err := logger.NewWithOutput(filepath.Join(dir, "logs"), "info", io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	repo, err := jsonfile.NewHistoryRepository(filepath.Join(dir, "history.json"))
	require.NoError(t, err)

	detector := &stubDetector{}
	manager, err := service.NewManager(cfg, log, service.Dependencies{
		Detector:  detector,
		Annotator: annotate.NewNative("Horse"),
		History:   repo,
	})
	require.NoError(t, err)

	page, err := handler.NewIndexPage(cfg, log, repo)
	require.NoError(t, err)

	h := route.SetupRoutes(cfg, log, route.Dependencies{
		Manager:   manager,
		History:   repo,
		Reports:   report.NewGenerator(cfg, log, repo),
		IndexPage: page,
	})
	return &server{handler: h, repo: repo, detector: detector, cfg: cfg}
}

func (s *server) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func pngData(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 80, 60))))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, path, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if content != nil {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func historyLen(t *testing.T, s *server) int {
	t.Helper()
	all, err := s.repo.ReadAll()
	require.NoError(t, err)
	return len(all)
}

func TestProcess_Success(t *testing.T) {
	s := newServer(t)
	s.detector.boxes = []model.Box{
		{X1: 5, Y1: 5, X2: 30, Y2: 30, Confidence: 0.44},
		{X1: 40, Y1: 10, X2: 70, Y2: 50, Confidence: 0.91},
		{X1: 20, Y1: 20, X2: 45, Y2: 55, Confidence: 0.72},
	}

	rec := s.do(uploadRequest(t, "/process", "horses.png", pngData(t), map[string]string{"type": "image"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp dto.ProcessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.HorseCount)
	assert.Len(t, resp.Boxes, resp.HorseCount)
	assert.Equal(t, 0.91, resp.Boxes[0].Confidence)
	assert.True(t, strings.HasPrefix(resp.ResultURL, handler.ResultsURLPrefix+"result_"))

	assert.Equal(t, 1, historyLen(t, s))

	img := s.do(httptest.NewRequest(http.MethodGet, resp.ResultURL, nil))
	assert.Equal(t, http.StatusOK, img.Code, "annotated image is served")

	entry := s.do(httptest.NewRequest(http.MethodGet, "/history/"+resp.HistoryID, nil))
	require.Equal(t, http.StatusOK, entry.Code)
	var got model.HistoryEntry
	require.NoError(t, json.Unmarshal(entry.Body.Bytes(), &got))
	assert.Equal(t, 3, got.HorseCount)
}

func TestStoredFiles_NoDirectoryListing(t *testing.T) {
	s := newServer(t)
	rec := s.do(uploadRequest(t, "/process", "horses.png", pngData(t), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.ProcessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	resultName := strings.TrimPrefix(resp.ResultURL, handler.ResultsURLPrefix)

	require.NoError(t, os.MkdirAll(filepath.Join(s.cfg.UploadDirectory, "nested"), 0755))

	for _, path := range []string{
		handler.UploadsURLPrefix,
		handler.ResultsURLPrefix,
		handler.UploadsURLPrefix + "nested/",
	} {
		listing := s.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, listing.Code, path)
		assert.NotContains(t, listing.Body.String(), resultName, path)
	}

	file := s.do(httptest.NewRequest(http.MethodGet, resp.ResultURL, nil))
	assert.Equal(t, http.StatusOK, file.Code)
}

func TestProcess_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{"missing file", func(t *testing.T) *http.Request {
			return uploadRequest(t, "/process", "", nil, map[string]string{"type": "image"})
		}},
		{"zero byte file", func(t *testing.T) *http.Request {
			return uploadRequest(t, "/process", "empty.jpg", []byte{}, nil)
		}},
		{"no extension", func(t *testing.T) *http.Request {
			return uploadRequest(t, "/process", "photo", []byte("abc"), nil)
		}},
		{"bad type", func(t *testing.T) *http.Request {
			return uploadRequest(t, "/process", "a.png", []byte("abc"), map[string]string{"type": "gif"})
		}},
		{"stream", func(t *testing.T) *http.Request {
			return uploadRequest(t, "/process", "a.mp4", []byte("abc"), map[string]string{"type": "stream"})
		}},
		{"not multipart", func(t *testing.T) *http.Request {
			return httptest.NewRequest(http.MethodPost, "/process", strings.NewReader("hello"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t)
			rec := s.do(tt.req(t))

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
			assert.NotEmpty(t, body.RequestID)

			assert.Zero(t, s.detector.calls)
			assert.Zero(t, historyLen(t, s))
		})
	}
}

func TestProcess_TooLarge(t *testing.T) {
	s := newServer(t)
	big := make([]byte, 2<<20)
	rec := s.do(uploadRequest(t, "/process", "big.png", big, nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, historyLen(t, s))
}

func TestPredict_RendersPage(t *testing.T) {
	s := newServer(t)
	s.detector.boxes = []model.Box{{X1: 1, Y1: 1, X2: 20, Y2: 20, Confidence: 0.8}}

	rec := s.do(uploadRequest(t, "/predict", "a.png", pngData(t), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Найдено лошадей: 1")
	assert.Contains(t, rec.Body.String(), handler.ResultsURLPrefix+"result_")

	req := uploadRequest(t, "/predict", "a.png", pngData(t), nil)
	req.Header.Set("Accept", "application/json")
	rec = s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestHistory_LimitAndOrder(t *testing.T) {
	s := newServer(t)
	for i := 0; i < 4; i++ {
		e := model.NewHistoryEntry(model.InputImage, "f.jpg", "result_f.jpg", make([]model.Box, i),
			time.Date(2025, 2, 1, 12, i, 0, 0, time.UTC))
		require.NoError(t, s.repo.Append(e))
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var all []model.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 4)
	assert.Equal(t, 0, all[0].HorseCount)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/history?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var recent []model.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recent))
	require.Len(t, recent, 2)
	assert.Equal(t, all[3].ID, recent[0].ID)
	assert.Equal(t, all[2].ID, recent[1].ID)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/history?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/history/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndex_ShowsRecent(t *testing.T) {
	s := newServer(t)
	for i := 0; i < 7; i++ {
		e := model.NewHistoryEntry(model.InputImage, "horse"+string(rune('a'+i))+".jpg", "r.jpg", nil,
			time.Date(2025, 2, 1, 12, i, 0, 0, time.UTC))
		require.NoError(t, s.repo.Append(e))
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "horseg.jpg")
	assert.Contains(t, body, "horsec.jpg")
	assert.NotContains(t, body, "horseb.jpg", "only the five most recent")

	rec = s.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownload_Excel(t *testing.T) {
	s := newServer(t)
	for i := 0; i < 3; i++ {
		e := model.NewHistoryEntry(model.InputImage, "f.jpg", "result_f.jpg", nil, time.Now())
		require.NoError(t, s.repo.Append(e))
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/download/excel", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "history_report_")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("History")
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/report/excel", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDownload_Errors(t *testing.T) {
	s := newServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/download/excel", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "empty history")

	rec = s.do(httptest.NewRequest(http.MethodGet, "/download/docx", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, s.repo.Append(model.NewHistoryEntry(model.InputImage, "f.jpg", "r.jpg", nil, time.Now())))
	rec = s.do(httptest.NewRequest(http.MethodGet, "/report/pdf", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code, "font is missing")
	assert.Contains(t, rec.Body.String(), "font")

	rec = s.do(httptest.NewRequest(http.MethodGet, "/download/json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	files, err := os.ReadDir(s.cfg.ReportDirectory)
	require.NoError(t, err)
	assert.Len(t, files, 1, "only the successful export was written")
}

func TestLogsAndHealth(t *testing.T) {
	s := newServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/logs/info", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/logs/debug", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodPost, "/logs/warning/clear", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
