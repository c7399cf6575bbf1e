package service

import (
	"net/http"

	"horsecounter/internal/response"
)

// Upload validation errors.
var (
	ErrMissingFile      = response.NewError(http.StatusBadRequest, "no file uploaded")
	ErrEmptyFilename    = response.NewError(http.StatusBadRequest, "empty file name")
	ErrEmptyFile        = response.NewError(http.StatusBadRequest, "uploaded file is empty")
	ErrMissingExtension = response.NewError(http.StatusBadRequest, "file name has no extension")
	ErrInvalidType      = response.NewError(http.StatusBadRequest, "type must be one of image, video, stream")
	ErrUnsupportedInput = response.NewError(http.StatusBadRequest, "stream input is not supported")
	ErrVideoUnsupported = response.NewError(http.StatusBadRequest, "video input is not supported")
	ErrFileTooLarge     = response.NewError(http.StatusRequestEntityTooLarge, "uploaded file is too large")
)

// Processing errors.
var (
	ErrDecode       = response.NewError(http.StatusUnprocessableEntity, "could not decode uploaded media")
	ErrDetection    = response.NewError(http.StatusInternalServerError, "detection failed")
	ErrAnnotation   = response.NewError(http.StatusInternalServerError, "annotation failed")
	ErrStorage      = response.NewError(http.StatusInternalServerError, "failed to store upload")
	ErrHistoryWrite = response.NewError(http.StatusInternalServerError,
		"annotated image was written but the history entry could not be recorded")
)
