package dto

import "horsecounter/internal/model"

// ProcessRequest holds the non-file form fields of an upload.
type ProcessRequest struct {
	Type string `validate:"omitempty,oneof=image video stream"`
}

// ProcessResponse is returned for a processed upload.
type ProcessResponse struct {
	Success    bool        `json:"success"`
	HorseCount int         `json:"horse_count"`
	Boxes      []model.Box `json:"boxes"`
	ResultURL  string      `json:"result_url"`
	HistoryID  string      `json:"history_id"`
}

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
	ResultURL string `json:"result_url,omitempty"`
	HistoryID string `json:"history_id,omitempty"`
}
