package dto

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"horsecounter/internal/model"
)

// DateLayout is the format of the from/to filter values.
const DateLayout = "2006-01-02"

var validate = validator.New()

// HistoryQuery describes user-provided filters to narrow history exports.
type HistoryQuery struct {
	Type  string `validate:"omitempty,oneof=image video stream"`
	From  string `validate:"omitempty,datetime=2006-01-02"`
	To    string `validate:"omitempty,datetime=2006-01-02"`
	Limit string `validate:"omitempty,number"`
}

// Getter is satisfied by url.Values.
type Getter interface {
	Get(key string) string
}

// HistoryQueryFrom reads type, from, to and limit parameters.
func HistoryQueryFrom(values Getter) HistoryQuery {
	return HistoryQuery{
		Type:  values.Get("type"),
		From:  values.Get("from"),
		To:    values.Get("to"),
		Limit: values.Get("limit"),
	}
}

// Validate checks the query fields.
func (q HistoryQuery) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	return nil
}

// Filter converts the query to a model filter, interpreting dates in time.Local.
func (q HistoryQuery) Filter() (model.HistoryFilter, error) {
	if err := q.Validate(); err != nil {
		return model.HistoryFilter{}, err
	}

	filter := model.HistoryFilter{InputType: model.InputType(q.Type)}
	if q.From != "" {
		t, err := time.ParseInLocation(DateLayout, q.From, time.Local)
		if err != nil {
			return model.HistoryFilter{}, err
		}
		filter.DateAfter = t
	}
	if q.To != "" {
		t, err := time.ParseInLocation(DateLayout, q.To, time.Local)
		if err != nil {
			return model.HistoryFilter{}, err
		}
		filter.DateBefore = t
	}
	return filter, nil
}

// LimitOr returns the parsed limit, or def when none was given.
func (q HistoryQuery) LimitOr(def int) (int, error) {
	if q.Limit == "" {
		return def, nil
	}
	n, err := strconv.Atoi(q.Limit)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q: %w", q.Limit, err)
	}
	return n, nil
}
