package yolo

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const horse = 17

type anchor struct {
	cx, cy, w, h float32
	scores       map[int]float32
}

func buildOutput(anchors []anchor) Output {
	channels := 84
	data := make([]float32, channels*len(anchors))
	for i, a := range anchors {
		data[0*len(anchors)+i] = a.cx
		data[1*len(anchors)+i] = a.cy
		data[2*len(anchors)+i] = a.w
		data[3*len(anchors)+i] = a.h
		for class, s := range a.scores {
			data[(4+class)*len(anchors)+i] = s
		}
	}
	return Output{Data: data, Channels: channels, Anchors: len(anchors)}
}

func TestDecode_KeepsTargetClassAboveThreshold(t *testing.T) {
	out := buildOutput([]anchor{
		{cx: 100, cy: 100, w: 40, h: 20, scores: map[int]float32{horse: 0.91}},
		{cx: 200, cy: 200, w: 40, h: 20, scores: map[int]float32{horse: 0.39}},
		{cx: 300, cy: 300, w: 40, h: 20, scores: map[int]float32{0: 0.95}},
		{cx: 400, cy: 400, w: 40, h: 20, scores: map[int]float32{horse: 0.5, 18: 0.8}},
		{cx: 500, cy: 500, w: 40, h: 20, scores: map[int]float32{horse: 0.4}},
	})

	got, err := Decode(out, Options{ClassID: horse, Threshold: 0.4, Scale: 1})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.InDelta(t, 0.91, got[0].Confidence, 1e-6)
	assert.Equal(t, Candidate{X1: 80, Y1: 90, X2: 120, Y2: 110, Confidence: got[0].Confidence}, got[0])
	assert.InDelta(t, 0.4, got[1].Confidence, 1e-6, "threshold is inclusive")
}

func TestDecode_ScalesAndClamps(t *testing.T) {
	out := buildOutput([]anchor{
		{cx: 10, cy: 10, w: 40, h: 40, scores: map[int]float32{horse: 0.8}},
	})

	got, err := Decode(out, Options{ClassID: horse, Threshold: 0.4, Scale: 2, Width: 50, Height: 50})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].X1)
	assert.Equal(t, 0.0, got[0].Y1)
	assert.Equal(t, 50.0, got[0].X2)
	assert.Equal(t, 50.0, got[0].Y2)
	assert.Equal(t, image.Rect(0, 0, 50, 50), got[0].Rect())
}

func TestDecode_DropsBoxesOutsideImage(t *testing.T) {
	out := buildOutput([]anchor{
		{cx: 900, cy: 900, w: 10, h: 10, scores: map[int]float32{horse: 0.9}},
	})

	got, err := Decode(out, Options{ClassID: horse, Threshold: 0.4, Width: 100, Height: 100})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecode_RejectsMalformedOutput(t *testing.T) {
	tests := []struct {
		name string
		out  Output
		opts Options
	}{
		{"too few channels", Output{Data: make([]float32, 4), Channels: 4, Anchors: 1}, Options{}},
		{"size mismatch", Output{Data: make([]float32, 10), Channels: 84, Anchors: 1}, Options{ClassID: horse}},
		{"class out of range", Output{Data: make([]float32, 84), Channels: 84, Anchors: 1}, Options{ClassID: 80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.out, tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestLetterbox(t *testing.T) {
	side, scale := Letterbox(1280, 720, 640)
	assert.Equal(t, 1280, side)
	assert.Equal(t, 2.0, scale)

	side, scale = Letterbox(320, 480, 640)
	assert.Equal(t, 480, side)
	assert.Equal(t, 0.75, scale)
}
