// Package wordcloud turns lyrics into a frequency-weighted word cloud image.
package wordcloud

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	log "github.com/sirupsen/logrus"
)

var ErrEmptyText = errors.New("no words to visualize")

type Options struct {
	Width        int
	Height       int
	Background   color.Color
	Palette      []color.Color
	MinFontSize  float64
	MaxFontSize  float64 // 0 picks a size from the canvas height
	MaxWords     int
	Padding      int
	Collocations bool
	Stopwords    map[string]struct{}
	Seed         int64 // 0 seeds from the clock
}

func DefaultOptions() Options {
	return Options{
		Width:      800,
		Height:     400,
		Background: color.White,
		Palette: []color.Color{
			color.RGBA{R: 0x44, G: 0x01, B: 0x54, A: 0xff},
			color.RGBA{R: 0x3b, G: 0x52, B: 0x8b, A: 0xff},
			color.RGBA{R: 0x21, G: 0x90, B: 0x8d, A: 0xff},
			color.RGBA{R: 0x5d, G: 0xc8, B: 0x63, A: 0xff},
			color.RGBA{R: 0xc2, G: 0x7c, B: 0x0e, A: 0xff},
		},
		MinFontSize: 4,
		MaxWords:    200,
		Padding:     2,
	}
}

func (o Options) maxFontSize() float64 {
	if o.MaxFontSize > 0 {
		return o.MaxFontSize
	}
	return float64(o.Height) * 0.5
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid canvas %dx%d", o.Width, o.Height)
	}
	if o.Background == nil || len(o.Palette) == 0 {
		return errors.New("background and palette are required")
	}
	if o.MinFontSize <= 0 || o.maxFontSize() < o.MinFontSize {
		return fmt.Errorf("invalid font size range %.1f..%.1f", o.MinFontSize, o.maxFontSize())
	}
	return nil
}

type Visualizer struct {
	renderer Renderer
	opts     Options
}

func New(opts Options) *Visualizer {
	return NewWithRenderer(SpiralRenderer{}, opts)
}

func NewWithRenderer(renderer Renderer, opts Options) *Visualizer {
	return &Visualizer{renderer: renderer, opts: opts}
}

// Visualize renders text as a word cloud. Text without a single countable word
// returns ErrEmptyText and never reaches the renderer.
func (v *Visualizer) Visualize(text string) (*Cloud, error) {
	logger := log.WithFields(log.Fields{"module": "wordcloud", "method": "Visualize"})

	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if err := v.opts.validate(); err != nil {
		return nil, err
	}

	words := Frequencies(text, v.opts.Stopwords, v.opts.Collocations)
	if len(words) == 0 {
		logger.Debug("text has no words outside the stopword set")
		return nil, ErrEmptyText
	}
	if v.opts.MaxWords > 0 && len(words) > v.opts.MaxWords {
		words = words[:v.opts.MaxWords]
	}

	cloud, err := v.renderer.Render(words, v.opts)
	if err != nil {
		return nil, fmt.Errorf("render word cloud: %w", err)
	}
	logger.Tracef("rendered %d distinct words", len(cloud.Placed))
	return cloud, nil
}

// EncodePNG serialises img for display.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
