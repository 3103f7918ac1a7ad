package wordcloud

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/fogleman/gg"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Placement records where a word landed and how big it was drawn.
type Placement struct {
	Word     string
	Count    int
	FontSize float64
	Bounds   image.Rectangle
	Color    color.Color
}

// Cloud is a rendered word cloud.
type Cloud struct {
	Image  image.Image
	Placed []Placement
}

// Renderer lays the frequency table out on a canvas. words arrive sorted by
// descending count.
type Renderer interface {
	Render(words []WordCount, opts Options) (*Cloud, error)
}

var (
	fontOnce   sync.Once
	parsedFont *opentype.Font
	fontErr    error
)

func goRegular() (*opentype.Font, error) {
	fontOnce.Do(func() {
		parsedFont, fontErr = opentype.Parse(goregular.TTF)
	})
	return parsedFont, fontErr
}

// SpiralRenderer draws horizontal words with gg, trying positions along an
// Archimedean spiral and shrinking a word that does not fit.
type SpiralRenderer struct{}

func (SpiralRenderer) Render(words []WordCount, opts Options) (*Cloud, error) {
	logger := log.WithFields(log.Fields{"module": "wordcloud", "method": "SpiralRenderer.Render"})

	f, err := goRegular()
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed>>1)))

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(opts.Background)
	dc.Clear()

	faces := make(map[float64]font.Face)
	defer func() {
		for _, face := range faces {
			face.Close()
		}
	}()
	faceFor := func(size float64) (font.Face, error) {
		if face, ok := faces[size]; ok {
			return face, nil
		}
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			return nil, err
		}
		faces[size] = face
		return face, nil
	}

	canvas := image.Rect(0, 0, opts.Width, opts.Height)
	sizes := FontSizes(words, opts.MinFontSize, opts.maxFontSize())
	placed := make([]Placement, 0, len(words))
	ceiling := math.Inf(1)
	// once a word has failed at the minimum size, later words only try that
	// size, and any at least as wide as the narrowest failure is skipped
	crowded := false
	narrowestMiss := math.MaxInt

	for i, wc := range words {
		size := math.Min(sizes[i], ceiling)
		if crowded {
			size = opts.MinFontSize
		}
		var (
			box  image.Rectangle
			face font.Face
			ok   bool
		)
		for size >= opts.MinFontSize {
			face, err = faceFor(size)
			if err != nil {
				return nil, fmt.Errorf("font face %.1f: %w", size, err)
			}
			if crowded && font.MeasureString(face, wc.Word).Ceil() >= narrowestMiss {
				break
			}
			box, ok = findSpot(face, wc.Word, canvas, placed, opts.Padding, rng)
			if ok {
				break
			}
			size = math.Floor(size * 0.9)
		}
		if !ok {
			minFace, err := faceFor(opts.MinFontSize)
			if err != nil {
				return nil, fmt.Errorf("font face %.1f: %w", opts.MinFontSize, err)
			}
			crowded = true
			narrowestMiss = min(narrowestMiss, font.MeasureString(minFace, wc.Word).Ceil())
			logger.Tracef("no room for %q after %d words", wc.Word, len(placed))
			continue
		}

		c := opts.Palette[rng.IntN(len(opts.Palette))]
		dc.SetFontFace(face)
		dc.SetColor(c)
		dc.DrawString(wc.Word, float64(box.Min.X), float64(box.Min.Y+face.Metrics().Ascent.Ceil()))

		placed = append(placed, Placement{Word: wc.Word, Count: wc.Count, FontSize: size, Bounds: box, Color: c})
		ceiling = size
	}

	logger.Debugf("placed %d of %d words", len(placed), len(words))
	return &Cloud{Image: dc.Image(), Placed: placed}, nil
}

// findSpot walks a spiral out from a jittered centre looking for a free box.
func findSpot(face font.Face, word string, canvas image.Rectangle, placed []Placement, padding int, rng *rand.Rand) (image.Rectangle, bool) {
	m := face.Metrics()
	w := font.MeasureString(face, word).Ceil() + 2*padding
	h := m.Ascent.Ceil() + m.Descent.Ceil() + 2*padding
	if w > canvas.Dx() || h > canvas.Dy() {
		return image.Rectangle{}, false
	}

	cx := canvas.Dx()/2 + rng.IntN(canvas.Dx()/8+1) - canvas.Dx()/16
	cy := canvas.Dy()/2 + rng.IntN(canvas.Dy()/8+1) - canvas.Dy()/16
	maxRadius := math.Hypot(float64(canvas.Dx()), float64(canvas.Dy()))
	aspect := float64(canvas.Dx()) / float64(canvas.Dy())

	for theta := 0.0; ; {
		r := 2 * theta
		// keep consecutive probes a few pixels apart on the outer turns
		theta += math.Min(0.5, 4/math.Max(r, 1))
		if r > maxRadius {
			return image.Rectangle{}, false
		}
		x := cx + int(r*aspect*math.Cos(theta)) - w/2
		y := cy + int(r*math.Sin(theta)) - h/2
		box := image.Rect(x, y, x+w, y+h)
		if !box.In(canvas) || overlaps(box, placed) {
			continue
		}
		return box.Inset(padding), true
	}
}

func overlaps(box image.Rectangle, placed []Placement) bool {
	for _, p := range placed {
		if box.Overlaps(p.Bounds) {
			return true
		}
	}
	return false
}

// FontSizes maps counts to glyph sizes. Sizes never increase as counts
// decrease: the top word gets maxSize and the rest scale with the square root
// of their share of the top count.
func FontSizes(words []WordCount, minSize, maxSize float64) []float64 {
	sizes := make([]float64, len(words))
	if len(words) == 0 {
		return sizes
	}
	top := 0
	for _, wc := range words {
		top = max(top, wc.Count)
	}
	if top <= 0 {
		for i := range sizes {
			sizes[i] = minSize
		}
		return sizes
	}
	for i, wc := range words {
		ratio := math.Sqrt(float64(wc.Count) / float64(top))
		sizes[i] = math.Round(minSize + (maxSize-minSize)*ratio)
	}
	return sizes
}
