// Package intake turns a user-selected image into a bounded, re-encoded
// base64 payload ready for upload and local storage.
package intake

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"

	// decoders for the accepted input types; jpeg and png are registered above
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/hpungsan/hamper/internal/config"
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
	"github.com/hpungsan/hamper/internal/logger"
	"github.com/hpungsan/hamper/internal/metrics"
)

const (
	DefaultMaxLongSide  = 2240
	DefaultMinShortSide = 4
	DefaultMinRatio     = 0.2
	DefaultMaxRatio     = 5.0
	DefaultJPEGQuality  = 90
	DefaultMaxPixels    = 50_000_000
)

// acceptedTypes maps accepted MIME types to their input extension.
var acceptedTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/jpg":  "jpg",
	"image/webp": "webp",
	"image/bmp":  "bmp",
}

// Kind selects which size limit applies.
type Kind string

const (
	KindLabel   Kind = "label"
	KindClothes Kind = "clothes"
)

// Constraints bound what Intake accepts and produces.
type Constraints struct {
	MaxSizeBytes int64
	MaxLongSide  int
	MinShortSide int
	MinRatio     float64
	MaxRatio     float64
	JPEGQuality  int
	// MaxPixels caps width*height before the bitmap is decoded.
	MaxPixels int

	// OutputFormats maps an input extension to "png" or "jpeg".
	// Unlisted extensions are re-encoded to jpeg.
	OutputFormats map[string]string
}

// DefaultConstraints returns the label-photo limits.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxSizeBytes:  20 << 20,
		MaxLongSide:   DefaultMaxLongSide,
		MinShortSide:  DefaultMinShortSide,
		MinRatio:      DefaultMinRatio,
		MaxRatio:      DefaultMaxRatio,
		JPEGQuality:   DefaultJPEGQuality,
		MaxPixels:     DefaultMaxPixels,
		OutputFormats: map[string]string{"png": "png"},
	}
}

// ConstraintsFor derives constraints for kind from cfg.
func ConstraintsFor(cfg *config.Config, kind Kind) Constraints {
	c := DefaultConstraints()
	if cfg == nil {
		return c
	}
	switch kind {
	case KindClothes:
		if cfg.ClothesMaxImageBytes > 0 {
			c.MaxSizeBytes = cfg.ClothesMaxImageBytes
		}
	default:
		if cfg.LabelMaxImageBytes > 0 {
			c.MaxSizeBytes = cfg.LabelMaxImageBytes
		}
	}
	if cfg.JPEGQuality >= 1 && cfg.JPEGQuality <= 100 {
		c.JPEGQuality = cfg.JPEGQuality
	}
	if len(cfg.OutputFormats) > 0 {
		c.OutputFormats = cfg.OutputFormats
	}
	return c
}

// File is an image source. Size is the declared byte size; MIMEType may be
// empty, in which case it is sniffed from the content.
type File struct {
	Name     string
	MIMEType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// FromPath describes a file on disk.
func FromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, errors.NewImageRead(err)
	}
	if info.IsDir() {
		return File{}, errors.NewImageRead(fmt.Errorf("%s is a directory", path))
	}
	return File{
		Name: info.Name(),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// FromBytes describes an in-memory image.
func FromBytes(name, mimeType string, data []byte) File {
	return File{
		Name:     name,
		MIMEType: mimeType,
		Size:     int64(len(data)),
		Open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// Result is a successfully processed image.
type Result struct {
	Base64    string `json:"base64"`
	Extension string `json:"extension"`
	DataURL   string `json:"dataUrl"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Image converts the result to the stored image shape.
func (r *Result) Image() laundry.Image {
	return laundry.Image{Format: laundry.ImageFormat(r.Extension), Data: r.Base64}
}

// Pipeline runs intake with logging and metrics attached.
type Pipeline struct {
	log     *logger.Logger
	metrics *metrics.Metrics
}

// New creates a pipeline. Both arguments may be nil.
func New(log *logger.Logger, m *metrics.Metrics) *Pipeline {
	if log == nil {
		log = logger.NewNop()
	}
	return &Pipeline{log: log, metrics: m}
}

// Intake validates, resizes and re-encodes f. Either a complete Result or an
// error is returned, never both. Validation failures are *errors.HamperError
// with one of the IMAGE_* codes; cancellation returns ctx.Err().
func (p *Pipeline) Intake(ctx context.Context, f File, c Constraints) (*Result, error) {
	res, err := process(ctx, f, c)
	if err != nil {
		outcome := "cancelled"
		if hErr, ok := err.(*errors.HamperError); ok {
			outcome = string(hErr.Code)
		}
		p.metrics.ObserveIntake(outcome)
		p.log.Debug("intake rejected", "file", f.Name, "size", f.Size, "outcome", outcome)
		return nil, err
	}
	p.metrics.ObserveIntake("ok")
	p.log.Debug("intake ok", "file", f.Name, "width", res.Width, "height", res.Height, "ext", res.Extension)
	return res, nil
}

func process(ctx context.Context, f File, c Constraints) (*Result, error) {
	if f.Size <= 0 || f.Size > c.MaxSizeBytes {
		return nil, errors.NewImageSize(c.MaxSizeBytes, f.Size)
	}

	if f.MIMEType != "" {
		if _, ok := acceptedTypes[normalizeMIME(f.MIMEType)]; !ok {
			return nil, errors.NewImageType(f.MIMEType)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := readAll(f, c.MaxSizeBytes)
	if err != nil {
		return nil, err
	}

	mimeType := normalizeMIME(f.MIMEType)
	if mimeType == "" {
		mimeType = normalizeMIME(mimetype.Detect(data).String())
	}
	inputExt, ok := acceptedTypes[mimeType]
	if !ok {
		return nil, errors.NewImageType(mimeType)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewImageDecode(err)
	}
	if err := checkBounds(cfg.Width, cfg.Height, c); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewImageDecode(err)
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if err := checkBounds(w, h, c); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outExt := OutputFormat(c.OutputFormats, inputExt)
	tw, th := TargetSize(w, h, c.MaxLongSide, c.MinShortSide)
	dst := render(src, tw, th, outExt == "jpeg")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	switch outExt {
	case "png":
		err = png.Encode(&buf, dst)
	default:
		quality := c.JPEGQuality
		if quality < 1 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("encode %s: %w", outExt, err))
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	return &Result{
		Base64:    encoded,
		Extension: outExt,
		DataURL:   "data:image/" + outExt + ";base64," + encoded,
		Width:     tw,
		Height:    th,
	}, nil
}

// checkBounds rejects empty, oversized and out-of-ratio dimensions. It runs
// on the header before decoding and again on the decoded bitmap.
func checkBounds(w, h int, c Constraints) error {
	if w <= 0 || h <= 0 {
		return errors.NewImageDecode(fmt.Errorf("empty bitmap %dx%d", w, h))
	}
	maxPixels := c.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if int64(w)*int64(h) > int64(maxPixels) {
		return errors.NewImageDecode(fmt.Errorf("bitmap %dx%d exceeds %d pixels", w, h, maxPixels))
	}
	ratio := float64(w) / float64(h)
	if ratio < c.MinRatio || ratio > c.MaxRatio {
		return errors.NewImageAspectRatio(w, h)
	}
	return nil
}

// readAll reads at most max+1 bytes so a lying Size cannot force an
// unbounded read.
func readAll(f File, max int64) ([]byte, error) {
	if f.Open == nil {
		return nil, errors.NewImageRead(fmt.Errorf("no image source"))
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.NewImageRead(err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, max+1))
	if err != nil {
		return nil, errors.NewImageRead(err)
	}
	if n := int64(len(data)); n == 0 || n > max {
		return nil, errors.NewImageSize(max, n)
	}
	return data, nil
}

// OutputFormat resolves the re-encoding format for an input extension.
// Only png and jpeg can be produced; anything else falls back to jpeg.
func OutputFormat(policy map[string]string, inputExt string) string {
	if out, ok := policy[inputExt]; ok {
		switch strings.ToLower(out) {
		case "png":
			return "png"
		}
	}
	return "jpeg"
}

// TargetSize scales (w, h) so the long side is at most maxLong, then scales
// up if needed so the short side is at least minShort. Aspect ratio is kept
// up to rounding.
func TargetSize(w, h, maxLong, minShort int) (int, int) {
	long, short := w, h
	if h > w {
		long, short = h, w
	}

	scale := 1.0
	if maxLong > 0 && long > maxLong {
		scale = float64(maxLong) / float64(long)
	}
	if minShort > 0 && float64(short)*scale < float64(minShort) {
		scale = float64(minShort) / float64(short)
	}

	tw := int(math.Round(float64(w) * scale))
	th := int(math.Round(float64(h) * scale))
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}

// render draws src into a new tw x th bitmap. For jpeg output transparent
// areas are composed over white, since jpeg has no alpha channel.
func render(src image.Image, tw, th int, opaque bool) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	op := draw.Src
	if opaque {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		op = draw.Over
	}

	b := src.Bounds()
	if b.Dx() == tw && b.Dy() == th {
		draw.Draw(dst, dst.Bounds(), src, b.Min, op)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, op, nil)
	return dst
}

func normalizeMIME(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
