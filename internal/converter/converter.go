package converter

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/truelectro/image-resampler/internal/models"
)

const DefaultQuality = 90

var (
	ErrUnsupportedInput  = errors.New("unsupported input type")
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
)

func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatWebP:
		return ".webp"
	default:
		return ".png"
	}
}

func (f Format) MimeType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

func (f Format) Valid() bool {
	switch f {
	case FormatPNG, FormatJPEG, FormatWebP:
		return true
	}
	return false
}

// Options controls one conversion. Percent takes precedence over explicit
// dimensions; a single dimension keeps the source aspect ratio; with nothing
// set the source dimensions are kept.
type Options struct {
	Format   Format
	Percent  float64
	Width    int
	Height   int
	Quality  int
	Upscaled bool
}

type Converter struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Converter {
	return &Converter{logger: logger}
}

// Convert decodes src, resizes it to the target dimensions with Lanczos
// resampling and re-encodes it in the requested format.
func (c *Converter) Convert(src []byte, mimeType, filename string, opts Options) (*models.Result, error) {
	if !opts.Format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}

	img, err := decode(bytes.NewReader(src), mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()

	w, h := targetSize(srcW, srcH, opts)
	if w != srcW || h != srcH {
		c.logger.Info("Resizing image",
			zap.String("filename", filename),
			zap.Int("width", w),
			zap.Int("height", h),
		)
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}

	data, err := encode(img, opts.Format, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode as %s: %w", opts.Format, err)
	}

	return &models.Result{
		Data:     data,
		Size:     int64(len(data)),
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		MimeType: opts.Format.MimeType(),
		Filename: OutputFilename(filename, opts.Format, opts.Upscaled),
	}, nil
}

// OutputFilename swaps the extension of the original name to match the
// requested format. Upscaled outputs are annotated before the extension.
func OutputFilename(original string, f Format, upscaled bool) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	if base == "" {
		base = "image"
	}
	if upscaled {
		base += "-upscaled"
	}
	return base + f.Ext()
}

func targetSize(srcW, srcH int, opts Options) (int, int) {
	switch {
	case opts.Percent > 0:
		w := int(math.Round(float64(srcW) * opts.Percent / 100))
		h := int(math.Round(float64(srcH) * opts.Percent / 100))
		return max(w, 1), max(h, 1)
	case opts.Width > 0 && opts.Height > 0:
		return opts.Width, opts.Height
	case opts.Width > 0:
		return opts.Width, scaled(srcH, opts.Width, srcW)
	case opts.Height > 0:
		return scaled(srcW, opts.Height, srcH), opts.Height
	default:
		return srcW, srcH
	}
}

func scaled(dim, target, source int) int {
	if source == 0 {
		return dim
	}
	return max(int(math.Round(float64(dim)*float64(target)/float64(source))), 1)
}

func decode(r io.Reader, mimeType string) (image.Image, error) {
	switch mimeType {
	case "image/png":
		return png.Decode(r)
	case "image/jpeg":
		return jpeg.Decode(r)
	case "image/webp":
		return webp.Decode(r)
	case "image/gif":
		return gif.Decode(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, mimeType)
	}
}

func encode(img image.Image, f Format, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	switch f {
	case FormatPNG:
		if err := png.Encode(buf, img); err != nil {
			return nil, err
		}
	case FormatJPEG:
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case FormatWebP:
		if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	return buf.Bytes(), nil
}
