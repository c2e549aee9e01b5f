package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ProcessedImage contains the display and thumbnail variants of a listing photo
type ProcessedImage struct {
	Display     []byte
	Thumbnail   []byte
	ContentType string
	Width       int
	Height      int
	ThumbWidth  int
	ThumbHeight int
}

// Config for image processing
type Config struct {
	MaxWidth    int
	MaxHeight   int
	ThumbWidth  int
	ThumbHeight int
	Quality     int
}

// DefaultConfig returns sizes suited to listing cards and galleries
func DefaultConfig() Config {
	return Config{
		MaxWidth:    1920,
		MaxHeight:   1920,
		ThumbWidth:  480,
		ThumbHeight: 360,
		Quality:     82,
	}
}

// Processor handles image processing
type Processor struct {
	config Config
}

// NewProcessor creates image processor
func NewProcessor(config Config) *Processor {
	return &Processor{config: config}
}

// Process decodes an upload, fits it inside the display bounds and cuts a
// center-cropped thumbnail. PNG stays PNG; everything else is re-encoded as JPEG.
func (p *Processor) Process(reader io.Reader) (*ProcessedImage, error) {
	img, format, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	display := img
	b := img.Bounds()
	if b.Dx() > p.config.MaxWidth || b.Dy() > p.config.MaxHeight {
		display = imaging.Fit(img, p.config.MaxWidth, p.config.MaxHeight, imaging.Lanczos)
	}
	thumb := imaging.Fill(img, p.config.ThumbWidth, p.config.ThumbHeight, imaging.Center, imaging.Lanczos)

	out := &ProcessedImage{
		ContentType: "image/jpeg",
		Width:       display.Bounds().Dx(),
		Height:      display.Bounds().Dy(),
		ThumbWidth:  thumb.Bounds().Dx(),
		ThumbHeight: thumb.Bounds().Dy(),
	}
	if format == "png" {
		out.ContentType = "image/png"
	}

	if out.Display, err = p.encode(display, out.ContentType); err != nil {
		return nil, fmt.Errorf("failed to encode display image: %w", err)
	}
	if out.Thumbnail, err = p.encode(thumb, out.ContentType); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return out, nil
}

func (p *Processor) encode(img image.Image, contentType string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if contentType == "image/png" {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.config.Quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for a processed content type
func Extension(contentType string) string {
	if contentType == "image/png" {
		return ".png"
	}
	return ".jpg"
}

// GeneratePaths generates storage keys for the display image and thumbnail
func GeneratePaths(listingID int64, name, contentType string) (display, thumb string) {
	ext := Extension(contentType)
	display = fmt.Sprintf("listings/%d/%s%s", listingID, name, ext)
	thumb = fmt.Sprintf("listings/%d/%s_thumb%s", listingID, name, ext)
	return
}
