// Package imagemeta probes image headers for format and pixel dimensions
// without decoding full pixel data.
package imagemeta

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Registered decoders cover the formats a Word media part may carry.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Sentinel errors for probe failures.
var (
	errUndecodableImage = errors.New("undecodable image data")
	errZeroDimension    = errors.New("image has a zero dimension")
)

// Info describes a probed image.
type Info struct {
	Width  int    // native width in pixels
	Height int    // native height in pixels
	Format string // decoder name, e.g. "png"
	Ext    string // media part file extension, e.g. "png"
}

// extByFormat maps decoder names to media part extensions.
var extByFormat = map[string]string{
	"png":  "png",
	"jpeg": "jpg",
	"gif":  "gif",
	"bmp":  "bmp",
	"tiff": "tiff",
}

// Probe reads the image header and returns its dimensions and format.
func Probe(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", errUndecodableImage, err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("%w: %dx%d", errZeroDimension, cfg.Width, cfg.Height)
	}

	ext, ok := extByFormat[format]
	if !ok {
		ext = format
	}

	return Info{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
		Ext:    ext,
	}, nil
}
