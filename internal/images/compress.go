// Package images shrinks inline data-URL images until they fit the
// per-field size limits of the document stores. Compression walks a fixed
// quality/dimension ladder and stops as soon as the target is met, with
// two extreme fallback rungs for images that survive the whole ladder.
package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"
)

// Size limits in bytes
const (
	// CompressionThreshold is the size above which images get compressed
	CompressionThreshold = 400_000
	// DefaultTarget is the standard compression target
	DefaultTarget = 400_000
	// ProfileTarget is the tighter target for profile pictures
	ProfileTarget = 350_000
	// EmergencyTarget applies when a write is rejected for size anyway
	EmergencyTarget = 200_000
)

// Step is one rung of the compression ladder
type Step struct {
	Quality      int
	MaxDimension int
}

// Steps is the ladder walked in order until the target size is met
var Steps = []Step{
	{Quality: 70, MaxDimension: 600},
	{Quality: 50, MaxDimension: 400},
	{Quality: 30, MaxDimension: 300},
	{Quality: 20, MaxDimension: 250},
	{Quality: 15, MaxDimension: 200},
	{Quality: 10, MaxDimension: 150},
	{Quality: 5, MaxDimension: 120},
}

// Extreme fallback rungs applied when the ladder was not enough
var (
	ultraStep   = Step{Quality: 2, MaxDimension: 100}
	nuclearStep = Step{Quality: 1, MaxDimension: 80}
)

// DataURLSize returns the decoded byte size of a base64 data URL; for
// anything else it returns the string length
func DataURLSize(dataURL string) int {
	idx := strings.Index(dataURL, ",")
	if idx < 0 || !strings.Contains(dataURL[:idx], "base64") {
		return len(dataURL)
	}
	payload := dataURL[idx+1:]
	return base64.StdEncoding.DecodedLen(len(payload))
}

// NeedsCompression reports whether the image exceeds the threshold
func NeedsCompression(dataURL string) bool {
	return DataURLSize(dataURL) > CompressionThreshold
}

// Compress walks the ladder until the image fits targetBytes. The input
// and output are data URLs; output is always JPEG. A decode failure
// returns the input unchanged along with the error so callers can keep
// the original.
func Compress(dataURL string, targetBytes int) (string, error) {
	current := dataURL
	size := DataURLSize(current)

	for _, step := range Steps {
		if size <= targetBytes {
			return current, nil
		}
		next, err := applyStep(current, step)
		if err != nil {
			return dataURL, err
		}
		current = next
		size = DataURLSize(current)
	}

	if size > targetBytes {
		next, err := applyStep(current, ultraStep)
		if err != nil {
			return dataURL, err
		}
		current = next
		size = DataURLSize(current)

		if size > targetBytes {
			next, err := applyStep(current, nuclearStep)
			if err != nil {
				return dataURL, err
			}
			current = next
		}
	}
	return current, nil
}

// applyStep decodes, scales to fit the step's bounding square, and
// re-encodes as JPEG at the step's quality
func applyStep(dataURL string, step Step) (string, error) {
	img, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > step.MaxDimension || height > step.MaxDimension {
		if width > height {
			height = height * step.MaxDimension / width
			width = step.MaxDimension
		} else {
			width = width * step.MaxDimension / height
			height = step.MaxDimension
		}
		if width < 1 {
			width = 1
		}
		if height < 1 {
			height = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		img = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: step.Quality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func decodeDataURL(dataURL string) (image.Image, error) {
	idx := strings.Index(dataURL, ",")
	if idx < 0 {
		return nil, fmt.Errorf("not a data URL")
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
