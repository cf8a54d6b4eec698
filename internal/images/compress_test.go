package images

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noisyPNG builds a PNG full of random pixels so it compresses poorly and
// actually exercises the ladder
func noisyPNG(t *testing.T, side int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDataURLSize(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(make([]byte, 9000))
	url := "data:image/png;base64," + payload
	assert.InDelta(t, 9000, DataURLSize(url), 3)

	assert.Equal(t, 11, DataURLSize("hello world"))
}

func TestNeedsCompression(t *testing.T) {
	small := "data:image/png;base64," + base64.StdEncoding.EncodeToString(make([]byte, 1000))
	assert.False(t, NeedsCompression(small))

	big := "data:image/png;base64," + base64.StdEncoding.EncodeToString(make([]byte, CompressionThreshold+1))
	assert.True(t, NeedsCompression(big))
}

func TestCompressSmallImagePassesThrough(t *testing.T) {
	src := noisyPNG(t, 50)
	out, err := Compress(src, DefaultTarget)
	require.NoError(t, err)
	assert.Equal(t, src, out, "image already under target should not be touched")
}

func TestCompressShrinksLargeImage(t *testing.T) {
	src := noisyPNG(t, 900)
	require.Greater(t, DataURLSize(src), CompressionThreshold)

	out, err := Compress(src, ProfileTarget)
	require.NoError(t, err)
	assert.LessOrEqual(t, DataURLSize(out), ProfileTarget)
	assert.True(t, strings.HasPrefix(out, "data:image/jpeg;base64,"))

	// Result decodes and fits the first rung's bounding square
	img, err := decodeDataURL(out)
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), 600)
	assert.LessOrEqual(t, img.Bounds().Dy(), 600)
}

func TestCompressPreservesAspectRatio(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	img := image.NewRGBA(image.Rect(0, 0, 1200, 600))
	for y := 0; y < 600; y++ {
		for x := 0; x < 1200; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	out, err := Compress(src, 100_000)
	require.NoError(t, err)

	decoded, err := decodeDataURL(out)
	require.NoError(t, err)
	w, h := decoded.Bounds().Dx(), decoded.Bounds().Dy()
	assert.InDelta(t, 2.0, float64(w)/float64(h), 0.05)
}

func TestCompressUndecodableReturnsOriginal(t *testing.T) {
	junk := "data:image/png;base64," + base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("junk"), CompressionThreshold/3))
	out, err := Compress(junk, DefaultTarget)
	assert.Error(t, err)
	assert.Equal(t, junk, out)
}
