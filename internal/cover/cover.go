// Package cover renders playlist cover images that depend only on the track list.
package cover

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"strings"
)

const (
	// Size is the cover edge length in pixels.
	Size = 300
	grid = 4
	// MaxBytes is the upload ceiling for playlist images.
	MaxBytes = 256 * 1024
)

// Generate returns a JPEG whose colours are derived from the SHA-256 of the
// ordered URI list. Identical lists always yield identical bytes.
func Generate(uris []string) ([]byte, error) {
	sum := sha256.Sum256([]byte(strings.Join(uris, "\n")))

	img := image.NewRGBA(image.Rect(0, 0, Size, Size))
	cell := Size / grid

	// background from the last three bytes
	bg := color.RGBA{R: sum[29], G: sum[30], B: sum[31], A: 0xff}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	// cells mirrored left to right, three hash bytes per cell pair
	for row := 0; row < grid; row++ {
		for col := 0; col < grid/2; col++ {
			i := (row*(grid/2) + col) * 3
			c := color.RGBA{R: sum[i%29], G: sum[(i+1)%29], B: sum[(i+2)%29], A: 0xff}
			fill(img, col, row, cell, c)
			fill(img, grid-1-col, row, cell, c)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode cover: %w", err)
	}
	if buf.Len() > MaxBytes {
		return nil, fmt.Errorf("cover is %d bytes, limit is %d", buf.Len(), MaxBytes)
	}
	return buf.Bytes(), nil
}

func fill(img *image.RGBA, col, row, cell int, c color.RGBA) {
	rect := image.Rect(col*cell, row*cell, (col+1)*cell, (row+1)*cell)
	draw.Draw(img, rect, &image.Uniform{C: c}, image.Point{}, draw.Src)
}
