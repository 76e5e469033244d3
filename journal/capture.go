package journal

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"regexp"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// CaptureConfig defines the layout of a transcript image
type CaptureConfig struct {
	Columns    int        // Characters per row; longer lines are cut
	Rows       int        // Entries shown, newest at the bottom
	Background color.RGBA // Background color
	Foreground color.RGBA // Text color
}

// DefaultCaptureConfig returns a 100x40 green-on-black layout
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		Columns:    100,
		Rows:       40,
		Background: color.RGBA{0, 0, 0, 255},
		Foreground: color.RGBA{0, 220, 90, 255},
	}
}

var ansiSequence = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// cell size of basicfont.Face7x13
const (
	cellWidth  = 7
	cellHeight = 13
)

// Capture renders entries as a PNG transcript
func Capture(w io.Writer, entries []Entry, config CaptureConfig) error {
	if config.Columns <= 0 || config.Rows <= 0 {
		return fmt.Errorf("capture: invalid size %dx%d", config.Columns, config.Rows)
	}
	if len(entries) > config.Rows {
		entries = entries[len(entries)-config.Rows:]
	}

	img := image.NewRGBA(image.Rect(0, 0, config.Columns*cellWidth, config.Rows*cellHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(config.Background), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(config.Foreground),
		Face: basicfont.Face7x13,
	}

	for row, e := range entries {
		line := []rune(ansiSequence.ReplaceAllString(e.String(), ""))
		if len(line) > config.Columns {
			line = line[:config.Columns]
		}

		// the dot sits on the baseline, one row below the top of the cell
		drawer.Dot = fixed.Point26_6{
			X: fixed.I(0),
			Y: fixed.I((row+1)*cellHeight - basicfont.Face7x13.Descent),
		}
		drawer.DrawString(string(line))
	}

	return png.Encode(w, img)
}

// CaptureFile writes the newest entries of j to a PNG file
func (j *Journal) CaptureFile(path string, config CaptureConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	if err := Capture(f, j.Tail(config.Rows), config); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
