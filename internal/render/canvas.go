// Package render draws normalized segment data with go-chart. Every chart
// draws onto an explicit Canvas; there is no shared figure state.
package render

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is an output image encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts "png" or "svg"; empty means png.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "svg":
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unknown image format %q", s)
}

const (
	DefaultWidth  = 1100
	DefaultHeight = 760
	minWidth      = 320
	minHeight     = 240
)

// Canvas is the render target for one chart.
type Canvas struct {
	Format Format
	Width  int
	Height int
	// Caption is drawn along the bottom edge of PNG output when set.
	Caption string
}

// NewCanvas returns a canvas with sizes clamped to something drawable.
func NewCanvas(format Format, width, height int) Canvas {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if width < minWidth {
		width = minWidth
	}
	if height < minHeight {
		height = minHeight
	}
	if format == "" {
		format = FormatPNG
	}
	return Canvas{Format: format, Width: width, Height: height}
}

// Provider returns the go-chart renderer constructor for the canvas format.
func (c Canvas) Provider() chart.RendererProvider {
	if c.Format == FormatSVG {
		return chart.SVG
	}
	return chart.PNG
}

// ContentType is the HTTP media type of the canvas output.
func (c Canvas) ContentType() string {
	if c.Format == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Extension is the file extension, without dot.
func (c Canvas) Extension() string {
	return string(c.Format)
}

// NewRenderer creates a blank renderer with the default font and a white background.
func (c Canvas) NewRenderer() (chart.Renderer, error) {
	r, err := c.Provider()(c.Width, c.Height)
	if err != nil {
		return nil, err
	}
	r.SetDPI(chart.DefaultDPI)
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}
	r.SetFont(font)

	r.SetFillColor(drawing.ColorWhite)
	r.SetStrokeColor(drawing.ColorWhite)
	r.SetStrokeWidth(0)
	r.MoveTo(0, 0)
	r.LineTo(c.Width, 0)
	r.LineTo(c.Width, c.Height)
	r.LineTo(0, c.Height)
	r.Close()
	r.Fill()
	r.ResetStyle()
	r.SetFont(font)
	return r, nil
}

// finish writes rendered bytes to w, adding the caption to PNG output.
func (c Canvas) finish(w io.Writer, rendered *bytes.Buffer) error {
	if c.Format != FormatPNG || strings.TrimSpace(c.Caption) == "" {
		_, err := io.Copy(w, rendered)
		return err
	}
	img, err := png.Decode(rendered)
	if err != nil {
		return fmt.Errorf("decode rendered chart: %w", err)
	}
	return png.Encode(w, drawCaption(img, c.Caption))
}

// palette is ColorBrewer Set2, one color per match, cycling.
var palette = []drawing.Color{
	drawing.ColorFromHex("66c2a5"),
	drawing.ColorFromHex("fc8d62"),
	drawing.ColorFromHex("8da0cb"),
	drawing.ColorFromHex("e78ac3"),
	drawing.ColorFromHex("a6d854"),
	drawing.ColorFromHex("ffd92f"),
	drawing.ColorFromHex("e5c494"),
	drawing.ColorFromHex("b3b3b3"),
}

func matchColor(i int) drawing.Color {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

var (
	axisColor  = drawing.ColorFromHex("555555")
	gridColor  = drawing.ColorFromHex("d0d0d0")
	labelColor = drawing.ColorFromHex("333333")
)
