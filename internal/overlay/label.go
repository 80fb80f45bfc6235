// Package overlay stamps text onto captured frames.
package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const ellipsis = "..."

// Label draws one line of text over a translucent box in the top-left
// corner of a frame.
type Label struct {
	Text       string
	TextColor  color.RGBA
	Background color.RGBA
	Padding    int
}

// NewLabel returns a white-on-translucent-black label.
func NewLabel(text string) *Label {
	return &Label{
		Text:       text,
		TextColor:  color.RGBA{255, 255, 255, 255},
		Background: color.RGBA{0, 0, 0, 160},
		Padding:    5,
	}
}

// Render draws the label onto img. Text wider than the frame is cut and
// suffixed with an ellipsis; frames too small for a single line are left
// untouched.
func (l *Label) Render(img *image.RGBA) {
	if l.Text == "" {
		return
	}

	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil()
	bounds := img.Bounds()
	maxText := bounds.Dx() - l.Padding*2
	if maxText <= 0 || bounds.Dy() < lineHeight+l.Padding*2 {
		return
	}

	text := fitText(face, l.Text, maxText)
	if text == "" {
		return
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(l.TextColor),
		Face: face,
	}
	textWidth := d.MeasureString(text).Ceil()

	box := image.Rect(0, 0, textWidth+l.Padding*2, lineHeight+l.Padding*2).Add(bounds.Min)
	draw.Draw(img, box, image.NewUniform(l.Background), image.Point{}, draw.Over)

	d.Dot = fixed.Point26_6{
		X: fixed.I(box.Min.X + l.Padding),
		Y: fixed.I(box.Min.Y+l.Padding) + face.Metrics().Ascent,
	}
	d.DrawString(text)
}

// fitText trims s rune by rune until it fits within width pixels.
func fitText(face font.Face, s string, width int) string {
	if font.MeasureString(face, s).Ceil() <= width {
		return s
	}
	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		cut := string(runes[:n]) + ellipsis
		if font.MeasureString(face, cut).Ceil() <= width {
			return cut
		}
	}
	return ""
}
