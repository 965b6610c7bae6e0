package qr

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
	"github.com/skip2/go-qrcode"
)

type Config struct {
	Content    string
	LogoPath   string
	Size       int
	LogoScale  float64 // logo width as a share of Size
	Background color.Color
	Foreground color.Color
	LogoBorder color.Color
	// DotScale is the module dot diameter as a share of the module size.
	DotScale      float64
	RecoveryLevel int
	QuietZone     int // in modules
}

// Generate renders the QR code as PNG.
func (c Config) Generate() ([]byte, error) {
	if c.Content == "" {
		return nil, errors.New("qr: empty content")
	}
	if c.Size <= 0 {
		c.Size = Default.Size
	}
	if c.DotScale <= 0 || c.DotScale > 1 {
		c.DotScale = 1
	}

	code, err := qrcode.New(c.Content, qrcode.RecoveryLevel(c.RecoveryLevel))
	if err != nil {
		return nil, err
	}
	code.DisableBorder = true
	bitmap := code.Bitmap()

	modules := len(bitmap) + 2*c.QuietZone
	cell := float64(c.Size) / float64(modules)
	offset := float64(c.QuietZone) * cell

	dc := gg.NewContext(c.Size, c.Size)
	dc.SetColor(c.Background)
	dc.Clear()

	dc.SetColor(c.Foreground)
	radius := cell * c.DotScale / 2
	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			cx := offset + (float64(x)+0.5)*cell
			cy := offset + (float64(y)+0.5)*cell
			dc.DrawCircle(cx, cy, radius)
		}
	}
	dc.Fill()

	if c.LogoPath != "" {
		if err = c.drawLogo(dc); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, dc.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawLogo centres the logo in a bordered circle. The high recovery level
// keeps the covered modules readable.
func (c Config) drawLogo(dc *gg.Context) error {
	logo, err := gg.LoadImage(c.LogoPath)
	if err != nil {
		return err
	}

	logoSize := int(float64(c.Size) * c.LogoScale)
	if logoSize <= 0 {
		return nil
	}
	resized := resize.Resize(uint(logoSize), uint(logoSize), logo, resize.Lanczos3)

	center := float64(c.Size) / 2
	half := float64(logoSize) / 2

	border := c.LogoBorder
	if border == nil {
		border = c.Background
	}
	dc.SetColor(border)
	dc.DrawCircle(center, center, half*1.15)
	dc.Fill()

	dc.Push()
	dc.DrawCircle(center, center, half)
	dc.Clip()
	dc.DrawImageAnchored(resized, int(center), int(center), 0.5, 0.5)
	dc.ResetClip()
	dc.Pop()
	return nil
}
