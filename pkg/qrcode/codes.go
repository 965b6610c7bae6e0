package qr

import "image/color"

// Default renders dark rounded modules on white with the standard quiet zone.
var Default = Config{
	Size:          512,
	LogoScale:     0.2,
	Background:    color.RGBA{R: 255, G: 255, B: 255, A: 255},
	Foreground:    color.RGBA{R: 127, G: 82, B: 255, A: 255},
	LogoBorder:    color.RGBA{R: 255, G: 255, B: 255, A: 255},
	DotScale:      0.9,
	RecoveryLevel: 3,
	QuietZone:     4,
}
