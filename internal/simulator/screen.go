package simulator

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log"
)

const (
	screenWidth  = 160
	screenHeight = 120
)

// screenImages renders the simulated display once in each supported
// capture format.
func screenImages() map[string][]byte {
	img := renderScreen()
	images := make(map[string][]byte, 2)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Printf("Failed to encode PNG screen: %v", err)
	} else {
		images["PNG"] = append([]byte(nil), buf.Bytes()...)
	}

	buf.Reset()
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		log.Printf("Failed to encode JPEG screen: %v", err)
	} else {
		images["JPEG"] = append([]byte(nil), buf.Bytes()...)
	}
	return images
}

// renderScreen draws a graticule with the sine trace on a dark background.
func renderScreen() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, screenWidth, screenHeight))
	background := color.RGBA{R: 16, G: 16, B: 24, A: 255}
	grid := color.RGBA{R: 64, G: 64, B: 72, A: 255}
	trace := color.RGBA{R: 240, G: 220, B: 32, A: 255}

	for y := 0; y < screenHeight; y++ {
		for x := 0; x < screenWidth; x++ {
			c := background
			if x%(screenWidth/10) == 0 || y%(screenHeight/8) == 0 {
				c = grid
			}
			img.SetRGBA(x, y, c)
		}
	}

	samples := sineSamples()
	for x := 0; x < screenWidth; x++ {
		s := samples[x*len(samples)/screenWidth]
		y := screenHeight/2 - (s-waveformYRef)*(screenHeight/2-4)/waveformAmplCode
		img.SetRGBA(x, y, trace)
	}
	return img
}
