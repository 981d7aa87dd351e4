package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/lmtray/lmtray/internal/status"
)

const iconSize = 22

var levelColors = map[status.Level]color.RGBA{
	status.NotInstalled:   {R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff},
	status.BothStopped:    {R: 0xf9, G: 0xa8, B: 0x25, A: 0xff},
	status.RunningNoModel: {R: 0xef, G: 0x6c, B: 0x00, A: 0xff},
	status.Ready:          {R: 0x2e, G: 0x7d, B: 0x32, A: 0xff},
}

var (
	iconMu    sync.Mutex
	iconCache = map[status.Level][]byte{}
)

// iconFor returns a PNG dot coloured for the level.
func iconFor(l status.Level) []byte {
	iconMu.Lock()
	defer iconMu.Unlock()
	if b, ok := iconCache[l]; ok {
		return b
	}

	c, ok := levelColors[l]
	if !ok {
		c = levelColors[status.NotInstalled]
	}
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	r := float64(iconSize)/2 - 1
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx := float64(x) + 0.5 - float64(iconSize)/2
			dy := float64(y) + 0.5 - float64(iconSize)/2
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	iconCache[l] = buf.Bytes()
	return iconCache[l]
}
