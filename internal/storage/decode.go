package storage

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/anime-shed/channel-engine/pkg/models"
)

// ExtractPlane converts one color component of img into a plane normalized
// to [0,1]. Grayscale images yield the same plane for every index.
func ExtractPlane(img image.Image, channelIndex int) (*models.Plane, error) {
	if channelIndex < 0 || channelIndex > 2 {
		return nil, fmt.Errorf("channel index must be 0, 1 or 2 (got %d)", channelIndex)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("image is empty")
	}

	plane := &models.Plane{
		Width:   width,
		Height:  height,
		Samples: make([]float64, width*height),
	}

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+width]
			for x, v := range row {
				plane.Samples[y*width+x] = float64(v) / 255.0
			}
		}
	case *image.Gray16:
		for y := 0; y < height; y++ {
			off := y * src.Stride
			for x := 0; x < width; x++ {
				v := uint16(src.Pix[off+2*x])<<8 | uint16(src.Pix[off+2*x+1])
				plane.Samples[y*width+x] = float64(v) / 65535.0
			}
		}
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				plane.Samples[y*width+x] = component(img.At(bounds.Min.X+x, bounds.Min.Y+y), channelIndex)
			}
		}
	}

	return plane, nil
}

func component(c color.Color, channelIndex int) float64 {
	r, g, b, _ := c.RGBA()
	switch channelIndex {
	case 1:
		return float64(g) / 65535.0
	case 2:
		return float64(b) / 65535.0
	default:
		return float64(r) / 65535.0
	}
}
