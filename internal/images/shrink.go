package images

import (
	"bytes"
	"image"
	"image/png"
	"log"
	"math"

	"github.com/disintegration/imaging"
)

// Shrink brings an image buffer under maxKB. Buffers already small
// enough are returned unchanged. Otherwise both dimensions are scaled by
// sqrt(maxKB/currentKB) with Lanczos resampling and the result is
// re-encoded in the original format family. A nil return means the
// caller should proceed without an image.
func Shrink(data []byte, maxKB int) []byte {
	if maxKB <= 0 {
		return nil
	}
	if len(data) <= maxKB*1024 {
		return data
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("Image decode failed: %v", err)
		return nil
	}

	scale := math.Sqrt(float64(maxKB*1024) / float64(len(data)))
	bounds := img.Bounds()
	width := int(float64(bounds.Dx()) * scale)
	height := int(float64(bounds.Dy()) * scale)
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	resized := imaging.Resize(img, width, height, imaging.Lanczos)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(85))
	case "png":
		err = imaging.Encode(&buf, resized, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	case "gif":
		err = imaging.Encode(&buf, resized, imaging.GIF)
	default:
		log.Printf("Unsupported image format %q, dropping image", format)
		return nil
	}
	if err != nil {
		log.Printf("Image encode failed: %v", err)
		return nil
	}

	return buf.Bytes()
}
