package evidence

import (
	"bytes"
	"context"
	"image"
	"image/color"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

const (
	imageConfidenceWithText    = 0.7
	imageConfidenceWithoutText = 0.4

	// Fraction of edge pixels above which an image is flagged as showing
	// physical damage. Crude but effective on typical claim photos.
	damageEdgeDensity = 0.1

	edgeThreshold = 60
)

type imageAnalyzer struct {
	ocr OCREngine
}

func newImageAnalyzer(ocr OCREngine) *imageAnalyzer {
	return &imageAnalyzer{ocr: ocr}
}

func (a *imageAnalyzer) Type() string {
	return "image"
}

func (a *imageAnalyzer) Available() bool {
	return true
}

func (a *imageAnalyzer) Analyze(ctx context.Context, att Attachment) Record {
	record := Record{Type: "image", Filename: att.Filename}

	img, _, err := image.Decode(bytes.NewReader(att.Data))
	if err != nil {
		record.Error = err.Error()
		return record
	}

	bounds := img.Bounds()
	record.Width = bounds.Dx()
	record.Height = bounds.Dy()

	if a.ocr.Available() {
		if text, err := a.ocr.Recognize(ctx, att.Data); err == nil {
			record.OCRText = text
		}
	}

	record.DocumentsDetected = classifyDocuments(record.OCRText)
	record.HasDamageIndicators = edgeDensity(img) > damageEdgeDensity

	if record.OCRText != "" {
		record.Confidence = imageConfidenceWithText
	} else {
		record.Confidence = imageConfidenceWithoutText
	}

	return record
}

// edgeDensity computes the fraction of pixels whose luminance gradient
// against the right and lower neighbors exceeds the edge threshold.
func edgeDensity(img image.Image) float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 2 || height < 2 {
		return 0
	}

	gray := make([][]int, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]int, width)
		for x := 0; x < width; x++ {
			c := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			gray[y][x] = int(c.Y)
		}
	}

	edges := 0
	total := (width - 1) * (height - 1)
	for y := 0; y < height-1; y++ {
		for x := 0; x < width-1; x++ {
			gx := gray[y][x+1] - gray[y][x]
			gy := gray[y+1][x] - gray[y][x]
			if abs(gx)+abs(gy) > edgeThreshold {
				edges++
			}
		}
	}

	return float64(edges) / float64(total)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
