package vision

import (
	"image"
	"math"
	"sort"

	"github.com/blaze-intelligence/platform/internal/models"
)

// COCO class ids for the classes the fallback can emit.
const (
	classIDPerson      = 0
	classIDSportsBall  = 32
	classIDBaseballBat = 34
)

const (
	fallbackGridCells    = 8
	fallbackMaxResults   = 10
	varianceEdgeCutoff   = 180.0
	fallbackMinCellPixel = 4
)

// fallbackDetector is the functional stand-in when no real model is
// loadable: an edge-density scan over a coarse grid, classifying
// high-variance cells with crude colour heuristics. It never fails and never
// returns an empty set for a non-empty frame.
type fallbackDetector struct{}

func (fallbackDetector) Name() string { return "edge-density-fallback" }

func (fallbackDetector) Detect(img image.Image, opts InferOptions) []models.Detection {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < fallbackMinCellPixel || height < fallbackMinCellPixel {
		return []models.Detection{fullFrameDetection(width, height)}
	}

	cellW := width / fallbackGridCells
	cellH := height / fallbackGridCells
	if cellW < fallbackMinCellPixel || cellH < fallbackMinCellPixel {
		return []models.Detection{fullFrameDetection(width, height)}
	}

	var detections []models.Detection
	for gy := 0; gy < fallbackGridCells; gy++ {
		for gx := 0; gx < fallbackGridCells; gx++ {
			x0 := bounds.Min.X + gx*cellW
			y0 := bounds.Min.Y + gy*cellH
			stats := cellStats(img, x0, y0, cellW, cellH)
			if stats.variance < varianceEdgeCutoff {
				continue
			}
			class, classID, confidence := classifyCell(stats)
			if class == "" {
				continue
			}
			detections = append(detections, models.Detection{
				Class:      class,
				ClassID:    classID,
				Confidence: confidence,
				Bbox: [4]float64{
					float64(x0 - bounds.Min.X),
					float64(y0 - bounds.Min.Y),
					float64(x0 - bounds.Min.X + cellW),
					float64(y0 - bounds.Min.Y + cellH),
				},
			})
		}
	}

	if len(detections) == 0 {
		return []models.Detection{fullFrameDetection(width, height)}
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})
	if len(detections) > fallbackMaxResults {
		detections = detections[:fallbackMaxResults]
	}
	return detections
}

type cellSummary struct {
	meanR, meanG, meanB float64
	brightness          float64
	variance            float64
}

// cellStats samples a cell on a sparse stride and reports mean colour plus
// luminance variance, the edge-density proxy.
func cellStats(img image.Image, x0, y0, w, h int) cellSummary {
	stride := w / 8
	if stride < 1 {
		stride = 1
	}
	var sumR, sumG, sumB, sumLum, sumLumSq float64
	var n float64
	for y := y0; y < y0+h; y += stride {
		for x := x0; x < x0+w; x += stride {
			r, g, b, _ := img.At(x, y).RGBA()
			fr, fg, fb := float64(r>>8), float64(g>>8), float64(b>>8)
			lum := 0.299*fr + 0.587*fg + 0.114*fb
			sumR += fr
			sumG += fg
			sumB += fb
			sumLum += lum
			sumLumSq += lum * lum
			n++
		}
	}
	if n == 0 {
		return cellSummary{}
	}
	meanLum := sumLum / n
	return cellSummary{
		meanR:      sumR / n,
		meanG:      sumG / n,
		meanB:      sumB / n,
		brightness: meanLum,
		variance:   sumLumSq/n - meanLum*meanLum,
	}
}

// classifyCell maps a high-variance cell to a crude class. Field-green cells
// are background; bright low-chroma cells read as a ball; everything else
// with enough structure reads as a person.
func classifyCell(s cellSummary) (string, int, float64) {
	// Dominantly green cells are playing surface.
	if s.meanG > s.meanR*1.25 && s.meanG > s.meanB*1.25 {
		return "", 0, 0
	}

	chroma := math.Max(s.meanR, math.Max(s.meanG, s.meanB)) -
		math.Min(s.meanR, math.Min(s.meanG, s.meanB))
	confidence := 0.35 + math.Min(0.5, s.variance/4000)

	if s.brightness > 190 && chroma < 40 {
		return "sports ball", classIDSportsBall, math.Min(0.9, confidence+0.1)
	}
	return "person", classIDPerson, math.Min(0.85, confidence)
}

func fullFrameDetection(width, height int) models.Detection {
	return models.Detection{
		Class:      "person",
		ClassID:    classIDPerson,
		Confidence: 0.30,
		Bbox:       [4]float64{0, 0, float64(width), float64(height)},
	}
}
