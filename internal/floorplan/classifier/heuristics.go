package classifier

// Empirically chosen constants of the plausibility heuristics.
const (
	MinDimension = 200
	MaxDimension = 4000

	MaxAspectRatio     = 5.0
	CompactAspectRatio = 3.0

	ColorStdMax = 50.0
	GrayStdMin  = 40.0

	MinEdgePercent = 5.0
	MaxEdgePercent = 50.0

	EdgeWeight      = 0.5
	GrayscaleWeight = 0.3
	AspectWeight    = 0.2

	AcceptThreshold = 0.6

	AspectRejectConfidence   = 0.3
	FallbackAcceptConfidence = 0.6
	FallbackRejectConfidence = 0.3

	CannyLowThreshold  = 50
	CannyHighThreshold = 150
)

// Heuristics groups the tunable constants so they can be overridden without
// touching the classification steps.
type Heuristics struct {
	MinDimension int
	MaxDimension int

	MaxAspectRatio     float64
	CompactAspectRatio float64

	ColorStdMax float64
	GrayStdMin  float64

	MinEdgePercent float64
	MaxEdgePercent float64

	EdgeWeight      float64
	GrayscaleWeight float64
	AspectWeight    float64

	AcceptThreshold float64

	AspectRejectConfidence   float64
	FallbackAcceptConfidence float64
	FallbackRejectConfidence float64
}

func DefaultHeuristics() Heuristics {
	return Heuristics{
		MinDimension:             MinDimension,
		MaxDimension:             MaxDimension,
		MaxAspectRatio:           MaxAspectRatio,
		CompactAspectRatio:       CompactAspectRatio,
		ColorStdMax:              ColorStdMax,
		GrayStdMin:               GrayStdMin,
		MinEdgePercent:           MinEdgePercent,
		MaxEdgePercent:           MaxEdgePercent,
		EdgeWeight:               EdgeWeight,
		GrayscaleWeight:          GrayscaleWeight,
		AspectWeight:             AspectWeight,
		AcceptThreshold:          AcceptThreshold,
		AspectRejectConfidence:   AspectRejectConfidence,
		FallbackAcceptConfidence: FallbackAcceptConfidence,
		FallbackRejectConfidence: FallbackRejectConfidence,
	}
}
