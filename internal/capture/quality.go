package capture

import "fmt"

// Quality selects the encoder's quality-vs-size trade-off. Tiers map to a
// single x264 CRF value; lower CRF means higher quality and larger files.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

var qualityCRF = map[Quality]string{
	QualityLow:    "28",
	QualityMedium: "23",
	QualityHigh:   "18",
}

func ParseQuality(s string) (Quality, error) {
	q := Quality(s)
	if _, ok := qualityCRF[q]; !ok {
		return "", fmt.Errorf("unknown quality %q (want low, medium, or high)", s)
	}
	return q, nil
}

// CRF returns the x264 constant-rate-factor for the tier. Unknown tiers fall
// back to medium.
func (q Quality) CRF() string {
	if crf, ok := qualityCRF[q]; ok {
		return crf
	}
	return qualityCRF[QualityMedium]
}
