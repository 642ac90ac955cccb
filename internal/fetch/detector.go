package fetch

import (
	"bytes"

	"github.com/jobsift/jobsift/internal/ingest"
)

// Detector decides when a static fetch should be promoted to the headless
// renderer: a 200 with a near-empty body or SPA shell markers means the job
// cards have not materialized yet.
type Detector struct {
	BodyLengthThreshold int
}

// NewDetector creates a Detector.
func NewDetector(threshold int) *Detector {
	if threshold <= 0 {
		threshold = 2048
	}
	return &Detector{BodyLengthThreshold: threshold}
}

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte(`id="root"`),
	[]byte(`id="app"`),
	[]byte("data-reactroot"),
}

// ShouldPromote reports whether a headless fetch is required.
func (d *Detector) ShouldPromote(resp ingest.FetchResponse) bool {
	if resp.StatusCode != 200 {
		return false
	}
	if len(resp.Body) == 0 {
		return true
	}
	if len(resp.Body) < d.BodyLengthThreshold {
		return true
	}
	for _, marker := range spaMarkers {
		if bytes.Contains(resp.Body, marker) {
			return true
		}
	}
	return false
}
