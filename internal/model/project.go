package model

import (
	"slices"
	"time"
)

// Project groups the reference and questioned signatures of one case.
// Comparisons never cross project boundaries.
type Project struct {
	ID         string            `json:"id"`
	Name       string            `json:"name,omitempty"`
	References []*SignatureImage `json:"references"`
	Questioned []*SignatureImage `json:"questioned"`
}

// Images returns references followed by questioned signatures.
func (p *Project) Images() []*SignatureImage {
	out := make([]*SignatureImage, 0, len(p.References)+len(p.Questioned))
	out = append(out, p.References...)
	out = append(out, p.Questioned...)
	return out
}

// Analysis tracks one image through calibration and extraction.
// Pipeline steps fill it in order.
type Analysis struct {
	Image       *SignatureImage    `json:"image"`
	Calibration *CalibrationResult `json:"calibration,omitempty"`
	Features    *FeatureVector     `json:"features,omitempty"`

	// CacheHit is true when Features came from the feature cache.
	CacheHit bool `json:"cache_hit"`

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string `json:"performed_steps"`

	// Stage is the step that failed, if any.
	Stage string `json:"stage,omitempty"`

	// Err is the failure, if any. ErrorMessage is its serializable form.
	Err          error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewAnalysis creates an Analysis for img.
func NewAnalysis(img *SignatureImage) *Analysis {
	return &Analysis{
		Image:          img,
		PerformedSteps: make([]string, 0, 3),
		StartedAt:      time.Now(),
	}
}

// Fail records err against the given stage.
func (a *Analysis) Fail(stage string, err error) {
	a.Stage = stage
	a.Err = err
	if err != nil {
		a.ErrorMessage = err.Error()
	}
}

// Failed reports whether a step failed.
func (a *Analysis) Failed() bool {
	return a.Err != nil
}

// Failure describes one image or comparison that produced no result.
type Failure struct {
	ImageID string    `json:"image_id"`
	Label   string    `json:"label,omitempty"`
	Role    Role      `json:"role"`
	Stage   string    `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// ProjectResult is the outcome of comparing every questioned signature of
// a project against its completed references.
type ProjectResult struct {
	ProjectID      string      `json:"project_id"`
	ProjectName    string      `json:"project_name,omitempty"`
	ProfileVersion string      `json:"profile_version"`
	GeneratedAt    time.Time   `json:"generated_at"`
	Analyses       []*Analysis `json:"analyses"`
	Verdicts       []*Verdict  `json:"verdicts"`
	Failures       []Failure   `json:"failures,omitempty"`
}

// VerdictCounts returns the number of verdicts per category.
func (r *ProjectResult) VerdictCounts() map[VerdictCategory]int {
	counts := make(map[VerdictCategory]int, len(VerdictCategories))
	for _, v := range r.Verdicts {
		counts[v.Category]++
	}
	return counts
}

// Analysis returns the analysis of the image with the given ID.
func (r *ProjectResult) Analysis(imageID string) (*Analysis, bool) {
	idx := slices.IndexFunc(r.Analyses, func(a *Analysis) bool {
		return a.Image != nil && a.Image.ID == imageID
	})
	if idx < 0 {
		return nil, false
	}
	return r.Analyses[idx], true
}

// HasFailures reports whether any image or comparison failed.
func (r *ProjectResult) HasFailures() bool {
	return len(r.Failures) > 0
}
