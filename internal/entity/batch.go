package entity

import "time"

// QualityFlags are content-quality switches forwarded untouched to the generator.
type QualityFlags struct {
	IncludeFAQ     bool `json:"includeFaq" yaml:"include_faq"`
	IncludeSources bool `json:"includeSources" yaml:"include_sources"`
	SEOOptimized   bool `json:"seoOptimized" yaml:"seo_optimized"`
	LongForm       bool `json:"longForm" yaml:"long_form"`
}

// GenerationParams are shared by every job of a batch.
type GenerationParams struct {
	Location string       `json:"location" yaml:"location"`
	Tone     string       `json:"tone" yaml:"tone"`
	Quality  QualityFlags `json:"quality" yaml:"quality"`
}

// BatchRequest is the immutable input of a batch. It is persisted next to
// the snapshot so a resumed batch keeps its generation parameters.
type BatchRequest struct {
	Topics    []string         `json:"topics" yaml:"topics"`
	Count     int              `json:"count" yaml:"count"`
	Params    GenerationParams `json:"params" yaml:"params"`
	CreatedAt time.Time        `json:"createdAt" yaml:"-"`
}

// BatchProgress is derived from the job list and never mutated on its own.
type BatchProgress struct {
	Total                     int  `json:"total"`
	Completed                 int  `json:"completed"`
	Failed                    int  `json:"failed"`
	Current                   int  `json:"current"`
	IsActive                  bool `json:"isActive"`
	EstimatedSecondsRemaining int  `json:"estimatedSecondsRemaining"`
}

// BatchSnapshot is the full persisted state of a batch.
type BatchSnapshot struct {
	BatchID         string        `json:"batchId,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	Jobs            []Job         `json:"jobs"`
	Progress        BatchProgress `json:"progress"`
	IsRunning       bool          `json:"isRunning"`
	LastPersistedAt time.Time     `json:"lastPersistedAt"`
}

// IsEmpty reports whether the snapshot holds no batch at all.
func (s BatchSnapshot) IsEmpty() bool {
	return len(s.Jobs) == 0
}

// Unfinished returns the jobs that still need a run loop, in batch order.
func (s BatchSnapshot) Unfinished() []Job {
	var out []Job
	for _, j := range s.Jobs {
		if !j.Status.IsTerminal() {
			out = append(out, j)
		}
	}
	return out
}
