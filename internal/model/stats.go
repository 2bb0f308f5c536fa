package model

// RunStatistics summarizes one pipeline execution. Processed counts subjects
// that landed in WithData, WithoutData or Errors; challenged subjects are
// counted in Challenges only.
type RunStatistics struct {
	Total       int `json:"total"`
	Processed   int `json:"processed"`
	WithData    int `json:"with_data"`
	WithoutData int `json:"without_data"`
	Errors      int `json:"errors"`
	Challenges  int `json:"challenges"`
}

// Record folds one terminal subject status into the statistics.
func (s *RunStatistics) Record(status SubjectStatus) {
	switch status {
	case StatusFound:
		s.Processed++
		s.WithData++
	case StatusNone:
		s.Processed++
		s.WithoutData++
	case StatusError:
		s.Processed++
		s.Errors++
	case StatusChallenge:
		s.Challenges++
	}
}

// Balanced reports whether the classification buckets add up to Processed.
func (s RunStatistics) Balanced() bool {
	return s.WithData+s.WithoutData+s.Errors == s.Processed && s.Processed <= s.Total
}

// Percent returns round(current/total*100), or 0 when total is 0.
func Percent(current, total int) int {
	if total <= 0 {
		return 0
	}
	return (current*100 + total/2) / total
}
