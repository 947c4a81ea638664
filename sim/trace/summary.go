package trace

// RecordSummary aggregates statistics from a Record.
type RecordSummary struct {
	TotalElements int
	TotalSteps    int
	VisitsByNode  map[string]int // visit key → number of elements observed there
}

// Summarize computes aggregate statistics from a Record.
// Safe for nil or empty records (returns zero-value fields).
func Summarize(r *Record) *RecordSummary {
	summary := &RecordSummary{
		VisitsByNode: make(map[string]int),
	}
	if r == nil {
		return summary
	}

	summary.TotalElements = len(r.elements)
	for _, et := range r.elements {
		for key := range et.Visits {
			summary.VisitsByNode[key]++
		}
	}
	for _, lines := range r.steps {
		summary.TotalSteps += len(lines)
	}
	return summary
}
