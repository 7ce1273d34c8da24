package session

// ReviewFinding is one issue reported by a code review pass.
type ReviewFinding struct {
	ID       string `json:"id"`
	File     string `json:"file"`
	Line     int    `json:"line,omitempty"`
	Severity string `json:"severity,omitempty"`
	Summary  string `json:"summary"`
}

// ReviewResults bundles the findings of one review pass over a worktree.
type ReviewResults struct {
	Findings    []ReviewFinding `json:"findings"`
	GeneratedAt int64           `json:"generated_at,omitempty"` // unix milliseconds
}

// Clone returns a deep copy.
func (r *ReviewResults) Clone() *ReviewResults {
	if r == nil {
		return nil
	}
	out := &ReviewResults{GeneratedAt: r.GeneratedAt}
	out.Findings = append([]ReviewFinding(nil), r.Findings...)
	return out
}
