package models

// CheckResult is the outcome of evaluating one Check against one episode.
// Points equals MaxPoints iff Passed, and is zero otherwise.
type CheckResult struct {
	ID          string    `json:"id"`
	Type        CheckType `json:"type"`
	Passed      bool      `json:"passed"`
	Points      float64   `json:"points"`
	MaxPoints   float64   `json:"max_points"`
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	Detail      string    `json:"detail"`
}

// CategoryScore accumulates per-category earned/possible points and
// pass/fail counts.
type CategoryScore struct {
	Earned   float64 `json:"earned"`
	Possible float64 `json:"possible"`
	Score    float64 `json:"score"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
}

// ScoreResult aggregates all CheckResults for one episode.
//
// Score is nil when the rubric declared no checks: "no rubric" must stay
// distinguishable from "scored zero", since a zero would falsely signal that
// the episode was scored and failed everything.
type ScoreResult struct {
	Score          *float64                   `json:"score"`
	Reason         string                     `json:"reason,omitempty"`
	PointsEarned   float64                    `json:"points_earned"`
	PointsPossible float64                    `json:"points_possible"`
	Passed         int                        `json:"passed"`
	Failed         int                        `json:"failed"`
	TotalChecks    int                        `json:"total_checks"`
	Checks         []CheckResult              `json:"checks,omitempty"`
	ByCategory     map[Category]CategoryScore `json:"by_category,omitempty"`
}
