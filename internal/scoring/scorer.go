package scoring

import (
	"math"

	"github.com/katabench/kata/internal/models"
)

// NoChecksReason is the sentinel reason reported when a scenario declares no
// scoring checks. The Score stays nil in that case: "no rubric" is not the
// same thing as "scored zero".
const NoChecksReason = "no scoring checks defined"

// ScoreEpisode runs the full ordered rubric against an episode result and
// aggregates earned/possible points overall and per category. It is a pure
// function of (rubric, result); checks are evaluated independently and their
// order only affects the order of the reported results.
func ScoreEpisode(result *models.EpisodeResult, rubric models.Rubric) models.ScoreResult {
	if len(rubric.Checks) == 0 {
		return models.ScoreResult{Reason: NoChecksReason}
	}

	evaluated := make([]models.CheckResult, 0, len(rubric.Checks))
	for _, check := range rubric.Checks {
		evaluated = append(evaluated, EvaluateCheck(check, result))
	}

	var earned, possible float64
	var passed, failed int
	byCategory := make(map[models.Category]models.CategoryScore)

	for _, cr := range evaluated {
		earned += cr.Points
		possible += cr.MaxPoints

		bucket := byCategory[cr.Category]
		bucket.Earned += cr.Points
		bucket.Possible += cr.MaxPoints
		if cr.Passed {
			passed++
			bucket.Passed++
		} else {
			failed++
			bucket.Failed++
		}
		byCategory[cr.Category] = bucket
	}

	for cat, bucket := range byCategory {
		if bucket.Possible > 0 {
			bucket.Score = round4(bucket.Earned / bucket.Possible)
		}
		byCategory[cat] = bucket
	}

	var score *float64
	if possible > 0 {
		v := round4(earned / possible)
		score = &v
	}

	return models.ScoreResult{
		Score:          score,
		PointsEarned:   earned,
		PointsPossible: possible,
		Passed:         passed,
		Failed:         failed,
		TotalChecks:    len(evaluated),
		Checks:         evaluated,
		ByCategory:     byCategory,
	}
}

// round4 keeps score serialization stable across runs and platforms.
func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
