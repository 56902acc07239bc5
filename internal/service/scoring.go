package service

import "compassbot/internal/model"

// ComputeScores turns answers into normalized axis scores. Each answer
// contributes answerValue * question.effect to the bucket of its
// question's axis; unrecognized axes are ignored. Each axis sum is
// normalized by (answers present on that axis * 2) and scaled to
// [-10, 10], so answers in [-2, 2] always land inside the range.
// Deterministic and pure.
func ComputeScores(questions []model.Question, answers []int) model.Scores {
	var econSum, socSum float64
	var econN, socN int
	for i, value := range answers {
		if i >= len(questions) {
			break
		}
		switch questions[i].Axis {
		case model.AxisEconomic:
			econSum += float64(value * questions[i].Effect)
			econN++
		case model.AxisSocial:
			socSum += float64(value * questions[i].Effect)
			socN++
		}
	}

	var scores model.Scores
	if econN > 0 {
		scores.Economic = econSum / float64(econN*2) * 10
	}
	if socN > 0 {
		scores.Social = socSum / float64(socN*2) * 10
	}
	return scores
}
