package app

import "campus-quiz-service/internal/domain"

// QuestionScore is the per-question outcome of scoring one submission.
type QuestionScore struct {
	QuestionID string
	UserAnswer *string
	IsCorrect  bool
	Awarded    int
}

// ScoreResult is the full verdict for one answer set.
type ScoreResult struct {
	Score       int
	TotalMarks  int
	PassStatus  domain.PassStatus
	PerQuestion []QuestionScore
}

// Score grades a submitted answer map against the authoritative question
// set. It is pure: no side effects, identical inputs always produce
// identical results.
//
// Correctness is exact string equality against the question's correct
// answer. Unanswered questions count as incorrect, award nothing, and still
// produce a per-question row with a nil answer. TotalMarks sums every
// question's marks, answered or not. Extra answer keys that match no
// question are ignored.
//
// The pass check cross-multiplies (score*100 >= threshold*totalMarks) so
// the boundary is exact integer arithmetic. An empty quiz (totalMarks 0)
// always fails.
func Score(questions []domain.Question, answers map[string]string, thresholdPercent int) ScoreResult {
	result := ScoreResult{
		PerQuestion: make([]QuestionScore, 0, len(questions)),
		PassStatus:  domain.PassStatusFail,
	}

	for _, q := range questions {
		marks := q.EffectiveMarks()
		result.TotalMarks += marks

		qs := QuestionScore{QuestionID: q.ID}
		if picked, ok := answers[q.ID]; ok {
			answer := picked
			qs.UserAnswer = &answer
			if picked == q.CorrectAnswer {
				qs.IsCorrect = true
				qs.Awarded = marks
				result.Score += marks
			}
		}
		result.PerQuestion = append(result.PerQuestion, qs)
	}

	if result.TotalMarks > 0 && result.Score*100 >= thresholdPercent*result.TotalMarks {
		result.PassStatus = domain.PassStatusPass
	}
	return result
}
