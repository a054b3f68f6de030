package app

import (
	"context"
	"errors"

	"campus-quiz-service/internal/domain"
)

// PlaceholderExplanation is substituted when no explanation can be
// produced for a review row. The review itself still succeeds.
const PlaceholderExplanation = "Explanation is not available for this question."

var errNoExplanation = errors.New("no explanation available")

// Explainer produces the explanation text for one reviewed answer.
// Implementations may call out to an external service; failures degrade to
// the placeholder rather than failing the review.
type Explainer interface {
	Explain(ctx context.Context, answer domain.StoredAnswer) (string, error)
}

// StaticExplainer serves the explanation snapshotted at submission time.
type StaticExplainer struct{}

func (StaticExplainer) Explain(_ context.Context, answer domain.StoredAnswer) (string, error) {
	if answer.Explanation == "" {
		return "", errNoExplanation
	}
	return answer.Explanation, nil
}
