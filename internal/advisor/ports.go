// Package advisor formats the ledger for a generative-text financial
// advisor. The remote model is opaque: the only obligation here is a
// deterministic, complete serialization of the data, and failures never
// touch ledger correctness.
package advisor

import (
	"context"
	"errors"
	"fmt"

	"registro/internal/core"
)

// ErrAdvisoryUnavailable wraps any failure of the generative-text
// collaborator (quota, network, auth). It is a non-fatal notice; ledger
// operations continue unaffected.
var ErrAdvisoryUnavailable = errors.New("advisory service unavailable")

// Generator is the outbound port to a generative-text backend.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service builds prompts from a ledger and forwards them.
type Service struct {
	gen Generator // nil when no advisor is configured
}

func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

// Recommend asks for personalized recommendations toward the user's goal.
func (s *Service) Recommend(ctx context.Context, rows []core.Movement, goal string) (string, error) {
	return s.generate(ctx, BuildRecommendationPrompt(rows, goal))
}

// ProjectBudget asks for a three-month budget projection.
func (s *Service) ProjectBudget(ctx context.Context, rows []core.Movement) (string, error) {
	return s.generate(ctx, BuildBudgetPrompt(rows))
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	if s.gen == nil {
		return "", fmt.Errorf("%w: no generator configured", ErrAdvisoryUnavailable)
	}
	out, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAdvisoryUnavailable, err)
	}
	return out, nil
}
