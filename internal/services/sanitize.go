package services

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/yungbote/cdk-backend/internal/domain/claims"
)

// Sanitizer strips markup from free text written by one user and shown to
// another: project descriptions and application answers.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *Sanitizer) Text(raw string) string {
	if s == nil || s.policy == nil {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

func (s *Sanitizer) Answers(in []claims.Answer) []claims.Answer {
	out := make([]claims.Answer, 0, len(in))
	for _, a := range in {
		out = append(out, claims.Answer{
			Question: s.Text(a.Question),
			Answer:   s.Text(a.Answer),
		})
	}
	return out
}
