package services

import (
	"testing"

	"github.com/yungbote/cdk-backend/internal/domain/claims"
)

func TestSanitizerText(t *testing.T) {
	s := NewSanitizer()
	cases := []struct{ in, want string }{
		{"", ""},
		{"  plain  ", "plain"},
		{"<b>bold</b> move", "bold move"},
		{"<p>Hello</p><script>alert(1)</script>", "Hello"},
		{`<a href="javascript:alert(1)">x</a>`, "x"},
	}
	for _, tc := range cases {
		if got := s.Text(tc.in); got != tc.want {
			t.Fatalf("Text(%q): want=%q got=%q", tc.in, tc.want, got)
		}
	}
}

func TestSanitizerAnswers(t *testing.T) {
	got := NewSanitizer().Answers([]claims.Answer{{Question: "Why?", Answer: "<i>because</i>"}})
	if len(got) != 1 || got[0].Answer != "because" || got[0].Question != "Why?" {
		t.Fatalf("answers: %+v", got)
	}
}
