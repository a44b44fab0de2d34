package provider

import (
	"errors"
	"math"
	"testing"

	"form-shield/internal/submission"
)

func TestParseAnalysis_Permissive(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		score float64
		spam  bool
	}{
		{"plain", `{"is_spam": true, "spam_score": 88, "reason": "seo offer"}`, 88, true},
		{"fenced", "```json\n{\"is_spam\": false, \"spam_score\": 5, \"reason\": \"ok\"}\n```", 5, false},
		{"prose around", `Sure! Here you go: {"is_spam": true, "spam_score": "91", "reason": "uses {braces} in text"} hope that helps`, 91, true},
		{"clamped", `{"is_spam": true, "spam_score": 250, "reason": "x"}`, 100, true},
		{"negative", `{"is_spam": false, "spam_score": -3}`, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := ParseAnalysis(tc.in)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if a.SpamScore != tc.score || a.IsSpam != tc.spam {
				t.Fatalf("got %+v", a)
			}
		})
	}
}

func TestParseAnalysis_NoObject(t *testing.T) {
	if _, err := ParseAnalysis("I cannot help with that"); !errors.Is(err, ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
	if _, err := ParseAnalysis(`{"is_spam": tru`); !errors.Is(err, ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse for unbalanced object, got %v", err)
	}
}

func TestParseAnalysis_RejectsNonFiniteScore(t *testing.T) {
	for _, in := range []string{
		`{"is_spam": true, "spam_score": "NaN", "reason": "x"}`,
		`{"is_spam": true, "spam_score": "+Inf"}`,
		`{"is_spam": false, "spam_score": "-inf"}`,
	} {
		if _, err := ParseAnalysis(in); !errors.Is(err, ErrBadResponse) {
			t.Fatalf("%s: expected ErrBadResponse, got %v", in, err)
		}
	}
}

func TestClampScore_NaNIsZero(t *testing.T) {
	if got := ClampScore(math.NaN()); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestBuildPrompt_SortedKeyValueLines(t *testing.T) {
	p := BuildPrompt(submission.Submission{
		"name":     "John",
		"services": []any{"web", "seo"},
	})
	want := "Analyze the following form submission for spam. Consider patterns, suspicious content, and typical spam indicators.\n\nForm data:\nname: John\nservices: web, seo"
	if p != want {
		t.Fatalf("unexpected prompt:\n%s", p)
	}
}
