package submission

import "testing"

func TestExtractEmail_PrefersEmailKeys(t *testing.T) {
	sub := Submission{
		"contact":    "other@example.org",
		"Your-Email": " Jane@Example.COM ",
		"message":    "write to spam@x.io",
	}
	if got := ExtractEmail(sub); got != "jane@example.com" {
		t.Fatalf("expected email-keyed value, got %q", got)
	}
}

func TestExtractEmail_FallsBackToValuesThenScan(t *testing.T) {
	if got := ExtractEmail(Submission{"from": "a@b.co", "name": "x"}); got != "a@b.co" {
		t.Fatalf("expected whole-value address, got %q", got)
	}
	if got := ExtractEmail(Submission{"message": "reach me at Bob@Site.net today"}); got != "bob@site.net" {
		t.Fatalf("expected scanned address, got %q", got)
	}
	if got := ExtractEmail(Submission{"message": "no address here"}); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestContentHash_IgnoresFieldOrder(t *testing.T) {
	a := Submission{"name": "John", "email": "j@x.com", "tags": []any{"a", "b"}}
	b := Submission{}
	b["tags"] = []any{"a", "b"}
	b["email"] = "j@x.com"
	b["name"] = "John"

	if ContentHash(a) != ContentHash(b) {
		t.Fatalf("expected identical hashes")
	}
	b["name"] = "john"
	if ContentHash(a) == ContentHash(b) {
		t.Fatalf("expected case-sensitive content hash")
	}
}

func TestNormalizedHash_CaseWhitespaceAndVolatileKeys(t *testing.T) {
	a := Submission{"Message": "Buy   NOW", "_wpnonce": "abc", "timestamp": "1"}
	b := Submission{"message": " buy now ", "_wpnonce": "def"}
	if NormalizedHash(a) != NormalizedHash(b) {
		t.Fatalf("expected normalized hashes to match")
	}
	if NormalizedHash(a) == NormalizedHash(Submission{"message": "buy later"}) {
		t.Fatalf("expected different content to differ")
	}
}

func TestValueString_Flattens(t *testing.T) {
	if got := ValueString([]any{"a", 2.5, nil}); got != "a, 2.5, " {
		t.Fatalf("unexpected %q", got)
	}
	if got := ValueString(float64(3)); got != "3" {
		t.Fatalf("unexpected %q", got)
	}
}
