package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCountersAreServed(t *testing.T) {
	Verdicts.WithLabelValues("spam").Inc()
	CacheLookups.WithLabelValues("hit").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`formshield_verdicts_total{status="spam"}`,
		`formshield_cache_lookups_total{result="hit"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in exposition", want)
		}
	}
}
