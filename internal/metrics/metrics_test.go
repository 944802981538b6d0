package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveQuestion("experience")
	m.ObserveAnswerCache(true)
	m.ObserveUtterance("recognized")
	m.ObserveSTT("openai", true, 0.4)
	m.SetListening(true)
	m.SetConversationEntries(3)
	m.SetFeedClients(1)
	m.IncMirrorErrors()
	m.ObserveControl("start", "http")
	if m.Registry() != nil {
		t.Fatalf("nil metrics should expose no registry")
	}
}

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.ObserveQuestion("motivation")
	m.ObserveQuestion("motivation")
	m.ObserveAnswerCache(false)
	m.SetListening(true)

	if got := testutil.ToFloat64(m.questions.WithLabelValues("motivation")); got != 2 {
		t.Fatalf("questions_total{type=motivation} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.listening); got != 1 {
		t.Fatalf("listening = %v, want 1", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `teleprompter_questions_total{type="motivation"} 2`) {
		t.Fatalf("metrics output missing question counter:\n%s", body)
	}
}
