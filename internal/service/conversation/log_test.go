package conversation

import (
	"sync"
	"testing"
	"time"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
)

func TestLogPreservesOrder(t *testing.T) {
	log := NewLog()
	if _, ok := log.Latest(); ok {
		t.Fatalf("empty log should report no latest entry")
	}

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []domain.ConversationEntry{
		{Speaker: domain.SpeakerInterviewer, Text: "E1", Timestamp: base},
		{Speaker: domain.SpeakerAssistant, Text: "E2", Timestamp: base.Add(time.Second)},
		{Speaker: domain.SpeakerInterviewer, Text: "E3", Timestamp: base.Add(2 * time.Second)},
	}
	for i, e := range entries {
		if n := log.Append(e); n != i+1 {
			t.Fatalf("Append returned %d, want %d", n, i+1)
		}
	}

	all := log.All()
	if len(all) != 3 {
		t.Fatalf("All returned %d entries", len(all))
	}
	for i := range entries {
		if all[i] != entries[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, all[i], entries[i])
		}
	}

	latest, ok := log.Latest()
	if !ok || latest.Text != "E3" {
		t.Fatalf("Latest = %+v (ok=%v), want E3", latest, ok)
	}
}

func TestLogAllReturnsCopy(t *testing.T) {
	log := NewLog()
	log.Append(domain.ConversationEntry{Text: "original"})

	all := log.All()
	all[0].Text = "changed"

	if got := log.All()[0].Text; got != "original" {
		t.Fatalf("log mutated through All(): %q", got)
	}
}

func TestLogConcurrentReaders(t *testing.T) {
	log := NewLog()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			log.Append(domain.ConversationEntry{Text: "x"})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prev := 0
			for i := 0; i < 200; i++ {
				n := len(log.All())
				if n < prev {
					t.Errorf("log shrank from %d to %d", prev, n)
					return
				}
				prev = n
				log.Latest()
			}
		}()
	}
	wg.Wait()

	if log.Len() != 200 {
		t.Fatalf("Len = %d, want 200", log.Len())
	}
}
