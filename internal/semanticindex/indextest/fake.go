// Package indextest provides an in-memory vector index with real cosine
// scoring for unit tests.
package indextest

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/vitte-ai/vitte-chat/internal/semanticindex"
)

type stored struct {
	vec  []float32
	turn semanticindex.Turn
}

// Fake is an in-memory semanticindex.Index.
type Fake struct {
	mu      sync.Mutex
	objects map[string]stored

	// FailSearch and FailUpsert force the next call to fail, letting tests
	// drive the best-effort degradation paths.
	FailSearch error
	FailUpsert error
}

var _ semanticindex.Index = (*Fake)(nil)

func New() *Fake { return &Fake{objects: make(map[string]stored)} }

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func (f *Fake) SearchTurns(_ context.Context, userID, personaID int64, vec []float32, topK int, minSimilarity float64) ([]semanticindex.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSearch != nil {
		err := f.FailSearch
		f.FailSearch = nil
		return nil, err
	}
	var out []semanticindex.Turn
	for id, s := range f.objects {
		if s.turn.UserID != userID || s.turn.PersonaID != personaID {
			continue
		}
		sim := cosine(vec, s.vec)
		if sim < minSimilarity {
			continue
		}
		t := s.turn
		t.ID = id
		t.Similarity = sim
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (f *Fake) UpsertTurn(_ context.Context, id string, vec []float32, t semanticindex.Turn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailUpsert != nil {
		err := f.FailUpsert
		f.FailUpsert = nil
		return err
	}
	f.objects[id] = stored{vec: append([]float32(nil), vec...), turn: t}
	return nil
}

func (f *Fake) DeleteDialog(_ context.Context, dialogID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.objects {
		if s.turn.DialogID == dialogID {
			delete(f.objects, id)
		}
	}
	return nil
}

// Len reports the number of stored turns.
func (f *Fake) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}
