// Package semanticindex abstracts the vector store holding long-term dialog
// memory. The production implementation runs on Weaviate with client-side
// vectors; a fake lives in semanticindex/indextest for unit tests.
package semanticindex

import (
	"context"
	"time"
)

// Turn is one stored dialog half-turn with its retrieval score.
type Turn struct {
	ID         string
	UserID     int64
	PersonaID  int64
	DialogID   int64
	Role       string
	Text       string
	Similarity float64
	Timestamp  time.Time
}

// Index is the vector store surface used by semantic memory.
type Index interface {
	// SearchTurns returns up to topK turns for (user, persona) whose cosine
	// similarity to vec is at least minSimilarity, best first.
	SearchTurns(ctx context.Context, userID, personaID int64, vec []float32, topK int, minSimilarity float64) ([]Turn, error)
	// UpsertTurn stores one half-turn under a caller-chosen id.
	UpsertTurn(ctx context.Context, id string, vec []float32, t Turn) error
	// DeleteDialog removes every stored turn of the dialog.
	DeleteDialog(ctx context.Context, dialogID int64) error
}
