package semanticindex

import (
	"context"
	"fmt"
	"time"

	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// BootstrapWeaviate ensures the DialogTurn class exists with client-side
// vectors and cosine distance. Safe to call on every startup.
func BootstrapWeaviate(ctx context.Context, baseURL string) error {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	turn := &models.Class{
		Class:      turnClass,
		Vectorizer: "none",
		VectorIndexConfig: map[string]interface{}{
			"distance": "cosine",
		},
		Properties: []*models.Property{
			{Name: "userId", DataType: []string{"int"}},
			{Name: "personaId", DataType: []string{"int"}},
			{Name: "dialogId", DataType: []string{"int"}},
			{Name: "role", DataType: []string{"text"}},
			{Name: "text", DataType: []string{"text"}},
			{Name: "creationTime", DataType: []string{"date"}},
		},
	}

	ex, err := cl.Schema().ClassGetter().WithClassName(turnClass).Do(cctx)
	if err == nil && ex != nil {
		return nil
	}
	if err := cl.Schema().ClassCreator().WithClass(turn).Do(cctx); err != nil {
		return fmt.Errorf("bootstrap %s: %w", turnClass, err)
	}
	return nil
}
