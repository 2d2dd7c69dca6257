package semanticindex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	filters "github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
)

const turnClass = "DialogTurn"

// weavNative is a native implementation of Index using the Weaviate Go client.
type weavNative struct {
	client  *weaviate.Client
	baseURL string // host:port without scheme
}

// NewWeaviateNativeIndex constructs an Index backed by Weaviate at baseURL.
// baseURL should be host:port (without scheme), e.g., "localhost:8082".
func NewWeaviateNativeIndex(baseURL string) (Index, error) {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &weavNative{client: cl, baseURL: baseURL}, nil
}

func (w *weavNative) SearchTurns(ctx context.Context, userID, personaID int64, vec []float32, topK int, minSimilarity float64) ([]Turn, error) {
	// Weaviate expresses the cosine threshold as certainty = (1+cos)/2.
	certainty := float32((1 + minSimilarity) / 2)

	nv := (&gql.NearVectorArgumentBuilder{}).
		WithVector(vec).
		WithCertainty(certainty)

	where := filters.Where().WithOperator(filters.And).WithOperands([]*filters.WhereBuilder{
		filters.Where().WithPath([]string{"userId"}).WithOperator(filters.Equal).WithValueInt(userID),
		filters.Where().WithPath([]string{"personaId"}).WithOperator(filters.Equal).WithValueInt(personaID),
	})

	req := w.client.GraphQL().Get().
		WithClassName(turnClass).
		WithWhere(where).
		WithNearVector(nv).
		WithLimit(topK).
		WithFields(
			gql.Field{Name: "userId"},
			gql.Field{Name: "personaId"},
			gql.Field{Name: "dialogId"},
			gql.Field{Name: "role"},
			gql.Field{Name: "text"},
			gql.Field{Name: "creationTime"},
			gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "id"}, {Name: "certainty"}}},
		)

	resp, err := req.Do(ctx)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Int64("persona_id", personaID).Msg("weaviate turn search failed")
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}

	getData, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	val := getData[turnClass]
	if val == nil {
		return []Turn{}, nil
	}
	raw, ok := val.([]interface{})
	if !ok {
		return nil, nil
	}

	out := make([]Turn, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		t := Turn{
			UserID:    asInt64(m["userId"]),
			PersonaID: asInt64(m["personaId"]),
			DialogID:  asInt64(m["dialogId"]),
			Role:      asString(m["role"]),
			Text:      asString(m["text"]),
		}
		if ts, err := time.Parse(time.RFC3339, asString(m["creationTime"])); err == nil {
			t.Timestamp = ts
		}
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			t.ID = asString(add["id"])
			if c := asFloat64(add["certainty"]); c > 0 {
				t.Similarity = 2*c - 1
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (w *weavNative) UpsertTurn(ctx context.Context, id string, vec []float32, t Turn) error {
	if w == nil || w.client == nil {
		return nil
	}
	props := map[string]interface{}{
		"userId":       t.UserID,
		"personaId":    t.PersonaID,
		"dialogId":     t.DialogID,
		"role":         t.Role,
		"text":         t.Text,
		"creationTime": t.Timestamp.UTC().Format(time.RFC3339),
	}
	_, err := w.client.Data().Creator().
		WithClassName(turnClass).
		WithID(id).
		WithProperties(props).
		WithVector(vec).
		Do(ctx)
	return err
}

func (w *weavNative) DeleteDialog(ctx context.Context, dialogID int64) error {
	if w == nil || w.client == nil {
		return nil
	}
	where := filters.Where().WithPath([]string{"dialogId"}).WithOperator(filters.Equal).WithValueInt(dialogID)
	req := w.client.GraphQL().Get().
		WithClassName(turnClass).
		WithWhere(where).
		WithFields(gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "id"}}})
	resp, err := req.Do(ctx)
	if err != nil || len(resp.Errors) > 0 {
		return err
	}
	getData, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	arr, ok := getData[turnClass].([]interface{})
	if !ok {
		return nil
	}
	for _, item := range arr {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			if id := asString(add["id"]); id != "" {
				_ = w.client.Data().Deleter().WithClassName(turnClass).WithID(id).Do(ctx)
			}
		}
	}
	return nil
}

// HealthPing implements health.HealthPinger for the weaviate-based index.
// It calls GET http://<baseURL>/v1/meta and expects 200 OK.
func (w *weavNative) HealthPing(ctx context.Context) error {
	if w == nil || w.baseURL == "" {
		return fmt.Errorf("weaviate baseURL missing")
	}
	url := w.baseURL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/v1/meta", nil)
	if err != nil {
		return err
	}
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weaviate status %d", resp.StatusCode)
	}
	return nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case json.Number:
		i, _ := n.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}

func asFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}

// formatGraphQLErrors returns a compact string with messages extracted for logging.
func formatGraphQLErrors(errs interface{}) string {
	if b, err := json.Marshal(errs); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", errs)
}
