package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	espressoText = "Espresso extraction depends on grind size, water temperature and tamping pressure. " +
		"A finer grind slows the flow and produces a stronger shot of espresso."
	sourdoughText = "Sourdough baking starts with a live starter culture. " +
		"Long fermentation develops flavor in the dough and an open crumb in the finished loaf."
)

func TestSearch_EmptyCorpus(t *testing.T) {
	ts := NewTestServer(t)

	resp := ts.POST("/api/v1/search", map[string]any{"query": "espresso"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result searchResponse
	ts.DecodeJSON(resp, &result)

	if len(result.Results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(result.Results))
	}
	if result.Message != "No documents indexed" {
		t.Errorf("message = %q, want %q", result.Message, "No documents indexed")
	}
}

func TestSearch_POST_MissingQuery(t *testing.T) {
	ts := NewTestServer(t)

	resp := ts.POST("/api/v1/search", map[string]any{"limit": 5})
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestSearch_GET_MissingQuery(t *testing.T) {
	ts := NewTestServer(t)

	resp := ts.GET("/api/v1/search")
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestSearch_RanksMatchingDocument(t *testing.T) {
	ts := NewTestServer(t)

	espressoID := ts.RegisterAndIngest("espresso.md", []byte(espressoText))
	ts.RegisterAndIngest("sourdough.md", []byte(sourdoughText))

	resp := ts.POST("/api/v1/search", map[string]any{
		"query": "espresso grind temperature",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result searchResponse
	ts.DecodeJSON(resp, &result)

	if result.Query != "espresso grind temperature" {
		t.Errorf("query = %q, want the request echoed back", result.Query)
	}
	if result.TotalChunks == 0 {
		t.Error("total_chunks = 0, want the indexed chunk count")
	}
	if len(result.Results) == 0 {
		t.Fatal("expected at least one search result")
	}

	top := result.Results[0]
	if top.DocumentID != espressoID {
		t.Errorf("top result document_id = %d, want %d", top.DocumentID, espressoID)
	}
	if top.DocumentName != "espresso.md" {
		t.Errorf("top result document_name = %q, want %q", top.DocumentName, "espresso.md")
	}
	if top.Snippet == "" {
		t.Error("top result snippet is empty")
	}
	if top.Score <= 0 {
		t.Errorf("top result score = %f, want > 0", top.Score)
	}

	// Results arrive ranked best first.
	for i := 1; i < len(result.Results); i++ {
		if result.Results[i].Score > result.Results[i-1].Score {
			t.Errorf("results out of order: score[%d]=%f > score[%d]=%f",
				i, result.Results[i].Score, i-1, result.Results[i-1].Score)
		}
	}
}

func TestSearch_GET_QueryParams(t *testing.T) {
	ts := NewTestServer(t)

	espressoID := ts.RegisterAndIngest("espresso.md", []byte(espressoText))

	resp := ts.GET("/api/v1/search?q=espresso+grind&limit=1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result searchResponse
	ts.DecodeJSON(resp, &result)

	if len(result.Results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(result.Results))
	}
	if result.Results[0].DocumentID != espressoID {
		t.Errorf("document_id = %d, want %d", result.Results[0].DocumentID, espressoID)
	}
}

func TestSearch_Limit(t *testing.T) {
	ts := NewTestServer(t)

	for i := range 3 {
		ts.RegisterAndIngest(fmt.Sprintf("espresso-%d.md", i), []byte(espressoText))
	}

	resp := ts.POST("/api/v1/search", map[string]any{
		"query": "espresso grind temperature",
		"limit": 2,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result searchResponse
	ts.DecodeJSON(resp, &result)

	if len(result.Results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(result.Results))
	}
}

func TestSearch_ScopeFiltering(t *testing.T) {
	ts := NewTestServer(t)

	alphaID := ts.RegisterScopedDocument("alpha-notes.md", []byte(espressoText), "session-alpha", false)
	globalID := ts.RegisterScopedDocument("shared-notes.md", []byte(espressoText), "", true)
	betaID := ts.RegisterScopedDocument("beta-notes.md", []byte(espressoText), "session-beta", false)

	for _, id := range []int64{alphaID, globalID, betaID} {
		ts.WaitForStatus(id, 10*time.Second, "completed")
	}

	search := func(scopeID string) map[int64]bool {
		t.Helper()

		payload := map[string]any{"query": "espresso grind temperature"}
		if scopeID != "" {
			payload["scope_id"] = scopeID
		}

		resp := ts.POST("/api/v1/search", payload)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var result searchResponse
		ts.DecodeJSON(resp, &result)

		ids := make(map[int64]bool)
		for _, r := range result.Results {
			ids[r.DocumentID] = true
		}
		return ids
	}

	// A scoped query sees the session's own documents plus global ones.
	scoped := search("session-alpha")
	if !scoped[alphaID] {
		t.Error("scoped search missing the session's own document")
	}
	if !scoped[globalID] {
		t.Error("scoped search missing the global document")
	}
	if scoped[betaID] {
		t.Error("scoped search leaked another session's document")
	}

	// An unscoped query sees every ingested document.
	all := search("")
	for _, id := range []int64{alphaID, globalID, betaID} {
		if !all[id] {
			t.Errorf("unscoped search missing document %d", id)
		}
	}
}

func TestSearch_Concurrent(t *testing.T) {
	ts := NewTestServer(t)

	ts.RegisterAndIngest("espresso.md", []byte(espressoText))

	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			body, err := json.Marshal(map[string]any{"query": "espresso grind"})
			if err != nil {
				return err
			}

			resp, err := http.Post(ts.URL()+"/api/v1/search", "application/json", bytes.NewReader(body))
			if err != nil {
				return err
			}
			defer func() {
				_ = resp.Body.Close()
			}()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
			}

			var result searchResponse
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return err
			}
			if len(result.Results) == 0 {
				return fmt.Errorf("expected results, got none")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
