package e2e_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/helixml/dokit"
	"github.com/helixml/dokit/domain/task"
)

// quiescentServer builds a test server whose worker never wakes up, so
// seeded tasks stay visible in the queue for the whole test.
func quiescentServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServer(t, dokit.WithWorkerPollPeriod(time.Hour))
}

func TestQueue_List_Empty(t *testing.T) {
	ts := NewTestServer(t)

	resp := ts.GET("/api/v1/queue")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result taskListResponse
	ts.DecodeJSON(resp, &result)

	if len(result.Data) != 0 {
		t.Errorf("len(data) = %d, want 0", len(result.Data))
	}
}

func TestQueue_List_SeededTasks(t *testing.T) {
	ts := quiescentServer(t)

	ts.CreateTask(task.OperationExtractText, map[string]any{"document_id": int64(1)})
	ts.CreateTask(task.OperationCreateEmbeddings, map[string]any{"document_id": int64(2)})

	resp := ts.GET("/api/v1/queue")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result taskListResponse
	ts.DecodeJSON(resp, &result)

	if len(result.Data) != 2 {
		t.Fatalf("len(data) = %d, want 2", len(result.Data))
	}

	types := make(map[string]bool)
	for _, d := range result.Data {
		if d.Type != "task" {
			t.Errorf("resource type = %q, want %q", d.Type, "task")
		}
		types[d.Attributes.Type] = true
	}
	if !types["dokit.document.ingest.extract_text"] {
		t.Error("missing extract_text task in queue listing")
	}
	if !types["dokit.document.ingest.create_embeddings"] {
		t.Error("missing create_embeddings task in queue listing")
	}
}

func TestQueue_List_TaskTypeFilter(t *testing.T) {
	ts := quiescentServer(t)

	ts.CreateTask(task.OperationExtractText, map[string]any{"document_id": int64(1)})
	ts.CreateTask(task.OperationExtractText, map[string]any{"document_id": int64(2)})
	ts.CreateTask(task.OperationCreateEmbeddings, map[string]any{"document_id": int64(3)})

	resp := ts.GET("/api/v1/queue?task_type=dokit.document.ingest.extract_text")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result taskListResponse
	ts.DecodeJSON(resp, &result)

	if len(result.Data) != 2 {
		t.Fatalf("len(data) = %d, want 2", len(result.Data))
	}
	for _, d := range result.Data {
		if d.Attributes.Type != "dokit.document.ingest.extract_text" {
			t.Errorf("task type = %q, want extract_text only", d.Attributes.Type)
		}
	}
}

func TestQueue_List_Limit(t *testing.T) {
	ts := quiescentServer(t)

	for i := range 3 {
		ts.CreateTask(task.OperationExtractText, map[string]any{"document_id": int64(i + 1)})
	}

	resp := ts.GET("/api/v1/queue?limit=2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result taskListResponse
	ts.DecodeJSON(resp, &result)

	if len(result.Data) != 2 {
		t.Errorf("len(data) = %d, want 2", len(result.Data))
	}
}

func TestQueue_List_PriorityOrder(t *testing.T) {
	ts := quiescentServer(t)
	ctx := context.Background()

	low := task.NewTask(task.OperationExtractText, int(task.PriorityBackground), map[string]any{"document_id": int64(1)})
	if _, err := ts.taskStore.Save(ctx, low); err != nil {
		t.Fatalf("save low priority task: %v", err)
	}
	high := task.NewTask(task.OperationDeleteDocument, int(task.PriorityCritical), map[string]any{"document_id": int64(2)})
	if _, err := ts.taskStore.Save(ctx, high); err != nil {
		t.Fatalf("save high priority task: %v", err)
	}

	resp := ts.GET("/api/v1/queue")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result taskListResponse
	ts.DecodeJSON(resp, &result)

	if len(result.Data) != 2 {
		t.Fatalf("len(data) = %d, want 2", len(result.Data))
	}
	if result.Data[0].Attributes.Type != "dokit.document.delete" {
		t.Errorf("first task = %q, want the high priority delete task", result.Data[0].Attributes.Type)
	}
	if result.Data[0].Attributes.Priority <= result.Data[1].Attributes.Priority {
		t.Errorf("priorities not descending: %d then %d",
			result.Data[0].Attributes.Priority, result.Data[1].Attributes.Priority)
	}
}

func TestQueue_GetTask(t *testing.T) {
	ts := quiescentServer(t)

	created := ts.CreateTask(task.OperationExtractText, map[string]any{"document_id": int64(7)})

	resp := ts.GET(fmt.Sprintf("/api/v1/queue/%d", created.ID()))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result taskResponse
	ts.DecodeJSON(resp, &result)

	if result.Data.ID != fmt.Sprintf("%d", created.ID()) {
		t.Errorf("id = %q, want %d", result.Data.ID, created.ID())
	}
	if result.Data.Attributes.Type != "dokit.document.ingest.extract_text" {
		t.Errorf("type = %q, want extract_text", result.Data.Attributes.Type)
	}
}

func TestQueue_GetTask_NotFound(t *testing.T) {
	ts := NewTestServer(t)

	resp := ts.GET("/api/v1/queue/999999")
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestQueue_WorkerDrainsTasks(t *testing.T) {
	ts := NewTestServer(t)

	id := ts.RegisterDocument("drained.txt", []byte("The queue worker picks this document up and runs both ingestion stages."))
	ts.WaitForStatus(id, 10*time.Second, "completed")

	// Both ingestion tasks are deleted once the worker finishes them.
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp := ts.GET("/api/v1/queue")
		var result taskListResponse
		ts.DecodeJSON(resp, &result)
		if len(result.Data) == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("queue still has %d tasks after ingestion completed", len(result.Data))
		}
		time.Sleep(25 * time.Millisecond)
	}
}
