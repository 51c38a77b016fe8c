package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflowhq/zapflow/pkg/log"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/persistence/memory"
	"github.com/zapflowhq/zapflow/pkg/registry"
	"github.com/zapflowhq/zapflow/pkg/services"
	"github.com/zapflowhq/zapflow/pkg/testutil"
	"github.com/zapflowhq/zapflow/pkg/web"
)

// recordingSink captures events handed to the API.
type recordingSink struct {
	mu     sync.Mutex
	events []*models.InboundEvent
}

func (s *recordingSink) ProcessInbound(_ context.Context, event *models.InboundEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)

	return nil
}

func setupTestApp(t *testing.T) (*fiber.App, *memory.Persistence, *recordingSink) {
	t.Helper()

	store := memory.NewPersistence()
	r := registry.NewRegistry(log.WithModule("test"))
	r.RegisterDefaultNodes()

	sink := &recordingSink{}
	handlers := web.NewAPIHandlers(
		services.NewWorkflow(store, r),
		services.NewExecution(store),
		sink,
		store,
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/activate", handlers.ActivateWorkflow)
	w.Post("/:id/deactivate", handlers.DeactivateWorkflow)
	w.Post("/:id/trigger", handlers.TriggerWorkflow)
	w.Get("/:id/executions", handlers.GetWorkflowExecutions)
	app.Get("/executions", handlers.GetExecutions)
	app.Get("/executions/:id", handlers.GetExecution)
	app.Post("/events", handlers.PostEvent)
	app.Get("/health", handlers.HealthCheck)

	return app, store, sink
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	decoded := map[string]any{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if len(data) > 0 {
		_ = json.Unmarshal(data, &decoded)
	}

	return resp, decoded
}

func validCreateBody() map[string]any {
	return map[string]any{
		"tenantId": "tenant-1",
		"name":     "Support Flow",
		"nodes": []map[string]any{
			{"id": "start", "type": "TRIGGER_MESSAGE", "config": map[string]any{"matchType": "exact", "pattern": "hi"}},
			{"id": "done", "type": "END"},
		},
		"edges": []map[string]any{
			{"id": "e-1", "source": "start", "target": "done"},
		},
	}
}

func TestCreateWorkflow(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/", validCreateBody())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, false, body["isActive"])
}

func TestCreateWorkflowRejectsShortName(t *testing.T) {
	app, _, _ := setupTestApp(t)

	payload := validCreateBody()
	payload["name"] = "ab"

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateWorkflowRejectsInvalidGraph(t *testing.T) {
	app, _, _ := setupTestApp(t)

	payload := validCreateBody()
	payload["nodes"] = []map[string]any{{"id": "done", "type": "END"}}
	payload["edges"] = []map[string]any{}

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetWorkflowNotFound(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/workflows/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateWorkflowRename(t *testing.T) {
	app, _, _ := setupTestApp(t)

	_, created := doJSON(t, app, http.MethodPost, "/workflows/", validCreateBody())
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	resp, body := doJSON(t, app, http.MethodPatch, "/workflows/"+id, map[string]any{"name": "Renamed Flow"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Renamed Flow", body["name"])
}

func TestActivateDeactivateWorkflow(t *testing.T) {
	app, _, _ := setupTestApp(t)

	_, created := doJSON(t, app, http.MethodPost, "/workflows/", validCreateBody())
	id, _ := created["id"].(string)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/activate", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["isActive"])

	resp, body = doJSON(t, app, http.MethodPost, "/workflows/"+id+"/deactivate", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["isActive"])
}

func TestDeleteWorkflow(t *testing.T) {
	app, _, _ := setupTestApp(t)

	_, created := doJSON(t, app, http.MethodPost, "/workflows/", validCreateBody())
	id, _ := created["id"].(string)

	resp, _ := doJSON(t, app, http.MethodDelete, "/workflows/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/workflows/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostEventForwardsToSink(t *testing.T) {
	app, _, sink := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/events", map[string]any{
		"sessionId": "s-1",
		"contactId": "c-1",
		"text":      "hello",
	})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "accepted", body["status"])

	require.Len(t, sink.events, 1)
	assert.Equal(t, models.SignalMessage, sink.events[0].Signal)
	assert.Equal(t, "s-1", sink.events[0].SessionID)
	assert.Equal(t, "hello", sink.events[0].Text)
}

func TestPostEventRequiresIdentity(t *testing.T) {
	app, _, sink := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/events", map[string]any{"text": "hello"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, sink.events)
}

func TestTriggerWorkflowSendsManualSignal(t *testing.T) {
	app, _, sink := setupTestApp(t)

	_, created := doJSON(t, app, http.MethodPost, "/workflows/", validCreateBody())
	id, _ := created["id"].(string)

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/trigger", map[string]any{
		"sessionId": "s-1",
		"contactId": "c-1",
	})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Len(t, sink.events, 1)
	assert.Equal(t, models.SignalManual, sink.events[0].Signal)
	assert.Equal(t, id, sink.events[0].WorkflowID)
}

func TestGetExecutions(t *testing.T) {
	app, store, _ := setupTestApp(t)

	workflow := testutil.Workflow()
	require.NoError(t, store.SaveWorkflow(context.Background(), workflow))

	execution := models.NewExecution(workflow, "s-1", "c-1")
	require.NoError(t, store.CreateExecution(context.Background(), execution))

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/"+workflow.ID+"/executions", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	executions, _ := body["executions"].([]any)
	require.Len(t, executions, 1)

	resp, all := doJSON(t, app, http.MethodGet, "/executions", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	executions, _ = all["executions"].([]any)
	require.Len(t, executions, 1)

	resp, filtered := doJSON(t, app, http.MethodGet, "/executions?workflowId=absent", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	executions, _ = filtered["executions"].([]any)
	assert.Empty(t, executions)

	resp, single := doJSON(t, app, http.MethodGet, "/executions/"+execution.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, execution.ID, single["id"])

	resp, _ = doJSON(t, app, http.MethodGet, "/executions/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}
