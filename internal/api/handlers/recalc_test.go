package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nepseutils/stock-backoffice/internal/model"
	"github.com/nepseutils/stock-backoffice/internal/service"
	"github.com/nepseutils/stock-backoffice/internal/testutil"
)

// waitForJob polls the service until the job finishes or the deadline passes.
func waitForJob(t *testing.T, svc *service.RecalcService, jobID string) {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.Get(jobID)
		if err != nil {
			t.Fatalf("Get() returned unexpected error: %v", err)
		}
		if job.Status.Finished() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Job %s did not finish before deadline", jobID)
}

func TestRecalcHandler_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestRecalcService(t, db)
	handler := NewRecalcHandler(svc)

	testutil.CreateCompany(t, db, "NABIL")
	testutil.CreateFlatSeries(t, db, "NABIL", testutil.Date(t, "2024-12-01"), 5, 100)

	// Start returns 202 with the job ID.
	req := httptest.NewRequest(http.MethodPost, "/api/recalculate", nil)
	w := httptest.NewRecorder()

	handler.StartRecalculation(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", w.Code, w.Body.String())
	}

	var started map[string]string
	//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
	json.NewDecoder(w.Body).Decode(&started)

	jobID := started["jobId"]
	if jobID == "" {
		t.Fatal("Expected a job ID in the start response")
	}

	waitForJob(t, svc, jobID)

	// Poll the finished job.
	req = testutil.NewRequestWithURLParams(http.MethodGet, "/api/recalculate/"+jobID,
		map[string]string{"uuid": jobID})
	w = httptest.NewRecorder()

	handler.GetJob(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var job model.RecalcJob
	//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
	json.NewDecoder(w.Body).Decode(&job)

	if job.Status != model.JobSuccess {
		t.Errorf("Expected status %q, got %q", model.JobSuccess, job.Status)
	}
	if job.Progress != 1 || job.Total != 1 {
		t.Errorf("Expected progress 1/1, got %d/%d", job.Progress, job.Total)
	}

	// Clear the finished job.
	req = testutil.NewRequestWithURLParams(http.MethodDelete, "/api/recalculate/"+jobID,
		map[string]string{"uuid": jobID})
	w = httptest.NewRecorder()

	handler.ClearJob(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d: %s", w.Code, w.Body.String())
	}

	// A cleared job is gone.
	req = testutil.NewRequestWithURLParams(http.MethodGet, "/api/recalculate/"+jobID,
		map[string]string{"uuid": jobID})
	w = httptest.NewRecorder()

	handler.GetJob(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after clear, got %d", w.Code)
	}
}

func TestRecalcHandler_GetJob_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewRecalcHandler(testutil.NewTestRecalcService(t, db))

	id := testutil.MakeID()
	req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/recalculate/"+id,
		map[string]string{"uuid": id})
	w := httptest.NewRecorder()

	handler.GetJob(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRecalcHandler_ClearJob_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewRecalcHandler(testutil.NewTestRecalcService(t, db))

	id := testutil.MakeID()
	req := testutil.NewRequestWithURLParams(http.MethodDelete, "/api/recalculate/"+id,
		map[string]string{"uuid": id})
	w := httptest.NewRecorder()

	handler.ClearJob(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
	}
}
