package service_test

import (
	"testing"
	"time"

	"github.com/nepseutils/stock-backoffice/internal/apperrors"
	"github.com/nepseutils/stock-backoffice/internal/model"
	"github.com/nepseutils/stock-backoffice/internal/service"
	"github.com/nepseutils/stock-backoffice/internal/testutil"
)

// waitForJob polls until the job reaches a terminal status or the deadline
// passes.
func waitForJob(t *testing.T, svc *service.RecalcService, jobID string) model.RecalcJob {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.Get(jobID)
		if err != nil {
			t.Fatalf("Get() returned unexpected error: %v", err)
		}
		if job.Status.Finished() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("Job %s did not finish before deadline", jobID)
	return model.RecalcJob{}
}

// TestRecalcService_Start_Success tests a clean full-universe run.
//
// WHY: The batch job is the nightly workhorse. Every security in the raw
// universe must come out with a fresh adjusted series, adjusted symbols via
// the full rebuild and the rest via the fast copy, and the job must finish
// with success and full progress.
func TestRecalcService_Start_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestRecalcService(t, db)

	testutil.CreateCompany(t, db, "NABIL")
	testutil.CreateCompany(t, db, "ADBL")
	testutil.CreateFlatSeries(t, db, "NABIL", testutil.Date(t, "2024-12-01"), 10, 100)
	testutil.CreateFlatSeries(t, db, "ADBL", testutil.Date(t, "2024-12-01"), 10, 400)
	testutil.NewAction("NABIL", "bonus").
		WithRate(10).
		WithBookClose(testutil.Date(t, "2025-01-01")).
		Build(t, db)

	jobID, err := svc.Start()
	if err != nil {
		t.Fatalf("Start() returned unexpected error: %v", err)
	}

	job := waitForJob(t, svc, jobID)

	if job.Status != model.JobSuccess {
		t.Errorf("Expected status %q, got %q (%s)", model.JobSuccess, job.Status, job.Message)
	}
	if job.Progress != 2 || job.Total != 2 {
		t.Errorf("Expected progress 2/2, got %d/%d", job.Progress, job.Total)
	}
	if len(job.FailedSymbols) != 0 {
		t.Errorf("Expected no failed symbols, got %v", job.FailedSymbols)
	}

	// Both series were regenerated: the adjusted symbol scaled, the other 1:1.
	if got := adjustedClose(t, db, "NABIL", "2024-12-05"); !closeTo(got, 90.91, 0.01) {
		t.Errorf("Expected NABIL adjusted close near 90.91, got %v", got)
	}
	if got := adjustedClose(t, db, "ADBL", "2024-12-05"); got != 400 {
		t.Errorf("Expected ADBL unadjusted close 400, got %v", got)
	}
}

// TestRecalcService_Start_PartialFailure tests per-symbol fault isolation.
//
// WHY: One security's bad data must not abort the nightly run for the whole
// market. The failed symbol is recorded by name and the job finishes as
// completed-with-errors while every other symbol still gets rebuilt.
func TestRecalcService_Start_PartialFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestRecalcService(t, db)

	testutil.CreateCompany(t, db, "GOOD")
	testutil.CreateCompany(t, db, "BAD")
	testutil.CreateFlatSeries(t, db, "GOOD", testutil.Date(t, "2024-12-01"), 5, 100)
	testutil.CreateFlatSeries(t, db, "BAD", testutil.Date(t, "2024-12-01"), 5, 100)

	// Force every adjusted-row insert for BAD to fail.
	_, err := db.Exec(`
		CREATE TRIGGER fail_bad_insert BEFORE INSERT ON adjusted_price
		WHEN NEW.symbol = 'BAD'
		BEGIN
			SELECT RAISE(ABORT, 'forced failure');
		END
	`)
	if err != nil {
		t.Fatalf("Failed to create trigger: %v", err)
	}

	jobID, err := svc.Start()
	if err != nil {
		t.Fatalf("Start() returned unexpected error: %v", err)
	}

	job := waitForJob(t, svc, jobID)

	if job.Status != model.JobCompletedWithErrors {
		t.Errorf("Expected status %q, got %q (%s)", model.JobCompletedWithErrors, job.Status, job.Message)
	}
	if job.Progress != 2 {
		t.Errorf("Expected both symbols processed, got progress %d", job.Progress)
	}
	if len(job.FailedSymbols) != 1 || job.FailedSymbols[0] != "BAD" {
		t.Errorf("Expected failed symbols [BAD], got %v", job.FailedSymbols)
	}

	if got := adjustedClose(t, db, "GOOD", "2024-12-03"); got != 100 {
		t.Errorf("Expected GOOD still rebuilt, got close %v", got)
	}
}

// TestRecalcService_Start_FatalError tests the catastrophic path.
//
// WHY: If the universe cannot even be enumerated there is nothing to iterate;
// the job must end in the error state with a message instead of hanging in
// pending forever.
func TestRecalcService_Start_FatalError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestRecalcService(t, db)

	if _, err := db.Exec("DROP TABLE raw_price"); err != nil {
		t.Fatalf("Failed to drop table: %v", err)
	}

	jobID, err := svc.Start()
	if err != nil {
		t.Fatalf("Start() returned unexpected error: %v", err)
	}

	job := waitForJob(t, svc, jobID)

	if job.Status != model.JobError {
		t.Errorf("Expected status %q, got %q", model.JobError, job.Status)
	}
	if job.Message == "" {
		t.Error("Expected a failure message on the job")
	}
}

// TestRecalcService_Get tests status lookup.
//
// WHY: Pollers identify jobs purely by ID; an unknown ID must map to the
// not-found sentinel so the handler can return 404.
func TestRecalcService_Get(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestRecalcService(t, db)

	if _, err := svc.Get(testutil.MakeID()); err != apperrors.ErrJobNotFound {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}

// TestRecalcService_Clear tests job record removal.
//
// WHY: Finished job records accumulate in memory until cleared, but clearing
// must never yank the record out from under a still-running job.
func TestRecalcService_Clear(t *testing.T) {
	t.Run("removes a finished job", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestRecalcService(t, db)

		jobID, err := svc.Start()
		if err != nil {
			t.Fatalf("Start() returned unexpected error: %v", err)
		}
		waitForJob(t, svc, jobID)

		if err := svc.Clear(jobID); err != nil {
			t.Fatalf("Clear() returned unexpected error: %v", err)
		}

		if _, err := svc.Get(jobID); err != apperrors.ErrJobNotFound {
			t.Errorf("Expected ErrJobNotFound after clear, got %v", err)
		}
	})

	t.Run("rejects unknown job", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestRecalcService(t, db)

		if err := svc.Clear(testutil.MakeID()); err != apperrors.ErrJobNotFound {
			t.Errorf("Expected ErrJobNotFound, got %v", err)
		}
	})
}
