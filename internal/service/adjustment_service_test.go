package service_test

import (
	"context"
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/nepseutils/stock-backoffice/internal/testutil"
)

// adjustedClose reads one adjusted closing price from the database.
func adjustedClose(t *testing.T, db *sql.DB, symbol, date string) float64 {
	t.Helper()

	var c float64
	err := db.QueryRow(
		"SELECT close FROM adjusted_price WHERE symbol = ? AND date = ?", symbol, date,
	).Scan(&c)
	if err != nil {
		t.Fatalf("Failed to read adjusted close for %s on %s: %v", symbol, date, err)
	}
	return c
}

// actionAudit reads the audit fields the rebuilder writes back onto an action.
func actionAudit(t *testing.T, db *sql.DB, actionID string) (float64, int) {
	t.Helper()

	var factor sql.NullFloat64
	var records int
	err := db.QueryRow(
		"SELECT adjustment_factor, records_adjusted FROM corporate_action WHERE id = ?", actionID,
	).Scan(&factor, &records)
	if err != nil {
		t.Fatalf("Failed to read action audit fields: %v", err)
	}
	return factor.Float64, records
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func closeTo(got, want, tolerance float64) bool {
	return math.Abs(got-want) <= tolerance
}

// TestAdjustmentService_Rebuild_Bonus tests bonus-share adjustment.
//
// WHY: The bonus factor 1/(1+R) is the most common adjustment and the formula
// every chart depends on. A 10% bonus must scale all history before the book
// close by 1/1.1, independent of the price level.
func TestAdjustmentService_Rebuild_Bonus(t *testing.T) {
	t.Run("scales history before book close", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAdjustmentService(t, db)

		testutil.CreateCompany(t, db, "NABIL")
		testutil.CreateFlatSeries(t, db, "NABIL", testutil.Date(t, "2024-12-01"), 31, 100)
		action := testutil.NewAction("NABIL", "bonus").
			WithRate(10).
			WithBookClose(testutil.Date(t, "2025-01-01")).
			Build(t, db)

		result, err := svc.Rebuild(context.Background(), "NABIL")
		if err != nil {
			t.Fatalf("Rebuild() returned unexpected error: %v", err)
		}

		if result.Rows != 31 {
			t.Errorf("Expected 31 adjusted rows, got %d", result.Rows)
		}
		if result.Applied != 1 {
			t.Errorf("Expected 1 applied action, got %d", result.Applied)
		}

		got := adjustedClose(t, db, "NABIL", "2024-12-15")
		if !closeTo(got, 90.91, 0.01) {
			t.Errorf("Expected adjusted close near 90.91, got %v", got)
		}

		factor, records := actionAudit(t, db, action.ID)
		if !closeTo(factor, 1.0/1.1, 0.000001) {
			t.Errorf("Expected audited factor near %v, got %v", 1.0/1.1, factor)
		}
		if records != 31 {
			t.Errorf("Expected 31 records adjusted, got %d", records)
		}
	})

	t.Run("rows on and after book close are untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAdjustmentService(t, db)

		testutil.CreateCompany(t, db, "NABIL")
		testutil.CreateFlatSeries(t, db, "NABIL", testutil.Date(t, "2024-12-01"), 40, 100)
		testutil.NewAction("NABIL", "bonus").
			WithRate(10).
			WithBookClose(testutil.Date(t, "2024-12-20")).
			Build(t, db)

		if _, err := svc.Rebuild(context.Background(), "NABIL"); err != nil {
			t.Fatalf("Rebuild() returned unexpected error: %v", err)
		}

		if got := adjustedClose(t, db, "NABIL", "2024-12-20"); got != 100 {
			t.Errorf("Row on book close must stay 100, got %v", got)
		}
		if got := adjustedClose(t, db, "NABIL", "2024-12-25"); got != 100 {
			t.Errorf("Row after book close must stay 100, got %v", got)
		}
		if got := adjustedClose(t, db, "NABIL", "2024-12-19"); !closeTo(got, 90.91, 0.01) {
			t.Errorf("Row before book close must be adjusted, got %v", got)
		}
	})
}

// TestAdjustmentService_Rebuild_CashDividend tests cash-dividend adjustment.
//
// WHY: Cash dividends are percentages of par value, not market price. For a
// low-priced security a large dividend can exceed the market price; the factor
// must bottom out at the positive floor rather than flip prices negative.
func TestAdjustmentService_Rebuild_CashDividend(t *testing.T) {
	t.Run("subtracts par-based dividend from prior close", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAdjustmentService(t, db)

		testutil.NewCompany().WithSymbol("HIDCL").WithParValue(10).Build(t, db)
		testutil.CreateFlatSeries(t, db, "HIDCL", testutil.Date(t, "2024-12-01"), 31, 9.75)
		action := testutil.NewAction("HIDCL", "cash").
			WithRate(11.75).
			WithBookClose(testutil.Date(t, "2025-01-01")).
			Build(t, db)

		if _, err := svc.Rebuild(context.Background(), "HIDCL"); err != nil {
			t.Fatalf("Rebuild() returned unexpected error: %v", err)
		}

		// Dividend is 11.75% of par 10 = 1.175, so 9.75 becomes 8.575.
		got := adjustedClose(t, db, "HIDCL", "2024-12-15")
		if !closeTo(got, 8.575, 0.01) {
			t.Errorf("Expected adjusted close near 8.575, got %v", got)
		}

		factor, _ := actionAudit(t, db, action.ID)
		want := (9.75 - 1.175) / 9.75
		if !closeTo(factor, want, 0.000001) {
			t.Errorf("Expected audited factor near %v, got %v", want, factor)
		}
	})

	t.Run("factor is floored when dividend exceeds price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAdjustmentService(t, db)

		testutil.NewCompany().WithSymbol("HIDCL").WithParValue(100).Build(t, db)
		testutil.CreateFlatSeries(t, db, "HIDCL", testutil.Date(t, "2024-12-01"), 10, 50)
		action := testutil.NewAction("HIDCL", "cash").
			WithRate(80).
			WithBookClose(testutil.Date(t, "2025-01-01")).
			Build(t, db)

		if _, err := svc.Rebuild(context.Background(), "HIDCL"); err != nil {
			t.Fatalf("Rebuild() returned unexpected error: %v", err)
		}

		// Dividend 80 of par 100 against a 50 price would go negative;
		// the factor clamps at the floor instead.
		factor, _ := actionAudit(t, db, action.ID)
		if factor != 0.01 {
			t.Errorf("Expected floored factor 0.01, got %v", factor)
		}

		got := adjustedClose(t, db, "HIDCL", "2024-12-05")
		if !closeTo(got, 0.5, 0.01) {
			t.Errorf("Expected floored close near 0.5, got %v", got)
		}
	})
}

// TestAdjustmentService_Rebuild_CompanyPar tests par-value resolution from the
// company listing.
//
// WHY: Actions usually omit par, and the rebuilder resolves it from the
// company record mid-rebuild. That lookup must run on the rebuild
// transaction's own connection; the single-connection pool here makes any
// query escaping the transaction unable to acquire a connection at all.
func TestAdjustmentService_Rebuild_CompanyPar(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SetMaxOpenConns(1)
	svc := testutil.NewTestAdjustmentService(t, db)

	testutil.NewCompany().WithSymbol("HIDCL").WithParValue(10).Build(t, db)
	testutil.CreateFlatSeries(t, db, "HIDCL", testutil.Date(t, "2024-12-01"), 5, 9.75)
	testutil.NewAction("HIDCL", "cash").
		WithRate(11.75).
		WithBookClose(testutil.Date(t, "2025-01-01")).
		Build(t, db)

	result, err := svc.Rebuild(context.Background(), "HIDCL")
	if err != nil {
		t.Fatalf("Rebuild() returned unexpected error: %v", err)
	}
	if result.Applied != 1 {
		t.Fatalf("Expected 1 applied action, got %d", result.Applied)
	}

	// Dividend 10 * 0.1175 = 1.175 off the 9.75 close, per the listed par.
	got := adjustedClose(t, db, "HIDCL", "2024-12-01")
	if !closeTo(got, 8.58, 0.01) {
		t.Errorf("Expected the company par to drive the dividend, got close %v", got)
	}
}

// TestAdjustmentService_Rebuild_RightShare tests rights-issue adjustment.
//
// WHY: The right factor blends the prior close with the subscription price at
// par. Unlike a bonus it depends on the price level, so the prior-close lookup
// must find the adjusted close immediately preceding the book close.
func TestAdjustmentService_Rebuild_RightShare(t *testing.T) {
	t.Run("blends prior close with par subscription", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAdjustmentService(t, db)

		testutil.CreateCompany(t, db, "SANIMA")
		testutil.CreateFlatSeries(t, db, "SANIMA", testutil.Date(t, "2024-12-01"), 31, 300)
		action := testutil.NewAction("SANIMA", "right").
			WithRate(20).
			WithBookClose(testutil.Date(t, "2025-01-01")).
			Build(t, db)

		if _, err := svc.Rebuild(context.Background(), "SANIMA"); err != nil {
			t.Fatalf("Rebuild() returned unexpected error: %v", err)
		}

		// F = (300 + 100*0.2) / (300 * 1.2) = 320/360
		factor, _ := actionAudit(t, db, action.ID)
		want := 320.0 / 360.0
		if !closeTo(factor, want, 0.000001) {
			t.Errorf("Expected audited factor near %v, got %v", want, factor)
		}

		got := adjustedClose(t, db, "SANIMA", "2024-12-15")
		if !closeTo(got, 300*want, 0.01) {
			t.Errorf("Expected adjusted close near %v, got %v", round2(300*want), got)
		}
	})

	t.Run("missing prior close falls back to neutral factor", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAdjustmentService(t, db)

		testutil.CreateCompany(t, db, "SANIMA")
		// All trading history starts after the book close: no prior close.
		testutil.CreateFlatSeries(t, db, "SANIMA", testutil.Date(t, "2025-02-01"), 10, 300)
		action := testutil.NewAction("SANIMA", "right").
			WithRate(20).
			WithBookClose(testutil.Date(t, "2025-01-01")).
			Build(t, db)

		result, err := svc.Rebuild(context.Background(), "SANIMA")
		if err != nil {
			t.Fatalf("Rebuild() returned unexpected error: %v", err)
		}

		if len(result.Unresolved) != 1 {
			t.Fatalf("Expected 1 unresolved action, got %d", len(result.Unresolved))
		}

		factor, records := actionAudit(t, db, action.ID)
		if factor != 1 {
			t.Errorf("Expected neutral factor 1, got %v", factor)
		}
		if records != 0 {
			t.Errorf("Expected 0 records adjusted, got %d", records)
		}
		if got := adjustedClose(t, db, "SANIMA", "2025-02-05"); got != 300 {
			t.Errorf("Prices must be untouched by an unresolved action, got %v", got)
		}
	})
}

// TestAdjustmentService_Rebuild_ActionOrdering tests chained application.
//
// WHY: When a security has multiple actions, each later factor must be
// computed from the series as already adjusted by earlier actions. Applying
// them out of order, or from raw closes, silently corrupts history.
func TestAdjustmentService_Rebuild_ActionOrdering(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestAdjustmentService(t, db)

	testutil.CreateCompany(t, db, "NABIL")
	testutil.CreateFlatSeries(t, db, "NABIL", testutil.Date(t, "2024-12-01"), 31, 100)
	// Inserted out of chronological order on purpose; the rebuilder must
	// apply book-close ascending.
	testutil.NewAction("NABIL", "right").
		WithRate(20).
		WithBookClose(testutil.Date(t, "2025-03-01")).
		Build(t, db)
	testutil.NewAction("NABIL", "bonus").
		WithRate(20).
		WithBookClose(testutil.Date(t, "2025-01-01")).
		Build(t, db)

	result, err := svc.Rebuild(context.Background(), "NABIL")
	if err != nil {
		t.Fatalf("Rebuild() returned unexpected error: %v", err)
	}
	if result.Applied != 2 {
		t.Fatalf("Expected 2 applied actions, got %d", result.Applied)
	}

	// Bonus first: 100 -> 100/1.2. The right's prior close is that already
	// bonus-adjusted value, not the raw 100.
	p1 := round2(100.0 / 1.2)
	f2 := (p1 + 100*0.2) / (p1 * 1.2)
	want := p1 * f2

	got := adjustedClose(t, db, "NABIL", "2024-12-15")
	if !closeTo(got, want, 0.01) {
		t.Errorf("Expected chained adjusted close near %v, got %v", round2(want), got)
	}
}

// TestAdjustmentService_Rebuild_Idempotent tests repeat rebuilds.
//
// WHY: A rebuild always starts from the raw series, so running it twice must
// give byte-for-byte the same adjusted history. Compounding a prior rebuild's
// output would corrupt prices a little more on every nightly run.
func TestAdjustmentService_Rebuild_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestAdjustmentService(t, db)

	testutil.CreateCompany(t, db, "NABIL")
	testutil.CreateFlatSeries(t, db, "NABIL", testutil.Date(t, "2024-12-01"), 31, 100)
	testutil.NewAction("NABIL", "bonus").
		WithRate(10).
		WithBookClose(testutil.Date(t, "2025-01-01")).
		Build(t, db)

	if _, err := svc.Rebuild(context.Background(), "NABIL"); err != nil {
		t.Fatalf("First Rebuild() returned unexpected error: %v", err)
	}
	first := adjustedClose(t, db, "NABIL", "2024-12-15")

	if _, err := svc.Rebuild(context.Background(), "NABIL"); err != nil {
		t.Fatalf("Second Rebuild() returned unexpected error: %v", err)
	}
	second := adjustedClose(t, db, "NABIL", "2024-12-15")

	if first != second {
		t.Errorf("Rebuild is not idempotent: %v then %v", first, second)
	}
	testutil.AssertRowCount(t, db, "adjusted_price", 31)
}

// TestAdjustmentService_Rebuild_NoActions tests the no-op equivalence.
//
// WHY: For a security without corporate actions, a full rebuild and the fast
// unadjusted copy must produce identical series, so the batch coordinator can
// pick either path purely on performance grounds.
func TestAdjustmentService_Rebuild_NoActions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestAdjustmentService(t, db)

	testutil.CreateCompany(t, db, "ADBL")
	testutil.CreateFlatSeries(t, db, "ADBL", testutil.Date(t, "2024-12-01"), 10, 400)

	rebuildResult, err := svc.Rebuild(context.Background(), "ADBL")
	if err != nil {
		t.Fatalf("Rebuild() returned unexpected error: %v", err)
	}
	rebuilt := adjustedClose(t, db, "ADBL", "2024-12-05")

	copyResult, err := svc.CopyUnadjusted(context.Background(), "ADBL")
	if err != nil {
		t.Fatalf("CopyUnadjusted() returned unexpected error: %v", err)
	}
	copied := adjustedClose(t, db, "ADBL", "2024-12-05")

	if rebuildResult.Rows != copyResult.Rows {
		t.Errorf("Row counts differ: rebuild %d, copy %d", rebuildResult.Rows, copyResult.Rows)
	}
	if rebuilt != copied || rebuilt != 400 {
		t.Errorf("Expected identical unadjusted closes of 400, got %v and %v", rebuilt, copied)
	}

	var factor float64
	err = db.QueryRow(
		"SELECT adjustment_factor FROM adjusted_price WHERE symbol = ? AND date = ?",
		"ADBL", "2024-12-05",
	).Scan(&factor)
	if err != nil {
		t.Fatalf("Failed to read adjustment factor: %v", err)
	}
	if factor != 1 {
		t.Errorf("Expected cumulative factor 1, got %v", factor)
	}
}

// TestAdjustmentService_Rebuild_FutureActions tests future-dated exclusion.
//
// WHY: An action declared for a future book close must not move prices until
// that date arrives. Once the clock passes the book close, the same rebuild
// picks it up without any further edits.
func TestAdjustmentService_Rebuild_FutureActions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestAdjustmentService(t, db).WithClock(func() time.Time {
		return testutil.Date(t, "2025-01-10")
	})

	testutil.CreateCompany(t, db, "NABIL")
	testutil.CreateFlatSeries(t, db, "NABIL", testutil.Date(t, "2024-12-01"), 31, 100)
	testutil.NewAction("NABIL", "bonus").
		WithRate(10).
		WithBookClose(testutil.Date(t, "2025-02-01")).
		Build(t, db)

	result, err := svc.Rebuild(context.Background(), "NABIL")
	if err != nil {
		t.Fatalf("Rebuild() returned unexpected error: %v", err)
	}

	if result.Applied != 0 || result.Pending != 1 {
		t.Errorf("Expected 0 applied and 1 pending, got %d and %d", result.Applied, result.Pending)
	}
	if got := adjustedClose(t, db, "NABIL", "2024-12-15"); got != 100 {
		t.Errorf("Future action must not move prices, got %v", got)
	}

	// Advance past the book close: the pending action now applies.
	svc.WithClock(func() time.Time {
		return testutil.Date(t, "2025-02-02")
	})

	result, err = svc.Rebuild(context.Background(), "NABIL")
	if err != nil {
		t.Fatalf("Rebuild() after clock advance returned unexpected error: %v", err)
	}

	if result.Applied != 1 || result.Pending != 0 {
		t.Errorf("Expected 1 applied and 0 pending, got %d and %d", result.Applied, result.Pending)
	}
	if got := adjustedClose(t, db, "NABIL", "2024-12-15"); !closeTo(got, 90.91, 0.01) {
		t.Errorf("Expected adjusted close near 90.91 after clock advance, got %v", got)
	}
}

// TestAdjustmentService_Rebuild_UnknownKind tests the unrecognized-kind no-op.
//
// WHY: Actions arrive from external filings and occasionally carry kinds the
// engine does not model. They must stay on record with zero price effect
// rather than fail the whole rebuild.
func TestAdjustmentService_Rebuild_UnknownKind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestAdjustmentService(t, db)

	testutil.CreateCompany(t, db, "NABIL")
	testutil.CreateFlatSeries(t, db, "NABIL", testutil.Date(t, "2024-12-01"), 10, 100)
	action := testutil.NewAction("NABIL", "merger").
		WithRate(10).
		WithBookClose(testutil.Date(t, "2025-01-01")).
		Build(t, db)

	result, err := svc.Rebuild(context.Background(), "NABIL")
	if err != nil {
		t.Fatalf("Rebuild() returned unexpected error: %v", err)
	}

	if len(result.Unresolved) != 1 {
		t.Errorf("Expected 1 unresolved action, got %d", len(result.Unresolved))
	}
	if got := adjustedClose(t, db, "NABIL", "2024-12-05"); got != 100 {
		t.Errorf("Unknown kind must not move prices, got %v", got)
	}

	factor, records := actionAudit(t, db, action.ID)
	if factor != 1 || records != 0 {
		t.Errorf("Expected neutral audit (1, 0), got (%v, %d)", factor, records)
	}
}

// TestAdjustmentService_Rebuild_EmptySeries tests securities with no prices.
//
// WHY: Newly listed securities exist in the universe before their first
// trading day. A rebuild must succeed with an empty result, not error.
func TestAdjustmentService_Rebuild_EmptySeries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestAdjustmentService(t, db)

	testutil.CreateCompany(t, db, "NEWCO")

	result, err := svc.Rebuild(context.Background(), "NEWCO")
	if err != nil {
		t.Fatalf("Rebuild() returned unexpected error: %v", err)
	}
	if result.Rows != 0 {
		t.Errorf("Expected 0 rows, got %d", result.Rows)
	}
	testutil.AssertRowCount(t, db, "adjusted_price", 0)
}

// TestAdjustmentService_Rebuild_Week52 tests the trailing high/low pass.
//
// WHY: The 52-week band is recomputed from the final adjusted series so
// every adjustment is reflected in it. The window is trailing: each row sees
// only itself and the year behind it.
func TestAdjustmentService_Rebuild_Week52(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestAdjustmentService(t, db)

	testutil.CreateCompany(t, db, "NABIL")
	testutil.NewRawPrice("NABIL").WithDate(testutil.Date(t, "2024-12-01")).WithOHLC(100, 120, 95, 110).Build(t, db)
	testutil.NewRawPrice("NABIL").WithDate(testutil.Date(t, "2024-12-02")).WithOHLC(110, 115, 90, 95).Build(t, db)
	testutil.NewRawPrice("NABIL").WithDate(testutil.Date(t, "2024-12-03")).WithOHLC(95, 105, 94, 100).Build(t, db)

	if _, err := svc.Rebuild(context.Background(), "NABIL"); err != nil {
		t.Fatalf("Rebuild() returned unexpected error: %v", err)
	}

	var high, low float64
	err := db.QueryRow(
		"SELECT week52_high, week52_low FROM adjusted_price WHERE symbol = ? AND date = ?",
		"NABIL", "2024-12-03",
	).Scan(&high, &low)
	if err != nil {
		t.Fatalf("Failed to read 52-week band: %v", err)
	}

	if high != 120 {
		t.Errorf("Expected 52-week high 120, got %v", high)
	}
	if low != 90 {
		t.Errorf("Expected 52-week low 90, got %v", low)
	}
}

// TestAdjustmentService_Rebuild_RollbackOnFailure tests transactionality.
//
// WHY: A rebuild deletes the adjusted series before regenerating it. If the
// regeneration fails partway, the delete must roll back too, leaving the
// previous series intact for readers.
func TestAdjustmentService_Rebuild_RollbackOnFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestAdjustmentService(t, db)

	testutil.CreateCompany(t, db, "BAD")
	testutil.CreateFlatSeries(t, db, "BAD", testutil.Date(t, "2024-12-01"), 5, 100)

	if _, err := svc.Rebuild(context.Background(), "BAD"); err != nil {
		t.Fatalf("Initial Rebuild() returned unexpected error: %v", err)
	}
	testutil.AssertRowCount(t, db, "adjusted_price", 5)

	// Force the copy step to fail mid-rebuild.
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

	if _, err := svc.Rebuild(context.Background(), "BAD"); err == nil {
		t.Fatal("Expected rebuild to fail, got nil error")
	}

	// The delete that started the failed rebuild must have rolled back.
	testutil.AssertRowCount(t, db, "adjusted_price", 5)
}
