package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nepseutils/stock-backoffice/internal/apperrors"
	"github.com/nepseutils/stock-backoffice/internal/model"
)

// ActionRepository provides data access methods for the corporate_action table.
type ActionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewActionRepository creates a new ActionRepository with the provided database connection.
func NewActionRepository(db *sql.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

func (r *ActionRepository) WithTx(tx *sql.Tx) *ActionRepository {
	return &ActionRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *ActionRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const actionColumns = `id, symbol, kind, rate, par_value, book_close, adjustment_factor, records_adjusted, created_at`

// List retrieves corporate actions, optionally filtered by symbol, ordered by
// book-close date ascending. The ordering is load-bearing: the rebuilder
// applies actions in exactly this order, and each action's factor depends on
// the cumulative effect of all earlier ones.
func (r *ActionRepository) List(symbol string) ([]model.CorporateAction, error) {
	query := `SELECT ` + actionColumns + ` FROM corporate_action`

	var args []any

	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}

	query += ` ORDER BY book_close ASC, created_at ASC`

	rows, err := r.getQuerier().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query corporate_action table: %w", err)
	}
	defer rows.Close()

	actions := []model.CorporateAction{}

	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, *action)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating corporate_action table: %w", err)
	}

	return actions, nil
}

// Get retrieves a single corporate action by ID.
// Returns apperrors.ErrActionNotFound if no such action exists.
func (r *ActionRepository) Get(actionID string) (*model.CorporateAction, error) {
	query := `SELECT ` + actionColumns + ` FROM corporate_action WHERE id = ?`

	rows, err := r.getQuerier().Query(query, actionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query corporate_action table: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating corporate_action table: %w", err)
		}
		return nil, apperrors.ErrActionNotFound
	}

	return scanAction(rows)
}

// Insert adds a new corporate action record.
func (r *ActionRepository) Insert(ctx context.Context, action *model.CorporateAction) error {
	query := `
		INSERT INTO corporate_action (id, symbol, kind, rate, par_value, book_close)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		action.ID,
		action.Symbol,
		action.Kind,
		action.Rate,
		nullableFloat(action.ParValue),
		FormatDate(action.BookClose),
	)
	if err != nil {
		return fmt.Errorf("failed to insert corporate action: %w", err)
	}

	return nil
}

// Update modifies the declared fields of an existing corporate action.
// The audit fields are reset; the next rebuild re-resolves them.
// Returns apperrors.ErrActionNotFound if no such action exists.
func (r *ActionRepository) Update(ctx context.Context, action *model.CorporateAction) error {
	query := `
		UPDATE corporate_action
		SET symbol = ?, kind = ?, rate = ?, par_value = ?, book_close = ?,
			adjustment_factor = NULL, records_adjusted = 0
		WHERE id = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query,
		action.Symbol,
		action.Kind,
		action.Rate,
		nullableFloat(action.ParValue),
		FormatDate(action.BookClose),
		action.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update corporate action: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrActionNotFound
	}

	return nil
}

// Delete removes a corporate action by ID.
// Returns apperrors.ErrActionNotFound if no such action exists.
func (r *ActionRepository) Delete(ctx context.Context, actionID string) error {
	result, err := r.getQuerier().ExecContext(ctx,
		`DELETE FROM corporate_action WHERE id = ?`, actionID)
	if err != nil {
		return fmt.Errorf("failed to delete corporate action: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrActionNotFound
	}

	return nil
}

// SetAudit persists the resolved factor and touched-row count back onto the
// action record after an application.
func (r *ActionRepository) SetAudit(ctx context.Context, actionID string, factor float64, records int) error {
	_, err := r.getQuerier().ExecContext(ctx, `
		UPDATE corporate_action
		SET adjustment_factor = ?, records_adjusted = ?
		WHERE id = ?
	`, factor, records, actionID)
	if err != nil {
		return fmt.Errorf("failed to update corporate action audit fields: %w", err)
	}
	return nil
}

// SymbolsWithActions returns the set of symbols that have at least one
// corporate action ever recorded. The batch coordinator uses this to pick the
// full rebuild path versus the unadjusted fast copy.
func (r *ActionRepository) SymbolsWithActions() (map[string]bool, error) {
	rows, err := r.getQuerier().Query(`SELECT DISTINCT symbol FROM corporate_action`)
	if err != nil {
		return nil, fmt.Errorf("failed to query corporate_action symbols: %w", err)
	}
	defer rows.Close()

	symbols := map[string]bool{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan corporate_action symbol: %w", err)
		}
		symbols[s] = true
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating corporate_action symbols: %w", err)
	}

	return symbols, nil
}

func scanAction(rows *sql.Rows) (*model.CorporateAction, error) {
	var a model.CorporateAction
	var parValue, factor sql.NullFloat64
	var bookCloseStr, createdAtStr string

	err := rows.Scan(
		&a.ID,
		&a.Symbol,
		&a.Kind,
		&a.Rate,
		&parValue,
		&bookCloseStr,
		&factor,
		&a.RecordsAdjusted,
		&createdAtStr,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan corporate_action table results: %w", err)
	}

	if parValue.Valid {
		a.ParValue = parValue.Float64
	}
	if factor.Valid {
		a.AdjustmentFactor = factor.Float64
	}

	a.BookClose, err = ParseTime(bookCloseStr)
	if err != nil {
		return nil, err
	}
	a.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// nullableFloat maps the zero value to NULL so "unset" survives the round trip.
func nullableFloat(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}
