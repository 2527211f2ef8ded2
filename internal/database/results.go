package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nao1215/scratchindex/internal/model"
)

// GetResultSet returns the stored result set of an experiment.
func (edb *ExperimentDB) GetResultSet(ctx context.Context, experimentID string) (model.ResultSet, error) {
	set, _, err := readResultSet(ctx, edb.db, experimentID)
	return set, err
}

// ReplaceResultSet swaps the whole result set in one transaction.
func (edb *ExperimentDB) ReplaceResultSet(ctx context.Context, experimentID string, set model.ResultSet) error {
	return edb.updateResultSet(ctx, experimentID, func(model.ResultSet) (model.ResultSet, error) {
		return set, nil
	})
}

// UpsertResult replaces the entry for result.ImageID, or appends it.
func (edb *ExperimentDB) UpsertResult(ctx context.Context, experimentID string, result model.AnalysisResult) error {
	return edb.updateResultSet(ctx, experimentID, func(current model.ResultSet) (model.ResultSet, error) {
		return current.Upsert(result), nil
	})
}

// RemoveResult drops the entry for imageID if present.
func (edb *ExperimentDB) RemoveResult(ctx context.Context, experimentID, imageID string) error {
	return edb.updateResultSet(ctx, experimentID, func(current model.ResultSet) (model.ResultSet, error) {
		out, _ := current.Remove(imageID)
		return out, nil
	})
}

// ReplaceRegionAndResultSet changes the region and the result set in one transaction.
func (edb *ExperimentDB) ReplaceRegionAndResultSet(ctx context.Context, experimentID string, region *model.Region, set model.ResultSet) error {
	regionJSON, err := encodeRegion(region)
	if err != nil {
		return err
	}
	setJSON, err := encodeResultSet(set)
	if err != nil {
		return err
	}

	tx, err := edb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
		UPDATE experiments
		SET region = ?, result_set = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, regionJSON, setJSON, experimentID)
	if err != nil {
		return fmt.Errorf("failed to update experiment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // sqlite always reports affected rows
		return fmt.Errorf("%w: %s", model.ErrExperimentNotFound, experimentID)
	}

	return tx.Commit()
}

// updateResultSet reads the set, applies fn and writes the result in one
// transaction. The write only succeeds if the version is unchanged.
func (edb *ExperimentDB) updateResultSet(ctx context.Context, experimentID string, fn func(model.ResultSet) (model.ResultSet, error)) error {
	tx, err := edb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	current, version, err := readResultSet(ctx, tx, experimentID)
	if err != nil {
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	setJSON, err := encodeResultSet(next)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE experiments
		SET result_set = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`, setJSON, experimentID, version)
	if err != nil {
		return fmt.Errorf("failed to write result set: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // sqlite always reports affected rows
		return ErrVersionConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit result set: %w", err)
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readResultSet(ctx context.Context, q queryRower, experimentID string) (model.ResultSet, int64, error) {
	var (
		raw     string
		version int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT result_set, version FROM experiments WHERE id = ?`, experimentID,
	).Scan(&raw, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("%w: %s", model.ErrExperimentNotFound, experimentID)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read result set: %w", err)
	}

	set := model.ResultSet{}
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		return nil, 0, fmt.Errorf("failed to parse result set: %w", err)
	}
	return set, version, nil
}

func encodeResultSet(set model.ResultSet) (string, error) {
	if set == nil {
		set = model.ResultSet{}
	}
	b, err := json.Marshal(set)
	if err != nil {
		return "", fmt.Errorf("failed to serialize result set: %w", err)
	}
	return string(b), nil
}
