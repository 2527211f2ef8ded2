package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/scratchindex/internal/imaging"
	"github.com/nao1215/scratchindex/internal/model"
)

// Image is a stored image without its bytes.
type Image struct {
	model.ImageRef

	Filename    string            `json:"filename,omitempty"`
	Format      string            `json:"format"`
	Size        int               `json:"size"`
	Fingerprint string            `json:"fingerprint"`
	Capture     model.CaptureInfo `json:"capture,omitzero"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewImage is the input of AddImage.
type NewImage struct {
	ExperimentID string
	Passes       int
	Filename     string
	Data         []byte
}

// AddImage stores an image in its experiment. The bytes must be a readable
// image; identical bytes already stored in the experiment are rejected with
// ErrDuplicateImage, and a second passes=0 image is rejected with
// ErrReferenceExists. Camera metadata is read from EXIF when present.
func (edb *ExperimentDB) AddImage(ctx context.Context, in NewImage) (*Image, error) {
	if in.Passes < 0 {
		return nil, fmt.Errorf("passes must be non-negative, got %d", in.Passes)
	}
	format, err := imaging.Format(in.Data)
	if err != nil {
		return nil, err
	}

	img := &Image{
		ImageRef: model.ImageRef{
			ID:           uuid.NewString(),
			ExperimentID: in.ExperimentID,
			Passes:       in.Passes,
		},
		Filename:    in.Filename,
		Format:      format,
		Size:        len(in.Data),
		Fingerprint: imaging.Fingerprint(in.Data),
		Capture:     imaging.ReadCaptureInfo(in.Data),
	}

	tx, err := edb.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM experiments WHERE id = ?`, in.ExperimentID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check experiment: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrExperimentNotFound, in.ExperimentID)
	}

	var duplicate string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM images WHERE experiment_id = ? AND fingerprint = ?`,
		in.ExperimentID, img.Fingerprint).Scan(&duplicate)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: same bytes as image %s", ErrDuplicateImage, duplicate)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to check duplicates: %w", err)
	}

	if in.Passes == 0 {
		var reference string
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM images WHERE experiment_id = ? AND passes = 0 LIMIT 1`,
			in.ExperimentID).Scan(&reference)
		switch {
		case err == nil:
			return nil, fmt.Errorf("%w: image %s", ErrReferenceExists, reference)
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("failed to check reference image: %w", err)
		}
	}

	var capturedAt sql.NullString
	if !img.Capture.CapturedAt.IsZero() {
		capturedAt = sql.NullString{String: img.Capture.CapturedAt.Format(time.RFC3339), Valid: true}
	}

	query := `
	INSERT INTO images (id, experiment_id, passes, filename, format, size, fingerprint,
		camera_make, camera_model, captured_at, data)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query,
		img.ID, img.ExperimentID, img.Passes, img.Filename, img.Format, img.Size, img.Fingerprint,
		img.Capture.CameraMake, img.Capture.CameraModel, capturedAt, in.Data,
	); err != nil {
		return nil, fmt.Errorf("failed to insert image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit image: %w", err)
	}

	return edb.GetImageInfo(ctx, img.ID)
}

// GetImageInfo returns the stored image metadata or model.ErrImageNotFound.
func (edb *ExperimentDB) GetImageInfo(ctx context.Context, imageID string) (*Image, error) {
	query := imageSelect + ` WHERE id = ?`
	img, err := scanImage(edb.db.QueryRowContext(ctx, query, imageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrImageNotFound, imageID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

// ListImages returns the experiment's images ordered by passes, then by
// insertion.
func (edb *ExperimentDB) ListImages(ctx context.Context, experimentID string) ([]Image, error) {
	if err := edb.requireExperiment(ctx, experimentID); err != nil {
		return nil, err
	}

	query := imageSelect + ` WHERE experiment_id = ? ORDER BY passes, rowid`
	rows, err := edb.db.QueryContext(ctx, query, experimentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	var results []Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		results = append(results, *img)
	}
	return results, rows.Err()
}

// DeleteImage removes an image and returns what it was.
// The experiment's result set is not touched; see analysis.RemoveImageResult.
func (edb *ExperimentDB) DeleteImage(ctx context.Context, imageID string) (model.ImageRef, error) {
	img, err := edb.GetImage(ctx, imageID)
	if err != nil {
		return model.ImageRef{}, err
	}
	if _, err := edb.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, imageID); err != nil {
		return model.ImageRef{}, fmt.Errorf("failed to delete image: %w", err)
	}
	return img, nil
}

// GetImage returns the image's id, experiment and passes.
func (edb *ExperimentDB) GetImage(ctx context.Context, imageID string) (model.ImageRef, error) {
	var ref model.ImageRef
	err := edb.db.QueryRowContext(ctx,
		`SELECT id, experiment_id, passes FROM images WHERE id = ?`, imageID,
	).Scan(&ref.ID, &ref.ExperimentID, &ref.Passes)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ImageRef{}, fmt.Errorf("%w: %s", model.ErrImageNotFound, imageID)
	}
	if err != nil {
		return model.ImageRef{}, fmt.Errorf("failed to get image: %w", err)
	}
	return ref, nil
}

// GetBytes returns the encoded image.
func (edb *ExperimentDB) GetBytes(ctx context.Context, imageID string) ([]byte, error) {
	var data []byte
	err := edb.db.QueryRowContext(ctx, `SELECT data FROM images WHERE id = ?`, imageID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrImageNotFound, imageID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image bytes: %w", err)
	}
	return data, nil
}

// ListByExperiment returns the experiment's image refs in the same order as ListImages.
func (edb *ExperimentDB) ListByExperiment(ctx context.Context, experimentID string) ([]model.ImageRef, error) {
	if err := edb.requireExperiment(ctx, experimentID); err != nil {
		return nil, err
	}

	rows, err := edb.db.QueryContext(ctx,
		`SELECT id, experiment_id, passes FROM images WHERE experiment_id = ? ORDER BY passes, rowid`,
		experimentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	var refs []model.ImageRef
	for rows.Next() {
		var ref model.ImageRef
		if err := rows.Scan(&ref.ID, &ref.ExperimentID, &ref.Passes); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (edb *ExperimentDB) requireExperiment(ctx context.Context, experimentID string) error {
	var n int
	if err := edb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM experiments WHERE id = ?`, experimentID).Scan(&n); err != nil {
		return fmt.Errorf("failed to check experiment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", model.ErrExperimentNotFound, experimentID)
	}
	return nil
}

const imageSelect = `
	SELECT id, experiment_id, passes, filename, format, size, fingerprint,
		camera_make, camera_model, captured_at, created_at
	FROM images`

func scanImage(row rowScanner) (*Image, error) {
	var (
		img                     Image
		filename, format        sql.NullString
		cameraMake, cameraModel sql.NullString
		capturedAt              sql.NullString
		createdAt               string
	)
	if err := row.Scan(&img.ID, &img.ExperimentID, &img.Passes, &filename, &format, &img.Size,
		&img.Fingerprint, &cameraMake, &cameraModel, &capturedAt, &createdAt); err != nil {
		return nil, err
	}
	img.Filename = filename.String
	img.Format = format.String
	img.Capture.CameraMake = strings.TrimSpace(cameraMake.String)
	img.Capture.CameraModel = strings.TrimSpace(cameraModel.String)
	if capturedAt.Valid {
		img.Capture.CapturedAt = parseTimestamp(capturedAt.String)
	}
	img.CreatedAt = parseTimestamp(createdAt)
	return &img, nil
}
