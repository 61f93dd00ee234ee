package gallery

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
)

// ErrNotFound is returned when no image has the requested id.
var ErrNotFound = errors.New("gallery image not found")

// Repository stores generated images.
type Repository interface {
	Save(ctx context.Context, image objects.GeneratedImage) error
	Get(ctx context.Context, id string) (objects.GeneratedImage, error)
	List(ctx context.Context) ([]objects.GeneratedImage, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

const upsertImageQuery string = `
INSERT INTO images (id, data, prompt, negative_prompt, model, parameters, timestamp, seed, source_image_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
data = excluded.data, prompt = excluded.prompt, negative_prompt = excluded.negative_prompt,
model = excluded.model, parameters = excluded.parameters, timestamp = excluded.timestamp,
seed = excluded.seed, source_image_id = excluded.source_image_id;
`

const selectImageColumns string = `SELECT id, data, prompt, negative_prompt, model, parameters, timestamp, seed, source_image_id FROM images`

const getImageQuery string = selectImageColumns + ` WHERE id = ?;`

const listImagesQuery string = selectImageColumns + ` ORDER BY timestamp DESC, id DESC;`

const deleteImageQuery string = `DELETE FROM images WHERE id = ?;`

const clearImagesQuery string = `DELETE FROM images;`

type sqliteRepo struct {
	dbConn *sql.DB
}

type Config struct {
	DB *sql.DB
}

func NewRepository(cfg *Config) (Repository, error) {
	if cfg == nil || cfg.DB == nil {
		return nil, errors.New("missing DB parameter")
	}

	return &sqliteRepo{dbConn: cfg.DB}, nil
}

func (repo *sqliteRepo) Save(ctx context.Context, image objects.GeneratedImage) error {
	params, err := json.Marshal(image.Parameters)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}

	_, err = repo.dbConn.ExecContext(ctx, upsertImageQuery,
		image.ID, image.Data, image.Prompt, image.NegativePrompt, image.Model,
		string(params), image.Timestamp, image.Seed, image.SourceImageID)
	if err != nil {
		return fmt.Errorf("failed to save image %s: %w", image.ID, err)
	}

	return nil
}

func (repo *sqliteRepo) Get(ctx context.Context, id string) (objects.GeneratedImage, error) {
	row := repo.dbConn.QueryRowContext(ctx, getImageQuery, id)

	image, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return objects.GeneratedImage{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return image, err
}

// List returns every image, newest first.
func (repo *sqliteRepo) List(ctx context.Context) ([]objects.GeneratedImage, error) {
	rows, err := repo.dbConn.QueryContext(ctx, listImagesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []objects.GeneratedImage

	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}

		images = append(images, image)
	}

	return images, rows.Err()
}

func (repo *sqliteRepo) Delete(ctx context.Context, id string) error {
	res, err := repo.dbConn.ExecContext(ctx, deleteImageQuery, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

func (repo *sqliteRepo) Clear(ctx context.Context) error {
	_, err := repo.dbConn.ExecContext(ctx, clearImagesQuery)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanImage(row scanner) (objects.GeneratedImage, error) {
	var (
		image  objects.GeneratedImage
		params string
	)

	err := row.Scan(&image.ID, &image.Data, &image.Prompt, &image.NegativePrompt, &image.Model,
		&params, &image.Timestamp, &image.Seed, &image.SourceImageID)
	if err != nil {
		return objects.GeneratedImage{}, err
	}

	if err := json.Unmarshal([]byte(params), &image.Parameters); err != nil {
		return objects.GeneratedImage{}, fmt.Errorf("failed to decode parameters of %s: %w", image.ID, err)
	}

	return image, nil
}
