package gallery

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zer0thgear/zer0-novel-utillities/internal/novelai"
	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/xtest"
)

func newRepo(t *testing.T) (Repository, *sql.DB) {
	t.Helper()

	db, err := OpenDB(t.Context(), MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewRepository(&Config{DB: db})
	require.NoError(t, err)

	return repo, db
}

func image(id string, ts int64) objects.GeneratedImage {
	params := novelai.NewParameters()
	params.Width = 832
	params.Height = 1216
	params.Seed = ts
	params.V4Fields = &novelai.V4Fields{ParamsVersion: novelai.ParamsVersion, UseCoords: true}

	return objects.GeneratedImage{
		ID:             id,
		Data:           []byte("png-" + id),
		Prompt:         "prompt " + id,
		NegativePrompt: "lowres",
		Model:          novelai.ModelV45Full,
		Parameters:     params,
		Timestamp:      ts,
		Seed:           ts,
	}
}

func TestMigrations(t *testing.T) {
	_, db := newRepo(t)

	var version int
	require.NoError(t, db.QueryRowContext(t.Context(), getCurrentMigration).Scan(&version))
	assert.Equal(t, len(migrations), version)

	// Running again is a no-op.
	require.NoError(t, migrate(context.Background(), db))
}

func TestRepository_RoundTrip(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := t.Context()

	enhanced := image("c", 300)
	enhanced.SourceImageID = "a"

	require.NoError(t, repo.Save(ctx, image("a", 100)))
	require.NoError(t, repo.Save(ctx, image("b", 200)))
	require.NoError(t, repo.Save(ctx, enhanced))

	images, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{images[0].ID, images[1].ID, images[2].ID})
	assert.Equal(t, "a", images[0].SourceImageID)
	require.True(t, xtest.Equal(image("b", 200), images[1]), xtest.Diff(image("b", 200), images[1]))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got.Parameters.V4Fields)
	assert.True(t, got.Parameters.UseCoords)
	assert.Nil(t, got.Parameters.Img2ImgFields)

	require.NoError(t, repo.Delete(ctx, "b"))
	require.ErrorIs(t, repo.Delete(ctx, "b"), ErrNotFound)

	_, err = repo.Get(ctx, "b")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Clear(ctx))

	images, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestRepository_SaveReplaces(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := t.Context()

	img := image("a", 100)
	require.NoError(t, repo.Save(ctx, img))

	img.Prompt = "changed"
	require.NoError(t, repo.Save(ctx, img))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Prompt)
}

func TestNewRepository_MissingDB(t *testing.T) {
	_, err := NewRepository(&Config{})
	require.Error(t, err)
}
