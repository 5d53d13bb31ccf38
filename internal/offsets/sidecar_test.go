package offsets

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/colscan/internal/column"
)

func TestSidecarPath(t *testing.T) {
	assert.Equal(t, "/data/month.idx", SidecarPath("/data/month.csv"))
}

func TestSidecar_RoundTrip(t *testing.T) {
	path := writeFile(t, "2021-01\n2021-02\nna\n2022-12\n")
	table, err := Build(column.Month, path)
	require.NoError(t, err)

	require.NoError(t, SaveSidecar(table, path))

	loaded, err := LoadSidecar(column.Month, path)
	require.NoError(t, err)
	assert.Equal(t, table.offsets, loaded.offsets)
	assert.Equal(t, column.Month, loaded.Column())
}

func TestSidecar_StaleAfterRewrite(t *testing.T) {
	path := writeFile(t, "a\nb\n")
	table, err := Build(column.Town, path)
	require.NoError(t, err)
	require.NoError(t, SaveSidecar(table, path))

	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\n"), 0644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	_, err = LoadSidecar(column.Town, path)
	assert.ErrorIs(t, err, ErrStaleSidecar)
}

func TestSidecar_Corrupt(t *testing.T) {
	path := writeFile(t, "a\nb\n")
	require.NoError(t, os.WriteFile(SidecarPath(path), []byte("garbage"), 0644))

	_, err := LoadSidecar(column.Town, path)
	assert.ErrorIs(t, err, ErrStaleSidecar)
}

func TestSidecar_Missing(t *testing.T) {
	path := writeFile(t, "a\n")
	_, err := LoadSidecar(column.Town, path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
