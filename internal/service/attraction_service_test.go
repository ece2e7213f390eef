package service_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dom/jumbah-travel/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttractionService_Catalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "attractions.json")

	attractions := service.NewAttractionService(path)

	_, err := attractions.Catalog()
	assert.ErrorIs(t, err, service.ErrAttractionsUnavailable)

	require.NoError(t, os.WriteFile(path, []byte(`{
		"Kota Kinabalu": {
			"description": "State capital",
			"attractions": [
				{"name": "Gaya Street", "desc": "Sunday market", "image": "https://example.com/gaya.jpg"}
			]
		}
	}`), 0o644))

	catalog, err := attractions.Catalog()
	require.NoError(t, err)
	require.Contains(t, catalog, "Kota Kinabalu")
	district := catalog["Kota Kinabalu"]
	assert.Equal(t, "State capital", district.Description)
	require.Len(t, district.Attractions, 1)
	assert.Equal(t, "Gaya Street", district.Attractions[0].Name)
	assert.Empty(t, district.Attractions[0].Summary)

	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))
	_, err = attractions.Catalog()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrAttractionsUnavailable)
}
