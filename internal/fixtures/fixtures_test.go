package fixtures

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ent0n29/contactcenter/internal/stages"
)

func TestLoadEmbedded(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	for _, c := range stages.Categories {
		assert.NotEmpty(t, b.Knowledge[c], "knowledge for %s", c)
	}
	require.NotEmpty(t, b.Customers)
	for _, c := range b.Customers {
		require.NotNil(t, c.Vehicle, c.ID)
		assert.Positive(t, c.Vehicle.Mileage, c.ID)
	}
	assert.Len(t, b.Catalog.Vehicles, 5)
	assert.Len(t, b.Catalog.Services, 2)

	oil, ok := b.ServiceMenu.Find("oil_change")
	require.True(t, ok)
	assert.Equal(t, 5000, oil.Interval)
	assert.Len(t, oil.AddOns, 2)
}

func TestEmbeddedKnowledgeAnswersOilChange(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	got := b.Knowledge.Retrieve(stages.CategoryService, "I need to schedule an oil change for my Toyota Camry")
	require.NotEmpty(t, got)
	assert.Equal(t, "oil change", got[0].Topic)
	assert.Contains(t, got[0].Content, "schedule")
}

func TestLoadFSRejectsUnknownCategory(t *testing.T) {
	fsys := fstest.MapFS{
		knowledgeFile: {Data: []byte("weather:\n  - topic: rain\n    content: wet\n")},
		customersFile: {Data: []byte("[]\n")},
		catalogFile:   {Data: []byte("vehicles: []\n")},
		servicesFile:  {Data: []byte("routine: []\n")},
	}
	_, err := LoadFS(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestLoadFSMissingFile(t *testing.T) {
	_, err := LoadFS(fstest.MapFS{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), knowledgeFile)
}
