package pipeline_test

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/orderflow/internal/domain/pipeline"
)

func TestNewCatalog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		entries   []pipeline.CatalogEntry
		wantField string
	}{
		{
			name:      "empty",
			entries:   nil,
			wantField: "catalog",
		},
		{
			name:      "blank kind",
			entries:   []pipeline.CatalogEntry{{Kind: "", Duration: time.Second}},
			wantField: "catalog[0].kind",
		},
		{
			name:      "zero duration",
			entries:   []pipeline.CatalogEntry{{Kind: "latte", Duration: 0}},
			wantField: "catalog[0].duration",
		},
		{
			name: "duplicate kind",
			entries: []pipeline.CatalogEntry{
				{Kind: "latte", Duration: time.Second},
				{Kind: "latte", Duration: 2 * time.Second},
			},
			wantField: "catalog[1].kind",
		},
		{
			name: "valid",
			entries: []pipeline.CatalogEntry{
				{Kind: "espresso", Duration: 2 * time.Second},
				{Kind: "latte", Duration: 4 * time.Second},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cat, err := pipeline.NewCatalog(tt.entries)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, len(tt.entries), cat.Len())
				assert.Equal(t, tt.entries, cat.Entries())
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, pipeline.ErrInvalidConfiguration))
			var cfgErr *pipeline.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestCatalog_PickAndLookup(t *testing.T) {
	t.Parallel()

	entries := []pipeline.CatalogEntry{
		{Kind: "espresso", Duration: 2 * time.Second},
		{Kind: "latte", Duration: 4 * time.Second},
		{Kind: "cappuccino", Duration: 3 * time.Second},
	}
	cat, err := pipeline.NewCatalog(entries)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))
	picked := make(map[pipeline.Kind]int)
	for i := 0; i < 300; i++ {
		e := cat.Pick(rng)
		want, ok := cat.Lookup(e.Kind)
		require.True(t, ok)
		assert.Equal(t, want, e)
		picked[e.Kind]++
	}
	assert.Len(t, picked, len(entries), "every entry should be reachable")

	_, ok := cat.Lookup("mocha")
	assert.False(t, ok)
}

func TestWorkItem(t *testing.T) {
	t.Parallel()

	id := pipeline.NewItemID(3, 1)
	item := pipeline.NewWorkItem(id, pipeline.CatalogEntry{Kind: "latte", Duration: 4 * time.Second})

	assert.Equal(t, id, item.ID())
	assert.Equal(t, "3-1", item.ID().String())
	assert.Equal(t, 31, item.ID().OrderNumber())
	assert.Equal(t, pipeline.Kind("latte"), item.Kind())
	assert.Equal(t, 4*time.Second, item.Duration())
}

func TestActorFailureError(t *testing.T) {
	t.Parallel()

	cause := errors.New("grinder jammed")
	err := pipeline.NewActorFailureError(pipeline.ActorRoleConsumer, 2, cause)

	assert.ErrorIs(t, err, pipeline.ErrActorFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "CONSUMER 2 failed: grinder jammed", err.Error())
}
