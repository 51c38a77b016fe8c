package adapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflowhq/zapflow/pkg/adapters"
)

func TestMemoryLabelsAddRemove(t *testing.T) {
	ctx := context.Background()
	labels := adapters.NewMemoryLabels()

	require.NoError(t, labels.Mutate(ctx, "tenant-1", "c-1", "add", []string{"vip", "lead"}))
	require.NoError(t, labels.Mutate(ctx, "tenant-1", "c-1", "add", []string{"vip"}))

	listed, err := labels.List(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"lead", "vip"}, listed)

	require.NoError(t, labels.Mutate(ctx, "tenant-1", "c-1", "remove", []string{"lead"}))

	listed, err = labels.List(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"vip"}, listed)
}

func TestMemoryLabelsSetReplaces(t *testing.T) {
	ctx := context.Background()
	labels := adapters.NewMemoryLabels()

	require.NoError(t, labels.Mutate(ctx, "tenant-1", "c-1", "add", []string{"old"}))
	require.NoError(t, labels.Mutate(ctx, "tenant-1", "c-1", "set", []string{"fresh"}))

	listed, err := labels.List(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, listed)
}

func TestMemoryLabelsUnknownAction(t *testing.T) {
	labels := adapters.NewMemoryLabels()

	err := labels.Mutate(context.Background(), "tenant-1", "c-1", "toggle", []string{"vip"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toggle")
}

func TestMemoryLabelsIsolatedByContact(t *testing.T) {
	ctx := context.Background()
	labels := adapters.NewMemoryLabels()

	require.NoError(t, labels.Mutate(ctx, "tenant-1", "c-1", "add", []string{"vip"}))

	listed, err := labels.List(ctx, "c-2")
	require.NoError(t, err)
	assert.Empty(t, listed)
}
