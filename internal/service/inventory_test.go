package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoservice/internal/storage"
)

func TestLookup_MinLength(t *testing.T) {
	f := newFixture(t)
	f.part(t, "Brake pad", 50000, 3)

	got, err := f.svc.Lookup(context.Background(), "b")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.svc.Lookup(context.Background(), "br")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Brake pad", got[0].Name)
}

func TestLookup_PrefixBeforeContains(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.part(t, "Front brake disc", 300000, 5)
	f.part(t, "Brake fluid", 40000, 5)
	disc2 := f.part(t, "Rear brake disc", 280000, 5)
	require.NoError(t, f.svc.ReserveConsumption(ctx, disc2.ID, 1))

	got, err := f.svc.Lookup(ctx, "BRAKE")
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, p := range got {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Brake fluid", "Rear brake disc", "Front brake disc"}, names)
}

func TestReserveConsumption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.part(t, "Oil filter", 35000, 3)

	require.NoError(t, f.svc.ReserveConsumption(ctx, p.ID, 2))

	got, err := f.svc.GetPart(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
	assert.Equal(t, 1, got.UsageCount)

	err = f.svc.ReserveConsumption(ctx, p.ID, 2)
	assert.ErrorIs(t, err, ErrOutOfStock)

	got, _ = f.svc.GetPart(ctx, p.ID)
	assert.Equal(t, 1, got.Stock)
	assert.Equal(t, 1, got.UsageCount)
}

func TestReserveConsumption_NegativeQuantity(t *testing.T) {
	f := newFixture(t)
	p := f.part(t, "Oil filter", 35000, 3)

	err := f.svc.ReserveConsumption(context.Background(), p.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateOnDemand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreateOnDemand(ctx, "  Timing belt ", 120000, storage.CategoryPart)
	require.NoError(t, err)
	assert.Equal(t, "Timing belt", p.Name)
	assert.Zero(t, p.Stock)
	assert.Zero(t, p.UsageCount)

	_, err = f.svc.CreateOnDemand(ctx, "TIMING BELT", 1, storage.CategoryPart)
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = f.svc.CreateOnDemand(ctx, "Wheel alignment", 1, storage.Category("service"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRestock_RejectsNonPositive(t *testing.T) {
	f := newFixture(t)
	p := f.part(t, "Oil filter", 35000, 0)

	_, err := f.svc.Restock(context.Background(), p.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
