package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoservice/internal/storage"
)

func TestWindowBounds(t *testing.T) {
	now := time.Date(2026, time.March, 18, 10, 30, 0, 0, time.UTC)
	day := func(m time.Month, d int) time.Time { return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		window   Window
		from, to time.Time
	}{
		{WindowToday, day(time.March, 18), day(time.March, 19)},
		{WindowYesterday, day(time.March, 17), day(time.March, 18)},
		{WindowWeek, day(time.March, 12), day(time.March, 19)},
		{WindowMonth, day(time.March, 1), day(time.April, 1)},
		{WindowYear, day(time.January, 1), time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{WindowAll, time.Time{}, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.window), func(t *testing.T) {
			from, to, err := tt.window.Bounds(now)
			require.NoError(t, err)
			assert.True(t, tt.from.Equal(from), "from %s", from)
			assert.True(t, tt.to.Equal(to), "to %s", to)
		})
	}

	_, _, err := Window("decade").Bounds(now)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestEarningsHistory_Windows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// первое одобрение сегодня
	order, _ := f.readyOrder(t)
	_, err := f.svc.Approve(ctx, f.master, order.ID, "")
	require.NoError(t, err)

	// второе - через два дня
	f.clock.Advance(48 * time.Hour)
	order, _ = f.readyOrder(t)
	_, err = f.svc.Approve(ctx, f.master, order.ID, "")
	require.NoError(t, err)

	today, err := f.svc.EarningsHistory(ctx, f.apprentice, f.apprentice.UserID, WindowToday)
	require.NoError(t, err)
	assert.Len(t, today.Entries, 1)
	assert.Equal(t, int64(200000), today.Total)

	week, err := f.svc.EarningsHistory(ctx, f.apprentice, f.apprentice.UserID, WindowWeek)
	require.NoError(t, err)
	assert.Len(t, week.Entries, 2)
	assert.Equal(t, int64(400000), week.Total)
	assert.Equal(t, "400 000", week.TotalFormatted)
	assert.Equal(t, int64(400000), week.Balance)

	yesterday, err := f.svc.EarningsHistory(ctx, f.master, f.apprentice.UserID, WindowYesterday)
	require.NoError(t, err)
	assert.Empty(t, yesterday.Entries)
	assert.Zero(t, yesterday.Total)

	all, err := f.svc.EarningsHistory(ctx, f.master, f.apprentice.UserID, "")
	require.NoError(t, err)
	assert.Equal(t, WindowAll, all.Window)
	assert.Nil(t, all.From)
	assert.Len(t, all.Entries, 2)
}

func TestEarningsHistory_ForeignApprentice(t *testing.T) {
	f := newFixture(t)
	otherID := f.store.SeedUser(storage.User{Name: "Bekzod", Role: storage.RoleApprentice})

	_, err := f.svc.EarningsHistory(context.Background(), f.apprentice, otherID, WindowAll)
	assert.ErrorIs(t, err, ErrForbidden)
}
