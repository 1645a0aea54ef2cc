package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"

	"autoservice/internal/notify"
	"autoservice/internal/storage"
	"autoservice/internal/storage/memory"
)

var testNow = time.Date(2026, time.March, 18, 10, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notify.RejectionNotice
}

func (n *recordingNotifier) NotifyRejection(_ context.Context, notice notify.RejectionNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return nil
}

type fixture struct {
	svc      *Service
	store    *memory.Storage
	clock    *testclock.Clock
	notifier *recordingNotifier

	master     storage.Actor
	operator   storage.Actor
	apprentice storage.Actor
	carID      int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := memory.New()
	clk := testclock.NewClock(testNow)
	n := &recordingNotifier{}

	masterID := st.SeedUser(storage.User{Name: "Rustam", Role: storage.RoleMaster})
	operatorID := st.SeedUser(storage.User{Name: "Dilnoza", Role: storage.RoleOperator})
	apprenticeID := st.SeedUser(storage.User{Name: "Aziz", Role: storage.RoleApprentice})
	carID := st.SeedCar(storage.Car{Make: "Chevrolet", Model: "Cobalt", Plate: "01A123BC"})

	return &fixture{
		svc:        New(slog.Default(), st, WithClock(clk), WithNotifier(n)),
		store:      st,
		clock:      clk,
		notifier:   n,
		master:     storage.Actor{UserID: masterID, Role: storage.RoleMaster},
		operator:   storage.Actor{UserID: operatorID, Role: storage.RoleOperator},
		apprentice: storage.Actor{UserID: apprenticeID, Role: storage.RoleApprentice},
		carID:      carID,
	}
}

func (f *fixture) part(t *testing.T, name string, price int64, stock int) *storage.SparePart {
	t.Helper()
	p, err := f.svc.CreateOnDemand(context.Background(), name, price, storage.CategoryPart)
	require.NoError(t, err)
	if stock > 0 {
		p, err = f.svc.Restock(context.Background(), p.ID, stock)
		require.NoError(t, err)
	}
	return p
}

func ptr[T any](v T) *T { return &v }

func labor(name string, price int64) ItemDraft {
	return ItemDraft{Name: name, Category: storage.CategoryLabor, Price: ptr(price), Quantity: ptr(1)}
}

// readyOrder создает заказ с одной работой, делегирует ее и доводит до ready-for-delivery.
func (f *fixture) readyOrder(t *testing.T) (*storage.ServiceOrder, storage.Task) {
	t.Helper()
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, f.operator, f.carID, []ItemDraft{labor("Replace brake pads", 200000)})
	require.NoError(t, err)

	tasks, err := f.svc.Delegate(ctx, f.operator, DelegateInput{
		OrderID:    order.ID,
		AssigneeID: f.apprentice.UserID,
		DueDate:    testNow.Add(48 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	_, err = f.svc.StartTask(ctx, f.apprentice, tasks[0].ID)
	require.NoError(t, err)
	task, err := f.svc.CompleteTask(ctx, f.apprentice, tasks[0].ID)
	require.NoError(t, err)

	order, err = f.svc.MarkReadyForDelivery(ctx, f.operator, order.ID)
	require.NoError(t, err)
	return order, *task
}
