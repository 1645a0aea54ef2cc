package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoservice/internal/storage"
)

func TestDelegate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, f.operator, f.carID, []ItemDraft{labor("Diagnostics", 80000)})
	require.NoError(t, err)

	_, err = f.svc.Delegate(ctx, f.operator, DelegateInput{OrderID: order.ID, DueDate: testNow})
	assert.ErrorIs(t, err, ErrMissingAssignee)

	_, err = f.svc.Delegate(ctx, f.operator, DelegateInput{OrderID: order.ID, AssigneeID: f.apprentice.UserID})
	assert.ErrorIs(t, err, ErrMissingDueDate)

	_, err = f.svc.Delegate(ctx, f.operator, DelegateInput{
		OrderID: order.ID, AssigneeID: f.apprentice.UserID, DueDate: testNow, Priority: "asap",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Delegate(ctx, f.operator, DelegateInput{OrderID: order.ID, AssigneeID: f.master.UserID, DueDate: testNow})
	assert.ErrorIs(t, err, ErrInvalidInput)

	tasks, err := f.svc.ListTasks(ctx, storage.TaskFilter{OrderID: order.ID})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDelegate_BatchPaymentAndTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.part(t, "Brake pad", 50000, 5)

	order, err := f.svc.CreateOrder(ctx, f.operator, f.carID, []ItemDraft{
		{Name: "Brake pad", Category: storage.CategoryPart, Quantity: ptr(2)},
		labor("Replace brake pads", 200000),
		{Name: "Bleed brakes", Category: storage.CategoryLabor, Price: ptr(int64(60000)), Quantity: ptr(2)},
	})
	require.NoError(t, err)

	due := testNow.Add(24 * time.Hour)
	tasks, err := f.svc.Delegate(ctx, f.operator, DelegateInput{
		OrderID:        order.ID,
		AssigneeID:     f.apprentice.UserID,
		DueDate:        due,
		Priority:       storage.PriorityHigh,
		EstimatedHours: 2.5,
		Batch:          true,
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	want := storage.Task{
		ID:             tasks[0].ID,
		OrderID:        order.ID,
		CarID:          f.carID,
		AssigneeID:     f.apprentice.UserID,
		AssigneeName:   "Aziz",
		CarLabel:       "Chevrolet Cobalt (01A123BC)",
		Title:          "Replace brake pads, Bleed brakes",
		Payment:        320000,
		DueDate:        due,
		Priority:       storage.PriorityHigh,
		EstimatedHours: 2.5,
		Status:         storage.TaskAssigned,
		CreatedAt:      testNow,
		Version:        1,
		ItemPositions:  storage.ItemPositions{1, 2},
	}
	if diff := cmp.Diff(want, tasks[0]); diff != "" {
		t.Errorf("task mismatch (-want +got):\n%s", diff)
	}
}

func TestDelegate_PerItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, f.operator, f.carID, []ItemDraft{
		labor("Oil change", 100000),
		{Name: "Engine oil", Category: storage.CategoryMaterial, Price: ptr(int64(90000))},
		labor("Air filter swap", 30000),
	})
	require.NoError(t, err)

	tasks, err := f.svc.Delegate(ctx, f.operator, DelegateInput{
		OrderID: order.ID, AssigneeID: f.apprentice.UserID, DueDate: testNow,
	})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Oil change", tasks[0].Title)
	assert.Equal(t, int64(100000), tasks[0].Payment)
	assert.Equal(t, storage.PriorityMedium, tasks[0].Priority)
	assert.Equal(t, "Air filter swap", tasks[1].Title)
	assert.Equal(t, int64(30000), tasks[1].Payment)

	_, err = f.svc.Delegate(ctx, f.operator, DelegateInput{
		OrderID: order.ID, ItemIndexes: []int{1}, AssigneeID: f.apprentice.UserID, DueDate: testNow,
	})
	assert.ErrorIs(t, err, ErrNotLaborItem)
}

func TestTaskFlow_StartAndComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, f.operator, f.carID, []ItemDraft{labor("Oil change", 100000)})
	require.NoError(t, err)
	tasks, err := f.svc.Delegate(ctx, f.operator, DelegateInput{OrderID: order.ID, AssigneeID: f.apprentice.UserID, DueDate: testNow})
	require.NoError(t, err)

	_, err = f.svc.CompleteTask(ctx, f.apprentice, tasks[0].ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	task, err := f.svc.StartTask(ctx, f.apprentice, tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, storage.TaskInProgress, task.Status)

	order, err = f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.OrderInProgress, order.Status)

	f.clock.Advance(90 * time.Minute)
	task, err = f.svc.CompleteTask(ctx, f.apprentice, tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, storage.TaskCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(testNow.Add(90*time.Minute)))

	order, err = f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.OrderCompleted, order.Status)
}

func TestTaskFlow_OtherApprenticeForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otherID := f.store.SeedUser(storage.User{Name: "Bekzod", Role: storage.RoleApprentice})

	order, err := f.svc.CreateOrder(ctx, f.operator, f.carID, []ItemDraft{labor("Oil change", 100000)})
	require.NoError(t, err)
	tasks, err := f.svc.Delegate(ctx, f.operator, DelegateInput{OrderID: order.ID, AssigneeID: f.apprentice.UserID, DueDate: testNow})
	require.NoError(t, err)

	_, err = f.svc.StartTask(ctx, storage.Actor{UserID: otherID, Role: storage.RoleApprentice}, tasks[0].ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdatePayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, task := f.readyOrder(t)

	_, err := f.svc.UpdatePayment(ctx, f.apprentice, task.ID, 1)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.UpdatePayment(ctx, f.master, task.ID, 250000)
	require.NoError(t, err)
	assert.Equal(t, int64(250000), got.Payment)
}

func TestListTasks_Filter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.readyOrder(t)

	order, err := f.svc.CreateOrder(ctx, f.operator, f.carID, []ItemDraft{labor("Oil change", 100000)})
	require.NoError(t, err)
	_, err = f.svc.Delegate(ctx, f.operator, DelegateInput{OrderID: order.ID, AssigneeID: f.apprentice.UserID, DueDate: testNow})
	require.NoError(t, err)

	assigned, err := f.svc.ListTasks(ctx, storage.TaskFilter{Status: storage.TaskAssigned, AssigneeID: f.apprentice.UserID})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, order.ID, assigned[0].OrderID)

	byCar, err := f.svc.ListTasks(ctx, storage.TaskFilter{CarID: f.carID})
	require.NoError(t, err)
	assert.Len(t, byCar, 2)
}

func TestDelegate_LaborIsPaidOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, f.operator, f.carID, []ItemDraft{labor("Replace brake pads", 200000)})
	require.NoError(t, err)

	in := DelegateInput{OrderID: order.ID, AssigneeID: f.apprentice.UserID, DueDate: testNow}
	first, err := f.svc.Delegate(ctx, f.operator, in)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, storage.ItemPositions{0}, first[0].ItemPositions)

	_, err = f.svc.Delegate(ctx, f.operator, in)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	in.ItemIndexes = []int{0}
	_, err = f.svc.Delegate(ctx, f.operator, in)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	tasks, err := f.svc.ListTasks(ctx, storage.TaskFilter{OrderID: order.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(200000), tasks[0].Payment)

	// новая работа делегируется отдельно, старая не захватывается
	order, err = f.svc.AddItem(ctx, f.operator, order.ID, labor("Wheel alignment", 150000))
	require.NoError(t, err)
	in.ItemIndexes = nil
	second, err := f.svc.Delegate(ctx, f.operator, in)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, int64(150000), second[0].Payment)
	assert.Equal(t, storage.ItemPositions{1}, second[0].ItemPositions)

	var paid int64
	tasks, err = f.svc.ListTasks(ctx, storage.TaskFilter{OrderID: order.ID})
	require.NoError(t, err)
	for _, task := range tasks {
		paid += task.Payment
	}
	assert.Equal(t, order.TotalPrice, paid)
}

func TestDelegate_RepeatedIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, f.operator, f.carID, []ItemDraft{labor("Diagnostics", 80000)})
	require.NoError(t, err)

	_, err = f.svc.Delegate(ctx, f.operator, DelegateInput{
		OrderID: order.ID, ItemIndexes: []int{0, 0}, AssigneeID: f.apprentice.UserID, DueDate: testNow, Batch: true,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRemoveItem_DelegatedLaborIsKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, f.operator, f.carID, []ItemDraft{
		labor("Oil change", 100000),
		{Name: "Engine oil", Category: storage.CategoryMaterial, Price: ptr(int64(90000))},
		labor("Air filter swap", 30000),
	})
	require.NoError(t, err)

	tasks, err := f.svc.Delegate(ctx, f.operator, DelegateInput{
		OrderID: order.ID, ItemIndexes: []int{2}, AssigneeID: f.apprentice.UserID, DueDate: testNow,
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	_, err = f.svc.RemoveItem(ctx, f.operator, order.ID, 2)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	order, err = f.svc.RemoveItem(ctx, f.operator, order.ID, 0)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)

	task, err := f.svc.GetTask(ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, storage.ItemPositions{1}, task.ItemPositions)
	assert.Equal(t, "Air filter swap", order.Items[1].Details().Name)

	_, err = f.svc.RemoveItem(ctx, f.operator, order.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.Delegate(ctx, f.operator, DelegateInput{OrderID: order.ID, AssigneeID: f.apprentice.UserID, DueDate: testNow})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
