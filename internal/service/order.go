package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"autoservice/internal/storage"
)

// ItemDraft is the caller's description of a line item. Nil Price or Quantity
// means the field was not supplied: quantity defaults to 1, price to the
// catalog price (or 0 for ad-hoc items). An explicit 0 is kept as is.
type ItemDraft struct {
	Name     string
	Category storage.Category
	Price    *int64
	Quantity *int
	PartID   *int64
}

func (d ItemDraft) normalize() (storage.Line, error) {
	line := storage.Line{Name: strings.TrimSpace(d.Name), Quantity: 1}

	if line.Name == "" && d.PartID == nil {
		return line, fmt.Errorf("%w: item name is required", ErrInvalidInput)
	}
	if !d.Category.Valid() {
		return line, fmt.Errorf("%w: category %q", ErrInvalidInput, d.Category)
	}
	if d.Quantity != nil {
		if *d.Quantity < 0 {
			return line, fmt.Errorf("%w: negative quantity", ErrInvalidInput)
		}
		line.Quantity = *d.Quantity
	}
	if d.Price != nil {
		if *d.Price < 0 {
			return line, fmt.Errorf("%w: negative price", ErrInvalidInput)
		}
		line.Price = *d.Price
	}
	return line, checkLine(line)
}

// checkLine отклоняет позиции, у которых price*quantity не помещается в int64.
func checkLine(line storage.Line) error {
	if line.Quantity > 0 && line.Price > math.MaxInt64/int64(line.Quantity) {
		return fmt.Errorf("%w: line total of %q overflows", ErrInvalidInput, line.Name)
	}
	return nil
}

// appendItem добавляет позицию в заказ. Для запчастей и материалов из каталога
// списание со склада идет в той же транзакции, что и запись заказа.
func appendItem(ctx context.Context, repo storage.Repository, order *storage.ServiceOrder, d ItemDraft) error {
	line, err := d.normalize()
	if err != nil {
		return err
	}

	part, err := resolvePart(ctx, repo, d, line.Name)
	if err != nil {
		return err
	}

	if part != nil {
		id := part.ID
		line.PartID = &id
		if line.Name == "" {
			line.Name = part.Name
		}
		if d.Price == nil {
			line.Price = part.Price
		}
		if err := checkLine(line); err != nil {
			return err
		}
	}
	if line.Total() > math.MaxInt64-order.TotalPrice {
		return fmt.Errorf("%w: order total overflows", ErrInvalidInput)
	}
	if part != nil && d.Category.Consumable() && part.Category.Consumable() {
		if err := reserve(ctx, repo, part.ID, line.Quantity); err != nil {
			return err
		}
	}

	item, err := storage.NewLineItem(d.Category, line)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	order.Items = append(order.Items, item)
	order.Recalculate()
	return nil
}

// resolvePart returns nil for names that are not in the catalog. Labor lines
// only link to labor entries and goods only to goods.
func resolvePart(ctx context.Context, repo storage.Repository, d ItemDraft, name string) (*storage.SparePart, error) {
	if d.PartID != nil {
		part, err := repo.GetPart(ctx, *d.PartID)
		if err != nil {
			return nil, err
		}
		if part.Category.Consumable() != d.Category.Consumable() {
			return nil, fmt.Errorf("%w: part %d is %s, item is %s", ErrInvalidInput, part.ID, part.Category, d.Category)
		}
		return part, nil
	}

	part, err := repo.GetPartByName(ctx, name)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if part.Category.Consumable() != d.Category.Consumable() {
		return nil, nil
	}
	return part, nil
}

func (s *Service) CreateOrder(ctx context.Context, actor storage.Actor, carID int64, drafts []ItemDraft) (*storage.ServiceOrder, error) {
	const op = "service.order.CreateOrder"

	if err := requireRole(actor, storage.RoleMaster, storage.RoleOperator); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.clock.Now()
	order := &storage.ServiceOrder{
		CarID:     carID,
		Status:    storage.OrderPending,
		CreatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.storage.WithTx(ctx, func(ctx context.Context, repo storage.Repository) error {
		if _, err := repo.GetCar(ctx, carID); err != nil {
			return err
		}
		for i, d := range drafts {
			if err := appendItem(ctx, repo, order, d); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return repo.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("order created", "op", op, "order_id", order.ID, "total", order.TotalPrice)
	return order, nil
}

func (s *Service) AddItem(ctx context.Context, actor storage.Actor, orderID int64, d ItemDraft) (*storage.ServiceOrder, error) {
	const op = "service.order.AddItem"

	if err := requireRole(actor, storage.RoleMaster, storage.RoleOperator); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var order *storage.ServiceOrder
	err := s.inOrder(ctx, orderID, func(ctx context.Context, repo storage.Repository) error {
		var err error
		if order, err = editableOrder(ctx, repo, orderID); err != nil {
			return err
		}
		if err := appendItem(ctx, repo, order, d); err != nil {
			return err
		}
		order.UpdatedAt = s.clock.Now()
		return repo.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// RemoveItem drops the item at index. Consumed stock is not returned to the catalog.
// A labor item covered by a task cannot be removed.
func (s *Service) RemoveItem(ctx context.Context, actor storage.Actor, orderID int64, index int) (*storage.ServiceOrder, error) {
	const op = "service.order.RemoveItem"

	if err := requireRole(actor, storage.RoleMaster, storage.RoleOperator); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var order *storage.ServiceOrder
	err := s.inOrder(ctx, orderID, func(ctx context.Context, repo storage.Repository) error {
		var err error
		if order, err = editableOrder(ctx, repo, orderID); err != nil {
			return err
		}
		if index < 0 || index >= len(order.Items) {
			return fmt.Errorf("%w: index %d", ErrItemNotFound, index)
		}
		if err := shiftTaskPositions(ctx, repo, orderID, index); err != nil {
			return err
		}
		order.Items = append(order.Items[:index], order.Items[index+1:]...)
		order.Recalculate()
		order.UpdatedAt = s.clock.Now()
		return repo.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// shiftTaskPositions refuses removal of a delegated item and moves the
// positions of tasks covering later items one step down.
func shiftTaskPositions(ctx context.Context, repo storage.Repository, orderID int64, removed int) error {
	tasks, err := repo.ListTasks(ctx, storage.TaskFilter{OrderID: orderID})
	if err != nil {
		return err
	}
	for i := range tasks {
		task := &tasks[i]
		if task.ItemPositions.Covers(removed) {
			return fmt.Errorf("%w: item %d is delegated to task %d", ErrInvalidTransition, removed, task.ID)
		}
	}
	for i := range tasks {
		task := &tasks[i]
		shifted := make(storage.ItemPositions, 0, len(task.ItemPositions))
		moved := false
		for _, pos := range task.ItemPositions {
			if pos > removed {
				pos--
				moved = true
			}
			shifted = append(shifted, pos)
		}
		if !moved {
			continue
		}
		task.ItemPositions = shifted
		if err := repo.UpdateTask(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

func editableOrder(ctx context.Context, repo storage.Repository, orderID int64) (*storage.ServiceOrder, error) {
	order, err := repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == storage.OrderApproved {
		return nil, fmt.Errorf("%w: approved order is read-only", ErrInvalidTransition)
	}
	return order, nil
}

func (s *Service) StartOrder(ctx context.Context, actor storage.Actor, orderID int64) (*storage.ServiceOrder, error) {
	const op = "service.order.StartOrder"

	order, err := s.advance(ctx, actor, orderID, EventStart, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// CompleteOrder requires every task of the order to be finished.
func (s *Service) CompleteOrder(ctx context.Context, actor storage.Actor, orderID int64) (*storage.ServiceOrder, error) {
	const op = "service.order.CompleteOrder"

	order, err := s.advance(ctx, actor, orderID, EventComplete, func(ctx context.Context, repo storage.Repository, order *storage.ServiceOrder) error {
		tasks, err := repo.ListTasks(ctx, storage.TaskFilter{OrderID: order.ID})
		if err != nil {
			return err
		}
		if !allTasksDone(tasks) {
			return ErrTasksIncomplete
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

func (s *Service) MarkReadyForDelivery(ctx context.Context, actor storage.Actor, orderID int64) (*storage.ServiceOrder, error) {
	const op = "service.order.MarkReadyForDelivery"

	order, err := s.advance(ctx, actor, orderID, EventReady, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

func (s *Service) advance(
	ctx context.Context,
	actor storage.Actor,
	orderID int64,
	ev Event,
	check func(ctx context.Context, repo storage.Repository, order *storage.ServiceOrder) error,
) (*storage.ServiceOrder, error) {
	if err := requireRole(actor, storage.RoleMaster, storage.RoleOperator); err != nil {
		return nil, err
	}

	var order *storage.ServiceOrder
	err := s.inOrder(ctx, orderID, func(ctx context.Context, repo storage.Repository) error {
		var err error
		if order, err = repo.GetOrder(ctx, orderID); err != nil {
			return err
		}
		if check != nil {
			if err := check(ctx, repo, order); err != nil {
				return err
			}
		}
		if err := s.applyOrderEvent(order, ev); err != nil {
			return err
		}
		return repo.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func allTasksDone(tasks []storage.Task) bool {
	for _, t := range tasks {
		if t.Status != storage.TaskCompleted && t.Status != storage.TaskApproved {
			return false
		}
	}
	return true
}

func (s *Service) GetOrder(ctx context.Context, orderID int64) (*storage.ServiceOrder, error) {
	const op = "service.order.GetOrder"

	order, err := s.storage.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, filter storage.OrderFilter) ([]storage.ServiceOrder, error) {
	const op = "service.order.ListOrders"

	orders, err := s.storage.ListOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

type OrderDetails struct {
	Order storage.ServiceOrder `json:"order"`
	Car   storage.Car          `json:"car"`
	Tasks []storage.Task       `json:"tasks"`
	// TotalFormatted - сумма для отображения, например "300 000".
	TotalFormatted string `json:"total_formatted"`
}

// OrderDetails loads the order together with its car and tasks.
func (s *Service) OrderDetails(ctx context.Context, orderID int64) (*OrderDetails, error) {
	const op = "service.order.OrderDetails"

	var (
		order *storage.ServiceOrder
		tasks []storage.Task
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		order, err = s.storage.GetOrder(gctx, orderID)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = s.storage.ListTasks(gctx, storage.TaskFilter{OrderID: orderID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	car, err := s.storage.GetCar(ctx, order.CarID)
	if err != nil {
		return nil, fmt.Errorf("%s: car: %w", op, err)
	}

	if tasks == nil {
		tasks = []storage.Task{}
	}
	return &OrderDetails{
		Order:          *order,
		Car:            *car,
		Tasks:          tasks,
		TotalFormatted: FormatSum(order.TotalPrice),
	}, nil
}
