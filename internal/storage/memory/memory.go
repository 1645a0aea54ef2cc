// Package memory is an in-process implementation of storage.Storage used in
// tests and for local runs without MySQL.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"autoservice/internal/storage"
)

type state struct {
	parts    map[int64]storage.SparePart
	cars     map[int64]storage.Car
	users    map[int64]storage.User
	orders   map[int64]storage.ServiceOrder
	tasks    map[int64]storage.Task
	earnings []storage.Earning

	partSeq, carSeq, userSeq, orderSeq, taskSeq, earningSeq int64
}

func newState() *state {
	return &state{
		parts:  make(map[int64]storage.SparePart),
		cars:   make(map[int64]storage.Car),
		users:  make(map[int64]storage.User),
		orders: make(map[int64]storage.ServiceOrder),
		tasks:  make(map[int64]storage.Task),
	}
}

func (st *state) clone() *state {
	c := *st
	c.parts = make(map[int64]storage.SparePart, len(st.parts))
	for k, v := range st.parts {
		c.parts[k] = v
	}
	c.cars = make(map[int64]storage.Car, len(st.cars))
	for k, v := range st.cars {
		c.cars[k] = v
	}
	c.users = make(map[int64]storage.User, len(st.users))
	for k, v := range st.users {
		c.users[k] = v
	}
	c.orders = make(map[int64]storage.ServiceOrder, len(st.orders))
	for k, v := range st.orders {
		c.orders[k] = v.Clone()
	}
	c.tasks = make(map[int64]storage.Task, len(st.tasks))
	for k, v := range st.tasks {
		c.tasks[k] = v
	}
	c.earnings = append([]storage.Earning(nil), st.earnings...)
	return &c
}

// Storage serializes every call behind one mutex. A transaction works on a
// copy of the state that replaces the original only on success.
type Storage struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

func New() *Storage {
	return &Storage{mu: &sync.Mutex{}, st: newState()}
}

func (s *Storage) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Storage) WithTx(ctx context.Context, fn func(ctx context.Context, repo storage.Repository) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Storage{mu: s.mu, st: s.st.clone(), inTx: true}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

// SeedCar registers a car, the car registry itself lives outside this service.
func (s *Storage) SeedCar(car storage.Car) int64 {
	defer s.lock()()
	s.st.carSeq++
	car.ID = s.st.carSeq
	s.st.cars[car.ID] = car
	return car.ID
}

func (s *Storage) SeedUser(user storage.User) int64 {
	defer s.lock()()
	s.st.userSeq++
	user.ID = s.st.userSeq
	s.st.users[user.ID] = user
	return user.ID
}

func (s *Storage) SearchParts(_ context.Context, query string, limit int) ([]storage.SparePart, error) {
	defer s.lock()()

	key := storage.NameKey(query)
	var found []storage.SparePart
	for _, p := range s.st.parts {
		if strings.Contains(storage.NameKey(p.Name), key) {
			found = append(found, p)
		}
	}

	sort.Slice(found, func(i, j int) bool {
		pi := strings.HasPrefix(storage.NameKey(found[i].Name), key)
		pj := strings.HasPrefix(storage.NameKey(found[j].Name), key)
		if pi != pj {
			return pi
		}
		if found[i].UsageCount != found[j].UsageCount {
			return found[i].UsageCount > found[j].UsageCount
		}
		return found[i].Name < found[j].Name
	})

	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

func (s *Storage) GetPart(_ context.Context, id int64) (*storage.SparePart, error) {
	const op = "storage.memory.GetPart"
	defer s.lock()()

	p, ok := s.st.parts[id]
	if !ok {
		return nil, fmt.Errorf("%s: part %d: %w", op, id, storage.ErrNotFound)
	}
	return &p, nil
}

func (s *Storage) GetPartByName(_ context.Context, name string) (*storage.SparePart, error) {
	const op = "storage.memory.GetPartByName"
	defer s.lock()()

	key := storage.NameKey(name)
	for _, p := range s.st.parts {
		if storage.NameKey(p.Name) == key {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%s: %q: %w", op, name, storage.ErrNotFound)
}

func (s *Storage) CreatePart(_ context.Context, part *storage.SparePart) error {
	const op = "storage.memory.CreatePart"
	defer s.lock()()

	key := storage.NameKey(part.Name)
	for _, p := range s.st.parts {
		if storage.NameKey(p.Name) == key {
			return fmt.Errorf("%s: %q: %w", op, part.Name, storage.ErrDuplicateName)
		}
	}

	s.st.partSeq++
	part.ID = s.st.partSeq
	s.st.parts[part.ID] = *part
	return nil
}

func (s *Storage) ConsumeStock(_ context.Context, id int64, qty int) error {
	const op = "storage.memory.ConsumeStock"
	defer s.lock()()

	p, ok := s.st.parts[id]
	if !ok {
		return fmt.Errorf("%s: part %d: %w", op, id, storage.ErrNotFound)
	}
	if p.Stock < qty {
		return fmt.Errorf("%s: part %d has %d, need %d: %w", op, id, p.Stock, qty, storage.ErrOutOfStock)
	}
	p.Stock -= qty
	p.UsageCount++
	s.st.parts[id] = p
	return nil
}

func (s *Storage) AddStock(_ context.Context, id int64, qty int) error {
	const op = "storage.memory.AddStock"
	defer s.lock()()

	p, ok := s.st.parts[id]
	if !ok {
		return fmt.Errorf("%s: part %d: %w", op, id, storage.ErrNotFound)
	}
	p.Stock += qty
	s.st.parts[id] = p
	return nil
}

func (s *Storage) GetCar(_ context.Context, id int64) (*storage.Car, error) {
	const op = "storage.memory.GetCar"
	defer s.lock()()

	c, ok := s.st.cars[id]
	if !ok {
		return nil, fmt.Errorf("%s: car %d: %w", op, id, storage.ErrNotFound)
	}
	return &c, nil
}

func (s *Storage) GetUser(_ context.Context, id int64) (*storage.User, error) {
	const op = "storage.memory.GetUser"
	defer s.lock()()

	u, ok := s.st.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: user %d: %w", op, id, storage.ErrNotFound)
	}
	return &u, nil
}

func (s *Storage) CreateOrder(_ context.Context, order *storage.ServiceOrder) error {
	defer s.lock()()

	s.st.orderSeq++
	order.ID = s.st.orderSeq
	order.Version = 1
	s.st.orders[order.ID] = order.Clone()
	return nil
}

func (s *Storage) GetOrder(_ context.Context, id int64) (*storage.ServiceOrder, error) {
	const op = "storage.memory.GetOrder"
	defer s.lock()()

	o, ok := s.st.orders[id]
	if !ok {
		return nil, fmt.Errorf("%s: order %d: %w", op, id, storage.ErrNotFound)
	}
	c := o.Clone()
	return &c, nil
}

func (s *Storage) UpdateOrder(_ context.Context, order *storage.ServiceOrder) error {
	const op = "storage.memory.UpdateOrder"
	defer s.lock()()

	current, ok := s.st.orders[order.ID]
	if !ok {
		return fmt.Errorf("%s: order %d: %w", op, order.ID, storage.ErrNotFound)
	}
	if current.Version != order.Version {
		return fmt.Errorf("%s: order %d: %w", op, order.ID, storage.ErrStaleVersion)
	}
	order.Version++
	s.st.orders[order.ID] = order.Clone()
	return nil
}

func (s *Storage) ListOrders(_ context.Context, filter storage.OrderFilter) ([]storage.ServiceOrder, error) {
	defer s.lock()()

	var orders []storage.ServiceOrder
	for _, o := range s.st.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.CarID != 0 && o.CarID != filter.CarID {
			continue
		}
		orders = append(orders, o.Clone())
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (s *Storage) CreateTask(_ context.Context, task *storage.Task) error {
	defer s.lock()()

	s.st.taskSeq++
	task.ID = s.st.taskSeq
	task.Version = 1
	s.st.tasks[task.ID] = copyTask(*task)
	return nil
}

// copyTask отвязывает срез позиций от вызывающего.
func copyTask(t storage.Task) storage.Task {
	t.ItemPositions = append(storage.ItemPositions(nil), t.ItemPositions...)
	return t
}

func (s *Storage) GetTask(_ context.Context, id int64) (*storage.Task, error) {
	const op = "storage.memory.GetTask"
	defer s.lock()()

	t, ok := s.st.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%s: task %d: %w", op, id, storage.ErrNotFound)
	}
	return &t, nil
}

func (s *Storage) UpdateTask(_ context.Context, task *storage.Task) error {
	const op = "storage.memory.UpdateTask"
	defer s.lock()()

	current, ok := s.st.tasks[task.ID]
	if !ok {
		return fmt.Errorf("%s: task %d: %w", op, task.ID, storage.ErrNotFound)
	}
	if current.Version != task.Version {
		return fmt.Errorf("%s: task %d: %w", op, task.ID, storage.ErrStaleVersion)
	}
	task.Version++
	s.st.tasks[task.ID] = copyTask(*task)
	return nil
}

func (s *Storage) ListTasks(_ context.Context, filter storage.TaskFilter) ([]storage.Task, error) {
	defer s.lock()()

	var tasks []storage.Task
	for _, t := range s.st.tasks {
		if filter.Match(t) {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (s *Storage) CreditEarning(_ context.Context, earning *storage.Earning) (bool, error) {
	const op = "storage.memory.CreditEarning"
	defer s.lock()()

	for _, e := range s.st.earnings {
		if e.TaskID == earning.TaskID && e.EventID == earning.EventID {
			return false, nil
		}
	}

	u, ok := s.st.users[earning.ApprenticeID]
	if !ok {
		return false, fmt.Errorf("%s: user %d: %w", op, earning.ApprenticeID, storage.ErrNotFound)
	}
	u.Earnings += earning.Amount
	s.st.users[u.ID] = u

	s.st.earningSeq++
	earning.ID = s.st.earningSeq
	s.st.earnings = append(s.st.earnings, *earning)
	return true, nil
}

func (s *Storage) ListEarnings(_ context.Context, apprenticeID int64, from, to time.Time) ([]storage.Earning, error) {
	defer s.lock()()

	var res []storage.Earning
	for _, e := range s.st.earnings {
		if e.ApprenticeID != apprenticeID {
			continue
		}
		if !from.IsZero() && e.CompletedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !e.CompletedAt.Before(to) {
			continue
		}
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CompletedAt.After(res[j].CompletedAt) })
	return res, nil
}
