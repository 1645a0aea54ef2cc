package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"autoservice/internal/storage"
)

// Lookup returns catalog parts whose name starts with or contains prefix.
// Prefix matches come first, then the most used parts. A prefix shorter than
// the configured minimum yields an empty result.
func (s *Service) Lookup(ctx context.Context, prefix string) ([]storage.SparePart, error) {
	const op = "service.inventory.Lookup"

	prefix = strings.TrimSpace(prefix)
	if utf8.RuneCountInString(prefix) < s.lookupMinLength {
		return []storage.SparePart{}, nil
	}

	parts, err := s.storage.SearchParts(ctx, prefix, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rankParts(parts, prefix)
	if len(parts) > s.lookupLimit {
		parts = parts[:s.lookupLimit]
	}
	if parts == nil {
		parts = []storage.SparePart{}
	}
	return parts, nil
}

func rankParts(parts []storage.SparePart, prefix string) {
	key := storage.NameKey(prefix)
	sort.SliceStable(parts, func(i, j int) bool {
		pi := strings.HasPrefix(storage.NameKey(parts[i].Name), key)
		pj := strings.HasPrefix(storage.NameKey(parts[j].Name), key)
		if pi != pj {
			return pi
		}
		if parts[i].UsageCount != parts[j].UsageCount {
			return parts[i].UsageCount > parts[j].UsageCount
		}
		return parts[i].Name < parts[j].Name
	})
}

// ReserveConsumption списывает qty со склада и увеличивает счетчик использования.
func (s *Service) ReserveConsumption(ctx context.Context, partID int64, qty int) error {
	const op = "service.inventory.ReserveConsumption"

	err := s.storage.WithTx(ctx, func(ctx context.Context, repo storage.Repository) error {
		return reserve(ctx, repo, partID, qty)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func reserve(ctx context.Context, repo storage.Repository, partID int64, qty int) error {
	if qty < 0 {
		return fmt.Errorf("%w: negative quantity %d", ErrInvalidInput, qty)
	}
	return repo.ConsumeStock(ctx, partID, qty)
}

// CreateOnDemand adds a catalog entry with zero stock for a name that is not
// in the catalog yet.
func (s *Service) CreateOnDemand(ctx context.Context, name string, price int64, category storage.Category) (*storage.SparePart, error) {
	const op = "service.inventory.CreateOnDemand"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%s: %w: empty name", op, ErrInvalidInput)
	}
	if price < 0 {
		return nil, fmt.Errorf("%s: %w: negative price", op, ErrInvalidInput)
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%s: %w: category %q", op, ErrInvalidInput, category)
	}

	part := &storage.SparePart{Name: name, Price: price, Category: category}
	err := s.storage.WithTx(ctx, func(ctx context.Context, repo storage.Repository) error {
		_, err := repo.GetPartByName(ctx, name)
		switch {
		case err == nil:
			return fmt.Errorf("%q: %w", name, ErrDuplicateName)
		case !isNotFound(err):
			return err
		}
		return repo.CreatePart(ctx, part)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("part created on demand", "op", op, "part_id", part.ID, "name", part.Name)
	return part, nil
}

func (s *Service) Restock(ctx context.Context, partID int64, qty int) (*storage.SparePart, error) {
	const op = "service.inventory.Restock"

	if qty <= 0 {
		return nil, fmt.Errorf("%s: %w: restock quantity must be positive", op, ErrInvalidInput)
	}

	var part *storage.SparePart
	err := s.storage.WithTx(ctx, func(ctx context.Context, repo storage.Repository) error {
		if err := repo.AddStock(ctx, partID, qty); err != nil {
			return err
		}
		var err error
		part, err = repo.GetPart(ctx, partID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return part, nil
}

func (s *Service) GetPart(ctx context.Context, partID int64) (*storage.SparePart, error) {
	const op = "service.inventory.GetPart"

	part, err := s.storage.GetPart(ctx, partID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return part, nil
}
