package storage

import "strings"

type Category string

const (
	CategoryPart     Category = "part"
	CategoryMaterial Category = "material"
	CategoryLabor    Category = "labor"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPart, CategoryMaterial, CategoryLabor:
		return true
	}
	return false
}

// Consumable reports whether items of this category draw down catalog stock.
func (c Category) Consumable() bool {
	return c == CategoryPart || c == CategoryMaterial
}

type SparePart struct {
	ID         int64    `json:"id" db:"id"`
	Name       string   `json:"name" db:"name"`
	Price      int64    `json:"price" db:"price"`
	Category   Category `json:"category" db:"category"`
	Stock      int      `json:"stock" db:"stock"`
	UsageCount int      `json:"usage_count" db:"usage_count"`
}

// NameKey нормализует имя для сравнения без учета регистра.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
