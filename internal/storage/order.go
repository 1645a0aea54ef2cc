package storage

import (
	"encoding/json"
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderPending          OrderStatus = "pending"
	OrderInProgress       OrderStatus = "in-progress"
	OrderCompleted        OrderStatus = "completed"
	OrderReadyForDelivery OrderStatus = "ready-for-delivery"
	OrderApproved         OrderStatus = "approved"
	OrderRejected         OrderStatus = "rejected"
)

// Line - общие поля позиции заказа.
type Line struct {
	Name     string
	Price    int64
	Quantity int
	// PartID ссылается на позицию каталога, nil для произвольных позиций.
	PartID *int64
}

func (l Line) Total() int64 {
	return l.Price * int64(l.Quantity)
}

// LineItem is one of PartItem, MaterialItem or LaborItem.
type LineItem interface {
	Category() Category
	Details() Line
	lineItem()
}

type PartItem struct{ Line }

type MaterialItem struct{ Line }

type LaborItem struct{ Line }

func (PartItem) Category() Category     { return CategoryPart }
func (MaterialItem) Category() Category { return CategoryMaterial }
func (LaborItem) Category() Category    { return CategoryLabor }

func (i PartItem) Details() Line     { return i.Line }
func (i MaterialItem) Details() Line { return i.Line }
func (i LaborItem) Details() Line    { return i.Line }

func (PartItem) lineItem()     {}
func (MaterialItem) lineItem() {}
func (LaborItem) lineItem()    {}

func NewLineItem(category Category, line Line) (LineItem, error) {
	switch category {
	case CategoryPart:
		return PartItem{line}, nil
	case CategoryMaterial:
		return MaterialItem{line}, nil
	case CategoryLabor:
		return LaborItem{line}, nil
	}
	return nil, fmt.Errorf("unknown category %q", category)
}

// ItemRecord is the flat form of a LineItem used for rows and JSON.
type ItemRecord struct {
	Position  int      `json:"position" db:"position"`
	Name      string   `json:"name" db:"name"`
	Price     int64    `json:"price" db:"price"`
	Quantity  int      `json:"quantity" db:"quantity"`
	Category  Category `json:"category" db:"category"`
	PartID    *int64   `json:"part_id,omitempty" db:"part_id"`
	LineTotal int64    `json:"line_total" db:"-"`
}

func RecordOf(position int, item LineItem) ItemRecord {
	l := item.Details()
	return ItemRecord{
		Position:  position,
		Name:      l.Name,
		Price:     l.Price,
		Quantity:  l.Quantity,
		Category:  item.Category(),
		PartID:    l.PartID,
		LineTotal: l.Total(),
	}
}

func (r ItemRecord) Item() (LineItem, error) {
	return NewLineItem(r.Category, Line{Name: r.Name, Price: r.Price, Quantity: r.Quantity, PartID: r.PartID})
}

type ServiceOrder struct {
	ID              int64       `json:"id"`
	CarID           int64       `json:"car_id"`
	Status          OrderStatus `json:"status"`
	Items           []LineItem  `json:"-"`
	TotalPrice      int64       `json:"total_price"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	ApprovalEventID string      `json:"approval_event_id,omitempty"`
	CreatedBy       int64       `json:"created_by"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Version         int         `json:"version"`
}

// Recalculate пересчитывает итог по позициям.
func (o *ServiceOrder) Recalculate() {
	var total int64
	for _, item := range o.Items {
		total += item.Details().Total()
	}
	o.TotalPrice = total
}

func (o ServiceOrder) Records() []ItemRecord {
	records := make([]ItemRecord, 0, len(o.Items))
	for i, item := range o.Items {
		records = append(records, RecordOf(i, item))
	}
	return records
}

func (o ServiceOrder) Clone() ServiceOrder {
	c := o
	c.Items = append([]LineItem(nil), o.Items...)
	return c
}

func (o ServiceOrder) MarshalJSON() ([]byte, error) {
	type plain ServiceOrder
	return json.Marshal(struct {
		plain
		Items []ItemRecord `json:"items"`
	}{plain: plain(o), Items: o.Records()})
}

type OrderFilter struct {
	Status OrderStatus
	CarID  int64
}
