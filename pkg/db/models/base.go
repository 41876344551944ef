package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignID gives rows a UUID before insert so sqlite and postgres agree on ids.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (c *Client) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

func (q *Quote) BeforeCreate(*gorm.DB) error {
	assignID(&q.ID)
	return nil
}

func (i *QuoteItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

func (o *SupplierOrder) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

func (i *SupplierOrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

func (s *CustomizationService) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

func (r *CustomizationRange) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}

func (i *Income) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

func (e *VariableExpense) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}

func (e *FixedExpense) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}

func (d *OutboxDLQ) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	return nil
}

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		&Client{},
		&Product{},
		&Supplier{},
		&CustomizationService{},
		&CustomizationRange{},
		&Project{},
		&Quote{},
		&QuoteItem{},
		&SupplierOrder{},
		&SupplierOrderItem{},
		&Income{},
		&VariableExpense{},
		&FixedExpense{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
