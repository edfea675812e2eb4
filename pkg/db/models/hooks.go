package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Primary keys are generated app-side so inserts behave the same on postgres
// and the sqlite feature-flag path, where gen_random_uuid() does not exist.

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (b *Booking) BeforeCreate(*gorm.DB) error        { ensureID(&b.ID); return nil }
func (c *CartLine) BeforeCreate(*gorm.DB) error       { ensureID(&c.ID); return nil }
func (g *GalleryImage) BeforeCreate(*gorm.DB) error   { ensureID(&g.ID); return nil }
func (v *ProductVariant) BeforeCreate(*gorm.DB) error { ensureID(&v.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error        { ensureID(&p.ID); return nil }
func (s *Seller) BeforeCreate(*gorm.DB) error         { ensureID(&s.ID); return nil }
func (u *User) BeforeCreate(*gorm.DB) error           { ensureID(&u.ID); return nil }
func (a *Address) BeforeCreate(*gorm.DB) error        { ensureID(&a.ID); return nil }
func (w *WishlistItem) BeforeCreate(*gorm.DB) error   { ensureID(&w.ID); return nil }
func (e *ViewEvent) BeforeCreate(*gorm.DB) error      { ensureID(&e.ID); return nil }
