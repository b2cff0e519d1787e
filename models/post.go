package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is a feed item authored by an admin. Likes are a plain counter
// incremented without auth.
type Post struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AuthorID uuid.UUID `gorm:"type:uuid;index;not null" json:"authorId"`

	Caption  string `gorm:"type:text;not null" json:"caption"`
	ImageURL string `gorm:"not null" json:"imageUrl"`
	Likes    int    `gorm:"default:0" json:"likes"`

	gorm.Model
}

func (p *Post) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
