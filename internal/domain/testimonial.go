package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Testimonial is client feedback shown on the landing page once approved.
// Rating, when set, is an integer in [1,5].
type Testimonial struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	ClientName string    `gorm:"column:client_name;not null" json:"client_name"`
	Comment    string    `gorm:"type:text;not null" json:"comment"`
	Rating     *int      `json:"rating,omitempty"`
	Approved   bool      `gorm:"not null" json:"approved"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for Testimonial
func (Testimonial) TableName() string {
	return TableTestimonials
}

// BeforeCreate hook
func (t *Testimonial) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Stars returns the number of filled stars to render.
func (t Testimonial) Stars() int {
	if t.Rating == nil {
		return 0
	}
	return *t.Rating
}
