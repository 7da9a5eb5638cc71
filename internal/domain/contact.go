package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Table names in the hosted datastore.
const (
	TableContactSubmissions = "contact_submissions"
	TableTestimonials       = "testimonials"
	TableTeamMembers        = "team_members"
	TableServices           = "services"
)

// ContactSubmission represents a contact form submission. Rows are never
// updated by the site.
type ContactSubmission struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null" json:"email"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for ContactSubmission
func (ContactSubmission) TableName() string {
	return TableContactSubmissions
}

// BeforeCreate hook
func (c *ContactSubmission) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
