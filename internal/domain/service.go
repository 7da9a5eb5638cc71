package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is a legal service offered by the firm. Read-only for the site.
type Service struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id" yaml:"id,omitempty"`
	Title       string    `gorm:"not null" json:"title" yaml:"title"`
	Description string    `gorm:"type:text" json:"description" yaml:"description"`
	Content     string    `gorm:"type:text" json:"content" yaml:"content"`
	Order       int       `gorm:"column:order" json:"order" yaml:"order"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at" yaml:"-"`
}

// TableName specifies the table name for Service
func (Service) TableName() string {
	return TableServices
}

// BeforeCreate hook
func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
