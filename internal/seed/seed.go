// Package seed loads firm-maintained content (team profiles and practice
// areas) from a YAML file into the datastore.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mbsadvocates/site/internal/domain"
)

// File is the seed document.
type File struct {
	Team     []domain.TeamMember `yaml:"team"`
	Services []domain.Service    `yaml:"services"`
}

// Summary counts what Apply wrote.
type Summary struct {
	Team     int
	Services int
}

// Parse decodes a seed document. Unknown keys are rejected so typos do not
// silently drop content.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	var errs []error
	for i, m := range f.Team {
		if strings.TrimSpace(m.Name) == "" {
			errs = append(errs, fmt.Errorf("team[%d]: name is required", i))
		}
		if strings.TrimSpace(m.Title) == "" {
			errs = append(errs, fmt.Errorf("team[%d]: title is required", i))
		}
	}
	for i, s := range f.Services {
		if strings.TrimSpace(s.Title) == "" {
			errs = append(errs, fmt.Errorf("services[%d]: title is required", i))
		}
	}
	return errors.Join(errs...)
}

// Apply writes the document in one transaction. Entries carrying an id
// replace the existing row; the rest are inserted with a fresh id.
func Apply(ctx context.Context, db *gorm.DB, f *File) (Summary, error) {
	if db == nil {
		return Summary{}, errors.New("datastore not configured")
	}

	upsert := clause.OnConflict{UpdateAll: true}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(f.Team) > 0 {
			if err := tx.Clauses(upsert).Create(&f.Team).Error; err != nil {
				return fmt.Errorf("seed team members: %w", err)
			}
		}
		if len(f.Services) > 0 {
			if err := tx.Clauses(upsert).Create(&f.Services).Error; err != nil {
				return fmt.Errorf("seed services: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	return Summary{Team: len(f.Team), Services: len(f.Services)}, nil
}
