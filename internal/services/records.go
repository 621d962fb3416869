package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

var (
	// ErrRecordsDisabled is returned when no database is configured
	ErrRecordsDisabled = errors.New("render records are disabled (no database configured)")
	// ErrRecordNotFound is returned for unknown IDs
	ErrRecordNotFound = errors.New("record not found")
)

// RecordsService persists render and composition records
type RecordsService struct {
	db *gorm.DB
}

func NewRecordsService(db *gorm.DB) *RecordsService {
	return &RecordsService{db: db}
}

// Enabled reports whether records are kept
func (s *RecordsService) Enabled() bool {
	return s != nil && s.db != nil
}

// SaveRender stores a render record
func (s *RecordsService) SaveRender(ctx context.Context, render *models.Render) error {
	if !s.Enabled() {
		return ErrRecordsDisabled
	}
	return s.db.WithContext(ctx).Create(render).Error
}

// GetRender retrieves a render record by ID
func (s *RecordsService) GetRender(ctx context.Context, id string) (*models.Render, error) {
	if !s.Enabled() {
		return nil, ErrRecordsDisabled
	}
	var render models.Render
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&render).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &render, nil
}

// SaveComposition logs a composer request
func (s *RecordsService) SaveComposition(ctx context.Context, composition *models.Composition) error {
	if !s.Enabled() {
		return ErrRecordsDisabled
	}
	return s.db.WithContext(ctx).Create(composition).Error
}
