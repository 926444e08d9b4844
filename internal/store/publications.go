package store

import (
	"context"
	"time"

	"gorm.io/gorm/clause"
)

// CreatePublication records an ebook as published on a platform.
func (s *Store) CreatePublication(ctx context.Context, p *Publication) error {
	if p.PublishedAt.IsZero() {
		p.PublishedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(p).Error
}

// GetPublication returns a publication by ID.
func (s *Store) GetPublication(ctx context.Context, id uint) (*Publication, error) {
	var p Publication
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, wrapGet(err)
	}
	return &p, nil
}

// ListPublicationsByEbook returns all publications for an ebook.
func (s *Store) ListPublicationsByEbook(ctx context.Context, ebookID uint) ([]Publication, error) {
	var out []Publication
	err := s.db.WithContext(ctx).
		Where("ebook_id = ?", ebookID).
		Order("id").
		Find(&out).Error
	return out, err
}

// UpdatePublication applies the given column updates to a publication.
func (s *Store) UpdatePublication(ctx context.Context, id uint, updates map[string]any) error {
	res := s.db.WithContext(ctx).Model(&Publication{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePublication removes a publication row.
func (s *Store) DeletePublication(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&Publication{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetFinancialByEbook returns the financial rollup for an ebook.
func (s *Store) GetFinancialByEbook(ctx context.Context, ebookID uint) (*FinancialMetric, error) {
	var m FinancialMetric
	if err := s.db.WithContext(ctx).Where("ebook_id = ?", ebookID).First(&m).Error; err != nil {
		return nil, wrapGet(err)
	}
	return &m, nil
}

// UpsertFinancial creates or replaces the financial rollup for an ebook.
// At most one row exists per ebook.
func (s *Store) UpsertFinancial(ctx context.Context, m *FinancialMetric) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ebook_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"traffic_cost", "other_costs", "revenue", "notes", "updated_at",
		}),
	}).Create(m).Error
}
