package store

import (
	"context"

	"gorm.io/gorm"
)

// CreateEbook inserts a new ebook row and returns it with its assigned ID.
func (s *Store) CreateEbook(ctx context.Context, e *Ebook) error {
	if e.Status == "" {
		e.Status = StatusProcessing
	}
	return s.db.WithContext(ctx).Create(e).Error
}

// GetEbook returns an ebook by ID.
func (s *Store) GetEbook(ctx context.Context, id uint) (*Ebook, error) {
	var e Ebook
	if err := s.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, wrapGet(err)
	}
	return &e, nil
}

// ListEbooksByUser returns all ebooks owned by a user, newest first.
func (s *Store) ListEbooksByUser(ctx context.Context, userID uint) ([]Ebook, error) {
	var out []Ebook
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// EbookExists reports whether the ebook row still exists. The generation
// chain checks this before terminal writes so work outliving a deleted row
// stops instead of resurrecting it.
func (s *Store) EbookExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Ebook{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// CompleteEbook transitions an ebook to completed with its primary-language
// artifacts. Only a processing row transitions; the terminal states are
// write-once.
func (s *Store) CompleteEbook(ctx context.Context, id uint, title, epubURL, pdfURL, coverURL, content string) error {
	return s.db.WithContext(ctx).Model(&Ebook{}).
		Where("id = ? AND status = ?", id, StatusProcessing).
		Updates(map[string]any{
			"status":    StatusCompleted,
			"title":     title,
			"epub_url":  epubURL,
			"pdf_url":   pdfURL,
			"cover_url": coverURL,
			"content":   content,
		}).Error
}

// FailEbook transitions an ebook to failed with a human-readable message.
func (s *Store) FailEbook(ctx context.Context, id uint, message string) error {
	return s.db.WithContext(ctx).Model(&Ebook{}).
		Where("id = ? AND status = ?", id, StatusProcessing).
		Updates(map[string]any{
			"status":        StatusFailed,
			"error_message": message,
		}).Error
}

// DeleteEbook removes an ebook and its dependent rows.
func (s *Store) DeleteEbook(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ebook_id = ?", id).Delete(&EbookFile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ebook_id = ?", id).Delete(&EbookMetadata{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ebook_id = ?", id).Delete(&Publication{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ebook_id = ?", id).Delete(&FinancialMetric{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Ebook{}, id).Error
	})
}

// CreateEbookFile inserts a per-language artifact row.
func (s *Store) CreateEbookFile(ctx context.Context, f *EbookFile) error {
	return s.db.WithContext(ctx).Create(f).Error
}

// ListEbookFiles returns all per-language files for an ebook.
func (s *Store) ListEbookFiles(ctx context.Context, ebookID uint) ([]EbookFile, error) {
	var out []EbookFile
	err := s.db.WithContext(ctx).
		Where("ebook_id = ?", ebookID).
		Order("id").
		Find(&out).Error
	return out, err
}

// CreateMetadata inserts the SEO metadata row for an ebook.
func (s *Store) CreateMetadata(ctx context.Context, m *EbookMetadata) error {
	return s.db.WithContext(ctx).Create(m).Error
}

// GetMetadataByEbook returns the metadata row for an ebook.
func (s *Store) GetMetadataByEbook(ctx context.Context, ebookID uint) (*EbookMetadata, error) {
	var m EbookMetadata
	if err := s.db.WithContext(ctx).Where("ebook_id = ?", ebookID).First(&m).Error; err != nil {
		return nil, wrapGet(err)
	}
	return &m, nil
}
