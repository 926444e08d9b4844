package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is the generation state of an Ebook or EbookFile.
// Transitions: processing -> completed | failed, exactly once.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Frequency is the recurrence cadence of a Schedule.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ThemeMode is the policy by which a Schedule selects a theme per run.
type ThemeMode string

const (
	ThemeModeSingle   ThemeMode = "single_theme"
	ThemeModeCustom   ThemeMode = "custom_list"
	ThemeModeTrending ThemeMode = "trending"
)

// Ebook is one generation request: the language-independent header row.
// Title/EpubURL/PdfURL/CoverURL hold the primary language's artifacts once
// generation completes.
type Ebook struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	Title        string    `gorm:"size:255" json:"title"`
	Theme        string    `gorm:"not null" json:"theme"`
	Author       string    `gorm:"size:255" json:"author"`
	Languages    string    `gorm:"size:255" json:"languages"` // comma-joined codes, first is primary
	NumChapters  int       `json:"num_chapters"`
	Status       Status    `gorm:"size:16;default:processing" json:"status"`
	EpubURL      string    `json:"epub_url,omitempty"`
	PdfURL       string    `json:"pdf_url,omitempty"`
	CoverURL     string    `json:"cover_url,omitempty"`
	Content      string    `json:"-"` // serialized chapters of the primary language
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LanguageCodes returns the requested language codes in order.
func (e *Ebook) LanguageCodes() []string {
	return splitCodes(e.Languages)
}

// EbookFile is the generated artifact set for one (ebook, language) pair.
// Its status is independent of the parent Ebook's status: one language
// failing does not fail its siblings.
type EbookFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EbookID      uint      `gorm:"index:idx_ebook_lang,unique;not null" json:"ebook_id"`
	LanguageCode string    `gorm:"index:idx_ebook_lang,unique;size:8;not null" json:"language_code"`
	Title        string    `gorm:"size:255" json:"title"`
	EpubURL      string    `json:"epub_url,omitempty"`
	PdfURL       string    `json:"pdf_url,omitempty"`
	CoverURL     string    `json:"cover_url,omitempty"`
	Status       Status    `gorm:"size:16;default:processing" json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EbookMetadata is SEO/monetization metadata derived from generated content,
// one row per ebook. List-valued fields are stored as JSON text.
type EbookMetadata struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	EbookID                 uint      `gorm:"uniqueIndex;not null" json:"ebook_id"`
	OptimizedTitle          string    `gorm:"size:255" json:"optimized_title"`
	ShortDescription        string    `json:"short_description"`
	LongDescription         string    `json:"long_description"`
	Keywords                string    `json:"-"`
	Categories              string    `json:"-"`
	SuggestedPrice          string    `gorm:"size:50" json:"suggested_price"`
	TargetAudience          string    `json:"target_audience"`
	PlatformRecommendations string    `json:"-"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// KeywordList deserializes the keywords column.
func (m *EbookMetadata) KeywordList() []string { return decodeStrings(m.Keywords) }

// SetKeywords serializes keywords into the keywords column.
func (m *EbookMetadata) SetKeywords(v []string) { m.Keywords = encodeJSON(v) }

// CategoryList deserializes the categories column.
func (m *EbookMetadata) CategoryList() []string { return decodeStrings(m.Categories) }

// SetCategories serializes categories into the categories column.
func (m *EbookMetadata) SetCategories(v []string) { m.Categories = encodeJSON(v) }

// SetPlatformRecommendations serializes the recommendation list into its
// column. The value is any JSON-encodable slice.
func (m *EbookMetadata) SetPlatformRecommendations(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.PlatformRecommendations = string(b)
	return nil
}

// PlatformRecommendationsRaw returns the stored recommendation JSON.
func (m *EbookMetadata) PlatformRecommendationsRaw() json.RawMessage {
	if m.PlatformRecommendations == "" {
		return json.RawMessage("[]")
	}
	return json.RawMessage(m.PlatformRecommendations)
}

// Schedule is a recurring generation job definition.
// Progress fields (GeneratedCount, LastRunAt, NextRunAt, Active) are mutated
// only by the scheduler worker.
type Schedule struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"index;not null" json:"user_id"`
	Name           string     `gorm:"size:255;not null" json:"name"`
	Frequency      Frequency  `gorm:"size:16;not null" json:"frequency"`
	TotalEbooks    int        `gorm:"not null" json:"total_ebooks"`
	GeneratedCount int        `gorm:"default:0" json:"generated_count"`
	ThemeMode      ThemeMode  `gorm:"size:16;not null" json:"theme_mode"`
	Themes         string     `json:"-"` // JSON array, custom_list mode
	SingleTheme    string     `json:"single_theme,omitempty"`
	Author         string     `gorm:"size:255;not null" json:"author"`
	Languages      string     `gorm:"size:255" json:"languages"`
	ScheduledTime  string     `gorm:"size:5" json:"scheduled_time,omitempty"` // "HH:MM"
	Active         bool       `gorm:"default:true" json:"active"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
	NextRunAt      time.Time  `gorm:"index" json:"next_run_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ThemeList deserializes the themes column.
func (s *Schedule) ThemeList() []string { return decodeStrings(s.Themes) }

// SetThemes serializes themes into the themes column.
func (s *Schedule) SetThemes(v []string) { s.Themes = encodeJSON(v) }

// LanguageCodes returns the schedule's language codes in order.
func (s *Schedule) LanguageCodes() []string { return splitCodes(s.Languages) }

// Publication records that an ebook has been published on a platform,
// with per-publication financials. Zero or more per (ebook, platform).
type Publication struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	EbookID        uint      `gorm:"index;not null" json:"ebook_id"`
	Platform       string    `gorm:"size:32;not null" json:"platform"`
	Published      bool      `gorm:"default:true" json:"published"`
	PublicationURL string    `json:"publication_url,omitempty"`
	PublishedAt    time.Time `json:"published_at"`
	Notes          string    `json:"notes,omitempty"`
	TrafficCost    string    `gorm:"size:20;default:0" json:"traffic_cost"`
	OtherCosts     string    `gorm:"size:20;default:0" json:"other_costs"`
	Revenue        string    `gorm:"size:20;default:0" json:"revenue"`
	SalesCount     int       `gorm:"default:0" json:"sales_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FinancialMetric is the ebook-level financial rollup, at most one per ebook.
// Decimal amounts are stored as strings to avoid float drift.
type FinancialMetric struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EbookID     uint      `gorm:"uniqueIndex;not null" json:"ebook_id"`
	TrafficCost string    `gorm:"size:20;default:0" json:"traffic_cost"`
	OtherCosts  string    `gorm:"size:20;default:0" json:"other_costs"`
	Revenue     string    `gorm:"size:20;default:0" json:"revenue"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func encodeJSON(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func decodeStrings(s string) []string {
	if s == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return []string{}
	}
	return out
}

func splitCodes(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinCodes serializes language codes into the comma-joined column format.
func JoinCodes(codes []string) string {
	return strings.Join(codes, ",")
}
