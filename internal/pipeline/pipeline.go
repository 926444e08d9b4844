// Package pipeline orchestrates the full ebook generation chain: content
// generation in the base language, per-language translation and compilation,
// artifact upload, cover art, metadata, and the final ebook state transition.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/folio/internal/book"
	"github.com/jackzampolin/folio/internal/compiler"
	"github.com/jackzampolin/folio/internal/generator"
	"github.com/jackzampolin/folio/internal/providers"
	"github.com/jackzampolin/folio/internal/storage"
	"github.com/jackzampolin/folio/internal/store"
	"github.com/jackzampolin/folio/internal/translator"
)

// DefaultTimeout bounds one complete generation run.
const DefaultTimeout = 30 * time.Minute

// Config wires the pipeline's dependencies.
type Config struct {
	Store   *store.Store
	Storage storage.Store
	LLM     providers.LLMClient
	Images  providers.ImageClient // optional; covers are skipped when nil
	Logger  *slog.Logger
	Timeout time.Duration
}

// Pipeline runs ebook generation jobs.
type Pipeline struct {
	store      *store.Store
	storage    storage.Store
	gen        *generator.Generator
	translator *translator.Translator
	images     providers.ImageClient
	logger     *slog.Logger
	timeout    time.Duration
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Pipeline{
		store:      cfg.Store,
		storage:    cfg.Storage,
		gen:        generator.New(cfg.LLM, logger),
		translator: translator.New(cfg.LLM),
		images:     cfg.Images,
		logger:     logger,
		timeout:    timeout,
	}
}

// Start launches a generation run in the background and returns immediately.
// The run is detached from the caller's request context; the ebook row is the
// durable job record.
func (p *Pipeline) Start(ebookID uint) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.Run(ctx, ebookID)
	}()
}

// Run executes one complete generation job. It always drives the ebook to a
// terminal state unless the row was deleted mid-run.
func (p *Pipeline) Run(ctx context.Context, ebookID uint) {
	log := p.logger.With("ebook_id", ebookID)
	start := time.Now()

	e, err := p.store.GetEbook(ctx, ebookID)
	if err != nil {
		log.Error("failed to load ebook for generation", "error", err)
		return
	}

	languages := e.LanguageCodes()
	if err := translator.ValidateCodes(languages); err != nil {
		p.fail(ctx, ebookID, err.Error(), log)
		return
	}

	log.Info("starting generation",
		"theme", e.Theme,
		"languages", e.Languages,
		"chapters", e.NumChapters)

	// One content generation in the base (first) language; every other
	// language is a translation of it.
	base, err := p.gen.GenerateBook(ctx, e.Theme, e.Author, languages[0], e.NumChapters)
	if err != nil {
		p.fail(ctx, ebookID, fmt.Sprintf("content generation failed: %v", err), log)
		return
	}

	results := p.compileLanguages(ctx, e, base, languages, log)

	var primary *languageResult
	succeeded := 0
	for i := range results {
		if results[i].err == nil {
			succeeded++
			if primary == nil {
				primary = &results[i]
			}
		}
	}

	p.recordFiles(ctx, ebookID, results, log)

	if primary == nil {
		p.fail(ctx, ebookID, "all languages failed", log)
		return
	}

	p.storeMetadata(ctx, ebookID, base, log)

	content, err := primary.book.Encode()
	if err != nil {
		log.Error("failed to encode book content", "error", err)
	}

	if !p.ebookStillExists(ctx, ebookID, log) {
		return
	}
	if err := p.store.CompleteEbook(ctx, ebookID, primary.book.Title,
		primary.epubURL, primary.htmlURL, primary.coverURL, content); err != nil {
		log.Error("failed to complete ebook", "error", err)
		return
	}

	log.Info("generation complete",
		"title", primary.book.Title,
		"languages_succeeded", succeeded,
		"languages_failed", len(results)-succeeded,
		"duration", time.Since(start))
}

// languageResult is the outcome of one language's translate-compile-upload
// chain.
type languageResult struct {
	language string
	book     *book.Book
	epubURL  string
	htmlURL  string
	coverURL string
	err      error
}

// compileLanguages produces artifacts for every requested language, including
// a cover rendered from that language's translated title. A failed language is
// logged and skipped; it never aborts its siblings.
func (p *Pipeline) compileLanguages(ctx context.Context, e *store.Ebook, base *book.Book, languages []string, log *slog.Logger) []languageResult {
	results := make([]languageResult, 0, len(languages))

	for _, lang := range languages {
		res := languageResult{language: lang}

		b, err := p.translator.Translate(ctx, base, lang)
		if err != nil {
			res.err = fmt.Errorf("translation failed: %w", err)
			log.Warn("language failed", "language", lang, "error", res.err)
			results = append(results, res)
			continue
		}
		res.book = b

		epubData, err := compiler.CompileEPUB(b)
		if err != nil {
			res.err = fmt.Errorf("epub compilation failed: %w", err)
			log.Warn("language failed", "language", lang, "error", res.err)
			results = append(results, res)
			continue
		}
		htmlData := compiler.CompileHTML(b)

		prefix := artifactPrefix(e.UserID, e.ID, lang)
		epubURL, err := p.storage.Put(ctx, prefix+"/book.epub", epubData, "application/epub+zip")
		if err != nil {
			res.err = fmt.Errorf("epub upload failed: %w", err)
			log.Warn("language failed", "language", lang, "error", res.err)
			results = append(results, res)
			continue
		}
		htmlURL, err := p.storage.Put(ctx, prefix+"/book.html", []byte(htmlData), "text/html; charset=utf-8")
		if err != nil {
			res.err = fmt.Errorf("html upload failed: %w", err)
			log.Warn("language failed", "language", lang, "error", res.err)
			results = append(results, res)
			continue
		}

		coverURL, err := p.generateCover(ctx, b, prefix)
		if err != nil {
			res.err = fmt.Errorf("cover generation failed: %w", err)
			log.Warn("language failed", "language", lang, "error", res.err)
			results = append(results, res)
			continue
		}

		res.epubURL = epubURL
		res.htmlURL = htmlURL
		res.coverURL = coverURL
		results = append(results, res)
		log.Info("language complete", "language", lang, "title", b.Title)
	}

	return results
}

// generateCover renders and uploads the cover image for one language, using
// that language's translated title in the prompt. The empty URL with no error
// means covers are disabled (no image client configured).
func (p *Pipeline) generateCover(ctx context.Context, b *book.Book, prefix string) (string, error) {
	if p.images == nil {
		return "", nil
	}

	res, err := p.images.GenerateImage(ctx, &providers.ImageRequest{
		Prompt: generator.CoverPrompt(b.Title, b.Theme),
	})
	if err != nil {
		return "", err
	}

	url, err := p.storage.Put(ctx, prefix+"/cover.png", res.Data, res.ContentType)
	if err != nil {
		return "", fmt.Errorf("cover upload failed: %w", err)
	}
	return url, nil
}

// recordFiles persists one EbookFile row per requested language, completed or
// failed.
func (p *Pipeline) recordFiles(ctx context.Context, ebookID uint, results []languageResult, log *slog.Logger) {
	for _, res := range results {
		f := &store.EbookFile{
			EbookID:      ebookID,
			LanguageCode: res.language,
		}
		if res.err != nil {
			f.Status = store.StatusFailed
			f.ErrorMessage = res.err.Error()
		} else {
			f.Status = store.StatusCompleted
			f.Title = res.book.Title
			f.EpubURL = res.epubURL
			f.PdfURL = res.htmlURL
			f.CoverURL = res.coverURL
		}
		if err := p.store.CreateEbookFile(ctx, f); err != nil {
			log.Error("failed to record language file", "language", res.language, "error", err)
		}
	}
}

// storeMetadata derives and persists publishing metadata. Failures are logged
// and skipped; metadata is an enhancement, not a gate.
func (p *Pipeline) storeMetadata(ctx context.Context, ebookID uint, base *book.Book, log *slog.Logger) {
	meta, err := p.gen.GenerateMetadata(ctx, base)
	if err != nil {
		log.Warn("metadata generation failed", "error", err)
		return
	}

	m := &store.EbookMetadata{
		EbookID:          ebookID,
		OptimizedTitle:   meta.OptimizedTitle,
		ShortDescription: meta.ShortDescription,
		LongDescription:  meta.LongDescription,
		SuggestedPrice:   meta.SuggestedPrice,
		TargetAudience:   meta.TargetAudience,
	}
	m.SetKeywords(meta.Keywords)
	m.SetCategories(meta.Categories)
	if err := m.SetPlatformRecommendations(meta.PlatformRecommendations); err != nil {
		log.Warn("failed to encode platform recommendations", "error", err)
	}

	if err := p.store.CreateMetadata(ctx, m); err != nil {
		log.Error("failed to store metadata", "error", err)
	}
}

// fail drives the ebook to the failed state, unless the row is gone.
func (p *Pipeline) fail(ctx context.Context, ebookID uint, message string, log *slog.Logger) {
	log.Warn("generation failed", "reason", message)
	if !p.ebookStillExists(ctx, ebookID, log) {
		return
	}
	if err := p.store.FailEbook(ctx, ebookID, message); err != nil {
		log.Error("failed to mark ebook failed", "error", err)
	}
}

// ebookStillExists guards terminal writes: work that outlives a deleted row
// stops instead of resurrecting it.
func (p *Pipeline) ebookStillExists(ctx context.Context, ebookID uint, log *slog.Logger) bool {
	exists, err := p.store.EbookExists(ctx, ebookID)
	if err != nil {
		log.Error("failed to check ebook existence", "error", err)
		return false
	}
	if !exists {
		log.Info("ebook deleted during generation, dropping result")
	}
	return exists
}

func artifactPrefix(userID, ebookID uint, lang string) string {
	return fmt.Sprintf("ebooks/%d/%d/%s", userID, ebookID, lang)
}
