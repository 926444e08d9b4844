package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/store"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// MetadataResponse is EbookMetadata with the JSON-text columns deserialized.
type MetadataResponse struct {
	ID                      uint            `json:"id"`
	EbookID                 uint            `json:"ebook_id"`
	OptimizedTitle          string          `json:"optimized_title"`
	ShortDescription        string          `json:"short_description"`
	LongDescription         string          `json:"long_description"`
	Keywords                []string        `json:"keywords"`
	Categories              []string        `json:"categories"`
	SuggestedPrice          string          `json:"suggested_price"`
	TargetAudience          string          `json:"target_audience"`
	PlatformRecommendations json.RawMessage `json:"platform_recommendations"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

func metadataResponse(m *store.EbookMetadata) MetadataResponse {
	return MetadataResponse{
		ID:                      m.ID,
		EbookID:                 m.EbookID,
		OptimizedTitle:          m.OptimizedTitle,
		ShortDescription:        m.ShortDescription,
		LongDescription:         m.LongDescription,
		Keywords:                m.KeywordList(),
		Categories:              m.CategoryList(),
		SuggestedPrice:          m.SuggestedPrice,
		TargetAudience:          m.TargetAudience,
		PlatformRecommendations: m.PlatformRecommendationsRaw(),
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}
}

// GetMetadataEndpoint handles GET /api/ebooks/{id}/metadata.
type GetMetadataEndpoint struct{}

func (e *GetMetadataEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/ebooks/{id}/metadata", e.handler
}

func (e *GetMetadataEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get ebook metadata
//	@Description	Get the SEO and monetization metadata generated for an ebook
//	@Tags			metadata
//	@Produce		json
//	@Param			id	path		int	true	"Ebook ID"
//	@Success		200	{object}	MetadataResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/ebooks/{id}/metadata [get]
func (e *GetMetadataEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, ok := resolveOwnedEbook(w, r, userID, id); !ok {
		return
	}

	s := svcctx.StoreFrom(r.Context())
	m, err := s.GetMetadataByEbook(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "metadata not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, metadataResponse(m))
}

func (e *GetMetadataEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata <id>",
		Short: "Get an ebook's generated metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			var resp MetadataResponse
			if err := client.Get(cmd.Context(), "/api/ebooks/"+args[0]+"/metadata", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
