package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/generator"
	"github.com/jackzampolin/folio/internal/store"
	"github.com/jackzampolin/folio/internal/svcctx"
	"github.com/jackzampolin/folio/internal/translator"
)

// CreateEbookRequest is the payload for POST /api/ebooks.
type CreateEbookRequest struct {
	Theme       string   `json:"theme" validate:"required"`
	Author      string   `json:"author"`
	Languages   []string `json:"languages" validate:"required,min=1"`
	NumChapters int      `json:"num_chapters" validate:"omitempty,min=3,max=10"`
}

// CreateEbookEndpoint handles POST /api/ebooks.
type CreateEbookEndpoint struct{}

func (e *CreateEbookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/ebooks", e.handler
}

func (e *CreateEbookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Create an ebook
//	@Description	Create an ebook job and start generation in the background
//	@Tags			ebooks
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateEbookRequest	true	"Generation request"
//	@Success		202		{object}	store.Ebook
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/api/ebooks [post]
func (e *CreateEbookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req CreateEbookRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// Language validation is a hard gate: unsupported codes never reach the
	// pipeline.
	if err := translator.ValidateCodes(req.Languages); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	eb := &store.Ebook{
		UserID:      userID,
		Theme:       req.Theme,
		Author:      req.Author,
		Languages:   store.JoinCodes(req.Languages),
		NumChapters: generator.ClampChapters(req.NumChapters),
		Status:      store.StatusProcessing,
	}

	s := svcctx.StoreFrom(r.Context())
	if err := s.CreateEbook(r.Context(), eb); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Generation is detached from this request; the row is the job record.
	svcctx.PipelineFrom(r.Context()).Start(eb.ID)

	writeJSON(w, http.StatusAccepted, eb)
}

func (e *CreateEbookEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		author      string
		languages   []string
		numChapters int
	)
	cmd := &cobra.Command{
		Use:   "create <theme>",
		Short: "Create an ebook and start generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			req := CreateEbookRequest{
				Theme:       args[0],
				Author:      author,
				Languages:   languages,
				NumChapters: numChapters,
			}
			var resp store.Ebook
			if err := client.Post(cmd.Context(), "/api/ebooks", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "Author name")
	cmd.Flags().StringSliceVar(&languages, "languages", []string{"pt"}, "Language codes, first is primary")
	cmd.Flags().IntVar(&numChapters, "chapters", 0, "Number of chapters (3-10)")
	return cmd
}
