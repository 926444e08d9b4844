package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/store"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// ListEbooksEndpoint handles GET /api/ebooks.
type ListEbooksEndpoint struct{}

func (e *ListEbooksEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/ebooks", e.handler
}

func (e *ListEbooksEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List ebooks
//	@Description	List the authenticated user's ebooks, newest first
//	@Tags			ebooks
//	@Produce		json
//	@Success		200	{array}		store.Ebook
//	@Failure		401	{object}	ErrorResponse
//	@Router			/api/ebooks [get]
func (e *ListEbooksEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	s := svcctx.StoreFrom(r.Context())
	ebooks, err := s.ListEbooksByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ebooks)
}

func (e *ListEbooksEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your ebooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			var resp []store.Ebook
			if err := client.Get(cmd.Context(), "/api/ebooks", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
