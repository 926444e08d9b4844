package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/store"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// GetEbookEndpoint handles GET /api/ebooks/{id}.
type GetEbookEndpoint struct{}

func (e *GetEbookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/ebooks/{id}", e.handler
}

func (e *GetEbookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get an ebook
//	@Description	Get one ebook by ID, including generation status
//	@Tags			ebooks
//	@Produce		json
//	@Param			id	path		int	true	"Ebook ID"
//	@Success		200	{object}	store.Ebook
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/ebooks/{id} [get]
func (e *GetEbookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	eb, ok := resolveOwnedEbook(w, r, userID, id)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, eb)
}

func (e *GetEbookEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get an ebook by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			var resp store.Ebook
			if err := client.Get(cmd.Context(), "/api/ebooks/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DeleteEbookEndpoint handles DELETE /api/ebooks/{id}.
type DeleteEbookEndpoint struct{}

func (e *DeleteEbookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/ebooks/{id}", e.handler
}

func (e *DeleteEbookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete an ebook
//	@Description	Delete an ebook and all its dependents (files, metadata, publications, financials)
//	@Tags			ebooks
//	@Produce		json
//	@Param			id	path	int	true	"Ebook ID"
//	@Success		204
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/ebooks/{id} [delete]
func (e *DeleteEbookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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
	if err := s.DeleteEbook(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteEbookEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an ebook and its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			if err := client.Delete(cmd.Context(), "/api/ebooks/"+args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted ebook %s\n", args[0])
			return nil
		},
	}
}

// ListEbookFilesEndpoint handles GET /api/ebooks/{id}/files.
type ListEbookFilesEndpoint struct{}

func (e *ListEbookFilesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/ebooks/{id}/files", e.handler
}

func (e *ListEbookFilesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List ebook files
//	@Description	List the per-language artifact rows of an ebook
//	@Tags			ebooks
//	@Produce		json
//	@Param			id	path		int	true	"Ebook ID"
//	@Success		200	{array}		store.EbookFile
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/ebooks/{id}/files [get]
func (e *ListEbookFilesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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
	files, err := s.ListEbookFiles(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, files)
}

func (e *ListEbookFilesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "files <id>",
		Short: "List an ebook's per-language files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			var resp []store.EbookFile
			if err := client.Get(cmd.Context(), "/api/ebooks/"+args[0]+"/files", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
