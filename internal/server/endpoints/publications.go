package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/generator"
	"github.com/jackzampolin/folio/internal/store"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// CreatePublicationRequest is the payload for POST /api/ebooks/{id}/publications.
type CreatePublicationRequest struct {
	Platform       string `json:"platform" validate:"required"`
	PublicationURL string `json:"publication_url"`
	Notes          string `json:"notes"`
	TrafficCost    string `json:"traffic_cost"`
	OtherCosts     string `json:"other_costs"`
	Revenue        string `json:"revenue"`
	SalesCount     int    `json:"sales_count" validate:"min=0"`
}

// UpdatePublicationRequest is the payload for PATCH /api/publications/{id}.
// Pointer fields distinguish "not sent" from zero values.
type UpdatePublicationRequest struct {
	Published      *bool   `json:"published"`
	PublicationURL *string `json:"publication_url"`
	Notes          *string `json:"notes"`
	TrafficCost    *string `json:"traffic_cost"`
	OtherCosts     *string `json:"other_costs"`
	Revenue        *string `json:"revenue"`
	SalesCount     *int    `json:"sales_count" validate:"omitempty,min=0"`
}

func validPlatform(p string) bool {
	for _, known := range generator.Platforms {
		if known == p {
			return true
		}
	}
	return false
}

// resolveOwnedPublication loads a publication and enforces ownership through
// its parent ebook.
func resolveOwnedPublication(w http.ResponseWriter, r *http.Request, userID, pubID uint) (*store.Publication, bool) {
	s := svcctx.StoreFrom(r.Context())
	p, err := s.GetPublication(r.Context(), pubID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "publication not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	if _, ok := resolveOwnedEbook(w, r, userID, p.EbookID); !ok {
		return nil, false
	}
	return p, true
}

// CreatePublicationEndpoint handles POST /api/ebooks/{id}/publications.
type CreatePublicationEndpoint struct{}

func (e *CreatePublicationEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/ebooks/{id}/publications", e.handler
}

func (e *CreatePublicationEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Record a publication
//	@Description	Record that an ebook was published on a platform
//	@Tags			publications
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Ebook ID"
//	@Param			request	body		CreatePublicationRequest	true	"Publication record"
//	@Success		201		{object}	store.Publication
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/ebooks/{id}/publications [post]
func (e *CreatePublicationEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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

	var req CreatePublicationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validPlatform(req.Platform) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown platform %q, must be one of: %s", req.Platform, strings.Join(generator.Platforms, ", ")))
		return
	}

	p := &store.Publication{
		EbookID:        id,
		Platform:       req.Platform,
		Published:      true,
		PublicationURL: req.PublicationURL,
		Notes:          req.Notes,
		TrafficCost:    req.TrafficCost,
		OtherCosts:     req.OtherCosts,
		Revenue:        req.Revenue,
		SalesCount:     req.SalesCount,
	}

	s := svcctx.StoreFrom(r.Context())
	if err := s.CreatePublication(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (e *CreatePublicationEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req CreatePublicationRequest
	cmd := &cobra.Command{
		Use:   "publish <ebook-id> <platform>",
		Short: "Record an ebook as published on a platform",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			req.Platform = args[1]
			var resp store.Publication
			if err := client.Post(cmd.Context(), "/api/ebooks/"+args[0]+"/publications", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&req.PublicationURL, "url", "", "Public listing URL")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "Free-form notes")
	return cmd
}

// ListPublicationsEndpoint handles GET /api/ebooks/{id}/publications.
type ListPublicationsEndpoint struct{}

func (e *ListPublicationsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/ebooks/{id}/publications", e.handler
}

func (e *ListPublicationsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List publications
//	@Description	List an ebook's publication records
//	@Tags			publications
//	@Produce		json
//	@Param			id	path		int	true	"Ebook ID"
//	@Success		200	{array}		store.Publication
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/ebooks/{id}/publications [get]
func (e *ListPublicationsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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
	pubs, err := s.ListPublicationsByEbook(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, pubs)
}

func (e *ListPublicationsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "publications <ebook-id>",
		Short: "List an ebook's publication records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			var resp []store.Publication
			if err := client.Get(cmd.Context(), "/api/ebooks/"+args[0]+"/publications", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// UpdatePublicationEndpoint handles PATCH /api/publications/{id}.
type UpdatePublicationEndpoint struct{}

func (e *UpdatePublicationEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/api/publications/{id}", e.handler
}

func (e *UpdatePublicationEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Update a publication
//	@Description	Update fields of a publication record
//	@Tags			publications
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Publication ID"
//	@Param			request	body		UpdatePublicationRequest	true	"Fields to update"
//	@Success		200		{object}	store.Publication
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/publications/{id} [patch]
func (e *UpdatePublicationEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, ok := resolveOwnedPublication(w, r, userID, id); !ok {
		return
	}

	var req UpdatePublicationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updates := map[string]any{}
	if req.Published != nil {
		updates["published"] = *req.Published
	}
	if req.PublicationURL != nil {
		updates["publication_url"] = *req.PublicationURL
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.TrafficCost != nil {
		updates["traffic_cost"] = *req.TrafficCost
	}
	if req.OtherCosts != nil {
		updates["other_costs"] = *req.OtherCosts
	}
	if req.Revenue != nil {
		updates["revenue"] = *req.Revenue
	}
	if req.SalesCount != nil {
		updates["sales_count"] = *req.SalesCount
	}
	if len(updates) == 0 {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	s := svcctx.StoreFrom(r.Context())
	if err := s.UpdatePublication(r.Context(), id, updates); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	p, err := s.GetPublication(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (e *UpdatePublicationEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		published bool
		url       string
		revenue   string
		sales     int
	)
	cmd := &cobra.Command{
		Use:   "update-publication <id>",
		Short: "Update a publication record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			req := UpdatePublicationRequest{}
			if cmd.Flags().Changed("published") {
				req.Published = &published
			}
			if cmd.Flags().Changed("url") {
				req.PublicationURL = &url
			}
			if cmd.Flags().Changed("revenue") {
				req.Revenue = &revenue
			}
			if cmd.Flags().Changed("sales") {
				req.SalesCount = &sales
			}
			var resp store.Publication
			if err := client.Patch(cmd.Context(), "/api/publications/"+args[0], req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&published, "published", true, "Published flag")
	cmd.Flags().StringVar(&url, "url", "", "Public listing URL")
	cmd.Flags().StringVar(&revenue, "revenue", "", "Revenue amount")
	cmd.Flags().IntVar(&sales, "sales", 0, "Sales count")
	return cmd
}

// DeletePublicationEndpoint handles DELETE /api/publications/{id}.
type DeletePublicationEndpoint struct{}

func (e *DeletePublicationEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/publications/{id}", e.handler
}

func (e *DeletePublicationEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a publication
//	@Description	Delete a publication record
//	@Tags			publications
//	@Produce		json
//	@Param			id	path	int	true	"Publication ID"
//	@Success		204
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/publications/{id} [delete]
func (e *DeletePublicationEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, ok := resolveOwnedPublication(w, r, userID, id); !ok {
		return
	}

	s := svcctx.StoreFrom(r.Context())
	if err := s.DeletePublication(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (e *DeletePublicationEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-publication <id>",
		Short: "Delete a publication record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			if err := client.Delete(cmd.Context(), "/api/publications/"+args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted publication %s\n", args[0])
			return nil
		},
	}
}
