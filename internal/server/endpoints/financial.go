package endpoints

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/store"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// UpsertFinancialRequest is the payload for PUT /api/ebooks/{id}/financial.
// Amounts are decimal strings.
type UpsertFinancialRequest struct {
	TrafficCost string `json:"traffic_cost"`
	OtherCosts  string `json:"other_costs"`
	Revenue     string `json:"revenue"`
	Notes       string `json:"notes"`
}

// GetFinancialEndpoint handles GET /api/ebooks/{id}/financial.
type GetFinancialEndpoint struct{}

func (e *GetFinancialEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/ebooks/{id}/financial", e.handler
}

func (e *GetFinancialEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get financial metrics
//	@Description	Get the ebook-level financial rollup
//	@Tags			financial
//	@Produce		json
//	@Param			id	path		int	true	"Ebook ID"
//	@Success		200	{object}	store.FinancialMetric
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/ebooks/{id}/financial [get]
func (e *GetFinancialEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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
	m, err := s.GetFinancialByEbook(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no financial metrics recorded")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func (e *GetFinancialEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "financial <ebook-id>",
		Short: "Get an ebook's financial metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			var resp store.FinancialMetric
			if err := client.Get(cmd.Context(), "/api/ebooks/"+args[0]+"/financial", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// UpsertFinancialEndpoint handles PUT /api/ebooks/{id}/financial.
type UpsertFinancialEndpoint struct{}

func (e *UpsertFinancialEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/ebooks/{id}/financial", e.handler
}

func (e *UpsertFinancialEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Set financial metrics
//	@Description	Create or replace the ebook-level financial rollup
//	@Tags			financial
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Ebook ID"
//	@Param			request	body		UpsertFinancialRequest	true	"Financial figures"
//	@Success		200		{object}	store.FinancialMetric
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/ebooks/{id}/financial [put]
func (e *UpsertFinancialEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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

	var req UpsertFinancialRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m := &store.FinancialMetric{
		EbookID:     id,
		TrafficCost: req.TrafficCost,
		OtherCosts:  req.OtherCosts,
		Revenue:     req.Revenue,
		Notes:       req.Notes,
	}

	s := svcctx.StoreFrom(r.Context())
	if err := s.UpsertFinancial(r.Context(), m); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stored, err := s.GetFinancialByEbook(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (e *UpsertFinancialEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req UpsertFinancialRequest
	cmd := &cobra.Command{
		Use:   "set-financial <ebook-id>",
		Short: "Set an ebook's financial metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			var resp store.FinancialMetric
			if err := client.Put(cmd.Context(), "/api/ebooks/"+args[0]+"/financial", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&req.TrafficCost, "traffic-cost", "0", "Traffic spend")
	cmd.Flags().StringVar(&req.OtherCosts, "other-costs", "0", "Other costs")
	cmd.Flags().StringVar(&req.Revenue, "revenue", "0", "Revenue")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "Free-form notes")
	return cmd
}
