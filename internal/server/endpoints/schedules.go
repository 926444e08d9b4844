package endpoints

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/store"
	"github.com/jackzampolin/folio/internal/svcctx"
	"github.com/jackzampolin/folio/internal/translator"
)

// CreateScheduleRequest is the payload for POST /api/schedules.
type CreateScheduleRequest struct {
	Name          string   `json:"name" validate:"required"`
	Frequency     string   `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	TotalEbooks   int      `json:"total_ebooks" validate:"required,min=1"`
	ThemeMode     string   `json:"theme_mode" validate:"required,oneof=single_theme custom_list trending"`
	SingleTheme   string   `json:"single_theme"`
	Themes        []string `json:"themes"`
	Author        string   `json:"author" validate:"required"`
	Languages     []string `json:"languages" validate:"required,min=1"`
	ScheduledTime string   `json:"scheduled_time" validate:"omitempty,len=5"`
}

// initialNextRun computes the first due time for a new schedule. With a
// preferred time the first run lands on today's HH:MM, or tomorrow's if that
// already passed. Without one the schedule is due immediately.
func initialNextRun(scheduledTime string, now time.Time) time.Time {
	if scheduledTime == "" {
		return now
	}
	t, err := time.Parse("15:04", scheduledTime)
	if err != nil {
		return now
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if next.Before(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// CreateScheduleEndpoint handles POST /api/schedules.
type CreateScheduleEndpoint struct{}

func (e *CreateScheduleEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/schedules", e.handler
}

func (e *CreateScheduleEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Create a schedule
//	@Description	Create a recurring generation schedule
//	@Tags			schedules
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateScheduleRequest	true	"Schedule definition"
//	@Success		201		{object}	store.Schedule
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/api/schedules [post]
func (e *CreateScheduleEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req CreateScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := translator.ValidateCodes(req.Languages); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch store.ThemeMode(req.ThemeMode) {
	case store.ThemeModeSingle:
		if req.SingleTheme == "" {
			writeError(w, http.StatusBadRequest, "single_theme is required for single_theme mode")
			return
		}
	case store.ThemeModeCustom:
		if len(req.Themes) == 0 {
			writeError(w, http.StatusBadRequest, "themes list is required for custom_list mode")
			return
		}
	}

	sched := &store.Schedule{
		UserID:        userID,
		Name:          req.Name,
		Frequency:     store.Frequency(req.Frequency),
		TotalEbooks:   req.TotalEbooks,
		ThemeMode:     store.ThemeMode(req.ThemeMode),
		SingleTheme:   req.SingleTheme,
		Author:        req.Author,
		Languages:     store.JoinCodes(req.Languages),
		ScheduledTime: req.ScheduledTime,
		Active:        true,
		NextRunAt:     initialNextRun(req.ScheduledTime, time.Now()),
	}
	sched.SetThemes(req.Themes)

	s := svcctx.StoreFrom(r.Context())
	if err := s.CreateSchedule(r.Context(), sched); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, sched)
}

func (e *CreateScheduleEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req CreateScheduleRequest
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a recurring generation schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			req.Name = args[0]
			var resp store.Schedule
			if err := client.Post(cmd.Context(), "/api/schedules", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&req.Frequency, "frequency", "daily", "Cadence: daily, weekly or monthly")
	cmd.Flags().IntVar(&req.TotalEbooks, "total", 1, "Total ebooks to generate")
	cmd.Flags().StringVar(&req.ThemeMode, "theme-mode", "single_theme", "Theme mode: single_theme, custom_list or trending")
	cmd.Flags().StringVar(&req.SingleTheme, "theme", "", "Theme for single_theme mode")
	cmd.Flags().StringSliceVar(&req.Themes, "themes", nil, "Theme list for custom_list mode")
	cmd.Flags().StringVar(&req.Author, "author", "", "Author name")
	cmd.Flags().StringSliceVar(&req.Languages, "languages", []string{"pt"}, "Language codes, first is primary")
	cmd.Flags().StringVar(&req.ScheduledTime, "at", "", "Preferred run time, HH:MM")
	return cmd
}

// ListSchedulesEndpoint handles GET /api/schedules.
type ListSchedulesEndpoint struct{}

func (e *ListSchedulesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/schedules", e.handler
}

func (e *ListSchedulesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List schedules
//	@Description	List the authenticated user's schedules
//	@Tags			schedules
//	@Produce		json
//	@Success		200	{array}		store.Schedule
//	@Failure		401	{object}	ErrorResponse
//	@Router			/api/schedules [get]
func (e *ListSchedulesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	s := svcctx.StoreFrom(r.Context())
	scheds, err := s.ListSchedulesByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, scheds)
}

func (e *ListSchedulesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			var resp []store.Schedule
			if err := client.Get(cmd.Context(), "/api/schedules", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetScheduleEndpoint handles GET /api/schedules/{id}.
type GetScheduleEndpoint struct{}

func (e *GetScheduleEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/schedules/{id}", e.handler
}

func (e *GetScheduleEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a schedule
//	@Description	Get one schedule by ID, including run progress
//	@Tags			schedules
//	@Produce		json
//	@Param			id	path		int	true	"Schedule ID"
//	@Success		200	{object}	store.Schedule
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/schedules/{id} [get]
func (e *GetScheduleEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	sched, ok := resolveOwnedSchedule(w, r, userID, id)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, sched)
}

func (e *GetScheduleEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a schedule by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			var resp store.Schedule
			if err := client.Get(cmd.Context(), "/api/schedules/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DeleteScheduleEndpoint handles DELETE /api/schedules/{id}.
type DeleteScheduleEndpoint struct{}

func (e *DeleteScheduleEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/schedules/{id}", e.handler
}

func (e *DeleteScheduleEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a schedule
//	@Description	Delete a schedule. Ebooks it already generated are kept.
//	@Tags			schedules
//	@Produce		json
//	@Param			id	path	int	true	"Schedule ID"
//	@Success		204
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/schedules/{id} [delete]
func (e *DeleteScheduleEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, ok := resolveOwnedSchedule(w, r, userID, id); !ok {
		return
	}

	s := svcctx.StoreFrom(r.Context())
	if err := s.DeleteSchedule(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteScheduleEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			if err := client.Delete(cmd.Context(), "/api/schedules/"+args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted schedule %s\n", args[0])
			return nil
		},
	}
}

// TriggerScheduleEndpoint handles POST /api/schedules/{id}/trigger.
type TriggerScheduleEndpoint struct{}

func (e *TriggerScheduleEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/schedules/{id}/trigger", e.handler
}

func (e *TriggerScheduleEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Trigger a schedule
//	@Description	Run an active schedule immediately instead of waiting for its next due time
//	@Tags			schedules
//	@Produce		json
//	@Param			id	path		int	true	"Schedule ID"
//	@Success		202	{object}	store.Schedule
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/schedules/{id}/trigger [post]
func (e *TriggerScheduleEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, ok := resolveOwnedSchedule(w, r, userID, id); !ok {
		return
	}

	worker := svcctx.SchedulerFrom(r.Context())
	if worker == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler is not running")
		return
	}
	if err := worker.TriggerNow(r.Context(), id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := svcctx.StoreFrom(r.Context())
	sched, err := s.GetSchedule(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, sched)
}

func (e *TriggerScheduleEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <id>",
		Short: "Run a schedule now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			var resp store.Schedule
			if err := client.Post(cmd.Context(), "/api/schedules/"+args[0]+"/trigger", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
