package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/generator"
	"github.com/jackzampolin/folio/internal/svcctx"
	"github.com/jackzampolin/folio/internal/translator"
)

// TrendingResponse is the response for GET /api/trending.
type TrendingResponse struct {
	Language string   `json:"language"`
	Topics   []string `json:"topics"`
}

// TrendingEndpoint handles GET /api/trending.
type TrendingEndpoint struct{}

func (e *TrendingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/trending", e.handler
}

func (e *TrendingEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List trending topics
//	@Description	Ask the LLM for ebook topics currently in demand
//	@Tags			discovery
//	@Produce		json
//	@Param			language	query		string	false	"Language market code"	default(en)
//	@Success		200			{object}	TrendingResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		502			{object}	ErrorResponse
//	@Router			/api/trending [get]
func (e *TrendingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestUserID(w, r); !ok {
		return
	}

	language := r.URL.Query().Get("language")
	if language == "" {
		language = "en"
	}
	if !translator.IsSupported(language) {
		writeError(w, http.StatusBadRequest, "unsupported language: "+language)
		return
	}

	registry := svcctx.RegistryFrom(r.Context())
	if registry == nil {
		writeError(w, http.StatusServiceUnavailable, "no LLM provider configured")
		return
	}
	names := registry.ListLLM()
	if len(names) == 0 {
		writeError(w, http.StatusServiceUnavailable, "no LLM provider configured")
		return
	}
	llm, err := registry.GetLLM(names[0])
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	gen := generator.New(llm, svcctx.LoggerFrom(r.Context()))
	topics, err := gen.FindTrendingTopics(r.Context(), language)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, TrendingResponse{Language: language, Topics: topics})
}

func (e *TrendingEndpoint) Command(getServerURL func() string) *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "trending",
		Short: "List trending ebook topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			var resp TrendingResponse
			if err := client.Get(cmd.Context(), "/api/trending?language="+language, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&language, "language", "en", "Language market code")
	return cmd
}

// LanguagesEndpoint handles GET /api/languages.
type LanguagesEndpoint struct{}

func (e *LanguagesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/languages", e.handler
}

func (e *LanguagesEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		List supported languages
//	@Description	List the language codes ebooks can be generated in
//	@Tags			discovery
//	@Produce		json
//	@Success		200	{array}	translator.Language
//	@Router			/api/languages [get]
func (e *LanguagesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, translator.SupportedLanguages())
}

func (e *LanguagesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			var resp []translator.Language
			if err := client.Get(cmd.Context(), "/api/languages", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// PlatformsEndpoint handles GET /api/platforms.
type PlatformsEndpoint struct{}

func (e *PlatformsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/platforms", e.handler
}

func (e *PlatformsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		List publishing platforms
//	@Description	List the platforms publications can be recorded against
//	@Tags			discovery
//	@Produce		json
//	@Success		200	{array}	string
//	@Router			/api/platforms [get]
func (e *PlatformsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, generator.Platforms)
}

func (e *PlatformsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List publishing platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cmd, getServerURL)
			var resp []string
			if err := client.Get(cmd.Context(), "/api/platforms", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
