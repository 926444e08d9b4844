package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/svcctx"
)

// FilesEndpoint serves generated artifacts (EPUB, HTML, covers) from local
// storage under /files/.
type FilesEndpoint struct{}

func (e *FilesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/files/", e.handler
}

func (e *FilesEndpoint) RequiresInit() bool { return true }

func (e *FilesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	files := svcctx.FilesFrom(r.Context())
	if files == nil {
		writeError(w, http.StatusServiceUnavailable, "file storage is not configured")
		return
	}
	http.StripPrefix("/files/", files.Handler()).ServeHTTP(w, r)
}

// Command returns nil: artifacts are fetched by URL, not through the CLI.
func (e *FilesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return nil
}
