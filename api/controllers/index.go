package controllers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/rowvault/csvvault-backend/api/responses"
	"github.com/rowvault/csvvault-backend/internal/uploads"
	pkgerrors "github.com/rowvault/csvvault-backend/pkg/errors"
	"github.com/rowvault/csvvault-backend/pkg/logger"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Index renders the HTML listing page with the most recent uploads.
func Index(svc uploads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.ListFiles(r.Context(), uploads.DefaultListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTemplate.Execute(w, map[string]any{"Files": records}); err != nil {
			if logg != nil {
				logg.Error(r.Context(), "rendering index page", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "template execute"))
			}
		}
	}
}
