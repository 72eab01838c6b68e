package rest

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

type pageData struct {
	Mark string
}

type PageHandler struct {
	logger    *slog.Logger
	templates *template.Template
	marks     []string
}

func NewPageHandler(logger *slog.Logger, marks ...string) (*PageHandler, error) {
	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &PageHandler{
		logger:    logger.With("component", "pages"),
		templates: templates,
		marks:     marks,
	}, nil
}

// RegisterRoutes serves the player page at /<mark> and the grid view at /<mark>/grid.
func (that *PageHandler) RegisterRoutes(mux *http.ServeMux) {
	for _, mark := range that.marks {
		mux.HandleFunc("GET /"+mark, that.render("player.html", mark))
		mux.HandleFunc("GET /"+mark+"/grid", that.render("grid.html", mark))
	}
}

func (that *PageHandler) render(name, mark string) http.HandlerFunc {
	log := that.logger.With("method", "render", "page", name, "mark", mark)

	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := that.templates.ExecuteTemplate(w, name, pageData{Mark: mark}); err != nil {
			log.Error("failed to render page", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}
