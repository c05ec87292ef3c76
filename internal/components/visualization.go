// SPDX-License-Identifier: MIT

package components

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/ManuGH/pointcloud/internal/config"
	"github.com/ManuGH/pointcloud/internal/locale"
	"github.com/ManuGH/pointcloud/internal/log"
)

//go:embed assets/visualization
var visualizationAssets embed.FS

// IndexTemplate is the page served at "/".
const IndexTemplate = "visualization/index.gohtml"

// Visualization is the viewer page shell. It ships the index template and
// the stylesheet and script it links to.
func Visualization() Component {
	return Component{
		Name:      config.ComponentVisualization,
		Templates: mustSub(visualizationAssets, "assets/visualization/templates"),
		Static:    mustSub(visualizationAssets, "assets/visualization/static"),
		Mount: func(r chi.Router, deps Deps) {
			r.Get("/", indexHandler(deps))
		},
	}
}

func indexHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := locale.FromContext(r.Context())
		if lang == language.Und {
			lang = deps.Snapshot.Language()
		}
		var langs []string
		if deps.Locale != nil && deps.Snapshot.Locale().UseI18N {
			for _, t := range deps.Locale.Supported() {
				langs = append(langs, t.String())
			}
		}
		data := map[string]any{
			"Title":     locale.MsgTitle,
			"Version":   deps.Snapshot.Version(),
			"Lang":      lang.String(),
			"Languages": langs,
		}
		if err := deps.Renderer.Render(w, r, IndexTemplate, data); err != nil {
			logger := log.WithComponentFromContext(r.Context(), config.ComponentVisualization)
			logger.Error().Err(err).
				Str(log.FieldEvent, "template.render_failed").
				Msg("render index")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
