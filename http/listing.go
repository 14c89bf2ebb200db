package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/dirserve/dirserve"
)

// renderListing writes one directory level, as JSON when the client asks for
// it and as a minimal HTML page otherwise.
func (h *Handler) renderListing(w http.ResponseWriter, r *http.Request, listing dirserve.Listing) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		_ = WriteJSON(w, http.StatusOK, listing)
		return
	}

	view := listingView{
		Path:    "/" + listing.Path,
		Entries: listing.Entries,
		Archive: h.config.ArchiveEnabled,
	}
	if listing.Path != "" {
		parent := path.Dir(listing.Path)
		if parent == "." {
			parent = ""
		}
		view.Parent = "/" + parent
		view.HasParent = true
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := listingTemplate.Execute(w, view); err != nil {
		slog.Error("failed to render listing", "path", listing.Path, "err", err)
	}
}

type listingView struct {
	Path      string
	Parent    string
	HasParent bool
	Entries   []dirserve.ListEntry
	Archive   bool
}

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Index of {{.Path}}</title></head>
<body>
<h1>Index of {{.Path}}</h1>
{{if .Archive}}<p>Download as <a href="{{.Path}}?download=tar">tar</a> | <a href="{{.Path}}?download=zip">zip</a></p>{{end}}
<table>
<tr><th align="left">Name</th><th align="right">Size</th><th align="left">Modified</th></tr>
{{if .HasParent}}<tr><td><a href="{{.Parent}}">..</a></td><td></td><td></td></tr>{{end}}
{{range .Entries}}<tr>
<td><a href="/{{.Path}}">{{.Name}}{{if .Dir}}/{{end}}</a></td>
<td align="right">{{if .Dir}}&ndash;{{else}}{{.Size}}{{end}}</td>
<td>{{.ModTime.Format "2006-01-02 15:04"}}</td>
</tr>{{end}}
</table>
<hr><small>dirserve</small>
</body>
</html>
`))
