package web

import (
	"bytes"
	"encoding/json"
	"html/template"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
)

// MaxBodyBytes bounds ordinary JSON request bodies.
const MaxBodyBytes = 1 << 20

// PreviewPageData is the template data for the note preview page.
type PreviewPageData struct {
	Note         entity.Note
	RenderedHTML template.HTML
	Version      string
}

var previewTemplate = template.Must(template.New("preview").Funcs(template.FuncMap{
	"formatTime": formatTime,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Note.Title}} - FlowFocus</title>
<style>body{font-family:sans-serif;max-width:46rem;margin:2rem auto;padding:0 1rem;line-height:1.5}.tags span{margin-right:.5rem;color:#555}footer{color:#777;font-size:.85rem}</style>
</head>
<body>
<article>
<h1>{{.Note.Title}}</h1>
{{- if .Note.Tags}}
<p class="tags">{{range .Note.Tags}}<span>#{{.}}</span>{{end}}</p>
{{- end}}
{{.RenderedHTML}}
</article>
<footer>Updated {{formatTime .Note.UpdatedAt}} · FlowFocus {{.Version}}</footer>
</body>
</html>
`))

// renderError writes err as a JSON error envelope.
func renderError(w http.ResponseWriter, err error) {
	fErr := errors.As(err)
	body := map[string]any{
		"code":    string(fErr.Code),
		"message": fErr.Message,
		"status":  fErr.Status,
	}
	if len(fErr.Details) > 0 {
		body["details"] = fErr.Details
	}
	renderJSON(w, fErr.Status, map[string]any{"error": body})
}

// setAttachment marks the response as a download named filename.
func setAttachment(w http.ResponseWriter, filename string) {
	v := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if v == "" {
		v = "attachment"
	}
	w.Header().Set("Content-Disposition", v)
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respond renders v, or err when it is non-nil.
func respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, v)
}

// decodeBody strictly decodes a JSON request body into v. An empty body
// leaves v unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && err != io.EOF {
		renderError(w, errors.NewInvalidRequest("invalid request body: "+err.Error()))
		return false
	}
	return true
}

// readBody returns the raw request body, up to limit bytes.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		renderError(w, errors.NewInvalidRequest("request body too large or unreadable"))
		return nil, false
	}
	return data, true
}

// renderMarkdown converts markdown text to HTML using goldmark. Raw HTML in
// the source is omitted.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatTime formats a unix-millisecond timestamp as "2006-01-02 15:04" UTC.
func formatTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
