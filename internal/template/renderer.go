package template

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
)

//go:embed tmpl/*.html
var files embed.FS

const (
	templateDir string = "tmpl"
)

type Data struct {
	PageTitle     string
	Authenticated bool
	Flash         string
	Error         string
	Content       any
}

func Render(w http.ResponseWriter, r *http.Request, tmpl string, td *Data) error {
	return RenderStatus(w, r, http.StatusOK, tmpl, td)
}

// RenderStatus renders tmpl inside base.html. Nothing is written to w when
// rendering fails, so the caller can still send an error response.
func RenderStatus(w http.ResponseWriter, _ *http.Request, status int, tmpl string, td *Data) error {
	t, err := template.ParseFS(files,
		templateDir+"/"+tmpl,
		templateDir+"/"+"base.html",
	)
	if err != nil {
		return err
	}

	buf := &bytes.Buffer{}

	err = t.ExecuteTemplate(buf, "base", td)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}
