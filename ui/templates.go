package ui

import (
	"bytes"
	"log"
	"net/http"
)

// renderTemplate executes a template into a buffer first so template
// errors become a clean 500 instead of a half-written page.
func (a *App) renderTemplate(w http.ResponseWriter, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		log.Printf("[UI] template %s failed: %v", templateName, err)
		http.Error(w, "Template rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[UI] writing %s response: %v", templateName, err)
	}
}
