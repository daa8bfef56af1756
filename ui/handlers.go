package ui

import (
	"bytes"
	"log"
	"net/http"

	"gostat/domain/core"
	"gostat/domain/dataset"
	"gostat/internal/errors"
	"gostat/internal/formula"
	"gostat/models"
)

// indexPage feeds the upload screen.
type indexPage struct {
	Error       string
	MaxUploadMB int64
}

// workbenchPage carries every section of the analysis screen. Selection
// state rides the query string and form fields, never the session.
type workbenchPage struct {
	Dataset    models.DatasetView
	ColumnRefs []columnRef

	SelectedCols []string
	Summaries    []models.SummaryView

	Y            string
	Xs           []string
	XOptions     []string
	Correlations []models.CorrelationView
	CorrNotice   string

	Formula    string
	Regression *models.RegressionView
	FitError   string
}

// columnRef shows how a column is referenced inside a formula.
type columnRef struct {
	Name    string
	Ref     string
	Numeric bool
}

// session resolves the workbench session for this browser, issuing the
// cookie on first contact. The returned session is nil until a dataset
// has been attached to the token.
func (a *App) session(w http.ResponseWriter, r *http.Request) (*Session, string) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if sess, ok := a.registry.Get(c.Value); ok {
			return sess, c.Value
		}
		// Stale token from a previous process. Keep it: Attach will
		// register it the next time a dataset is uploaded.
		return nil, c.Value
	}

	token := core.NewID().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil, token
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, _ := a.session(w, r)
	if sess != nil && sess.Dataset != nil {
		http.Redirect(w, r, "/workbench", http.StatusSeeOther)
		return
	}
	a.renderTemplate(w, http.StatusOK, "index.html", indexPage{MaxUploadMB: a.maxUpload >> 20})
}

func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	_, token := a.session(w, r)

	if err := r.ParseMultipartForm(a.maxUpload); err != nil {
		log.Printf("[UI] multipart parse failed: %v", err)
		a.renderTemplate(w, http.StatusBadRequest, "index.html", indexPage{
			Error:       "could not read the upload; the file may exceed the size limit",
			MaxUploadMB: a.maxUpload >> 20,
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		a.renderTemplate(w, http.StatusBadRequest, "index.html", indexPage{
			Error:       "choose a file to upload",
			MaxUploadMB: a.maxUpload >> 20,
		})
		return
	}
	defer file.Close()

	ds, err := a.workbench.Ingest(r.Context(), header.Filename, file)
	if err != nil {
		a.renderTemplate(w, http.StatusUnprocessableEntity, "index.html", indexPage{
			Error:       userMessage(err),
			MaxUploadMB: a.maxUpload >> 20,
		})
		return
	}

	a.registry.Attach(token, ds)
	http.Redirect(w, r, "/workbench", http.StatusSeeOther)
}

func (a *App) handleSample(w http.ResponseWriter, r *http.Request) {
	_, token := a.session(w, r)

	csv := a.testkit.HousingCSV()
	ds, err := a.workbench.Ingest(r.Context(), "sample_housing.csv", bytes.NewReader(csv))
	if err != nil {
		log.Printf("[UI] sample ingest failed: %v", err)
		http.Error(w, "sample data unavailable", http.StatusInternalServerError)
		return
	}

	a.registry.Attach(token, ds)
	http.Redirect(w, r, "/workbench", http.StatusSeeOther)
}

func (a *App) handleWorkbench(w http.ResponseWriter, r *http.Request) {
	sess, _ := a.session(w, r)
	if sess == nil || sess.Dataset == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	page := a.workbenchData(r, sess)
	page.Formula = a.workbench.SuggestFormula(sess.Dataset, page.Y)
	a.renderTemplate(w, http.StatusOK, "workbench.html", page)
}

func (a *App) handleFit(w http.ResponseWriter, r *http.Request) {
	sess, _ := a.session(w, r)
	if sess == nil || sess.Dataset == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	input := r.FormValue("formula")
	page := a.workbenchData(r, sess)
	page.Formula = input

	view, err := a.workbench.Fit(sess.Dataset, input)
	if err != nil {
		page.FitError = userMessage(err)
		a.renderTemplate(w, http.StatusUnprocessableEntity, "workbench.html", page)
		return
	}

	page.Regression = &view
	a.renderTemplate(w, http.StatusOK, "workbench.html", page)
}

func (a *App) handleReset(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		a.registry.Clear(c.Value)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// workbenchData assembles the overview, univariate and bivariate sections
// shared by the GET and POST renderings of the workbench page.
func (a *App) workbenchData(r *http.Request, sess *Session) workbenchPage {
	ds := sess.Dataset
	page := workbenchPage{Dataset: a.workbench.Overview(ds)}
	page.ColumnRefs = columnRefs(ds)

	numeric := ds.NumericColumns()
	page.SelectedCols, page.Y, page.Xs = selections(r, numeric)
	page.XOptions = without(numeric, page.Y)

	summaries, err := a.workbench.DescribeColumns(r.Context(), ds, page.SelectedCols)
	if err != nil {
		log.Printf("[UI] describe pass failed: %v", err)
	}
	page.Summaries = summaries

	if len(numeric) < 2 {
		page.CorrNotice = "Correlation needs at least two numeric columns."
	} else {
		page.Correlations = a.workbench.CorrelatePairs(ds, page.Y, page.Xs)
	}
	return page
}

// selections reads the widget state from the request: the univariate
// column multi-select, the correlation Y, and the X multi-select.
// Unknown names are dropped; empty selections fall back to the first
// available column, the way the widgets start out.
func selections(r *http.Request, numeric []string) (cols []string, y string, xs []string) {
	r.ParseForm()

	cols = keepIn(numeric, r.Form["col"])
	if len(cols) == 0 && len(numeric) > 0 {
		cols = numeric[:1]
	}

	y = r.Form.Get("y")
	if !member(numeric, y) {
		y = ""
		if len(numeric) > 0 {
			y = numeric[0]
		}
	}

	xOptions := without(numeric, y)
	xs = keepIn(xOptions, r.Form["x"])
	if len(xs) == 0 && len(xOptions) > 0 {
		xs = xOptions[:1]
	}
	return cols, y, xs
}

func columnRefs(ds *dataset.Dataset) []columnRef {
	names := ds.Names()
	out := make([]columnRef, len(names))
	for i, name := range names {
		col, ok := ds.Column(name)
		out[i] = columnRef{Name: name, Ref: formula.QuoteIfNeeded(name), Numeric: ok && col.IsNumeric()}
	}
	return out
}

// keepIn filters candidates down to members of allowed, in allowed's order
func keepIn(allowed, candidates []string) []string {
	chosen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		chosen[c] = true
	}
	var out []string
	for _, name := range allowed {
		if chosen[name] {
			out = append(out, name)
		}
	}
	return out
}

func without(names []string, drop string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name != drop {
			out = append(out, name)
		}
	}
	return out
}

func member(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// userMessage extracts the human-readable side of an application error.
func userMessage(err error) string {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr.Message
	}
	return "unexpected error; check the server logs"
}
