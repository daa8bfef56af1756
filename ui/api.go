package ui

import (
	"log"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gostat/app"
	"gostat/domain/core"
	"gostat/domain/dataset"
	"gostat/domain/stats"
	"gostat/internal/errors"
)

// APIServer exposes the workbench operations as JSON for scripted
// clients. It can share a Registry with the HTML app so both surfaces
// see the same datasets.
type APIServer struct {
	router    *gin.Engine
	workbench *app.Workbench
	registry  *Registry
}

func NewAPIServer(workbench *app.Workbench, registry *Registry) *APIServer {
	s := &APIServer{
		router:    gin.Default(),
		workbench: workbench,
		registry:  registry,
	}
	s.setupRoutes()
	return s
}

// Router exposes the engine for tests
func (s *APIServer) Router() *gin.Engine {
	return s.router
}

func (s *APIServer) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.POST("/dataset", s.handleDatasetUpload)
		api.GET("/dataset/:id", s.handleDatasetInfo)
		api.GET("/dataset/:id/summary", s.handleSummary)
		api.GET("/dataset/:id/correlation", s.handleCorrelation)
		api.POST("/dataset/:id/fit", s.handleFit)
	}
}

// Start runs the API server (blocking)
func (s *APIServer) Start(port string) error {
	log.Printf("Starting JSON API on http://localhost:%s", port)
	return s.router.Run(":" + port)
}

// handleDatasetUpload ingests a multipart upload and registers the
// dataset for later requests.
func (s *APIServer) handleDatasetUpload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded; send a multipart field named 'file'"})
		return
	}
	defer file.Close()

	ds, err := s.workbench.Ingest(c.Request.Context(), header.Filename, file)
	if err != nil {
		s.renderError(c, err)
		return
	}

	s.registry.PutDataset(ds)
	c.JSON(http.StatusCreated, s.workbench.Overview(ds))
}

func (s *APIServer) handleDatasetInfo(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.workbench.Overview(ds))
}

// handleSummary returns statistics for ?column=..., or for every
// numeric column when the parameter is absent.
func (s *APIServer) handleSummary(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}

	if column := c.Query("column"); column != "" {
		summary, err := s.workbench.Summarize(ds, column)
		if err != nil {
			s.renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, summaryJSON(summary))
		return
	}

	columns := ds.NumericColumns()
	out := make([]gin.H, 0, len(columns))
	for _, name := range columns {
		summary, err := s.workbench.Summarize(ds, name)
		if err != nil {
			log.Printf("[API] summary for %s failed: %v", name, err)
			continue
		}
		out = append(out, summaryJSON(summary))
	}
	c.JSON(http.StatusOK, gin.H{"columns": out, "count": len(out)})
}

func (s *APIServer) handleCorrelation(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}

	x, y := c.Query("x"), c.Query("y")
	if x == "" || y == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "both x and y query parameters are required"})
		return
	}

	result, err := s.workbench.Correlation(ds, x, y)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, correlationJSON(result))
}

func (s *APIServer) handleFit(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}

	var req struct {
		Formula string `json:"formula"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Formula) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be JSON with a non-empty 'formula' field"})
		return
	}

	model, err := s.workbench.FitModel(ds, req.Formula)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, modelJSON(model))
}

// dataset resolves the :id path parameter, writing the 404 itself so
// handlers can bail with a bare return.
func (s *APIServer) dataset(c *gin.Context) (*dataset.Dataset, bool) {
	id := core.DatasetID(c.Param("id"))
	ds, ok := s.registry.Dataset(id)
	if !ok {
		s.renderError(c, errors.NotFound("dataset "+id.String()))
		return nil, false
	}
	return ds, true
}

func (s *APIServer) renderError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeUnsupportedFile, errors.CodeDecodeFailed, errors.CodeNoNumericColumns,
		errors.CodeFormulaParse, errors.CodeUnknownColumn, errors.CodeInvalidInput:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeInsufficientData, errors.CodeAllMissing, errors.CodeFitFailed:
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		log.Printf("[API] internal error: %v", err)
	}
	c.JSON(status, gin.H{"error": userMessage(err), "code": code})
}

// nullable maps NaN and ±Inf to JSON null; encoding/json rejects
// non-finite floats outright.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func summaryJSON(s stats.SummaryStatistics) gin.H {
	return gin.H{
		"column":   s.Column,
		"count":    s.Count,
		"missing":  s.Missing,
		"mean":     nullable(s.Mean),
		"std_dev":  nullable(s.StdDev),
		"min":      nullable(s.Min),
		"p5":       nullable(s.P5),
		"p25":      nullable(s.P25),
		"median":   nullable(s.Median),
		"p75":      nullable(s.P75),
		"p95":      nullable(s.P95),
		"max":      nullable(s.Max),
		"skewness": nullable(s.Skewness),
		"kurtosis": nullable(s.Kurtosis),
	}
}

func correlationJSON(r stats.CorrelationResult) gin.H {
	out := gin.H{
		"x": r.X,
		"y": r.Y,
		"n": r.N,
	}
	if r.Usable() {
		out["r"] = nullable(r.R)
		out["p_value"] = nullable(r.PValue)
	} else {
		out["warning"] = r.Warning
	}
	return out
}

func modelJSON(m *stats.RegressionModel) gin.H {
	coefficients := make([]gin.H, 0, len(m.Coefficients))
	for _, coef := range m.Coefficients {
		coefficients = append(coefficients, gin.H{
			"term":        coef.Term,
			"estimate":    nullable(coef.Estimate),
			"std_err":     nullable(coef.StdErr),
			"t_value":     nullable(coef.TValue),
			"p_value":     nullable(coef.PValue),
			"ci_lower":    nullable(coef.CILower),
			"ci_upper":    nullable(coef.CIUpper),
			"significant": coef.Significant,
		})
	}

	dropped := m.Dropped
	if dropped == nil {
		dropped = []string{}
	}

	return gin.H{
		"formula":  m.Formula,
		"response": m.Response,
		"metrics": gin.H{
			"r_squared":     nullable(m.Metrics.RSquared),
			"adj_r_squared": nullable(m.Metrics.AdjRSquared),
			"f_statistic":   nullable(m.Metrics.FStatistic),
			"f_p_value":     nullable(m.Metrics.FPValue),
			"aic":           nullable(m.Metrics.AIC),
			"bic":           nullable(m.Metrics.BIC),
			"n_obs":         m.Metrics.NObs,
			"df_resid":      m.Metrics.DfResid,
		},
		"coefficients": coefficients,
		"dropped":      dropped,
	}
}
