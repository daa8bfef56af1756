package ui

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"gostat/adapters/tabular"
	"gostat/app"
	"gostat/internal/render"
	"gostat/internal/testkit"
)

func newTestAPI(t *testing.T) *APIServer {
	gin.SetMode(gin.TestMode)
	reader := tabular.NewReader(10 << 20)
	workbench := app.NewWorkbench(reader, render.NewRenderer())
	return NewAPIServer(workbench, NewRegistry())
}

// uploadHousing pushes the sample table through the API and returns the
// dataset id from the response.
func uploadHousing(t *testing.T, s *APIServer) string {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "housing.csv")
	assert.NoError(t, err)
	_, err = part.Write(testkit.NewTestKit().HousingCSV())
	assert.NoError(t, err)
	assert.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dataset", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID      string `json:"id"`
		Rows    int    `json:"rows"`
		Columns int    `json:"columns"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 120, resp.Rows)
	assert.Equal(t, 5, resp.Columns)
	assert.NotEmpty(t, resp.ID)
	return resp.ID
}

func apiGet(s *APIServer, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func apiPostJSON(s *APIServer, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestAPIUploadAndInfo(t *testing.T) {
	s := newTestAPI(t)
	id := uploadHousing(t, s)

	rec := apiGet(s, "/api/dataset/"+id)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "housing.csv", resp["name"])
}

func TestAPIDatasetNotFound(t *testing.T) {
	s := newTestAPI(t)

	rec := apiGet(s, "/api/dataset/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestAPISummarySingleColumn(t *testing.T) {
	s := newTestAPI(t)
	id := uploadHousing(t, s)

	rec := apiGet(s, "/api/dataset/"+id+"/summary?column=price")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "price", resp["column"])
	assert.Equal(t, float64(120), resp["count"])
	mean, ok := resp["mean"].(float64)
	assert.True(t, ok, "mean should be a JSON number")
	assert.Greater(t, mean, 0.0)
}

func TestAPISummaryAllColumns(t *testing.T) {
	s := newTestAPI(t)
	id := uploadHousing(t, s)

	rec := apiGet(s, "/api/dataset/"+id+"/summary")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Columns []map[string]interface{} `json:"columns"`
		Count   int                      `json:"count"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Count)
	assert.Len(t, resp.Columns, 4)
}

func TestAPISummaryUnknownColumn(t *testing.T) {
	s := newTestAPI(t)
	id := uploadHousing(t, s)

	rec := apiGet(s, "/api/dataset/"+id+"/summary?column=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNKNOWN_COLUMN")
}

func TestAPICorrelation(t *testing.T) {
	s := newTestAPI(t)
	id := uploadHousing(t, s)

	rec := apiGet(s, "/api/dataset/"+id+"/correlation?x=area&y=price")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	r, ok := resp["r"].(float64)
	assert.True(t, ok, "r should be a JSON number")
	assert.Greater(t, r, 0.5)
	assert.Greater(t, resp["n"].(float64), 100.0)
}

func TestAPICorrelationMissingParams(t *testing.T) {
	s := newTestAPI(t)
	id := uploadHousing(t, s)

	rec := apiGet(s, "/api/dataset/"+id+"/correlation?x=area")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIFit(t *testing.T) {
	s := newTestAPI(t)
	id := uploadHousing(t, s)

	rec := apiPostJSON(s, "/api/dataset/"+id+"/fit",
		`{"formula": "price ~ area + bedrooms + C(region)"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Response string `json:"response"`
		Metrics  struct {
			RSquared *float64 `json:"r_squared"`
			NObs     int      `json:"n_obs"`
		} `json:"metrics"`
		Coefficients []map[string]interface{} `json:"coefficients"`
		Dropped      []string                 `json:"dropped"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "price", resp.Response)
	assert.NotNil(t, resp.Metrics.RSquared)
	assert.Greater(t, *resp.Metrics.RSquared, 0.8)
	assert.Equal(t, 120, resp.Metrics.NObs)
	// intercept + area + bedrooms + three region dummies
	assert.Len(t, resp.Coefficients, 6)
	assert.Empty(t, resp.Dropped)
}

func TestAPIFitBadFormula(t *testing.T) {
	s := newTestAPI(t)
	id := uploadHousing(t, s)

	rec := apiPostJSON(s, "/api/dataset/"+id+"/fit", `{"formula": "price ~ area +"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORMULA_PARSE")
}

func TestAPIFitMissingFormula(t *testing.T) {
	s := newTestAPI(t)
	id := uploadHousing(t, s)

	rec := apiPostJSON(s, "/api/dataset/"+id+"/fit", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIUploadRejectsUnknownExtension(t *testing.T) {
	s := newTestAPI(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	assert.NoError(t, err)
	_, err = part.Write([]byte("a,b\n1,2\n"))
	assert.NoError(t, err)
	assert.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dataset", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNSUPPORTED_FILE")
}
