package stats

// SummaryStatistics describes one numeric column. Values are recomputed
// from the dataset on every request; nothing here is cached.
type SummaryStatistics struct {
	Column   string  `json:"column"`
	Count    int     `json:"count"`   // non-missing observations
	Missing  int     `json:"missing"` // rows - count, always
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"` // sample standard deviation (n-1)
	Min      float64 `json:"min"`
	P5       float64 `json:"p5"`
	P25      float64 `json:"p25"`
	Median   float64 `json:"median"`
	P75      float64 `json:"p75"`
	P95      float64 `json:"p95"`
	Max      float64 `json:"max"`
	Skewness float64 `json:"skewness"` // adjusted Fisher-Pearson
	Kurtosis float64 `json:"kurtosis"` // excess kurtosis, normal = 0
}

// CorrelationResult is the outcome of one X/Y pairing
type CorrelationResult struct {
	X       string  `json:"x"`
	Y       string  `json:"y"`
	R       float64 `json:"r"`       // Pearson correlation, -1..1
	PValue  float64 `json:"p_value"` // two-sided, t distribution with n-2 df
	N       int     `json:"n"`       // pairs after listwise deletion
	Warning string  `json:"warning,omitempty"`
}

// Usable reports whether the pairing produced numbers rather than a warning
func (c CorrelationResult) Usable() bool {
	return c.Warning == ""
}

// Coefficient is one row of a fitted model's coefficient table
type Coefficient struct {
	Term        string  `json:"term"`
	Estimate    float64 `json:"estimate"`
	StdErr      float64 `json:"std_err"`
	TValue      float64 `json:"t_value"`
	PValue      float64 `json:"p_value"`
	CILower     float64 `json:"ci_lower"` // 95% interval
	CIUpper     float64 `json:"ci_upper"`
	Significant bool    `json:"significant"` // p < 0.05
}

// FitMetrics summarizes goodness of fit
type FitMetrics struct {
	RSquared    float64 `json:"r_squared"`
	AdjRSquared float64 `json:"adj_r_squared"`
	FStatistic  float64 `json:"f_statistic"`
	FPValue     float64 `json:"f_p_value"`
	AIC         float64 `json:"aic"`
	BIC         float64 `json:"bic"`
	NObs        int     `json:"n_obs"`
	DfResid     int     `json:"df_resid"`
}

// RegressionModel is the full result of one formula fit. A new fit
// replaces the previous model wholesale; nothing carries over.
type RegressionModel struct {
	Formula      string        `json:"formula"`
	Response     string        `json:"response"`
	Metrics      FitMetrics    `json:"metrics"`
	Coefficients []Coefficient `json:"coefficients"`
	Dropped      []string      `json:"dropped,omitempty"` // collinear terms removed before fitting
	Fitted       []float64     `json:"-"`
	Residuals    []float64     `json:"-"`
}

// Term looks a coefficient up by name
func (m *RegressionModel) Term(name string) (Coefficient, bool) {
	for _, c := range m.Coefficients {
		if c.Term == name {
			return c, true
		}
	}
	return Coefficient{}, false
}
