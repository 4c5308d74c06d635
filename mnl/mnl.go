package mnl

import (
	"fmt"
	"log"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/jjasonbell/bayes-mktg/statmodel"
)

// MNLParameter contains a parameter value for a multinomial logit model.
type MNLParameter struct {
	coeff []float64
}

// GetCoeff returns the array of model coefficients from a parameter value.
func (p *MNLParameter) GetCoeff() []float64 {
	return p.coeff
}

// SetCoeff sets the array of model coefficients for a parameter value.
func (p *MNLParameter) SetCoeff(x []float64) {
	p.coeff = x
}

// Clone returns a deep copy of the parameter value.
func (p *MNLParameter) Clone() statmodel.Parameter {
	q := make([]float64, len(p.coeff))
	copy(q, p.coeff)
	return &MNLParameter{q}
}

// MNL describes a multinomial logit model for discrete choices over ragged
// per-period choice sets.  If the data carry a brand assignment, the model
// includes one sum-to-zero brand intercept per brand, parameterized by the
// free effects of brands 2..B (the first brand absorbs the negated sum, see
// SumToZero).  The parameter vector is the covariate coefficients followed
// by the free brand effects.
type MNL struct {

	// The data to which the model is fit
	data *ChoiceData

	// Utility design columns: the covariate columns, followed by one
	// sum-to-zero contrast column per non-reference brand.
	udat [][]statmodel.Dtype

	// Names of the design columns, in the order of udat.
	unames []string

	// 0-based first row and past-the-end row of each period's block.
	blocks [][2]int

	// The number of observations in each period.
	pobs []float64

	// The number of observations choosing each alternative row.
	rowobs []float64

	// The sum of the design columns over chosen rows, weighted by
	// rowobs.  Constant in the parameters, used by Score.
	sumxc []float64

	// Starting values, optional
	start []float64

	// L2 (ridge) weights for each parameter
	l2wgtMap map[string]float64
	l2wgt    []float64

	// Optimization settings
	optsettings *optimize.Settings

	// Optimization method
	optmethod optimize.Method

	log *log.Logger
}

// MNLConfig defines configuration parameters for a multinomial logit model.
type MNLConfig struct {

	// A logger to which logging information is written
	Log *log.Logger

	// Start contains starting values for the parameter estimates
	Start []float64

	// L2Penalty gives ridge penalty weights by design column name.
	// Brand intercept columns are named "brand=2", "brand=3", etc.
	L2Penalty map[string]float64

	// OptMethod is the Gonum optimization method used to fit the model.
	OptMethod optimize.Method

	// OptSettings configures the Gonum optimization routine.
	OptSettings *optimize.Settings
}

// DefaultMNLConfig returns a default configuration struct for a multinomial
// logit model.
func DefaultMNLConfig() *MNLConfig {

	return &MNLConfig{
		OptMethod: &optimize.BFGS{
			Linesearcher: &optimize.MoreThuente{},
		},
	}
}

// NewMNL returns an MNL value that can be used to fit a multinomial logit
// model to the given choice data.
func NewMNL(data *ChoiceData, config *MNLConfig) (*MNL, error) {

	if config == nil {
		config = DefaultMNLConfig()
	}

	m := &MNL{
		data:        data,
		start:       config.Start,
		l2wgtMap:    config.L2Penalty,
		log:         config.Log,
		optsettings: config.OptSettings,
		optmethod:   config.OptMethod,
	}

	m.init()

	if m.start != nil && len(m.start) != m.NumParams() {
		return nil, &DimensionMismatchError{What: "starting values", Got: len(m.start), Want: m.NumParams()}
	}

	if m.l2wgtMap != nil {
		m.l2wgt = make([]float64, len(m.udat))
		for j, na := range m.unames {
			m.l2wgt[j] = m.l2wgtMap[na]
		}
	}

	return m, nil
}

func (m *MNL) init() {

	cd := m.data

	m.udat = append(m.udat, cd.x...)
	m.unames = append(m.unames, cd.xnames...)

	// One contrast column per non-reference brand.
	for k := 2; k <= cd.nbrand; k++ {
		m.udat = append(m.udat, brandContrast(cd.brand, k, cd.nrow))
		m.unames = append(m.unames, fmt.Sprintf("brand=%d", k))
	}

	m.blocks = make([][2]int, cd.nper)
	for t := range m.blocks {
		i0 := cd.cstart[t] - 1
		m.blocks[t] = [2]int{i0, i0 + cd.csize[t]}
	}

	m.pobs = make([]float64, cd.nper)
	m.rowobs = make([]float64, cd.nrow)
	for i, t := range cd.period {
		m.pobs[t-1]++
		m.rowobs[m.blocks[t-1][0]+cd.y[i]-1]++
	}

	m.sumxc = make([]float64, len(m.udat))
	for j, x := range m.udat {
		for i, w := range m.rowobs {
			if w != 0 {
				m.sumxc[j] += w * float64(x[i])
			}
		}
	}
}

// NumObs returns the number of observations in the data set.
func (m *MNL) NumObs() int {
	return m.data.nobs
}

// NumParams returns the number of model parameters: the covariate
// coefficients plus, if the data carry brands, one free effect per
// non-reference brand.
func (m *MNL) NumParams() int {
	return len(m.udat)
}

// Names returns the names of the model parameters.
func (m *MNL) Names() []string {
	return m.unames
}

func (m *MNL) checkDim(coeff []float64) {
	if len(coeff) != m.NumParams() {
		msg := fmt.Sprintf("mnl: parameter has length %d, but the model has %d parameters.\n",
			len(coeff), m.NumParams())
		panic(msg)
	}
}

// linpred fills lp with the utility of each alternative row at the given
// coefficients.
func (m *MNL) linpred(coeff, lp []float64) {
	for j, x := range m.udat {
		c := coeff[j]
		for i := range x {
			lp[i] += float64(x[i]) * c
		}
	}
}

// LogLike returns the log-likelihood at the given parameter value.  The
// 'exact' parameter is ignored here; the MNL log-likelihood is always
// exact.
func (m *MNL) LogLike(param statmodel.Parameter, exact bool) float64 {

	coeff := param.GetCoeff()
	m.checkDim(coeff)

	lp := make([]float64, m.data.nrow)
	m.linpred(coeff, lp)

	var ll float64
	for t, ix := range m.blocks {

		if m.pobs[t] == 0 {
			continue
		}

		// Log-sum-exp with the block maximum subtracted.  The
		// per-period log-probabilities are invariant to shifting
		// all utilities in the block.
		mx := floats.Max(lp[ix[0]:ix[1]])
		var se float64
		for i := ix[0]; i < ix[1]; i++ {
			se += math.Exp(lp[i] - mx)
			if m.rowobs[i] != 0 {
				ll += m.rowobs[i] * lp[i]
			}
		}
		ll -= m.pobs[t] * (mx + math.Log(se))
	}

	// Account for L2 weights if present.
	if len(m.l2wgt) > 0 {
		for j, x := range coeff {
			ll -= m.l2wgt[j] * x * x
		}
	}

	return ll
}

// Score computes the score vector for the multinomial logit model at the
// given parameter setting.
func (m *MNL) Score(param statmodel.Parameter, score []float64) {

	coeff := param.GetCoeff()
	m.checkDim(coeff)

	copy(score, m.sumxc)

	lp := make([]float64, m.data.nrow)
	m.linpred(coeff, lp)

	for t, ix := range m.blocks {

		if m.pobs[t] == 0 {
			continue
		}

		mx := floats.Max(lp[ix[0]:ix[1]])
		var se float64
		for i := ix[0]; i < ix[1]; i++ {
			lp[i] = math.Exp(lp[i] - mx)
			se += lp[i]
		}

		for j, x := range m.udat {
			var d float64
			for i := ix[0]; i < ix[1]; i++ {
				d += lp[i] * float64(x[i])
			}
			score[j] -= m.pobs[t] * d / se
		}
	}

	// Account for L2 weights if present.
	if len(m.l2wgt) > 0 {
		for j, x := range coeff {
			score[j] -= 2 * m.l2wgt[j] * x
		}
	}
}

// Hessian computes the Hessian matrix for the model evaluated at the given
// parameter setting.  The Hessian type parameter is not used here: the MNL
// Hessian does not involve the observed choices, so the observed and
// expected Hessians coincide.
func (m *MNL) Hessian(param statmodel.Parameter, ht statmodel.HessType, hess []float64) {

	coeff := param.GetCoeff()
	m.checkDim(coeff)

	p := m.NumParams()
	zero(hess)

	lp := make([]float64, m.data.nrow)
	m.linpred(coeff, lp)

	d1 := make([]float64, p)

	for t, ix := range m.blocks {

		if m.pobs[t] == 0 {
			continue
		}

		mx := floats.Max(lp[ix[0]:ix[1]])
		var se float64
		for i := ix[0]; i < ix[1]; i++ {
			lp[i] = math.Exp(lp[i] - mx)
			se += lp[i]
		}

		// Probability-weighted means of the design columns
		zero(d1)
		for j, x := range m.udat {
			for i := ix[0]; i < ix[1]; i++ {
				d1[j] += lp[i] * float64(x[i])
			}
			d1[j] /= se
		}

		for j1 := 0; j1 < p; j1++ {
			x1 := m.udat[j1]
			for j2 := 0; j2 <= j1; j2++ {
				x2 := m.udat[j2]
				var d2 float64
				for i := ix[0]; i < ix[1]; i++ {
					d2 += lp[i] * float64(x1[i]*x2[i])
				}
				d2 /= se
				u := -m.pobs[t] * (d2 - d1[j1]*d1[j2])
				hess[j1*p+j2] += u
				if j1 != j2 {
					hess[j2*p+j1] += u
				}
			}
		}
	}

	// Account for L2 weights if present.
	if len(m.l2wgt) > 0 {
		for j := 0; j < p; j++ {
			hess[j*p+j] -= 2 * m.l2wgt[j]
		}
	}
}

func zero(x []float64) {
	for i := range x {
		x[i] = 0
	}
}

func negative(x []float64) {
	for i := 0; i < len(x); i++ {
		x[i] *= -1
	}
}

// MNLResults describes the results of a fitted multinomial logit model.
type MNLResults struct {
	statmodel.BaseResults
}

// failMessage prints information that can help diagnose optimization failures.
func (m *MNL) failMessage(optrslt *optimize.Result) {

	os.Stderr.WriteString("Current point and gradient:\n")
	for j, x := range optrslt.X {
		os.Stderr.WriteString(fmt.Sprintf("%16.8f %16.8f %s\n", x, optrslt.Gradient[j], m.unames[j]))
	}

	// Get the mean and standard deviation of the design columns.
	mn := make([]float64, len(m.udat))
	sd := make([]float64, len(m.udat))
	for j, x := range m.udat {
		for i := range x {
			mn[j] += float64(x[i])
		}
		mn[j] /= float64(m.data.nrow)
	}
	for j, x := range m.udat {
		for i := range x {
			u := float64(x[i]) - mn[j]
			sd[j] += u * u
		}
		sd[j] /= float64(m.data.nrow)
		sd[j] = math.Sqrt(sd[j])
	}

	os.Stderr.WriteString("\nDesign column means and standard deviations:\n")
	for j, v := range mn {
		os.Stderr.WriteString(fmt.Sprintf("%16.8f %16.8f %s\n", v, sd[j], m.unames[j]))
	}

	os.Stderr.WriteString("\nPeriod    Set_size   Observations\n")
	for t, ix := range m.blocks {
		os.Stderr.WriteString(fmt.Sprintf("%4d    %8d %14.0f\n", t+1, ix[1]-ix[0], m.pobs[t]))
	}
}

// Fit fits the model to the data.
func (m *MNL) Fit() (*MNLResults, error) {

	nvar := m.NumParams()

	if m.start == nil {
		m.start = make([]float64, nvar)
	}

	if m.log != nil {
		m.log.Printf("MNL: fitting %d parameters to %d observations in %d periods\n",
			nvar, m.data.nobs, m.data.nper)
	}

	p := optimize.Problem{
		Func: func(x []float64) float64 {
			return -m.LogLike(&MNLParameter{x}, false)
		},
		Grad: func(grad, x []float64) {
			if len(grad) != len(x) {
				grad = make([]float64, len(x))
			}
			m.Score(&MNLParameter{x}, grad)
			negative(grad)
		},
	}

	if m.optsettings == nil {
		m.optsettings = &optimize.Settings{
			GradientThreshold: 1e-6,
		}
	}

	optrslt, err := optimize.Minimize(p, m.start, m.optsettings, m.optmethod)
	if err != nil {
		if optrslt == nil {
			return nil, err
		}

		// Return partial results with an error
		results := &MNLResults{
			BaseResults: statmodel.NewBaseResults(m, -optrslt.F, optrslt.X, m.unames, nil),
		}
		m.failMessage(optrslt)
		return results, err
	}
	if err = optrslt.Status.Err(); err != nil {
		return nil, err
	}

	param := make([]float64, len(optrslt.X))
	copy(param, optrslt.X)

	ll := -optrslt.F
	vcov, _ := statmodel.GetVcov(m, &MNLParameter{param})

	if m.log != nil {
		m.log.Printf("MNL: converged, log-likelihood %f\n", ll)
	}

	results := &MNLResults{
		BaseResults: statmodel.NewBaseResults(m, ll, param, m.unames, vcov),
	}

	return results, nil
}

// MNLSummary summarizes a fitted multinomial logit model.
type MNLSummary struct {

	// The model
	model *MNL

	// The results structure
	results *MNLResults

	// Messages that are appended to the table
	messages []string
}

// Summary displays a summary table of the model results.
func (rslt *MNLResults) Summary() *MNLSummary {

	model := rslt.Model().(*MNL)

	return &MNLSummary{
		model:   model,
		results: rslt,
	}
}

// String returns a string representation of a summary table for the model.
func (ms *MNLSummary) String() string {

	m := ms.model
	sum := &statmodel.SummaryTable{
		Msg: ms.messages,
	}

	sum.Title = "Multinomial logit analysis"

	sum.Top = append(sum.Top, fmt.Sprintf("  Observations: %8d", m.data.nobs))
	sum.Top = append(sum.Top, fmt.Sprintf("  Periods:      %8d", m.data.nper))
	sum.Top = append(sum.Top, fmt.Sprintf("  Alternatives: %8d", m.data.nrow))
	if m.data.nbrand > 0 {
		sum.Top = append(sum.Top, fmt.Sprintf("  Brands:       %8d", m.data.nbrand))
	}

	fs := func(x interface{}, h string) []string {
		y := x.([]string)
		w := len(h)
		for i := range y {
			if len(y[i]) > w {
				w = len(y[i])
			}
		}
		var z []string
		for i := range y {
			c := fmt.Sprintf("%%-%ds", w)
			z = append(z, fmt.Sprintf(c, y[i]))
		}
		return z
	}

	fn := func(x interface{}, h string) []string {
		y := x.([]float64)
		var s []string
		for i := range y {
			s = append(s, fmt.Sprintf("%10.4f", y[i]))
		}
		return s
	}

	if ms.results.StdErr() != nil {
		sum.ColNames = []string{"Variable   ", "Coefficient", "SE", "LCB", "UCB", "Z-score", "P-value"}
		sum.ColFmt = []statmodel.Fmter{fs, fn, fn, fn, fn, fn, fn}

		var lcb, ucb []float64
		for j := range ms.results.Params() {
			lcb = append(lcb, ms.results.Params()[j]-2*ms.results.StdErr()[j])
			ucb = append(ucb, ms.results.Params()[j]+2*ms.results.StdErr()[j])
		}
		sum.Cols = []interface{}{ms.results.Names(), ms.results.Params(), ms.results.StdErr(),
			lcb, ucb, ms.results.ZScores(), ms.results.PValues()}
	} else {
		sum.ColNames = []string{"Variable   ", "Coefficient"}
		sum.ColFmt = []statmodel.Fmter{fs, fn}
		sum.Cols = []interface{}{ms.results.Names(), ms.results.Params()}
	}

	return sum.String()
}
