package statmodel

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

// A mock model with a quadratic log-likelihood, for testing.  The Hessian is
// diagonal with constant curvature, so the sampling covariance matrix has a
// closed form.
type mock struct {
	curv []float64
	nobs int
}

func (m *mock) NumParams() int {
	return len(m.curv)
}

func (m *mock) NumObs() int {
	return m.nobs
}

func (m *mock) LogLike(params Parameter, exact bool) float64 {
	var ll float64
	for j, c := range params.GetCoeff() {
		ll -= m.curv[j] * c * c / 2
	}
	return ll
}

func (m *mock) Score(params Parameter, score []float64) {
	for j, c := range params.GetCoeff() {
		score[j] = -m.curv[j] * c
	}
}

func (m *mock) Hessian(params Parameter, ht HessType, hess []float64) {
	p := len(m.curv)
	for i := range hess {
		hess[i] = 0
	}
	for j, c := range m.curv {
		hess[j*p+j] = -c
	}
}

func TestGetVcov(t *testing.T) {

	model := &mock{curv: []float64{4, 0.25}, nobs: 10}
	par := &GenericParameter{params: []float64{0, 0}}

	vcov, err := GetVcov(model, par)
	if err != nil {
		t.Fatal(err)
	}

	expected := []float64{0.25, 0, 0, 4}
	if !floats.EqualApprox(vcov, expected, 1e-10) {
		t.Errorf("vcov: got %v, expected %v", vcov, expected)
	}
}

func TestBaseResults(t *testing.T) {

	model := &mock{curv: []float64{4, 0.25}, nobs: 10}
	params := []float64{1, -2}
	vcov := []float64{0.25, 0, 0, 4}

	r := NewBaseResults(model, -3.5, params, []string{"x1", "x2"}, vcov)

	if !floats.Equal(r.Params(), params) {
		t.Fail()
	}
	if r.LogLike() != -3.5 {
		t.Fail()
	}

	se := []float64{0.5, 2}
	if !floats.EqualApprox(r.StdErr(), se, 1e-10) {
		t.Errorf("stderr: got %v, expected %v", r.StdErr(), se)
	}

	zs := []float64{2, -1}
	if !floats.EqualApprox(r.ZScores(), zs, 1e-10) {
		t.Errorf("zscores: got %v, expected %v", r.ZScores(), zs)
	}

	pv := r.PValues()
	for i, z := range zs {
		q := 2 * normcdf(-math.Abs(z))
		if math.Abs(pv[i]-q) > 1e-10 {
			t.Errorf("pvalue %d: got %v, expected %v", i, pv[i], q)
		}
	}
}

func TestNoVcov(t *testing.T) {

	model := &mock{curv: []float64{1}, nobs: 5}
	r := NewBaseResults(model, 0, []float64{1}, []string{"x"}, nil)

	if r.StdErr() != nil || r.ZScores() != nil || r.PValues() != nil {
		t.Fail()
	}
}

func TestGenericParameter(t *testing.T) {

	gp := &GenericParameter{params: []float64{1, 2}}
	q := gp.Clone()
	q.SetCoeff([]float64{3, 4})

	if !floats.Equal(gp.GetCoeff(), []float64{1, 2}) {
		t.Fail()
	}
	if !floats.Equal(q.GetCoeff(), []float64{3, 4}) {
		t.Fail()
	}
}
