package mnl

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"github.com/jjasonbell/bayes-mktg/statmodel"
)

// Two periods, three brands, one covariate.
func branddata1() *ChoiceData {

	x := [][]statmodel.Dtype{
		{1, 0, -1, 2, 1, 0},
	}

	y := []int{1, 3, 2, 1, 3, 2, 1}
	period := []int{1, 1, 1, 2, 2, 2, 2}

	cd, err := NewChoiceData(x, []string{"x"}, y, period, []int{3, 3}, []int{1, 4})
	if err != nil {
		panic(err)
	}

	cd, err = cd.Brands([]int{1, 2, 3, 2, 1, 3}, 3)
	if err != nil {
		panic(err)
	}

	return cd
}

func TestSumToZero(t *testing.T) {

	gamma := SumToZero([]float64{2})
	if !floats.Equal(gamma, []float64{-2, 2}) {
		t.Errorf("got %v, expected [-2 2]", gamma)
	}
	if gamma[0]+gamma[1] != 0 {
		t.Errorf("sum is %v, expected exactly 0", gamma[0]+gamma[1])
	}

	rng := rand.New(rand.NewSource(3923))
	for k := 0; k < 10; k++ {
		raw := make([]float64, 1+rng.Intn(8))
		for i := range raw {
			raw[i] = rng.NormFloat64()
		}
		gamma := SumToZero(raw)
		if len(gamma) != len(raw)+1 {
			t.Fail()
		}
		if math.Abs(floats.Sum(gamma)) > 1e-9 {
			t.Errorf("sum is %v", floats.Sum(gamma))
		}
	}
}

// With no covariate effect, the brand model's likelihood has a closed form.
func TestBrandIntercept(t *testing.T) {

	x := [][]statmodel.Dtype{
		{0, 0},
	}
	cd, err := NewChoiceData(x, []string{"x"}, []int{1}, []int{1}, []int{2}, []int{1})
	if err != nil {
		t.Fatal(err)
	}
	cd, err = cd.Brands([]int{1, 2}, 2)
	if err != nil {
		t.Fatal(err)
	}

	m, err := NewMNL(cd, nil)
	if err != nil {
		t.Fatal(err)
	}

	if m.NumParams() != 2 {
		t.Errorf("numparams: got %d, expected 2", m.NumParams())
	}

	// beta = 0, gammaRaw = [g]: the utilities are [-g, g].
	g := 0.5
	ll := m.LogLike(&MNLParameter{[]float64{0, g}}, true)
	expected := -g - math.Log(math.Exp(-g)+math.Exp(g))
	if math.Abs(ll-expected) > 1e-12 {
		t.Errorf("loglike: got %v, expected %v", ll, expected)
	}
}

// The brand model is the plain model on a design augmented with the
// sum-to-zero contrast columns.
func TestBrandContrastEquivalence(t *testing.T) {

	bd := branddata1()
	mb, err := NewMNL(bd, nil)
	if err != nil {
		t.Fatal(err)
	}

	// The same layout with the brand contrasts written out by hand as
	// ordinary covariates.  Brands are [1 2 3 2 1 3].
	x := [][]statmodel.Dtype{
		{1, 0, -1, 2, 1, 0},
		{-1, 1, 0, 1, -1, 0},
		{-1, 0, 1, 0, -1, 1},
	}
	cd, err := NewChoiceData(x, []string{"x", "c2", "c3"}, []int{1, 3, 2, 1, 3, 2, 1},
		[]int{1, 1, 1, 2, 2, 2, 2}, []int{3, 3}, []int{1, 4})
	if err != nil {
		t.Fatal(err)
	}
	mp, err := NewMNL(cd, nil)
	if err != nil {
		t.Fatal(err)
	}

	params := [][]float64{
		{0, 0, 0},
		{1, 0.5, -0.5},
		{-0.5, 1, 2},
	}

	score1 := make([]float64, 3)
	score2 := make([]float64, 3)
	hess1 := make([]float64, 9)
	hess2 := make([]float64, 9)

	for _, pv := range params {
		p1 := &MNLParameter{pv}
		if math.Abs(mb.LogLike(p1, true)-mp.LogLike(p1, true)) > 1e-10 {
			t.Errorf("loglike mismatch at %v", pv)
		}
		mb.Score(p1, score1)
		mp.Score(p1, score2)
		if !floats.EqualApprox(score1, score2, 1e-10) {
			t.Errorf("score mismatch at %v", pv)
		}
		mb.Hessian(p1, statmodel.ObsHess, hess1)
		mp.Hessian(p1, statmodel.ObsHess, hess2)
		if !floats.EqualApprox(hess1, hess2, 1e-10) {
			t.Errorf("hessian mismatch at %v", pv)
		}
	}
}

func TestBrandFit(t *testing.T) {

	m, err := NewMNL(branddata1(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if m.NumParams() != 3 {
		t.Errorf("numparams: got %d, expected 3", m.NumParams())
	}

	rslt, err := m.Fit()
	if err != nil {
		t.Fatal(err)
	}

	if len(rslt.Coeff()) != 1 {
		t.Errorf("coeff: got length %d, expected 1", len(rslt.Coeff()))
	}

	gamma := rslt.BrandEffects()
	if len(gamma) != 3 {
		t.Errorf("brand effects: got length %d, expected 3", len(gamma))
	}
	if math.Abs(floats.Sum(gamma)) > 1e-9 {
		t.Errorf("brand effects sum to %v", floats.Sum(gamma))
	}

	// The score vanishes at the optimum.
	score := make([]float64, 3)
	m.Score(&MNLParameter{rslt.Params()}, score)
	for j, s := range score {
		if math.Abs(s) > 1e-4 {
			t.Errorf("score[%d] = %v at the optimum", j, s)
		}
	}
}

// A model with no brand structure reports no brand effects.
func TestNoBrandEffects(t *testing.T) {

	m, err := NewMNL(data4(), nil)
	if err != nil {
		t.Fatal(err)
	}

	rslt, err := m.Fit()
	if err != nil {
		t.Fatal(err)
	}

	if rslt.BrandEffects() != nil {
		t.Fail()
	}
	if len(rslt.Coeff()) != 2 {
		t.Fail()
	}
}
