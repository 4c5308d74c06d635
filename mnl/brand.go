package mnl

import (
	"github.com/jjasonbell/bayes-mktg/statmodel"
)

// SumToZero expands the free brand effects gammaRaw (one per brand after
// the first) to the full vector of brand intercepts.  The first brand
// absorbs the negated sum of the others, so the result sums to zero by
// construction.  The assignment of the residual to the first brand is a
// fixed labeling convention.
func SumToZero(gammaRaw []float64) []float64 {

	gamma := make([]float64, len(gammaRaw)+1)

	var s float64
	for _, g := range gammaRaw {
		s += g
	}
	gamma[0] = -s
	copy(gamma[1:], gammaRaw)

	return gamma
}

// brandContrast returns the sum-to-zero contrast column for brand k
// (1-based, k >= 2): 1 on rows of brand k, -1 on rows of the first brand,
// 0 elsewhere.  With these columns in the design, the coefficient of
// column k is the intercept of brand k, and the first brand's intercept
// is the negated sum of the coefficients.
func brandContrast(brand []int, k, nrow int) []statmodel.Dtype {

	col := make([]statmodel.Dtype, nrow)
	for i, b := range brand {
		switch b {
		case k:
			col[i] = 1
		case 1:
			col[i] = -1
		}
	}

	return col
}

// Coeff returns the estimated covariate coefficients, excluding any brand
// intercepts.
func (rslt *MNLResults) Coeff() []float64 {

	m := rslt.Model().(*MNL)

	return rslt.Params()[0:m.data.nvar]
}

// BrandEffects returns the full vector of estimated brand intercepts,
// expanded with SumToZero so that the effects sum to zero.  Returns nil if
// the model has no brand structure.
func (rslt *MNLResults) BrandEffects() []float64 {

	m := rslt.Model().(*MNL)
	if m.data.nbrand == 0 {
		return nil
	}

	return SumToZero(rslt.Params()[m.data.nvar:])
}
