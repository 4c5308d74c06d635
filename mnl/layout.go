package mnl

import (
	"fmt"

	"github.com/jjasonbell/bayes-mktg/statmodel"
)

// InvalidLayoutError indicates that the choice data violates a structural
// invariant, e.g. the per-period choice-set sizes do not sum to the number
// of alternative rows.
type InvalidLayoutError struct {
	Msg string
}

func (e *InvalidLayoutError) Error() string {
	return "mnl: invalid layout: " + e.Msg
}

// IndexOutOfRangeError indicates that an index variable in the choice data
// holds a value outside its valid range.
type IndexOutOfRangeError struct {

	// The name of the index variable
	Var string

	// The position of the offending value within the variable
	Pos int

	// The offending value and the closed range of valid values
	Value, Lo, Hi int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("mnl: %s[%d] = %d is outside the valid range [%d, %d]",
		e.Var, e.Pos, e.Value, e.Lo, e.Hi)
}

// DimensionMismatchError indicates that an array has a length inconsistent
// with the declared dimensions of the choice data.
type DimensionMismatchError struct {
	What      string
	Got, Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("mnl: %s has length %d, expected %d", e.What, e.Got, e.Want)
}

// ChoiceData holds the data for a discrete choice model in a flattened
// ragged layout.  Each period owns a contiguous block of rows of the
// covariate columns, holding one row per alternative available in that
// period.  Each observation is one realized choice, referencing a period
// and an alternative local to that period's block.
//
// A ChoiceData is immutable once constructed; models read it but never
// modify it.
type ChoiceData struct {

	// Covariate columns, each with one entry per alternative row.
	x [][]statmodel.Dtype

	// Names of the covariate columns.
	xnames []string

	// The chosen alternative for each observation, 1-based within the
	// observation's period block.
	y []int

	// The period of each observation, 1-based.
	period []int

	// The choice-set size of each period.
	csize []int

	// The 1-based first row of each period's block.
	cstart []int

	// The brand of each alternative row, 1-based; nil if the layout
	// has no brand structure.
	brand  []int
	nbrand int

	nobs, nrow, nvar, nper int
}

// NewChoiceData validates the given flattened choice-set layout and returns
// it as a ChoiceData.  The covariate columns x must all have the same
// length, the per-period sizes csize must be at least 2 and sum to the
// column length, each period block identified by cstart and csize must lie
// within the columns, and every observation must reference a valid period
// and an alternative within that period's choice set.
func NewChoiceData(x [][]statmodel.Dtype, xnames []string, y, period, csize, cstart []int) (*ChoiceData, error) {

	if len(x) == 0 {
		return nil, &InvalidLayoutError{Msg: "no covariate columns"}
	}
	if len(xnames) != len(x) {
		return nil, &DimensionMismatchError{What: "xnames", Got: len(xnames), Want: len(x)}
	}

	nrow := len(x[0])
	if nrow == 0 {
		return nil, &InvalidLayoutError{Msg: "covariate columns are empty"}
	}
	for j, col := range x {
		if len(col) != nrow {
			what := fmt.Sprintf("covariate column '%s'", xnames[j])
			return nil, &DimensionMismatchError{What: what, Got: len(col), Want: nrow}
		}
	}

	nper := len(csize)
	if nper == 0 {
		return nil, &InvalidLayoutError{Msg: "no periods"}
	}
	if len(cstart) != nper {
		return nil, &DimensionMismatchError{What: "cstart", Got: len(cstart), Want: nper}
	}

	var tot int
	for t, j := range csize {
		if j < 2 {
			msg := fmt.Sprintf("period %d has choice-set size %d, must be at least 2", t+1, j)
			return nil, &InvalidLayoutError{Msg: msg}
		}
		tot += j
	}
	if tot != nrow {
		msg := fmt.Sprintf("choice-set sizes sum to %d, but there are %d alternative rows", tot, nrow)
		return nil, &InvalidLayoutError{Msg: msg}
	}

	for t, s := range cstart {
		if s < 1 || s > nrow {
			return nil, &IndexOutOfRangeError{Var: "cstart", Pos: t, Value: s, Lo: 1, Hi: nrow}
		}
		if s+csize[t]-1 > nrow {
			msg := fmt.Sprintf("period %d block [%d, %d] extends past row %d",
				t+1, s, s+csize[t]-1, nrow)
			return nil, &InvalidLayoutError{Msg: msg}
		}
	}

	nobs := len(y)
	if nobs == 0 {
		return nil, &InvalidLayoutError{Msg: "no observations"}
	}
	if len(period) != nobs {
		return nil, &DimensionMismatchError{What: "period", Got: len(period), Want: nobs}
	}

	for i, t := range period {
		if t < 1 || t > nper {
			return nil, &IndexOutOfRangeError{Var: "period", Pos: i, Value: t, Lo: 1, Hi: nper}
		}
		if y[i] < 1 || y[i] > csize[t-1] {
			return nil, &IndexOutOfRangeError{Var: "y", Pos: i, Value: y[i], Lo: 1, Hi: csize[t-1]}
		}
	}

	return &ChoiceData{
		x:      x,
		xnames: xnames,
		y:      y,
		period: period,
		csize:  csize,
		cstart: cstart,
		nobs:   nobs,
		nrow:   nrow,
		nvar:   len(x),
		nper:   nper,
	}, nil
}

// Brands returns a copy of the layout with a brand assignment attached;
// the receiver is not modified.  brand gives the 1-based brand of each
// alternative row, and nbrand is the number of brands.  Models built from
// the resulting data include one sum-to-zero intercept per brand.  Every
// brand index must lie in [1, nbrand]; it is not required that every
// brand be used.
func (cd *ChoiceData) Brands(brand []int, nbrand int) (*ChoiceData, error) {

	if nbrand < 1 {
		msg := fmt.Sprintf("number of brands is %d, must be positive", nbrand)
		return nil, &InvalidLayoutError{Msg: msg}
	}
	if len(brand) != cd.nrow {
		return nil, &DimensionMismatchError{What: "brand", Got: len(brand), Want: cd.nrow}
	}
	for m, b := range brand {
		if b < 1 || b > nbrand {
			return nil, &IndexOutOfRangeError{Var: "brand", Pos: m, Value: b, Lo: 1, Hi: nbrand}
		}
	}

	cdb := *cd
	cdb.brand = brand
	cdb.nbrand = nbrand

	return &cdb, nil
}

// NumObs returns the number of observations (realized choices).
func (cd *ChoiceData) NumObs() int {
	return cd.nobs
}

// NumRows returns the total number of alternative rows across all periods.
func (cd *ChoiceData) NumRows() int {
	return cd.nrow
}

// NumVar returns the number of covariates.
func (cd *ChoiceData) NumVar() int {
	return cd.nvar
}

// NumPeriods returns the number of periods.
func (cd *ChoiceData) NumPeriods() int {
	return cd.nper
}

// NumBrands returns the number of brands, or 0 if the layout has no brand
// structure.
func (cd *ChoiceData) NumBrands() int {
	return cd.nbrand
}

// Names returns the covariate names.
func (cd *ChoiceData) Names() []string {
	return cd.xnames
}
