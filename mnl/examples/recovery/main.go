/*
This example simulates weekly panel data with ragged choice sets, fits
multinomial logit models to the simulated data, and plots the recovery of
the generating parameters.

Each week a shopper chooses among 3 to 5 available UPCs, described by a log
price and a display indicator.  Two datasets are generated: one from the
plain MNL model, and one in which each UPC belongs to one of four brands
with sum-to-zero intercepts.  The corresponding model is fit to each
dataset, the summary tables are printed, and a true-versus-estimated
scatter is saved to recovery.pdf.
*/

package main

import (
	"fmt"
	"log"
	"math"
	"os"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/jjasonbell/bayes-mktg/mnl"
	"github.com/jjasonbell/bayes-mktg/statmodel"
)

var (
	rng = rand.New(rand.NewSource(23424))
)

// drawChoice samples a choice from the softmax of the given utilities.
func drawChoice(u []float64) int {

	mx := u[0]
	for _, v := range u {
		if v > mx {
			mx = v
		}
	}

	var s float64
	p := make([]float64, len(u))
	for i, v := range u {
		p[i] = math.Exp(v - mx)
		s += p[i]
	}

	r := s * rng.Float64()
	var c float64
	for i, v := range p {
		c += v
		if r < c {
			return i
		}
	}

	return len(p) - 1
}

// simulate generates nper weekly choice sets and nobs choices from an MNL
// model with the given covariate coefficients.  If gammaRaw is not nil,
// each alternative is assigned one of len(gammaRaw)+1 brands, and the
// sum-to-zero expansion of gammaRaw gives the brand intercepts added to
// the utilities.
func simulate(nper, nobs int, beta, gammaRaw []float64) *mnl.ChoiceData {

	price := distuv.LogNormal{Mu: 0, Sigma: 0.3, Src: rng}
	display := distuv.Bernoulli{P: 0.3, Src: rng}

	var lprice, disp []statmodel.Dtype
	var brand []int
	csize := make([]int, nper)
	cstart := make([]int, nper)

	nrow := 0
	for t := 0; t < nper; t++ {
		cstart[t] = nrow + 1
		csize[t] = 3 + rng.Intn(3)
		for j := 0; j < csize[t]; j++ {
			lprice = append(lprice, statmodel.Dtype(math.Log(price.Rand())))
			disp = append(disp, statmodel.Dtype(display.Rand()))
			brand = append(brand, 1+rng.Intn(len(gammaRaw)+1))
		}
		nrow += csize[t]
	}

	y := make([]int, nobs)
	period := make([]int, nobs)
	for i := 0; i < nobs; i++ {
		t := rng.Intn(nper)
		period[i] = t + 1

		u := make([]float64, csize[t])
		for j := 0; j < csize[t]; j++ {
			m := cstart[t] - 1 + j
			u[j] = beta[0]*float64(lprice[m]) + beta[1]*float64(disp[m])
			if gammaRaw != nil {
				switch b := brand[m]; b {
				case 1:
					for _, g := range gammaRaw {
						u[j] -= g
					}
				default:
					u[j] += gammaRaw[b-2]
				}
			}
		}
		y[i] = 1 + drawChoice(u)
	}

	x := [][]statmodel.Dtype{lprice, disp}
	data, err := mnl.NewChoiceData(x, []string{"lprice", "display"}, y, period, csize, cstart)
	if err != nil {
		panic(err)
	}

	if gammaRaw != nil {
		data, err = data.Brands(brand, len(gammaRaw)+1)
		if err != nil {
			panic(err)
		}
	}

	return data
}

// recoveryPlot saves a scatter of estimated against generating parameter
// values, with the identity line for reference.
func recoveryPlot(truth, est []float64, filename string) {

	p := plot.New()

	p.Title.Text = "Parameter recovery"
	p.X.Label.Text = "Generating value"
	p.Y.Label.Text = "Estimate"

	pts := make(plotter.XYs, len(truth))
	for i := range truth {
		pts[i].X = truth[i]
		pts[i].Y = est[i]
	}

	err := plotutil.AddScatters(p, pts)
	if err != nil {
		panic(err)
	}

	ident := plotter.NewFunction(func(x float64) float64 { return x })
	p.Add(ident)

	err = p.Save(6*vg.Inch, 4*vg.Inch, filename)
	if err != nil {
		panic(err)
	}
}

func main() {

	logger := log.New(os.Stderr, "", log.Ltime)

	beta := []float64{-2, 0.8}

	// Plain model
	data := simulate(200, 2000, beta, nil)

	config := mnl.DefaultMNLConfig()
	config.Log = logger

	model, err := mnl.NewMNL(data, config)
	if err != nil {
		panic(err)
	}
	rslt, err := model.Fit()
	if err != nil {
		panic(err)
	}
	fmt.Printf("%v\n", rslt.Summary())

	// Brand intercept model; gammaRaw gives the free effects of brands
	// 2..4 and brand 1 absorbs the negated sum.
	gammaRaw := []float64{0.5, -0.3, 0.1}
	gamma := mnl.SumToZero(gammaRaw)

	bdata := simulate(200, 2000, beta, gammaRaw)

	bmodel, err := mnl.NewMNL(bdata, config)
	if err != nil {
		panic(err)
	}
	brslt, err := bmodel.Fit()
	if err != nil {
		panic(err)
	}
	fmt.Printf("%v\n", brslt.Summary())

	fmt.Printf("Generating brand effects: %v\n", gamma)
	fmt.Printf("Estimated brand effects:  %v\n", brslt.BrandEffects())

	truth := append(append([]float64{}, beta...), gammaRaw...)
	recoveryPlot(truth, brslt.Params(), "recovery.pdf")
}
