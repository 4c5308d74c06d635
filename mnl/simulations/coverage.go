// +build ignore

/*
This simulation repeatedly generates choice data from a known multinomial
logit model with brand intercepts, fits the model to each replicate, and
reports the coverage of the nominal 95% confidence intervals for every
parameter.  The empirical coverage should be close to 95%.
*/

package main

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jjasonbell/bayes-mktg/mnl"
	"github.com/jjasonbell/bayes-mktg/statmodel"
)

var (
	rng = rand.New(rand.NewSource(85914))
)

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

// simulate generates nper choice sets and nobs choices from an MNL model
// with coefficients beta and brand intercepts given by the sum-to-zero
// expansion of gammaRaw.
func simulate(nper, nobs int, beta, gammaRaw []float64) *mnl.ChoiceData {

	gamma := mnl.SumToZero(gammaRaw)
	nbrand := len(gamma)

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
			brand = append(brand, 1+rng.Intn(nbrand))
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
			u[j] = beta[0]*float64(lprice[m]) + beta[1]*float64(disp[m]) + gamma[brand[m]-1]
		}
		y[i] = 1 + drawChoice(u)
	}

	x := [][]statmodel.Dtype{lprice, disp}
	data, err := mnl.NewChoiceData(x, []string{"lprice", "display"}, y, period, csize, cstart)
	if err != nil {
		panic(err)
	}

	data, err = data.Brands(brand, nbrand)
	if err != nil {
		panic(err)
	}

	return data
}

func main() {

	nrep := 200
	beta := []float64{-2, 0.8}
	gammaRaw := []float64{0.5, -0.3, 0.1}

	truth := append(append([]float64{}, beta...), gammaRaw...)
	covered := make([]int, len(truth))
	fitted := 0

	for r := 0; r < nrep; r++ {

		data := simulate(150, 1500, beta, gammaRaw)

		model, err := mnl.NewMNL(data, nil)
		if err != nil {
			panic(err)
		}

		rslt, err := model.Fit()
		if err != nil {
			continue
		}

		// Fit can succeed without a vcov if the Hessian is singular.
		se := rslt.StdErr()
		if se == nil {
			continue
		}
		fitted++

		est := rslt.Params()
		for j := range truth {
			if math.Abs(est[j]-truth[j]) <= 1.96*se[j] {
				covered[j]++
			}
		}
	}

	names := []string{"lprice", "display", "brand=2", "brand=3", "brand=4"}
	fmt.Printf("%d of %d replicates fit successfully\n\n", fitted, nrep)
	fmt.Printf("Parameter     Truth    Coverage\n")
	for j := range truth {
		fmt.Printf("%-10s %8.3f %11.3f\n", names[j], truth[j], float64(covered[j])/float64(fitted))
	}
}
