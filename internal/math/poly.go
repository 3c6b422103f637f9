package math

import "gonum.org/v1/gonum/mat"

// Fit fits the given series of x and y into a polynomial function of the given degree
// out put is a vector with the coefficients of the corresponding powers of x
// c[0] + c[1]x + c[2]x^2 + c[3]x^3 + ...
func Fit(x, y []float64, degree int) ([]float64, error) {
	return Lstsq(vandermonde(x, degree), y)
}

// Lstsq solves the least squares problem a*c = y via QR factorization
// and returns the coefficient vector c.
func Lstsq(a *mat.Dense, y []float64) ([]float64, error) {

	_, cols := a.Dims()
	b := mat.NewDense(len(y), 1, y)
	c := mat.NewDense(cols, 1, nil)

	qr := new(mat.QR)
	qr.Factorize(a)

	err := qr.SolveTo(c, false, b)

	v := c.ColView(0)
	cc := make([]float64, v.Len())
	for i := 0; i < v.Len(); i++ {
		cc[i] = v.AtVec(i)
	}
	return cc, err
}

func vandermonde(a []float64, degree int) *mat.Dense {
	x := mat.NewDense(len(a), degree+1, nil)
	for i := range a {
		for j, p := 0, 1.; j <= degree; j, p = j+1, p*a[i] {
			x.Set(i, j, p)
		}
	}
	return x
}
