package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteTwoStandardSeats(t *testing.T) {
	q := Quote(150, 2)

	assert.Equal(t, 300.0, q.Base)
	assert.Equal(t, 30.0, q.ConvenienceFee)
	// 18% of 330, rounded
	assert.Equal(t, 59.0, q.GST)
	// 5% of 300, rounded
	assert.Equal(t, 15.0, q.EntertainmentTax)
	assert.Equal(t, 404.0, q.Total)
}

func TestQuoteSingleSeat(t *testing.T) {
	q := Quote(150, 1)

	assert.Equal(t, 150.0, q.Base)
	assert.Equal(t, 32.0, q.GST)
	assert.Equal(t, 8.0, q.EntertainmentTax)
	assert.Equal(t, 220.0, q.Total)
}

func TestQuoteDefaultsBasePrice(t *testing.T) {
	assert.Equal(t, Quote(DefaultBasePrice, 3), Quote(0, 3))
	assert.Equal(t, Quote(DefaultBasePrice, 3), Quote(-10, 3))
}

func TestQuoteComponentsSumToTotal(t *testing.T) {
	for _, price := range []float64{99, 150, 175.5, 240, 333} {
		for seats := 1; seats <= 10; seats++ {
			q := Quote(price, seats)
			assert.Equal(t, q.Total, q.Base+q.ConvenienceFee+q.GST+q.EntertainmentTax,
				"price=%v seats=%d", price, seats)
		}
	}
}

func TestDeriveBreakdownRoundTrip(t *testing.T) {
	for _, price := range []float64{120, 150, 200, 350} {
		for seats := 1; seats <= 6; seats++ {
			q := Quote(price, seats)
			d := DeriveBreakdown(q.Total)

			assert.Equal(t, q.Total, d.Total, "price=%v seats=%d", price, seats)
			assert.Equal(t, d.Total, d.Base+d.ConvenienceFee+d.GST+d.EntertainmentTax,
				"derived parts must sum exactly, price=%v seats=%d", price, seats)
		}
	}
}

func TestDeriveBreakdownKnownTotal(t *testing.T) {
	d := DeriveBreakdown(404)

	assert.Equal(t, 300.0, d.Base)
	assert.Equal(t, 59.0, d.GST)
	assert.Equal(t, 15.0, d.EntertainmentTax)
	assert.Equal(t, 404.0, d.Total)
}

func TestDeriveBreakdownZeroTotal(t *testing.T) {
	assert.Equal(t, Breakdown{}, DeriveBreakdown(0))
	assert.Equal(t, Breakdown{}, DeriveBreakdown(-5))
}
