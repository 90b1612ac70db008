package pricing

import "math"

const (
	// DefaultBasePrice is used when a show carries no price of its own.
	DefaultBasePrice = 150.0

	// ConvenienceFee is charged flat per order, not per seat.
	ConvenienceFee = 30.0

	gstRate           = 0.18
	entertainmentRate = 0.05
)

// Breakdown is an order fare split into its components. All values are
// whole rupees; GST and entertainment tax are rounded per component and
// Total is the exact sum of the four parts.
type Breakdown struct {
	Base             float64 `json:"base"`
	ConvenienceFee   float64 `json:"convenience_fee"`
	GST              float64 `json:"gst"`
	EntertainmentTax float64 `json:"entertainment_tax"`
	Total            float64 `json:"total"`
}

// Quote computes the fare for seatCount seats at basePricePerSeat.
// GST applies to base plus convenience fee; entertainment tax applies
// to base only.
func Quote(basePricePerSeat float64, seatCount int) Breakdown {
	if basePricePerSeat <= 0 {
		basePricePerSeat = DefaultBasePrice
	}

	base := basePricePerSeat * float64(seatCount)
	gst := math.Round((base + ConvenienceFee) * gstRate)
	ent := math.Round(base * entertainmentRate)

	return Breakdown{
		Base:             base,
		ConvenienceFee:   ConvenienceFee,
		GST:              gst,
		EntertainmentTax: ent,
		Total:            base + ConvenienceFee + gst + ent,
	}
}

// DeriveBreakdown reconstructs a fare split from a stored total, for
// history views where only the total survived. The base is estimated by
// inverting the quote formula; any rounding drift between the estimate
// and the stored total is absorbed into the base so the parts always
// sum to the total exactly.
func DeriveBreakdown(total float64) Breakdown {
	if total <= 0 {
		return Breakdown{}
	}

	base := math.Round((total - ConvenienceFee*(1+gstRate)) / (1 + gstRate + entertainmentRate))
	if base < 0 {
		base = 0
	}

	gst := math.Round((base + ConvenienceFee) * gstRate)
	ent := math.Round(base * entertainmentRate)
	drift := total - (base + ConvenienceFee + gst + ent)
	base += drift

	return Breakdown{
		Base:             base,
		ConvenienceFee:   ConvenienceFee,
		GST:              gst,
		EntertainmentTax: ent,
		Total:            total,
	}
}
