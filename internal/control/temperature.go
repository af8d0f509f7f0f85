package control

// Temperature mapping endpoints: the sensor spans -10C at 10% of vref to
// 300C at 90% of vref, linear in between.
const (
	tempMinC = -10.0
	tempMaxC = 300.0
)

// MapTemperature converts filtered millivolts to degrees Celsius, clamped
// at the span endpoints.
func MapTemperature(vrefMV, signalMV float64) float64 {
	low := 0.10 * vrefMV
	high := 0.90 * vrefMV

	if signalMV <= low {
		return tempMinC
	}
	if signalMV >= high {
		return tempMaxC
	}
	return tempMinC + (signalMV-low)/(0.80*vrefMV)*(tempMaxC-tempMinC)
}
