package geo

// ConvertDMS turns degrees/minutes/seconds plus a direction letter into signed
// decimal degrees. Only "S" and "W" negate; any other direction, including an
// empty or unknown one, leaves the value as is. Input ranges are not checked.
func ConvertDMS(degrees, minutes, seconds float64, direction string) float64 {
	dd := degrees + minutes/60 + seconds/(60*60)

	if direction == "S" || direction == "W" {
		dd = dd * -1
	} // N, E and anything else pass through
	return dd
}
