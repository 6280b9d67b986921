package domain

// ScreenSalinity nulls temperature and salinity at every layer whose salinity is
// strictly lower than the salinity of the layer directly above it.
// Comparisons use the unscreened values, top to bottom.
// It returns the indices of the screened layers.
func ScreenSalinity(p Profiles) []int {
	if p.S == nil || p.T == nil {
		return nil
	}
	orig := make([]Value, len(p.S.Values))
	copy(orig, p.S.Values)

	var screened []int
	for z := 1; z < len(orig); z++ {
		if !orig[z].Less(orig[z-1]) {
			continue
		}
		p.S.Values[z] = Missing()
		if z < len(p.T.Values) {
			p.T.Values[z] = Missing()
		}
		screened = append(screened, z)
	}
	return screened
}
