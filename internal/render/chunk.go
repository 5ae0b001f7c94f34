package render

// Split cuts s into ordered chunks of at most max runes. The split point is
// the last line break before the boundary; with no line break in range the
// cut lands exactly at max. Splitting does not parse tags, so a split can in
// principle fall inside a markup span when a max-sized stretch has no line
// break. Concatenating the chunks reproduces s exactly.
func Split(s string, max int) []string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return []string{s}
	}

	var parts []string
	for len(runes) > max {
		cut := max
		for i := max - 1; i > 0; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	return append(parts, string(runes))
}
