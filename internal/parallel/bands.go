package parallel

// Bands splits height pixel rows into up to n contiguous, disjoint
// [start, end) ranges of nearly equal size. Every row belongs to exactly
// one band, so tasks working on separate bands never touch the same pixel.
// It returns fewer than n bands when height < n and nil when height <= 0.
func Bands(height, n int) [][2]int {
	if height <= 0 {
		return nil
	}
	if n <= 0 {
		n = 1
	}
	if n > height {
		n = height
	}

	bands := make([][2]int, 0, n)
	base := height / n
	extra := height % n

	start := 0
	for i := 0; i < n; i++ {
		size := base
		// The first height%n bands take one extra row.
		if i < extra {
			size++
		}
		bands = append(bands, [2]int{start, start + size})
		start += size
	}
	return bands
}
