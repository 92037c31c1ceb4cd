package preprocess

// Thin reduces a mask to a one-pixel-wide skeleton with the Zhang-Suen
// algorithm. The input is left untouched. Each sub-iteration collects its
// deletions before applying them, so the result does not depend on scan
// order.
func Thin(mask *Bitmap) *Bitmap {
	img := mask.Clone()
	deletions := make([]int, 0, 1024)

	for {
		changed := false
		for pass := 0; pass < 2; pass++ {
			deletions = deletions[:0]
			for y := 0; y < img.H; y++ {
				for x := 0; x < img.W; x++ {
					if img.Pix[y*img.W+x] && removable(img, x, y, pass) {
						deletions = append(deletions, y*img.W+x)
					}
				}
			}
			for _, idx := range deletions {
				img.Pix[idx] = false
			}
			if len(deletions) > 0 {
				changed = true
			}
		}
		if !changed {
			return img
		}
	}
}

// removable applies the Zhang-Suen conditions for the given sub-iteration.
func removable(img *Bitmap, x, y, pass int) bool {
	n := img.neighbours(x, y)
	if n < 2 || n > 6 {
		return false
	}
	if img.crossings(x, y) != 1 {
		return false
	}

	p2 := img.At(x, y-1)
	p4 := img.At(x+1, y)
	p6 := img.At(x, y+1)
	p8 := img.At(x-1, y)

	if pass == 0 {
		return !(p2 && p4 && p6) && !(p4 && p6 && p8)
	}
	return !(p2 && p4 && p8) && !(p2 && p6 && p8)
}
