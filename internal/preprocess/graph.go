package preprocess

import (
	"image"
	"math"
)

// Path is an ordered run of skeleton pixels.
type Path struct {
	Points []image.Point

	// Closed is true for loops without endpoints or junctions, such as an
	// isolated "o". The last point is adjacent to the first.
	Closed bool
}

// Len returns the number of points.
func (p Path) Len() int {
	return len(p.Points)
}

// At returns the i-th point, wrapping around for closed paths.
func (p Path) At(i int) image.Point {
	n := len(p.Points)
	if p.Closed {
		i = ((i % n) + n) % n
	}
	return p.Points[i]
}

// Junction is a cluster of adjacent branch pixels.
type Junction struct {
	Pixels []image.Point

	// Degree is the number of path ends touching the cluster: 3 where one
	// stroke joins another, 4 or more where strokes cross.
	Degree int
}

// Graph is the topology of a skeleton.
type Graph struct {
	Endpoints []image.Point
	Junctions []Junction
	Paths     []Path
}

// Length returns the total arc length of all paths in pixels.
func (g *Graph) Length() float64 {
	total := 0.0
	for _, p := range g.Paths {
		for i := 1; i < len(p.Points); i++ {
			total += dist(p.Points[i-1], p.Points[i])
		}
		if p.Closed && len(p.Points) > 2 {
			total += dist(p.Points[len(p.Points)-1], p.Points[0])
		}
	}
	return total
}

// Analyze extracts endpoints, junction clusters and ordered paths from a
// one-pixel-wide skeleton. Pixels are visited in scan order, so the result
// is deterministic.
func Analyze(skel *Bitmap) *Graph {
	g := &Graph{}
	node := make([]bool, len(skel.Pix))
	branch := make([]bool, len(skel.Pix))

	for y := 0; y < skel.H; y++ {
		for x := 0; x < skel.W; x++ {
			if !skel.At(x, y) {
				continue
			}
			idx := y*skel.W + x
			switch cn := skel.crossings(x, y); {
			case cn >= 3:
				branch[idx] = true
				node[idx] = true
			case cn <= 1:
				g.Endpoints = append(g.Endpoints, image.Pt(x, y))
				node[idx] = true
			}
		}
	}

	junctions, cluster := clusterJunctions(skel, branch)
	clusterAt := func(p image.Point) int { return cluster[p.Y*skel.W+p.X] }

	for _, path := range tracePaths(skel, node) {
		first, last := clusterAt(path.Points[0]), clusterAt(path.Points[len(path.Points)-1])
		// Short hops between two pixels of one cluster are not branches.
		if first >= 0 && first == last && path.Len() <= 3 {
			continue
		}
		if !path.Closed {
			if first >= 0 {
				junctions[first].Degree++
			}
			if last >= 0 {
				junctions[last].Degree++
			}
		}
		g.Paths = append(g.Paths, path)
	}
	g.Junctions = junctions
	return g
}

// clusterJunctions groups 8-adjacent branch pixels. The returned slice maps
// every pixel to its cluster index, or -1.
func clusterJunctions(skel *Bitmap, branch []bool) ([]Junction, []int) {
	cluster := make([]int, len(branch))
	for i := range cluster {
		cluster[i] = -1
	}
	var out []Junction

	for start := range branch {
		if !branch[start] || cluster[start] >= 0 {
			continue
		}

		id := len(out)
		var pixels []image.Point
		stack := []int{start}
		cluster[start] = id
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			p := image.Pt(idx%skel.W, idx/skel.W)
			pixels = append(pixels, p)
			for _, d := range ring {
				q := p.Add(d)
				if !skel.At(q.X, q.Y) {
					continue
				}
				qi := q.Y*skel.W + q.X
				if branch[qi] && cluster[qi] < 0 {
					cluster[qi] = id
					stack = append(stack, qi)
				}
			}
		}
		out = append(out, Junction{Pixels: pixels})
	}
	return out, cluster
}

// step order prefers 4-neighbours so that staircase corners are walked
// rather than cut.
var steps = [8]image.Point{
	{1, 0}, {0, 1}, {-1, 0}, {0, -1},
	{1, 1}, {-1, 1}, {-1, -1}, {1, -1},
}

// tracePaths walks the skeleton from every node pixel along each unvisited
// branch, then picks up the remaining closed loops.
func tracePaths(skel *Bitmap, node []bool) []Path {
	visited := make([]bool, len(skel.Pix))
	var paths []Path

	isNode := func(p image.Point) bool { return node[p.Y*skel.W+p.X] }
	free := func(p image.Point) bool {
		return skel.At(p.X, p.Y) && !isNode(p) && !visited[p.Y*skel.W+p.X]
	}

	for y := 0; y < skel.H; y++ {
		for x := 0; x < skel.W; x++ {
			start := image.Pt(x, y)
			if !skel.At(x, y) || !isNode(start) {
				continue
			}
			for _, d := range steps {
				first := start.Add(d)
				if !free(first) {
					continue
				}
				pts := walk(skel, start, first, visited, isNode, free)
				paths = append(paths, Path{Points: pts})
			}
		}
	}

	for y := 0; y < skel.H; y++ {
		for x := 0; x < skel.W; x++ {
			p := image.Pt(x, y)
			if !free(p) {
				continue
			}
			visited[y*skel.W+x] = true
			pts := []image.Point{p}
			cur := p
			for {
				next, ok := nextFree(cur, free)
				if !ok {
					break
				}
				visited[next.Y*skel.W+next.X] = true
				pts = append(pts, next)
				cur = next
			}
			closed := len(pts) > 2 && adjacent(pts[0], pts[len(pts)-1])
			paths = append(paths, Path{Points: pts, Closed: closed})
		}
	}
	return paths
}

// walk follows a branch from start through first until it reaches another
// node or runs out of pixels.
func walk(skel *Bitmap, start, first image.Point, visited []bool,
	isNode, free func(image.Point) bool,
) []image.Point {
	pts := []image.Point{start, first}
	visited[first.Y*skel.W+first.X] = true
	cur := first

	for {
		if end, ok := nodeNeighbour(skel, cur, start, len(pts), isNode); ok {
			return append(pts, end)
		}
		next, ok := nextFree(cur, free)
		if !ok {
			return pts
		}
		visited[next.Y*skel.W+next.X] = true
		pts = append(pts, next)
		cur = next
	}
}

// nodeNeighbour finds an adjacent node that ends the current branch. The
// start node only counts once the branch has left its neighbourhood.
func nodeNeighbour(skel *Bitmap, cur, start image.Point, length int, isNode func(image.Point) bool) (image.Point, bool) {
	for _, d := range steps {
		q := cur.Add(d)
		if !skel.At(q.X, q.Y) || !isNode(q) {
			continue
		}
		if q == start && length <= 3 {
			continue
		}
		return q, true
	}
	return image.Point{}, false
}

func nextFree(cur image.Point, free func(image.Point) bool) (image.Point, bool) {
	for _, d := range steps {
		q := cur.Add(d)
		if free(q) {
			return q, true
		}
	}
	return image.Point{}, false
}

func adjacent(a, b image.Point) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1
}

func dist(a, b image.Point) float64 {
	dx, dy := float64(a.X-b.X), float64(a.Y-b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
