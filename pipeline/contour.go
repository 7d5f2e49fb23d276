package pipeline

import (
	"image"
	"sort"

	"gocv.io/x/gocv"
)

// Contour is a closed polygon traced around a connected region.
type Contour []image.Point

// Area is the enclosed area of c.
func (c Contour) Area() float64 {
	if len(c) == 0 {
		return 0
	}

	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()

	return gocv.ContourArea(pv)
}

// Perimeter is the length of the closed boundary of c.
func (c Contour) Perimeter() float64 {
	if len(c) < 2 {
		return 0
	}

	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()

	return gocv.ArcLength(pv, true)
}

// Node is one contour in a containment forest.
type Node struct {
	Contour  Contour
	Parent   *Node
	Children []*Node
}

// TopLevel reports whether n is an outermost boundary.
func (n *Node) TopLevel() bool {
	return n.Parent == nil
}

// Forest is every contour found in a mask, linked by containment.
type Forest struct {
	Nodes []*Node
}

// Roots returns the top-level nodes in trace order.
func (f Forest) Roots() []*Node {
	roots := make([]*Node, 0)
	for _, n := range f.Nodes {
		if n.TopLevel() {
			roots = append(roots, n)
		}
	}

	return roots
}

// FindForest traces every boundary in mask and links them by containment.
func FindForest(mask gocv.Mat, method gocv.ContourApproximationMode) Forest {
	hierarchy := gocv.NewMat()
	defer hierarchy.Close()

	contours := gocv.FindContoursWithParams(mask, &hierarchy, gocv.RetrievalTree, method)
	defer contours.Close()

	nodes := make([]*Node, contours.Size())
	for i := range nodes {
		nodes[i] = &Node{Contour: contours.At(i).ToPoints()}
	}

	// each hierarchy entry is (next, previous, first child, parent)
	for i, n := range nodes {
		parent := int(hierarchy.GetVeciAt(0, i)[3])
		if parent < 0 || parent >= len(nodes) {
			continue
		}

		n.Parent = nodes[parent]
		nodes[parent].Children = append(nodes[parent].Children, n)
	}

	return Forest{Nodes: nodes}
}

type areaContour struct {
	contour Contour
	area    float64
}

type sortableContours []areaContour

func (s sortableContours) Len() int           { return len(s) }
func (s sortableContours) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s sortableContours) Less(i, j int) bool { return s[i].area < s[j].area }

// SignificantContours returns the top-level contours of mask whose area is
// strictly greater than fraction of the mask area, smallest first.
func SignificantContours(mask gocv.Mat, fraction float64, method gocv.ContourApproximationMode) []Contour {
	if mask.Empty() {
		return []Contour{}
	}

	return significant(FindForest(mask, method), fraction*float64(mask.Rows()*mask.Cols()))
}

func significant(forest Forest, minArea float64) []Contour {
	filtered := make(sortableContours, 0)
	for _, n := range forest.Roots() {
		area := n.Contour.Area()
		if area <= minArea {
			continue
		}

		filtered = append(filtered, areaContour{contour: n.Contour, area: area})
	}

	sort.Stable(filtered)

	contours := make([]Contour, len(filtered))
	for i, f := range filtered {
		contours[i] = f.contour
	}

	return contours
}
