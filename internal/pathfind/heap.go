package pathfind

type openNode struct {
	idx int
	f   float64
	g   float64
	seq int
}

func (a openNode) less(b openNode) bool {
	if a.f != b.f {
		return a.f < b.f
	}
	return a.seq < b.seq
}

// nodeHeap is a binary min-heap ordered by f, then by push order so equal
// scores expand first-in first-out.
type nodeHeap struct {
	nodes []openNode
}

func (h *nodeHeap) reset() {
	h.nodes = h.nodes[:0]
}

func (h *nodeHeap) len() int {
	return len(h.nodes)
}

func (h *nodeHeap) push(n openNode) {
	h.nodes = append(h.nodes, n)
	i := len(h.nodes) - 1
	for i > 0 {
		p := (i - 1) / 2
		if !n.less(h.nodes[p]) {
			break
		}
		h.nodes[i] = h.nodes[p]
		i = p
	}
	h.nodes[i] = n
}

func (h *nodeHeap) pop() (openNode, bool) {
	if len(h.nodes) == 0 {
		return openNode{}, false
	}
	top := h.nodes[0]
	last := h.nodes[len(h.nodes)-1]
	h.nodes = h.nodes[:len(h.nodes)-1]
	if len(h.nodes) == 0 {
		return top, true
	}
	i := 0
	for {
		left := 2*i + 1
		right := left + 1
		if left >= len(h.nodes) {
			break
		}
		smallest := left
		if right < len(h.nodes) && h.nodes[right].less(h.nodes[left]) {
			smallest = right
		}
		if !h.nodes[smallest].less(last) {
			break
		}
		h.nodes[i] = h.nodes[smallest]
		i = smallest
	}
	h.nodes[i] = last
	return top, true
}
