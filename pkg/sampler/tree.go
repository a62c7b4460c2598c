package sampler

// TreeNode is a fixed-fanout node whose child slots start empty.
type TreeNode struct {
	Children []*TreeNode
}

// NewTreeNode allocates a node with fanout nil child slots.
func NewTreeNode(fanout int) *TreeNode {
	return &TreeNode{Children: make([]*TreeNode, fanout)}
}

// RootSet is the list of nodes kept reachable by the sampler. Its length
// never exceeds the clear threshold: an Add that would exceed it first drops
// every held reference at once.
type RootSet struct {
	nodes     []*TreeNode
	threshold int
	clears    int
	peak      int
}

// NewRootSet returns an empty root set with the given clear threshold.
func NewRootSet(threshold int) *RootSet {
	return &RootSet{threshold: threshold}
}

// Add appends n, clearing the set first when the append would push it past
// the threshold. It reports whether a clear happened. With threshold 3 the
// sizes after successive adds are 1, 2, 3, 1, 2: the node that triggers a
// clear is kept, so the size after a clear is 1.
func (r *RootSet) Add(n *TreeNode) bool {
	cleared := false
	if len(r.nodes)+1 > r.threshold {
		r.Clear()
		cleared = true
	}
	r.nodes = append(r.nodes, n)
	if len(r.nodes) > r.peak {
		r.peak = len(r.nodes)
	}
	return cleared
}

// Clear drops all references. The backing array is kept for reuse with its
// slots zeroed so the nodes become unreachable.
func (r *RootSet) Clear() {
	clear(r.nodes)
	r.nodes = r.nodes[:0]
	r.clears++
}

// Len returns the number of held nodes.
func (r *RootSet) Len() int {
	return len(r.nodes)
}

// Clears returns how many times the set was emptied.
func (r *RootSet) Clears() int {
	return r.clears
}

// Peak returns the largest length observed.
func (r *RootSet) Peak() int {
	return r.peak
}
