package estree

// Visitor receives enter and leave callbacks during Traverse.
type Visitor interface {
	EnterNode(node *Node)
	LeaveNode(node *Node)
}

// VisitorFuncs adapts a pair of functions to Visitor. Either may be nil.
type VisitorFuncs struct {
	Enter func(node *Node)
	Leave func(node *Node)
}

func (v VisitorFuncs) EnterNode(node *Node) {
	if v.Enter != nil {
		v.Enter(node)
	}
}

func (v VisitorFuncs) LeaveNode(node *Node) {
	if v.Leave != nil {
		v.Leave(node)
	}
}

// Traverse walks the tree rooted at root in document order. Each child's
// Parent is linked before the child is entered.
func Traverse(root *Node, v Visitor) {
	if root == nil {
		return
	}
	walk(root, v)
}

func walk(n *Node, v Visitor) {
	v.EnterNode(n)
	for _, c := range n.Children() {
		c.Parent = n
		walk(c, v)
	}
	v.LeaveNode(n)
}

// Inspect calls fn for every node in document order, stopping descent into a
// subtree when fn returns false.
func Inspect(root *Node, fn func(*Node) bool) {
	if root == nil || !fn(root) {
		return
	}
	for _, c := range root.Children() {
		Inspect(c, fn)
	}
}

// LinkParents sets Parent on every node below root.
func LinkParents(root *Node) {
	Inspect(root, func(n *Node) bool {
		for _, c := range n.Children() {
			c.Parent = n
		}
		return true
	})
}
