package tree

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Write the tree in the Graphviz dot format.
//
// Every node is labeled with its search bookkeeping: terminal (T), visits (V), reward (R) and in search tree (M).
// Nodes holding a payload are filled and list the payload.
// Edges are labeled with their tag bitmask.
func (t *Tree[P]) WriteDot(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("digraph G {\n")
	bw.WriteString("\tsize=\"10,7.5\";\n")
	bw.WriteString("\tratio=fill;\n")
	bw.WriteString("\trotate=90;\n")
	bw.WriteString("\tcenter = \"true\";\n")
	bw.WriteString("\tnode [style=\"filled\",width=.1,height=.1,fontname=\"Terminus\"]\n")
	bw.WriteString("\tedge [arrowsize=.3]\n")

	var zero P
	t.Walk(func(id NodeID, n *Node[P]) bool {
		fmt.Fprintf(bw, "\tn%d [label=\"%d\\n(T=%v,V=%d,R=%g,M=%v", id, id, b2i(n.Search.Terminal), n.Search.Visits, n.Search.Reward, b2i(n.Search.InSearchTree))
		if n.State != zero {
			fmt.Fprintf(bw, ",S=%v)\",shape=diamond,fillcolor=green];\n", n.State)
		} else {
			bw.WriteString(")\",shape=diamond];\n")
		}
		if n.Left.Valid() {
			fmt.Fprintf(bw, "\tn%d -> n%d [label=b%0*b];\n", id, n.Left.Child, t.width, n.Left.Tags)
		}
		if n.Right.Valid() {
			fmt.Fprintf(bw, "\tn%d -> n%d [label=b%0*b];\n", id, n.Right.Child, t.width, n.Right.Tags)
		}
		return true
	})
	bw.WriteString("}\n")
	return bw.Flush()
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Returns the tree in the Newick format.
// Leaves are named by their payload, fork points by their node id.
func (t *Tree[P]) Newick() string {
	if !t.root.Valid() {
		return ";"
	}
	out := strings.Builder{}
	t.newick(&out, t.root.Child)
	out.WriteString(";")
	return out.String()
}

func (t *Tree[P]) newick(out *strings.Builder, id NodeID) {
	n := &t.nodes[id]
	if !n.IsLeaf() {
		out.WriteString("(")
		first := true
		for _, e := range [2]Edge{n.Left, n.Right} {
			if !e.Valid() {
				continue
			}
			if !first {
				out.WriteString(",")
			}
			first = false
			t.newick(out, e.Child)
		}
		out.WriteString(")")
	}
	var zero P
	if n.State != zero {
		out.WriteString(fmt.Sprintf("\"%v\"", n.State))
	} else {
		out.WriteString(fmt.Sprintf("\"n%d\"", id))
	}
}
