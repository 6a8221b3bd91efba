// Package bplus: tree inspection for debugging.
// Dump prints nodes level by level, TreeString draws the hierarchy and
// Stats summarises shape and memory use.

package bplus

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/xlab/treeprint"
)

// Stats summarises the shape of a tree.
type Stats struct {
	Height     int
	InnerNodes int
	Leaves     int
	Entries    int
	Bytes      uint64 // node buffers only
	FillFactor float64
}

func (s Stats) String() string {
	return fmt.Sprintf("height=%d inner=%d leaves=%d entries=%s buffers=%s fill=%.1f%%",
		s.Height, s.InnerNodes, s.Leaves, humanize.Comma(int64(s.Entries)), humanize.IBytes(s.Bytes), s.FillFactor*100)
}

// Stats walks every node reachable from the root.
func (t *BPlusTree) Stats() (Stats, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var st Stats
	slots := 0
	err := t.walk(func(n Node, depth int) {
		st.Bytes += uint64(len(n.Content()))
		if depth+1 > st.Height {
			st.Height = depth + 1
		}
		switch node := n.(type) {
		case *LeafNode:
			st.Leaves++
			st.Entries += node.keyNum
			slots += node.maxKeyNum
		case *InnerNode:
			st.InnerNodes++
		}
	})
	if err != nil {
		return Stats{}, err
	}
	if slots > 0 {
		st.FillFactor = float64(st.Entries) / float64(slots)
	}
	return st, nil
}

// walk visits nodes breadth first.
func (t *BPlusTree) walk(visit func(n Node, depth int)) error {
	queue := []NodeID{t.root}
	for depth := 0; len(queue) > 0; depth++ {
		var next []NodeID
		for _, id := range queue {
			n, err := t.store.Get(id)
			if err != nil {
				return err
			}
			visit(n, depth)
			if inner, ok := n.(*InnerNode); ok {
				next = append(next, inner.Children()...)
			}
		}
		queue = next
	}
	return nil
}

// Dump writes a human-readable, level by level listing of the tree to w.
func (t *BPlusTree) Dump(w io.Writer) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p := func(format string, args ...interface{}) { fmt.Fprintf(w, format, args...) }

	p("Tree: root=%d head=%d entries=%d\n", t.root, t.head, t.size)
	level := -1
	return t.walk(func(n Node, depth int) {
		if depth != level {
			level = depth
			p("  Level %d:\n", depth)
		}
		switch node := n.(type) {
		case *InnerNode:
			keys := make([]string, node.keyNum)
			for i := range keys {
				keys[i] = FormatKey(node.keyAt(i))
			}
			p("    [node %d] INNER keys=[%s] children=%v\n", node.id, strings.Join(keys, " "), node.Children())
		case *LeafNode:
			p("    [node %d] LEAF numKeys=%d next=%d\n", node.id, node.keyNum, node.Next())
			for i := 0; i < node.keyNum; i++ {
				p("      %s -> %s\n", FormatKey(node.keyAt(i)), FormatKey(node.valueAt(i)))
			}
		}
	})
}

// TreeString draws the tree with one branch per child.
func (t *BPlusTree) TreeString() (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tree := treeprint.NewWithRoot(fmt.Sprintf("root %d", t.root))
	if err := t.drawNode(tree, t.root); err != nil {
		return "", err
	}
	return tree.String(), nil
}

func (t *BPlusTree) drawNode(branch treeprint.Tree, id NodeID) error {
	n, err := t.store.Get(id)
	if err != nil {
		return err
	}
	switch node := n.(type) {
	case *LeafNode:
		keys := make([]string, node.keyNum)
		for i := range keys {
			keys[i] = FormatKey(node.keyAt(i))
		}
		branch.AddMetaNode(fmt.Sprintf("leaf %d", node.id), strings.Join(keys, " "))
	case *InnerNode:
		if node.keyNum == 0 {
			return t.drawNode(branch, node.childAt(0))
		}
		for i := 0; i < node.keyNum; i++ {
			sub := branch.AddMetaBranch(fmt.Sprintf("<= %s", FormatKey(node.keyAt(i))), fmt.Sprintf("node %d", node.childAt(i)))
			if err := t.drawNode(sub, node.childAt(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// FormatKey shows printable keys as text, 8-byte keys as integers and
// anything else as hex.
func FormatKey(b []byte) string {
	printable := len(b) > 0 && utf8.Valid(b)
	for _, c := range string(b) {
		if c != 0 && !unicode.IsPrint(c) {
			printable = false
			break
		}
	}
	if printable {
		return fmt.Sprintf("%q", strings.TrimRight(string(b), "\x00"))
	}
	if len(b) == 8 {
		return fmt.Sprintf("%d", binary.BigEndian.Uint64(b))
	}
	return fmt.Sprintf("%x", b)
}
