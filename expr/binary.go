package expr

import (
	"fmt"
	"math"

	"github.com/gogpu/viz/metadata"
	"github.com/gogpu/viz/shader"
)

type binaryOp uint8

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
	opPow
)

var binaryNames = [...]string{opAdd: "add", opSub: "sub", opMul: "mul", opDiv: "div", opPow: "pow"}

var binarySymbols = [...]string{opAdd: "+", opSub: "-", opMul: "*", opDiv: "/"}

func (op binaryOp) apply(a, b float64) float64 {
	switch op {
	case opAdd:
		return a + b
	case opSub:
		return a - b
	case opMul:
		return a * b
	case opDiv:
		return a / b
	}
	return math.Pow(a, b)
}

// BinaryNode is a numeric operator over two expressions.
type BinaryNode struct {
	base
	op binaryOp
}

// Add returns a + b.
func Add(a, b any) (Node, error) { return newBinary(opAdd, a, b) }

// Sub returns a - b.
func Sub(a, b any) (Node, error) { return newBinary(opSub, a, b) }

// Mul returns a * b.
func Mul(a, b any) (Node, error) { return newBinary(opMul, a, b) }

// Div returns a / b.
func Div(a, b any) (Node, error) { return newBinary(opDiv, a, b) }

// Pow returns a raised to b.
func Pow(a, b any) (Node, error) { return newBinary(opPow, a, b) }

// newBinary folds two number literals into one.
func newBinary(op binaryOp, a, b any) (Node, error) {
	name := binaryNames[op]
	x, err := coerceArg(name, 0, a)
	if err != nil {
		return nil, err
	}
	y, err := coerceArg(name, 1, b)
	if err != nil {
		return nil, err
	}
	nx, okx := x.(*NumberNode)
	ny, oky := y.(*NumberNode)
	if okx && oky {
		return Number(op.apply(nx.value, ny.value)), nil
	}
	return &BinaryNode{base: base{children: []Node{x, y}}, op: op}, nil
}

func (n *BinaryNode) Type() Type { return TypeNumber }

func (n *BinaryNode) Bind(md *metadata.Metadata) error {
	if n.bound(md) {
		return nil
	}
	if err := n.bindChildren(md); err != nil {
		return err
	}
	name := binaryNames[n.op]
	if err := checkType(name, "a", 0, n.children[0], TypeNumber); err != nil {
		return err
	}
	if err := checkType(name, "b", 1, n.children[1], TypeNumber); err != nil {
		return err
	}
	n.md = md
	return nil
}

func (n *BinaryNode) Eval(f Feature) (any, error) {
	a, err := evalFloat(n.children[0], f)
	if err != nil {
		return nil, err
	}
	b, err := evalFloat(n.children[1], f)
	if err != nil {
		return nil, err
	}
	return n.op.apply(a, b), nil
}

func (n *BinaryNode) ShaderSource(a *shader.Allocator) (shader.Source, error) {
	x, err := n.children[0].ShaderSource(a)
	if err != nil {
		return shader.Source{}, err
	}
	y, err := n.children[1].ShaderSource(a)
	if err != nil {
		return shader.Source{}, err
	}
	var inline string
	if n.op == opPow {
		inline = fmt.Sprintf("pow(%s, %s)", x.Inline, y.Inline)
	} else {
		inline = fmt.Sprintf("(%s %s %s)", x.Inline, binarySymbols[n.op], y.Inline)
	}
	return shader.Source{Preface: shader.Join(x, y), Inline: inline}, nil
}

func (n *BinaryNode) String() string {
	return fmt.Sprintf("%s(%s, %s)", binaryNames[n.op], n.children[0], n.children[1])
}

// evalFloat evaluates a numeric node.
func evalFloat(n Node, f Feature) (float64, error) {
	v, err := n.Eval(f)
	if err != nil {
		return 0, err
	}
	x, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s evaluated to %T, want number", ErrType, n, v)
	}
	return x, nil
}
