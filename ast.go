package cellgrid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnaryOperator represents prefix operators in AST nodes
type UnaryOperator uint8

const (
	UnaryPlus UnaryOperator = iota
	UnaryMinus
)

func (op UnaryOperator) char() byte {
	if op == UnaryMinus {
		return charMinus
	}
	return charPlus
}

// BinaryOperator represents infix operators in AST nodes
type BinaryOperator uint8

const (
	BinaryAdd BinaryOperator = iota
	BinarySub
	BinaryMul
	BinaryDiv
)

func (op BinaryOperator) char() byte {
	switch op {
	case BinaryAdd:
		return charPlus
	case BinarySub:
		return charMinus
	case BinaryMul:
		return charAsterisk
	default:
		return charSlash
	}
}

// NodeKind tags the variant held by a Node
type NodeKind uint8

const (
	NodeLiteral NodeKind = iota
	NodeCellRef
	NodeParens
	NodeUnary
	NodeBinary
)

// Node is one vertex of a formula tree, a tagged variant over five cases.
// Every traversal (evaluation, expression rebuilding) is a single switch on
// the kind rather than a method set per node type.
type Node struct {
	kind     NodeKind
	literal  string    // NodeLiteral: numeric literal kept as written
	slot     *CellSlot // NodeCellRef: shared position slot, aliased per address
	unaryOp  UnaryOperator
	binaryOp BinaryOperator
	child    *Node // NodeParens content / NodeUnary operand
	lhs      *Node
	rhs      *Node
}

// parenRule says when explicit parentheses around a binary child must
// survive simplification.
type parenRule uint8

const (
	keepAlways parenRule = iota
	keepLeft
	keepRight
	keepNever
)

// indexed by the child's binary operator: a +/- child keeps its
// parentheses under a unary operator, a * or / child does not
var unaryParenRules = [4]parenRule{
	BinaryAdd: keepAlways,
	BinarySub: keepAlways,
	BinaryMul: keepNever,
	BinaryDiv: keepNever,
}

// indexed by [parent op][child op]
var binaryParenRules = [4][4]parenRule{
	BinaryAdd: {BinaryAdd: keepNever, BinarySub: keepNever, BinaryMul: keepNever, BinaryDiv: keepNever},
	BinarySub: {BinaryAdd: keepRight, BinarySub: keepRight, BinaryMul: keepNever, BinaryDiv: keepNever},
	BinaryMul: {BinaryAdd: keepAlways, BinarySub: keepAlways, BinaryMul: keepNever, BinaryDiv: keepNever},
	BinaryDiv: {BinaryAdd: keepAlways, BinarySub: keepAlways, BinaryMul: keepRight, BinaryDiv: keepRight},
}

func newLiteralNode(text string) *Node {
	return &Node{kind: NodeLiteral, literal: text}
}

func newCellNode(slot *CellSlot) *Node {
	return &Node{kind: NodeCellRef, slot: slot}
}

// newParensNode wraps a child in explicit parentheses. Literals, cell
// references, and already-parenthesized children pass through unchanged.
func newParensNode(child *Node) *Node {
	switch child.kind {
	case NodeLiteral, NodeCellRef, NodeParens:
		return child
	}
	return &Node{kind: NodeParens, child: child}
}

func newUnaryNode(op UnaryOperator, child *Node) *Node {
	return &Node{kind: NodeUnary, unaryOp: op, child: simplifyUnaryParens(child)}
}

func newBinaryNode(op BinaryOperator, lhs, rhs *Node) *Node {
	return &Node{
		kind:     NodeBinary,
		binaryOp: op,
		lhs:      simplifyBinaryParens(op, lhs, true),
		rhs:      simplifyBinaryParens(op, rhs, false),
	}
}

// simplifyUnaryParens erases parentheses under a unary operator unless the
// content is a binary +/- whose meaning the operator would change, or
// another unary operator, since the grammar has no doubled prefix operator.
func simplifyUnaryParens(child *Node) *Node {
	if child.kind != NodeParens {
		return child
	}
	if child.child.kind == NodeUnary {
		return child
	}
	if child.child.kind == NodeBinary && unaryParenRules[child.child.binaryOp] == keepAlways {
		return child
	}
	return child.child
}

// simplifyBinaryParens erases parentheses around an operand of a binary
// operator whenever removal cannot change the tree's meaning under normal
// precedence and associativity.
func simplifyBinaryParens(parentOp BinaryOperator, child *Node, left bool) *Node {
	if child.kind != NodeParens {
		return child
	}
	if child.child.kind == NodeBinary {
		switch binaryParenRules[parentOp][child.child.binaryOp] {
		case keepAlways:
			return child
		case keepLeft:
			if left {
				return child
			}
		case keepRight:
			if !left {
				return child
			}
		}
	}
	return child.child
}

// evaluate computes the node's value against a sheet. The result is a
// float64 or a *SpreadsheetError; errors short-circuit outward with the
// left operand winning.
func (n *Node) evaluate(sh *Sheet) Primitive {
	switch n.kind {
	case NodeLiteral:
		value, err := strconv.ParseFloat(n.literal, 64)
		if err != nil {
			return NewSpreadsheetError(ErrorCodeValue, "")
		}
		return value

	case NodeCellRef:
		if n.slot.IsDeleted() {
			return NewSpreadsheetError(ErrorCodeRef, "")
		}
		cell := sh.cellAt(n.slot.Position())
		if cell == nil {
			return 0.0
		}
		switch value := cell.GetValue().(type) {
		case float64:
			return value
		case string:
			if value == "" {
				return 0.0
			}
			parsed, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return NewSpreadsheetError(ErrorCodeValue, "")
			}
			return parsed
		case *SpreadsheetError:
			return value
		default:
			return 0.0
		}

	case NodeParens:
		return n.child.evaluate(sh)

	case NodeUnary:
		value := n.child.evaluate(sh)
		if number, ok := value.(float64); ok {
			if n.unaryOp == UnaryMinus {
				return -number
			}
			return number
		}
		return value

	default: // NodeBinary
		lhs := n.lhs.evaluate(sh)
		if _, isErr := lhs.(*SpreadsheetError); isErr {
			return lhs
		}
		rhs := n.rhs.evaluate(sh)
		if _, isErr := rhs.(*SpreadsheetError); isErr {
			return rhs
		}

		lhsValue, _ := lhs.(float64)
		rhsValue, _ := rhs.(float64)

		var result float64
		switch n.binaryOp {
		case BinaryAdd:
			result = lhsValue + rhsValue
		case BinarySub:
			result = lhsValue - rhsValue
		case BinaryMul:
			result = lhsValue * rhsValue
		default:
			result = lhsValue / rhsValue
		}

		if math.IsInf(result, 0) || math.IsNaN(result) {
			return NewSpreadsheetError(ErrorCodeDiv0, "")
		}
		return result
	}
}

// writeExpression renders the canonical textual form in-order. Parenthesis
// simplification happens at construction, so the output carries only the
// parentheses the tree kept (a parenthesized root such as (1+2) keeps
// them), and re-parsing it rebuilds the same text. The re-parsed tree can
// differ in shape: 1*(2/3) renders as 1*2/3, which parses as (1*2)/3.
func (n *Node) writeExpression(sb *strings.Builder) {
	switch n.kind {
	case NodeLiteral:
		sb.WriteString(n.literal)

	case NodeCellRef:
		if n.slot.IsDeleted() {
			sb.WriteString(ErrorMapper[ErrorCodeRef])
		} else {
			sb.WriteString(n.slot.Position().String())
		}

	case NodeParens:
		sb.WriteByte(charLParen)
		n.child.writeExpression(sb)
		sb.WriteByte(charRParen)

	case NodeUnary:
		sb.WriteByte(n.unaryOp.char())
		n.child.writeExpression(sb)

	default: // NodeBinary
		n.lhs.writeExpression(sb)
		sb.WriteByte(n.binaryOp.char())
		n.rhs.writeExpression(sb)
	}
}

// TreeBuilder assembles a formula tree from a post-order event stream: each
// Add* call pushes a finished node, popping its operands off the stack.
// A parser walking the parse tree bottom-up drives it.
type TreeBuilder struct {
	stack []*Node
	cache *CellRefCache
}

// NewTreeBuilder creates a builder with an empty reference cache
func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{cache: NewCellRefCache()}
}

// AddLiteral pushes a numeric literal, kept as written
func (b *TreeBuilder) AddLiteral(text string) {
	b.push(newLiteralNode(text))
}

// AddCell resolves a cell name to its shared slot and pushes a reference
// leaf. Two references to the same address within one formula share one
// slot. Names beyond the grid limits are rejected.
func (b *TreeBuilder) AddCell(name string) error {
	pos := PositionFromString(name)
	if !pos.IsValid() {
		return fmt.Errorf("cell reference %s is out of range", name)
	}
	b.push(newCellNode(b.cache.GetOrInsert(pos)))
	return nil
}

// AddParens wraps the top of the stack in explicit parentheses
func (b *TreeBuilder) AddParens() {
	b.push(newParensNode(b.pop()))
}

// AddUnaryOp applies a prefix operator to the top of the stack
func (b *TreeBuilder) AddUnaryOp(op UnaryOperator) {
	b.push(newUnaryNode(op, b.pop()))
}

// AddBinaryOp pops rhs then lhs and pushes the combined node
func (b *TreeBuilder) AddBinaryOp(op BinaryOperator) {
	rhs := b.pop()
	lhs := b.pop()
	b.push(newBinaryNode(op, lhs, rhs))
}

// Build finishes construction, handing the root and the reference cache to
// the formula. The stack must hold exactly the root.
func (b *TreeBuilder) Build() *Formula {
	root := b.pop()
	return &Formula{root: root, cache: b.cache}
}

func (b *TreeBuilder) push(n *Node) {
	b.stack = append(b.stack, n)
}

func (b *TreeBuilder) pop() *Node {
	n := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return n
}
