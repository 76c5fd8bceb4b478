package portmap

import (
	"strconv"
	"strings"

	"github.com/robert-at-pretension-io/hdl-gen/internal/hdl"
)

// ExprKind tells which variant an Expr holds.
type ExprKind int

const (
	NetRef ExprKind = iota + 1
	BusBit
	Const
	Concat
	Open
)

// Expr is the actual connected to a port. It is kept dialect-neutral until an
// instantiation is rendered.
type Expr struct {
	Kind  ExprKind
	Name  string // net or bus name
	Index int    // bus bit for BusBit
	Value uint64 // Const
	Width int    // Const
	Parts []Expr // Concat, most significant first

	// Vector marks a Const driving a vector-typed port.
	Vector bool
}

func NetExpr(name string) Expr { return Expr{Kind: NetRef, Name: name} }

func BusBitExpr(bus string, index int) Expr { return Expr{Kind: BusBit, Name: bus, Index: index} }

func ConstExpr(value uint64, width int) Expr { return Expr{Kind: Const, Value: value, Width: width} }

// VectorConstExpr is a constant for a vector-typed port of the given width.
func VectorConstExpr(value uint64, width int) Expr {
	return Expr{Kind: Const, Value: value, Width: width, Vector: true}
}

func ConcatExpr(parts ...Expr) Expr { return Expr{Kind: Concat, Parts: parts} }

func OpenExpr() Expr { return Expr{Kind: Open} }

// String is the dialect-neutral form: net names verbatim, bus selects as
// name(index), constants as decimal numbers.
func (e Expr) String() string {
	switch e.Kind {
	case NetRef:
		return e.Name
	case BusBit:
		return e.Name + "(" + strconv.Itoa(e.Index) + ")"
	case Const:
		return strconv.FormatUint(e.Value, 10)
	case Concat:
		parts := make([]string, len(e.Parts))
		for i, p := range e.Parts {
			parts[i] = p.String()
		}
		return strings.Join(parts, "&")
	case Open:
		return "open"
	}
	return ""
}

// Render writes the actual in dialect d.
func (e Expr) Render(d hdl.Dialect) string {
	switch e.Kind {
	case NetRef:
		return e.Name
	case BusBit:
		return d.Index(e.Name, e.Index)
	case Const:
		if e.Vector {
			return d.BitVector(e.Value, e.Width)
		}
		return d.Vector(e.Value, e.Width)
	case Concat:
		parts := make([]string, len(e.Parts))
		for i, p := range e.Parts {
			parts[i] = p.Render(d)
		}
		return d.Concat(parts)
	case Open:
		return d.Open()
	}
	return ""
}

// UsesBus reports whether e selects a bit of any clock bus.
func (e Expr) UsesBus() bool {
	if e.Kind == BusBit {
		return true
	}
	for _, p := range e.Parts {
		if p.UsesBus() {
			return true
		}
	}
	return false
}
