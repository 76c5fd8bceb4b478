// Package hdl holds the dialect selector shared by every generator and the small
// amount of text plumbing (literals, remark blocks, body templates) that differs
// between VHDL and Verilog.
package hdl

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Dialect selects the HDL flavour of generated text.
type Dialect int

const (
	// VHDL emits VHDL text. Expressions in port maps need VHDL-2008.
	VHDL Dialect = iota + 1
	// Verilog emits Verilog-2001 text.
	Verilog
)

// ErrUnsupportedDialect is returned for any dialect other than VHDL or Verilog.
var ErrUnsupportedDialect = errors.New("unsupported HDL dialect")

// Dialects lists the supported dialects in a stable order.
var Dialects = []Dialect{VHDL, Verilog}

// ParseDialect maps a case-insensitive dialect name to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vhdl", "vhd":
		return VHDL, nil
	case "verilog", "v":
		return Verilog, nil
	}
	return 0, errors.Wrapf(ErrUnsupportedDialect, "%q", name)
}

// Check reports ErrUnsupportedDialect for the zero value or any unknown dialect.
func (d Dialect) Check() error {
	switch d {
	case VHDL, Verilog:
		return nil
	}
	return errors.Wrapf(ErrUnsupportedDialect, "dialect %d", int(d))
}

func (d Dialect) String() string {
	switch d {
	case VHDL:
		return "vhdl"
	case Verilog:
		return "verilog"
	}
	return "dialect(" + strconv.Itoa(int(d)) + ")"
}

// Extension is the file extension of generated sources, including the dot.
func (d Dialect) Extension() string {
	if d == Verilog {
		return ".v"
	}
	return ".vhd"
}

// CommentPrefix starts a line comment.
func (d Dialect) CommentPrefix() string {
	if d == Verilog {
		return "//"
	}
	return "--"
}

// Bit renders a single-bit literal.
func (d Dialect) Bit(v bool) string {
	switch {
	case d == Verilog && v:
		return "1'b1"
	case d == Verilog:
		return "1'b0"
	case v:
		return "'1'"
	}
	return "'0'"
}

// Vector renders an unsigned constant of the given width. Width 1 renders as a bit.
func (d Dialect) Vector(value uint64, width int) string {
	if width <= 1 {
		return d.Bit(value&1 == 1)
	}
	return d.BitVector(value, width)
}

// BitVector renders an unsigned constant for a vector-typed target. Unlike
// Vector, a width of 1 stays a one-element vector literal.
func (d Dialect) BitVector(value uint64, width int) string {
	width = max(width, 1)
	if d == Verilog {
		return strconv.Itoa(width) + "'d" + strconv.FormatUint(value, 10)
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := width - 1; i >= 0; i-- {
		if i < 64 && value&(1<<uint(i)) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Index renders a bit select of a vector signal.
func (d Dialect) Index(name string, bit int) string {
	if d == Verilog {
		return name + "[" + strconv.Itoa(bit) + "]"
	}
	return name + "(" + strconv.Itoa(bit) + ")"
}

// Open is the actual used for an unconnected output in a port map.
func (d Dialect) Open() string {
	if d == Verilog {
		return ""
	}
	return "OPEN"
}

// Concat joins actuals most-significant first.
func (d Dialect) Concat(parts []string) string {
	if d == Verilog {
		return "{" + strings.Join(parts, ",") + "}"
	}
	return strings.Join(parts, "&")
}
