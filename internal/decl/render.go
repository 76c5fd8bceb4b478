package decl

import (
	"fmt"
	"strings"

	"github.com/robert-at-pretension-io/hdl-gen/internal/hdl"
)

const architectureName = "platformIndependent"

// Render produces the complete module text for a component type: library
// clauses, entity or module header, internal signals and the body. The text
// depends only on the declarations, the dialect and body, never on instance
// attributes, so one module serves every instance of the type.
func Render(d hdl.Dialect, name string, s *Set, body string) (string, error) {
	if err := d.Check(); err != nil {
		return "", err
	}
	var b strings.Builder
	if d == hdl.VHDL {
		renderVHDL(&b, name, s, body)
	} else {
		renderVerilog(&b, name, s, body)
	}
	return b.String(), nil
}

func split(ports []Port) (in, out []Port) {
	for _, p := range ports {
		if p.Dir == Output {
			out = append(out, p)
		} else {
			in = append(in, p)
		}
	}
	return in, out
}

func longest(names ...[]string) int {
	n := 0
	for _, list := range names {
		for _, s := range list {
			n = max(n, len(s))
		}
	}
	return n
}

func vhdlType(w Width) string {
	switch {
	case w.Param != "":
		return fmt.Sprintf("std_logic_vector( %s - 1 DOWNTO 0 )", w.Param)
	case !w.IsVector():
		return "std_logic"
	}
	return fmt.Sprintf("std_logic_vector( %d DOWNTO 0 )", w.Bits-1)
}

func verilogRange(w Width) string {
	switch {
	case w.Param != "":
		return fmt.Sprintf("[%s-1:0] ", w.Param)
	case !w.IsVector():
		return ""
	}
	return fmt.Sprintf("[%d:0] ", w.Bits-1)
}

func renderVHDL(b *strings.Builder, name string, s *Set, body string) {
	b.WriteString("LIBRARY ieee;\nUSE ieee.std_logic_1164.all;\nUSE ieee.numeric_std.all;\n\n")
	fmt.Fprintf(b, "ENTITY %s IS\n", name)

	var paramNames, portNames []string
	for _, p := range s.params {
		paramNames = append(paramNames, p.Name)
	}
	in, out := split(s.ports)
	ordered := append(append([]Port(nil), in...), out...)
	for _, p := range ordered {
		portNames = append(portNames, p.Name)
	}

	if len(s.params) > 0 {
		pad := longest(paramNames)
		for i, p := range s.params {
			lead := "             "
			if i == 0 {
				lead = "   GENERIC ( "
			}
			end := ";"
			if i == len(s.params)-1 {
				end = " );"
			}
			fmt.Fprintf(b, "%s%-*s : INTEGER%s\n", lead, pad, p.Name, end)
		}
	}
	if len(ordered) > 0 {
		pad := longest(portNames)
		for i, p := range ordered {
			lead := "          "
			if i == 0 {
				lead = "   PORT ( "
			}
			end := ";"
			if i == len(ordered)-1 {
				end = " );"
			}
			dir := "IN "
			if p.Dir == Output {
				dir = "OUT"
			}
			fmt.Fprintf(b, "%s%-*s : %s %s%s\n", lead, pad, p.Name, dir, vhdlType(p.Width), end)
		}
	}
	fmt.Fprintf(b, "END ENTITY %s;\n\n", name)

	fmt.Fprintf(b, "ARCHITECTURE %s OF %s IS\n", architectureName, name)
	if len(s.signals) > 0 {
		var sigNames []string
		for _, sig := range s.signals {
			sigNames = append(sigNames, sig.Name)
		}
		pad := longest(sigNames)
		b.WriteByte('\n')
		for _, sig := range s.signals {
			fmt.Fprintf(b, "   SIGNAL %-*s : %s;\n", pad, sig.Name, vhdlType(sig.Width))
		}
		b.WriteByte('\n')
	}
	b.WriteString("BEGIN\n")
	b.WriteString(body)
	fmt.Fprintf(b, "END ARCHITECTURE %s;\n", architectureName)
}

func renderVerilog(b *strings.Builder, name string, s *Set, body string) {
	in, out := split(s.ports)
	ordered := append(append([]Port(nil), in...), out...)

	fmt.Fprintf(b, "module %s(", name)
	indent := strings.Repeat(" ", len("module ")+len(name)+1)
	for i, p := range ordered {
		if i > 0 {
			b.WriteString(",\n")
			b.WriteString(indent)
		}
		b.WriteString(p.Name)
	}
	b.WriteString(");\n\n")

	if len(s.params) > 0 {
		b.WriteString("   // Module parameters\n")
		for _, p := range s.params {
			fmt.Fprintf(b, "   parameter %s = 1;\n", p.Name)
		}
		b.WriteByte('\n')
	}
	if len(in) > 0 {
		b.WriteString("   // Inputs\n")
		for _, p := range in {
			fmt.Fprintf(b, "   input %s%s;\n", verilogRange(p.Width), p.Name)
		}
		b.WriteByte('\n')
	}
	if len(out) > 0 {
		b.WriteString("   // Outputs\n")
		for _, p := range out {
			fmt.Fprintf(b, "   output %s%s;\n", verilogRange(p.Width), p.Name)
		}
		b.WriteByte('\n')
	}
	var wires, regs []Signal
	for _, sig := range s.signals {
		if sig.Register {
			regs = append(regs, sig)
		} else {
			wires = append(wires, sig)
		}
	}
	if len(wires) > 0 {
		b.WriteString("   // Wires\n")
		for _, w := range wires {
			fmt.Fprintf(b, "   wire %s%s;\n", verilogRange(w.Width), w.Name)
		}
		b.WriteByte('\n')
	}
	if len(regs) > 0 {
		b.WriteString("   // Registers\n")
		for _, r := range regs {
			fmt.Fprintf(b, "   reg %s%s;\n", verilogRange(r.Width), r.Name)
		}
		b.WriteByte('\n')
	}
	b.WriteString(body)
	b.WriteString("endmodule\n")
}
