package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robert-at-pretension-io/hdl-gen/internal/decl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/hdl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/portmap"
)

// Instantiate renders one instantiation statement of module with the given
// parameter values and port actuals. Both lists are expected in name order.
func Instantiate(d hdl.Dialect, label, module string, params []decl.Value, ports []portmap.Assignment) (string, error) {
	if err := d.Check(); err != nil {
		return "", err
	}
	var b strings.Builder
	if d == hdl.VHDL {
		instantiateVHDL(&b, label, module, params, ports)
	} else {
		instantiateVerilog(&b, label, module, params, ports)
	}
	return b.String(), nil
}

func pad(names []string) int {
	n := 0
	for _, s := range names {
		n = max(n, len(s))
	}
	return n
}

func instantiateVHDL(b *strings.Builder, label, module string, params []decl.Value, ports []portmap.Assignment) {
	fmt.Fprintf(b, "%s : ENTITY work.%s\n", label, module)
	if len(params) > 0 {
		names := make([]string, len(params))
		for i, p := range params {
			names[i] = p.Name
		}
		w := pad(names)
		for i, p := range params {
			lead := "                 "
			if i == 0 {
				lead = "   GENERIC MAP ( "
			}
			end := ","
			if i == len(params)-1 {
				end = " )"
			}
			fmt.Fprintf(b, "%s%-*s => %d%s\n", lead, w, p.Name, p.Value, end)
		}
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.Port
	}
	w := pad(names)
	for i, p := range ports {
		lead := "              "
		if i == 0 {
			lead = "   PORT MAP ( "
		}
		end := ","
		if i == len(ports)-1 {
			end = " );"
		}
		fmt.Fprintf(b, "%s%-*s => %s%s\n", lead, w, p.Port, p.Expr.Render(hdl.VHDL), end)
	}
}

func instantiateVerilog(b *strings.Builder, label, module string, params []decl.Value, ports []portmap.Assignment) {
	b.WriteString(module)
	if len(params) > 0 {
		indent := strings.Repeat(" ", len(module)+3)
		b.WriteString(" #(")
		for i, p := range params {
			if i > 0 {
				b.WriteString(",\n")
				b.WriteString(indent)
			}
			b.WriteString("." + p.Name + "(" + strconv.Itoa(p.Value) + ")")
		}
		b.WriteString(")")
	}
	b.WriteString("\n   ")
	b.WriteString(label)
	b.WriteString(" (")
	indent := strings.Repeat(" ", len(label)+5)
	for i, p := range ports {
		if i > 0 {
			b.WriteString(",\n")
			b.WriteString(indent)
		}
		b.WriteString("." + p.Port + "(" + p.Expr.Render(hdl.Verilog) + ")")
	}
	b.WriteString(");\n")
}
