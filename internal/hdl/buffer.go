package hdl

import (
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

const remarkWidth = 80

// Buffer accumulates generated lines. Lines are stored without indentation;
// String applies a uniform indent so bodies nest inside architectures and modules.
type Buffer struct {
	dialect Dialect
	lines   []string
}

// NewBuffer returns an empty buffer for d.
func NewBuffer(d Dialect) *Buffer {
	return &Buffer{dialect: d}
}

// Add appends text, splitting on newlines. A trailing newline does not produce an empty line.
func (b *Buffer) Add(text string) *Buffer {
	text = strings.TrimSuffix(text, "\n")
	b.lines = append(b.lines, strings.Split(text, "\n")...)
	return b
}

// Empty appends a blank line.
func (b *Buffer) Empty() *Buffer {
	b.lines = append(b.lines, "")
	return b
}

// Remark appends a boxed comment block.
func (b *Buffer) Remark(text string) *Buffer {
	prefix := b.dialect.CommentPrefix()
	rule := prefix + strings.Repeat("*", remarkWidth-2*len(prefix)) + prefix
	b.lines = append(b.lines, rule)
	for _, word := range wrap(text, remarkWidth-2*len(prefix)-2) {
		pad := remarkWidth - 2*len(prefix) - 2 - len(word)
		if pad < 0 {
			pad = 0
		}
		b.lines = append(b.lines, prefix+" "+word+strings.Repeat(" ", pad)+" "+prefix)
	}
	b.lines = append(b.lines, rule)
	return b
}

// String renders the buffer with every non-empty line indented by indent spaces.
func (b *Buffer) String(indent int) string {
	pad := strings.Repeat(" ", indent)
	var sb strings.Builder
	for _, line := range b.lines {
		if strings.TrimSpace(line) != "" {
			sb.WriteString(pad)
			sb.WriteString(line)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func wrap(text string, width int) []string {
	var out []string
	var cur string
	for _, w := range strings.Fields(text) {
		switch {
		case cur == "":
			cur = w
		case len(cur)+1+len(w) <= width:
			cur += " " + w
		default:
			out = append(out, cur)
			cur = w
		}
	}
	if cur != "" || len(out) == 0 {
		out = append(out, cur)
	}
	return out
}

// Templates is a body template per dialect. A nil entry means the dialect is not
// supported by that component.
type Templates struct {
	VHDL    *template.Template
	Verilog *template.Template
}

// Execute renders the template for d with data.
func (t Templates) Execute(d Dialect, data any) (string, error) {
	if err := d.Check(); err != nil {
		return "", err
	}
	var tpl *template.Template
	switch d {
	case VHDL:
		tpl = t.VHDL
	case Verilog:
		tpl = t.Verilog
	}
	if tpl == nil {
		return "", errors.Wrapf(ErrUnsupportedDialect, "no %s template", d)
	}
	var sb strings.Builder
	if err := tpl.Execute(&sb, data); err != nil {
		return "", errors.Wrapf(err, "render %s body", d)
	}
	return sb.String(), nil
}

// Supports reports whether a template exists for d.
func (t Templates) Supports(d Dialect) bool {
	switch d {
	case VHDL:
		return t.VHDL != nil
	case Verilog:
		return t.Verilog != nil
	}
	return false
}

// MustParse compiles a body template with missing keys treated as errors.
func MustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Option("missingkey=error").Parse(text))
}
