package doc

import (
	"fmt"
	"strings"

	"github.com/rubiojr/objcbridge/objcrt"
)

// Format formats a MirrorDoc for terminal display.
func Format(d *MirrorDoc) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("class %s (%s)", d.Native, d.Name))
	if d.Super != "" {
		sb.WriteString(" : ")
		sb.WriteString(d.Super)
	}
	sb.WriteString("\n")
	if d.Doc != "" {
		sb.WriteString("    ")
		sb.WriteString(d.Doc)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	for _, f := range d.ClassMethods {
		formatFunc(&sb, "+", f)
	}
	for _, f := range d.Methods {
		formatFunc(&sb, "-", f)
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// FormatAll lists every mirror class registered in reg.
func FormatAll(reg *objcrt.Registry) string {
	var sb strings.Builder
	for _, name := range reg.Names() {
		m, _ := reg.Lookup(name)
		line := fmt.Sprintf("  %-24s", name)
		if m.Doc != "" {
			line += " " + m.Doc
		}
		sb.WriteString(strings.TrimRight(line, " "))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatFunc(sb *strings.Builder, prefix string, f FuncDoc) {
	sb.WriteString(prefix)
	sb.WriteString(f.Name)
	sb.WriteString("(")
	sb.WriteString(strings.Join(f.Params, ", "))
	sb.WriteString(")")
	switch len(f.Results) {
	case 0:
	case 1:
		sb.WriteString(" ")
		sb.WriteString(f.Results[0])
	default:
		sb.WriteString(" (")
		sb.WriteString(strings.Join(f.Results, ", "))
		sb.WriteString(")")
	}
	sb.WriteString("\n")
}
