package base

import (
	"bytes"
	"flag"
	"fmt"
	"strings"
)

// FlagSet wraps flag.FlagSet to render flag help for command usage text.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet returns a FlagSet around f. Output of the wrapped flag set is
// discarded; usage is rendered by Help.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	f.Usage = func() {}
	f.SetOutput(&bytes.Buffer{})
	return &FlagSet{FlagSet: f}
}

// Help returns the usage text for the flags, or an empty string when there
// are none.
func (f *FlagSet) Help() string {
	var b strings.Builder
	f.VisitAll(func(fl *flag.Flag) {
		if b.Len() == 0 {
			b.WriteString("\n\nOptions:\n")
		}
		fmt.Fprintf(&b, "\n  -%s", fl.Name)
		if fl.DefValue != "" && fl.DefValue != "false" {
			fmt.Fprintf(&b, "=%s", fl.DefValue)
		}
		b.WriteString("\n")
		for _, line := range strings.Split(fl.Usage, "\n") {
			fmt.Fprintf(&b, "      %s\n", line)
		}
	})
	return strings.TrimRight(b.String(), "\n")
}
