// Package table renders pterm tables the way every command prints them.
package table

import (
	"github.com/pterm/pterm"
)

// PrintTableNoPad renders rows without the boxed padding pterm adds by
// default. When header is true the first row is styled as a header.
func PrintTableNoPad(rows pterm.TableData, header bool) {
	t := pterm.DefaultTable.WithData(rows).WithLeftAlignment()
	if header {
		t = t.WithHasHeader()
	}
	_ = t.Render()
}
