package table

import (
	"bytes"
	"os"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
)

func TestPrintTableNoPad(t *testing.T) {
	var buf bytes.Buffer
	pterm.SetDefaultOutput(&buf)
	pterm.DisableStyling()
	t.Cleanup(func() {
		pterm.SetDefaultOutput(os.Stdout)
		pterm.EnableStyling()
	})

	PrintTableNoPad(pterm.TableData{{"Version", "Title"}, {"v1", "Initial"}}, true)

	out := buf.String()
	assert.Contains(t, out, "Version")
	assert.Contains(t, out, "Initial")
}
