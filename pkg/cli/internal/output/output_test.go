package output

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, JSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tw := Table(&buf)
	fmt.Fprintln(tw, "A\tBB")
	fmt.Fprintln(tw, "CCC\tD")
	assert.NoError(t, tw.Flush())
	assert.Equal(t, "A    BB\nCCC  D\n", buf.String())
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Named", Label("named"))
	assert.Equal(t, "Tombstone", Label("tombstone"))
	assert.Equal(t, "Valid", Label("VALID"))
}

func TestWarn(t *testing.T) {
	var buf bytes.Buffer
	Warn(&buf, "%d routes skipped", 2)
	assert.Equal(t, "Warning: 2 routes skipped\n", buf.String())
}
