package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in   string
		want Format
	}{
		{"", FormatTable},
		{"table", FormatTable},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"yaml", FormatYAML},
		{"yml", FormatYAML},
	}
	for _, c := range cases {
		got, err := ParseFormat(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

type testRow struct{ k, v string }
type testTable []testRow

func (t testTable) Headers() []string { return []string{"Field", "Value"} }
func (t testTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, r := range t {
		rows[i] = []string{r.k, r.v}
	}
	return rows
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	data := testTable{{"broker", "localhost:1883"}, {"multilocator_id", "ml-01"}}

	require.NoError(t, PrintTable(&buf, data))
	out := buf.String()
	assert.Contains(t, out, "broker")
	assert.Contains(t, out, "localhost:1883")
	assert.Contains(t, out, "multilocator_id")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]string{"broker": "localhost:1883"}))
	assert.Contains(t, buf.String(), `"broker": "localhost:1883"`)
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintYAML(&buf, map[string]string{"broker": "localhost:1883"}))
	assert.Contains(t, buf.String(), "broker: localhost:1883")
}
