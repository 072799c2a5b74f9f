package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type userRows [][]string

func (u userRows) Headers() []string { return []string{"name", "roles"} }
func (u userRows) Rows() [][]string  { return u }

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "table", want: FormatTable},
		{input: "", want: FormatTable},
		{input: "JSON", want: FormatJSON},
		{input: " yml ", want: FormatYAML},
		{input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(userRows{{"alice", "teacher"}, {"bob", ""}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[1], "alice")
	assert.Contains(t, lines[1], "teacher")
	assert.Contains(t, lines[2], "bob")
}

func TestPrintFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(map[string]int{"size": 2}))
	assert.True(t, json.Valid(buf.Bytes()))
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatYAML, false).Print(map[string]int{"hits": 3}))

	var out map[string]int
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 3, out["hits"])
}

func TestPrintPairs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintPairs(&buf, [][2]string{{"hits", "4"}, {"size", "1"}}))
	assert.Contains(t, buf.String(), "hits")
	assert.Contains(t, buf.String(), "4")
}

func TestMessages(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, FormatTable, false).Success("evicted alice")
	assert.Equal(t, "evicted alice\n", buf.String())

	buf.Reset()
	NewPrinter(&buf, FormatTable, true).Warning("careful")
	assert.Equal(t, "\033[33mcareful\033[0m\n", buf.String())
}

func TestAge(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "-", Age(time.Time{}, now))
	assert.Equal(t, "0s", Age(now.Add(time.Minute), now))
	assert.Equal(t, "42s", Age(now.Add(-42*time.Second), now))
	assert.Equal(t, "5m 3s", Age(now.Add(-5*time.Minute-3*time.Second), now))
	assert.Equal(t, "2h 15m", Age(now.Add(-135*time.Minute), now))
	assert.Equal(t, "3d 1h", Age(now.Add(-73*time.Hour), now))
}
