package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONFormatter{}.Format(&buf, sampleResult()))

	var parsed struct {
		Files []map[string]interface{} `json:"files"`
		Stats map[string]interface{}   `json:"stats"`
		Meta  map[string]interface{}   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))

	require.Len(t, parsed.Files, 3)
	assert.Equal(t, "/data/a.txt", parsed.Files[0]["path"])
	assert.Equal(t, abcHex, parsed.Files[0]["sha256"])
	assert.NotContains(t, parsed.Files[0], "error")
	assert.NotContains(t, parsed.Files[1], "sha256")
	assert.Contains(t, parsed.Files[1]["error"], "permission denied")

	assert.Equal(t, float64(3), parsed.Stats["files"])
	assert.Equal(t, float64(1), parsed.Stats["failures"])
	assert.Equal(t, float64(2), parsed.Stats["workers"])
	assert.InDelta(t, 2.0, parsed.Stats["rate_mb_per_cpu_second"], 1e-9)
	assert.Equal(t, "2.00", parsed.Stats["rate"])

	assert.Equal(t, "/data", parsed.Meta["root"])
	assert.Equal(t, "sha256", parsed.Meta["algorithm"])

	// Indented output.
	assert.Contains(t, buf.String(), "\n  \"files\"")
}

func TestJSONFormatter_UndefinedRateIsNull(t *testing.T) {
	r := sampleResult()
	r.Metrics.CPUMeasured = false

	var buf bytes.Buffer
	require.NoError(t, JSONFormatter{}.Format(&buf, r))

	var parsed struct {
		Stats map[string]interface{} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	require.Contains(t, parsed.Stats, "rate_mb_per_cpu_second", "undefined rate is encoded, as null")
	assert.Nil(t, parsed.Stats["rate_mb_per_cpu_second"])
	assert.Equal(t, "N/A", parsed.Stats["rate"])
	assert.NotContains(t, parsed.Stats, "cpu_time")
	assert.Contains(t, buf.String(), `"rate_mb_per_cpu_second": null`)
}

func TestJSONFormatter_EmptyResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONFormatter{}.Format(&buf, &Result{}))

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, []interface{}{}, parsed["files"])
}

func TestJSONLFormatter_OneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONLFormatter{}.Format(&buf, sampleResult()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		var obj map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &obj), "line %d", i)
		assert.NotContains(t, line, "\n  ")
	}

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, abcHex, first["sha256"])
}

func TestJSONLFormatter_EmptyResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONLFormatter{}.Format(&buf, &Result{}))
	assert.Empty(t, buf.String())
}
