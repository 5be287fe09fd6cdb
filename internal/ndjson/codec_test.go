package ndjson

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEncodeWritesOneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, testLogger())

	require.NoError(t, enc.Encode(record{Kind: "dispatch", Message: "one"}))
	require.NoError(t, enc.Encode(record{Kind: "dispatch", Message: "two"}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"one"`)
	assert.Contains(t, lines[1], `"two"`)
}

func TestEncodeRejectsOversizedRecord(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, testLogger())

	err := enc.Encode(record{Kind: "dispatch", Message: strings.Repeat("x", MaxRecordSize)})
	require.Error(t, err)
	assert.Zero(t, buf.Len(), "oversized record must not be written")
}

func TestDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, testLogger())
	require.NoError(t, enc.Encode(record{Kind: "dispatch", Message: "hello"}))

	dec := NewDecoder(&buf, testLogger())
	var got record
	require.NoError(t, dec.Decode(&got))
	assert.Equal(t, record{Kind: "dispatch", Message: "hello"}, got)

	require.ErrorIs(t, dec.Decode(&got), io.EOF)
}

func TestDecodeSkipsEmptyLines(t *testing.T) {
	input := "\n{\"kind\":\"dispatch\",\"message\":\"a\"}\n\n{\"kind\":\"dispatch\",\"message\":\"b\"}\n"
	dec := NewDecoder(strings.NewReader(input), testLogger())

	var first, second record
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))
	assert.Equal(t, "a", first.Message)
	assert.Equal(t, "b", second.Message)
}

func TestDecodeReportsLineNumberOnBadJSON(t *testing.T) {
	input := "{\"kind\":\"dispatch\"}\nnot-json\n"
	dec := NewDecoder(strings.NewReader(input), testLogger())

	var got record
	require.NoError(t, dec.Decode(&got))
	err := dec.Decode(&got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
