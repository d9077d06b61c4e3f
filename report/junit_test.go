package report

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edt-mcp/mcp-contract-tests/framework"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJUnit(t *testing.T, data []byte) junitTestSuite {
	var suite junitTestSuite
	require.NoError(t, xml.Unmarshal(data, &suite))
	return suite
}

func TestJUnitThreePassedOneFailed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJUnit(&buf, threePassedOneFailed()))

	assert.True(t, strings.HasPrefix(buf.String(), `<?xml version="1.0" encoding="UTF-8"?>`))
	suite := decodeJUnit(t, buf.Bytes())
	assert.Equal(t, "EDT-MCP-E2E", suite.Name)
	assert.Equal(t, 4, suite.Tests)
	assert.Equal(t, 1, suite.Failures)
	assert.Equal(t, "1.765", suite.Time)

	var failures []junitTestCase
	for _, tc := range suite.Cases {
		if tc.Failure != nil {
			failures = append(failures, tc)
		}
	}
	require.Len(t, failures, 1)
	assert.Equal(t, "get_tags", failures[0].Name)
	assert.Equal(t, "Project Tools", failures[0].Classname)
	assert.Equal(t, "0.003", failures[0].Time)
	assert.Equal(t, "Expected success but got error: code -32601: Tool not found: get_tags", failures[0].Failure.Message)
	assert.Equal(t, failures[0].Failure.Message, failures[0].Failure.Text)
}

func TestJUnitCountsErroredAsFailure(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJUnit(&buf, withErroredCase(threePassedOneFailed())))

	suite := decodeJUnit(t, buf.Bytes())
	assert.Equal(t, 5, suite.Tests)
	assert.Equal(t, 2, suite.Failures)
}

func TestJUnitEscapesMessages(t *testing.T) {
	report := framework.RunReport{Tests: []framework.TestResult{
		{Name: "x", Outcome: framework.Failed, Message: `expected "<a>" & got 'b'`},
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteJUnit(&buf, report))

	suite := decodeJUnit(t, buf.Bytes())
	require.Len(t, suite.Cases, 1)
	assert.Equal(t, "e2e", suite.Cases[0].Classname)
	assert.Equal(t, `expected "<a>" & got 'b'`, suite.Cases[0].Failure.Message)
}

func TestJUnitEmptyRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJUnit(&buf, framework.RunReport{}))

	suite := decodeJUnit(t, buf.Bytes())
	assert.Equal(t, 0, suite.Tests)
	assert.Equal(t, "0.000", suite.Time)
}

func TestWriteJUnitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junit.xml")
	require.NoError(t, WriteJUnitFile(path, threePassedOneFailed()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, decodeJUnit(t, data).Tests)

	assert.Error(t, WriteJUnitFile(filepath.Join(t.TempDir(), "missing", "junit.xml"), threePassedOneFailed()))
}
