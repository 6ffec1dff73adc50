/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package kernlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainFormatIncludesLevelMessageAndFields(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf, DEBUG, false)
	lg.Info("task scheduled", KV("task", 7), KVErr(nil))

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "task scheduled")
	assert.Contains(t, out, "task=7")
}

func TestLevelBelowThresholdIsSuppressed(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf, WARN, false)
	lg.Info("should not appear")
	lg.Debug("should not appear either")
	lg.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func TestOffLevelSuppressesEverything(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf, OFF, false)
	lg.Critical("nothing should be written")

	assert.Empty(t, buf.String())
}

// TestSyslogFormatIsValidRFC5424 exercises writeSyslog end to end: it must
// actually produce a well-formed RFC 5424 record rather than panicking or
// emitting malformed structured data, which is what an earlier draft of
// this file did by referencing identifiers that do not exist in
// github.com/crewjam/rfc5424.
func TestSyslogFormatIsValidRFC5424(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf, DEBUG, true)
	lg.Error("capability denied", KV("task", "wasm:demo"), KV("cap", 42))

	out := buf.String()
	require.NotEmpty(t, out)
	assert.True(t, strings.HasPrefix(out, "<"), "syslog record should start with a PRI header: %q", out)
	assert.Contains(t, out, "capability denied")
	assert.Contains(t, out, "fields@32473")
	assert.Contains(t, out, `task="wasm:demo"`)
	assert.Contains(t, out, `cap="42"`)
}

func TestSyslogFormatOmitsStructuredDataWhenNoFields(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf, DEBUG, true)
	lg.Info("boot complete")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.NotContains(t, out, "fields@32473")
}

func TestParseLevelRoundTrips(t *testing.T) {
	for _, lvl := range []Level{DEBUG, INFO, WARN, ERROR, CRITICAL, FATAL, OFF} {
		parsed, err := ParseLevel(lvl.String())
		require.NoError(t, err)
		assert.Equal(t, lvl, parsed)
	}
}

func TestParseLevelRejectsUnknown(t *testing.T) {
	_, err := ParseLevel("NOT_A_LEVEL")
	assert.Error(t, err)
}
