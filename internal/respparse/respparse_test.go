package respparse

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffpilot/pkg/models"
)

func TestParse_SingleComment(t *testing.T) {
	text := `<comments><comment><file>a.txt</file><line>+hello world</line><message>fix this</message></comment></comments>`

	result := Parse(text)

	require.Len(t, result.Findings, 1)
	finding := result.Findings[0]
	assert.Equal(t, "a.txt", finding.FilePath)
	assert.Equal(t, "hello world", finding.LineToMatch)
	assert.Equal(t, "fix this", finding.Message)
	assert.Nil(t, finding.Line)
	assert.Empty(t, finding.Severity)
}

func TestParse_AllFields(t *testing.T) {
	text := `<comments>
  <comment>
    <severity>nit</severity>
    <file>internal/server/server.go</file>
    <line>-	defer conn.Close()</line>
    <message>Close error is discarded.</message>
    <suggestion>defer func() { _ = conn.Close() }()</suggestion>
  </comment>
</comments>`

	result := Parse(text)

	require.Len(t, result.Findings, 1)
	finding := result.Findings[0]
	assert.Equal(t, models.SeverityNit, finding.Severity)
	assert.Equal(t, "internal/server/server.go", finding.FilePath)
	assert.Equal(t, "\tdefer conn.Close()", finding.LineToMatch)
	assert.Equal(t, "defer func() { _ = conn.Close() }()", finding.Suggestion)
}

func TestParse_MissingRequiredFieldDropsBlock(t *testing.T) {
	// First block has no <file>; second is complete. Only the second survives.
	text := `<comments>
  <comment><line>+x := 1</line><message>no file here</message></comment>
  <comment><file>ok.go</file><line>+y := 2</line><message>kept</message></comment>
</comments>`

	result := Parse(text)

	require.Len(t, result.Findings, 1)
	assert.Equal(t, "ok.go", result.Findings[0].FilePath)
	assert.Equal(t, "kept", result.Findings[0].Message)
}

func TestParse_OrderPreserved(t *testing.T) {
	var text string
	text += "<comments>"
	for i := 0; i < 5; i++ {
		text += fmt.Sprintf("<comment><file>f%d.go</file><line>+l%d</line><message>m%d</message></comment>", i, i, i)
	}
	text += "</comments>"

	result := Parse(text)

	require.Len(t, result.Findings, 5)
	for i, finding := range result.Findings {
		assert.Equal(t, fmt.Sprintf("f%d.go", i), finding.FilePath)
	}
}

func TestParse_ResolvedComments(t *testing.T) {
	text := `<resolvedComments>
  <resolved>
    <commentId>981</commentId>
    <path>pkg/api/handler.go</path>
    <line>42</line>
    <reason>nil check added in this diff</reason>
  </resolved>
  <resolved>
    <path>pkg/api/router.go</path>
    <line>7</line>
    <reason>route removed</reason>
  </resolved>
</resolvedComments>`

	result := Parse(text)

	require.Len(t, result.ResolvedComments, 2)
	assert.Equal(t, "981", result.ResolvedComments[0].CommentID)
	assert.Equal(t, 42, result.ResolvedComments[0].Line)
	// Missing commentId falls back to the synthetic path:line key.
	assert.Equal(t, "pkg/api/router.go:7", result.ResolvedComments[1].CommentID)
}

func TestParse_ResolvedWithBadLineDropped(t *testing.T) {
	text := `<resolvedComments>
  <resolved><path>a.go</path><line>not-a-number</line><reason>r</reason></resolved>
</resolvedComments>`

	result := Parse(text)
	assert.Empty(t, result.ResolvedComments)
}

func TestParse_LegacyFallbackWithoutWrapper(t *testing.T) {
	text := `Some prose from the model.
<comment><file>legacy.go</file><line>+old style</line><message>still parsed</message></comment>`

	result := Parse(text)

	require.Len(t, result.Findings, 1)
	assert.Equal(t, "legacy.go", result.Findings[0].FilePath)
}

func TestParse_FallbackDoesNotDoubleCount(t *testing.T) {
	// A wrapper is present, so the fallback scan must not run even though a
	// stray bare <comment> block also exists outside it.
	text := `<comments><comment><file>in.go</file><line>+a</line><message>inside</message></comment></comments>
<comment><file>out.go</file><line>+b</line><message>outside</message></comment>`

	result := Parse(text)

	require.Len(t, result.Findings, 1)
	assert.Equal(t, "in.go", result.Findings[0].FilePath)
}

func TestParse_EmptyWrapperSuppressesFallback(t *testing.T) {
	// The wrapper was found but held nothing parseable; the model did answer
	// in the current format, so the legacy scan stays off.
	text := `<comments></comments>
<comment><file>stray.go</file><line>+x</line><message>stray</message></comment>`

	result := Parse(text)
	assert.Empty(t, result.Findings)
}

func TestParse_GracefulDegradation(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"empty string", ""},
		{"prose only", "I could not find any issues with this change."},
		{"unbalanced tags", "<comments><comment><file>x.go</file><line>+a"},
		{"stray closers", "</comment></comments><line>"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Parse(tc.text)
			assert.Empty(t, result.Findings)
			assert.Empty(t, result.ResolvedComments)
		})
	}
}

func TestParse_TruncationKeepsEarlierBlocks(t *testing.T) {
	// The second block is cut off mid-tag; the first parsed fine and is kept.
	text := `<comments>
<comment><file>a.go</file><line>+one</line><message>first</message></comment>
<comment><file>b.go</file><line>+two</line><mess`

	result := Parse(text)

	require.Len(t, result.Findings, 1)
	assert.Equal(t, "a.go", result.Findings[0].FilePath)
}

func TestParse_MarkerStripping(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"+added line", "added line"},
		{"-removed line", "removed line"},
		{" context line", "context line"},
		{"no marker at all", "no marker at all"},
	}

	for _, tc := range cases {
		text := fmt.Sprintf("<comments><comment><file>f.go</file><line>%s</line><message>m</message></comment></comments>", tc.raw)
		result := Parse(text)
		require.Len(t, result.Findings, 1, "raw %q", tc.raw)
		assert.Equal(t, tc.want, result.Findings[0].LineToMatch, "raw %q", tc.raw)
	}
}

func TestParse_AnnotationPrefixStripping(t *testing.T) {
	// Models sometimes quote the annotated prompt rendering instead of the
	// raw diff line; the number columns must not end up in LineToMatch.
	cases := []struct {
		raw  string
		want string
	}{
		{"     -      4 | +count := 0", "count := 0"},
		{"     3      4 |  count := 0", "count := 0"},
		{"     3      - | -count := 0", "count := 0"},
		{"a | b", "a | b"},
	}

	for _, tc := range cases {
		text := fmt.Sprintf("<comments><comment><file>f.go</file><line>%s</line><message>m</message></comment></comments>", tc.raw)
		result := Parse(text)
		require.Len(t, result.Findings, 1, "raw %q", tc.raw)
		assert.Equal(t, tc.want, result.Findings[0].LineToMatch, "raw %q", tc.raw)
	}
}

func TestParse_PRSummary(t *testing.T) {
	text := `<prSummary>Adds retry logic to the fetcher.</prSummary>
<comments></comments>`

	result := Parse(text)
	assert.Equal(t, "Adds retry logic to the fetcher.", result.PRSummary)
}
