package lineresolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffpilot/pkg/models"
)

const diff = `diff --git a/a.txt b/a.txt
--- a/a.txt
+++ b/a.txt
@@ -1,1 +1,2 @@
-hello
+hello world
+another line
diff --git a/b.go b/b.go
--- a/b.go
+++ b/b.go
@@ -10,2 +10,4 @@
 func existing() {
+	count := 0
+	count = count + 1
 }
`

func TestResolve_RoundTrip(t *testing.T) {
	findings := []models.Finding{{
		FilePath:    "a.txt",
		LineToMatch: "hello world",
		Message:     "fix this",
	}}

	resolved := Resolve(findings, diff)

	require.Len(t, resolved, 1)
	require.NotNil(t, resolved[0].Line)
	assert.Equal(t, 1, *resolved[0].Line)
	assert.Equal(t, "fix this", resolved[0].Message)
}

func TestResolve_SecondFile(t *testing.T) {
	findings := []models.Finding{{
		FilePath:    "b.go",
		LineToMatch: "count := 0",
	}}

	resolved := Resolve(findings, diff)

	require.NotNil(t, resolved[0].Line)
	assert.Equal(t, 11, *resolved[0].Line)
}

func TestResolve_UnmatchedPassesThrough(t *testing.T) {
	findings := []models.Finding{
		{FilePath: "a.txt", LineToMatch: "text that is not in the diff"},
		{FilePath: "missing.go", LineToMatch: "hello world"},
		{FilePath: "a.txt", Message: "no line to match at all"},
	}

	resolved := Resolve(findings, diff)

	require.Len(t, resolved, 3)
	for i, finding := range resolved {
		assert.Nil(t, finding.Line, "finding %d should stay unpositioned", i)
	}
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	findings := []models.Finding{{FilePath: "a.txt", LineToMatch: "hello world"}}

	_ = Resolve(findings, diff)

	assert.Nil(t, findings[0].Line)
}

func TestResolve_AmbiguousFragmentTakesEarliestLine(t *testing.T) {
	// "count" appears in two added lines; resolution picks the earliest. This
	// is a known precision limitation of substring matching, documented here
	// rather than worked around.
	findings := []models.Finding{{FilePath: "b.go", LineToMatch: "count"}}

	resolved := Resolve(findings, diff)

	require.NotNil(t, resolved[0].Line)
	assert.Equal(t, 11, *resolved[0].Line)
}

func TestResolve_BrokenDiffLeavesFindingsUnpositioned(t *testing.T) {
	broken := "+++ b/c.go\n@@ -zzz +zzz @@\n+line\n"
	findings := []models.Finding{{FilePath: "c.go", LineToMatch: "line"}}

	resolved := Resolve(findings, broken)

	require.Len(t, resolved, 1)
	assert.Nil(t, resolved[0].Line)
}

func TestResolve_EmptyInputs(t *testing.T) {
	assert.Empty(t, Resolve(nil, diff))
	assert.Len(t, Resolve([]models.Finding{{FilePath: "a.txt"}}, ""), 1)
}
