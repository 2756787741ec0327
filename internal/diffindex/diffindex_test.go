package diffindex

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffpilot/pkg/models"
)

const twoFileDiff = `diff --git a/x b/x
index 0000000..1111111 100644
--- a/x
+++ b/x
@@ -1,2 +1,3 @@
 package x
+func added() {}
 var keep = 1
diff --git a/y b/y
index 2222222..3333333 100644
--- a/y
+++ b/y
@@ -10,3 +10,4 @@
 type Y struct {
+	Field int
 }
@@ -30,1 +31,2 @@
-old line
+new line
+another new line
`

func TestBuildLineMap_SingleFile(t *testing.T) {
	diff := `diff --git a/a.txt b/a.txt
--- a/a.txt
+++ b/a.txt
@@ -1,1 +1,2 @@
-hello
+hello world
+another line
`

	lineMap, err := BuildLineMap(diff)
	require.NoError(t, err)

	expected := models.DiffLineMap{
		"a.txt": {
			"+hello world":  1,
			"+another line": 2,
		},
	}
	if diffOut := cmp.Diff(expected, lineMap); diffOut != "" {
		t.Errorf("line map mismatch (-want +got):\n%s", diffOut)
	}
}

func TestBuildLineMap_ContextLinesAdvanceWithoutRecording(t *testing.T) {
	diff := `+++ b/f.go
@@ -5,3 +7,4 @@
 ctx one
+added
 ctx two
`

	lineMap, err := BuildLineMap(diff)
	require.NoError(t, err)

	require.Contains(t, lineMap, "f.go")
	assert.Equal(t, map[string]int{"+added": 8}, lineMap["f.go"])
}

func TestBuildLineMap_FirstWinsOnDuplicateText(t *testing.T) {
	diff := `+++ b/dup.go
@@ -1,0 +1,4 @@
+same text
+other
+same text
+tail
`

	lineMap, err := BuildLineMap(diff)
	require.NoError(t, err)

	// The second "+same text" at line 3 must not overwrite line 1.
	assert.Equal(t, 1, lineMap["dup.go"]["+same text"])
	assert.Equal(t, 4, lineMap["dup.go"]["+tail"])
}

func TestBuildLineMap_Idempotent(t *testing.T) {
	first, err := BuildLineMap(twoFileDiff)
	require.NoError(t, err)
	second, err := BuildLineMap(twoFileDiff)
	require.NoError(t, err)

	if diffOut := cmp.Diff(first, second); diffOut != "" {
		t.Errorf("rebuilding the map changed it (-first +second):\n%s", diffOut)
	}
}

func TestBuildLineMap_OptionalLengthFields(t *testing.T) {
	diff := `+++ b/short.go
@@ -1 +1 @@
-a
+b
`

	lineMap, err := BuildLineMap(diff)
	require.NoError(t, err)
	assert.Equal(t, 1, lineMap["short.go"]["+b"])
}

func TestBuildLineMap_DeletionsDoNotAdvance(t *testing.T) {
	lineMap, err := BuildLineMap(twoFileDiff)
	require.NoError(t, err)

	assert.Equal(t, 31, lineMap["y"]["+new line"])
	assert.Equal(t, 32, lineMap["y"]["+another new line"])
}

func TestBuildLineMap_EmptyInput(t *testing.T) {
	lineMap, err := BuildLineMap("")
	require.NoError(t, err)
	assert.Empty(t, lineMap)
}

func TestBuildLineMap_MalformedHunkHeader(t *testing.T) {
	diff := `+++ b/bad.go
@@ -x,1 +y,2 @@
+line
`

	_, err := BuildLineMap(diff)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad hunk header")
}

func TestSplit_HunkLevel(t *testing.T) {
	chunks := Split(twoFileDiff)
	require.Len(t, chunks, 3)

	assert.Equal(t, "x", chunks[0].FilePath)
	assert.Equal(t, "y", chunks[1].FilePath)
	assert.Equal(t, "y", chunks[2].FilePath)

	// Each chunk carries its file headers so it stands alone.
	for _, chunk := range chunks {
		assert.Contains(t, chunk.Content, "+++ b/"+chunk.FilePath)
		assert.Contains(t, chunk.Content, "@@ ")
	}

	assert.Equal(t, 1, chunks[0].Hunk.NewStartLine)
	assert.Equal(t, 3, chunks[0].Hunk.NewLineCount)
	assert.Equal(t, 31, chunks[2].Hunk.NewStartLine)
	assert.Equal(t, 2, chunks[2].Hunk.NewLineCount)
}

func TestSplit_EmptyInput(t *testing.T) {
	assert.Empty(t, Split(""))
	assert.Empty(t, Split("   \n\n  "))
}

func TestSplit_MissingFileHeaderKeepsChunk(t *testing.T) {
	diff := `@@ -1,1 +1,2 @@
-a
+b
+c
`

	chunks := Split(diff)
	require.Len(t, chunks, 1)
	assert.Empty(t, chunks[0].FilePath)
	assert.Contains(t, chunks[0].Content, "+b")
}

func TestSplitFiles_TwoFiles(t *testing.T) {
	chunks := SplitFiles(twoFileDiff)
	require.Len(t, chunks, 2)

	assert.Equal(t, "x", chunks[0].FilePath)
	assert.Equal(t, "y", chunks[1].FilePath)

	// File-level chunks keep every hunk for the file.
	assert.Equal(t, 2, strings.Count(chunks[1].Content, "@@ "))
	assert.Equal(t, 10, chunks[1].Hunk.NewStartLine)
}

func TestSplitFiles_ChunkOrderMatchesDiffOrder(t *testing.T) {
	chunks := SplitFiles(twoFileDiff)
	require.Len(t, chunks, 2)
	assert.True(t, strings.Index(twoFileDiff, chunks[0].FilePath) < strings.Index(twoFileDiff, "b/y"))
}
