package diffstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
 package main
+import "fmt"

 func main() {
diff --git a/old.go b/old.go
deleted file mode 100644
index 3333333..0000000
--- a/old.go
+++ /dev/null
@@ -1,2 +0,0 @@
-package old
-var gone = true
`

func TestCompute(t *testing.T) {
	stats, err := Compute(sampleDiff)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, 2, stats.Deleted)
	assert.Equal(t, 1, stats.DeletedFiles)
	assert.Contains(t, stats.FilePaths, "main.go")
}

func TestCompute_EmptyDiff(t *testing.T) {
	stats, err := Compute("")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Files)
}

func TestSummary(t *testing.T) {
	stats := &Stats{Files: 3, Added: 10, Deleted: 4}
	assert.Equal(t, "3 file(s) changed, 10 insertion(s), 4 deletion(s)", stats.Summary())
}
