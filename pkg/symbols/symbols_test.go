package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleDiff = `--- a/pkg/foo/bar.go
+++ b/pkg/foo/bar.go
@@ -1,3 +1,4 @@
 package foo
+// added a comment
--- a/old/deleted.go
+++ /dev/null
`

func TestExtractPaths(t *testing.T) {
	paths := ExtractPaths(sampleDiff)
	assert.Contains(t, paths, "pkg/foo/bar.go")
	assert.Contains(t, paths, "old/deleted.go")
	assert.NotContains(t, paths, "/dev/null")
}

func TestExtractPaths_BackslashNormalization(t *testing.T) {
	diff := "--- a/pkg\\foo\\bar.go\n+++ b/pkg\\foo\\bar.go\n"
	paths := ExtractPaths(diff)
	assert.Contains(t, paths, "pkg/foo/bar.go")
}

func TestExtractModuleSpecifiers_ImportFrom(t *testing.T) {
	src := `import { Foo } from "./local/module"`
	specs := ExtractModuleSpecifiers(src)
	assert.Contains(t, specs, "local/module")
}

func TestExtractModuleSpecifiers_Require(t *testing.T) {
	src := `const x = require("./sibling")`
	specs := ExtractModuleSpecifiers(src)
	assert.Contains(t, specs, "sibling")
}

func TestExtractModuleSpecifiers_DynamicImport(t *testing.T) {
	src := `const x = import("./lazy/chunk")`
	specs := ExtractModuleSpecifiers(src)
	assert.Contains(t, specs, "lazy/chunk")
}

func TestExtractModuleSpecifiers_ExternalPassesThrough(t *testing.T) {
	src := `import React from "react"`
	specs := ExtractModuleSpecifiers(src)
	assert.Contains(t, specs, "react")
}

func TestExtractModuleSpecifiers_RejectsTraversal(t *testing.T) {
	src := `import x from "../../etc/passwd"`
	specs := ExtractModuleSpecifiers(src)
	assert.Empty(t, specs)
}

func TestExtractModuleSpecifiers_RejectsLeadingSlash(t *testing.T) {
	src := `require("/etc/passwd")`
	specs := ExtractModuleSpecifiers(src)
	assert.Empty(t, specs)
}

func TestExtractSymbolMentions(t *testing.T) {
	mentions := ExtractSymbolMentions("type SessionAnchor struct { planHash string }")
	assert.Contains(t, mentions, "SessionAnchor")
	assert.Contains(t, mentions, "planHash")
	assert.NotContains(t, mentions, "type")
	assert.NotContains(t, mentions, "struct")
}

func TestExtractSymbolMentions_ExcludesBlocklist(t *testing.T) {
	mentions := ExtractSymbolMentions("Foo Bar Baz")
	assert.Empty(t, mentions)
}
