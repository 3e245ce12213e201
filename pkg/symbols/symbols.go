// Package symbols implements clawforge's symbol-boundary extractor
// (§4.11): pulling repo-relative paths and module specifiers out of
// unified-diff text, plus a best-effort scan for identifier mentions.
// Used by the reviewer orchestrator's static and security rules to
// check that a patch only touches what an envelope allows.
package symbols

import (
	"regexp"
	"strings"
)

var (
	diffHeaderRE = regexp.MustCompile(`(?m)^(?:---|\+\+\+) (?:a/|b/)?(\S+)`)
	importFromRE = regexp.MustCompile(`import\s+(?:[\w{}*\s,]+\s+from\s+)?["']([^"']+)["']`)
	requireRE    = regexp.MustCompile(`require\(\s*["']([^"']+)["']\s*\)`)
	dynImportRE  = regexp.MustCompile(`import\(\s*["']([^"']+)["']\s*\)`)
	identifierRE = regexp.MustCompile(`\b[A-Za-z][A-Za-z0-9]*\b`)
)

// shortWordBlocklist excludes common short identifiers that are not
// meaningful symbol mentions (keywords and trivial names).
var shortWordBlocklist = map[string]bool{
	"the": true, "and": true, "for": true, "var": true, "let": true,
	"int": true, "str": true, "Foo": true, "Bar": true, "Baz": true,
}

// ExtractPaths returns the set of repo-relative paths named in a
// unified diff's --- a/X and +++ b/X header lines, excluding
// /dev/null, normalized per §4.11: backslashes converted to forward
// slashes, a leading "./" stripped.
func ExtractPaths(diff string) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, m := range diffHeaderRE.FindAllStringSubmatch(diff, -1) {
		p := normalizePath(m[1])
		if p == "" || p == "/dev/null" || p == "dev/null" || seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	return paths
}

// ExtractModuleSpecifiers returns the set of module specifiers named by
// `import … from "…"`, `require("…")`, and dynamic `import("…")`
// patterns in src. Relative specifiers are normalized the same way
// ExtractPaths normalizes file paths; specifiers containing ".." or
// starting with "/" are rejected outright (dropped from the result).
// External (non-relative) specifiers pass through unchanged.
func ExtractModuleSpecifiers(src string) []string {
	seen := make(map[string]bool)
	var specs []string
	add := func(raw string) {
		s := normalizeSpecifier(raw)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		specs = append(specs, s)
	}
	for _, m := range importFromRE.FindAllStringSubmatch(src, -1) {
		add(m[1])
	}
	for _, m := range requireRE.FindAllStringSubmatch(src, -1) {
		add(m[1])
	}
	for _, m := range dynImportRE.FindAllStringSubmatch(src, -1) {
		add(m[1])
	}
	return specs
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	return p
}

// normalizeSpecifier applies the path normalization to relative
// specifiers and rejects any containing ".." or a leading "/". External
// (non-relative, i.e. not starting with "." or "/") specifiers pass
// through unmodified.
func normalizeSpecifier(spec string) string {
	if !strings.HasPrefix(spec, ".") && !strings.HasPrefix(spec, "/") {
		return spec
	}
	norm := strings.ReplaceAll(spec, "\\", "/")
	norm = strings.TrimPrefix(norm, "./")
	if strings.HasPrefix(norm, "/") || pathTraversesUp(norm) {
		return ""
	}
	return norm
}

func pathTraversesUp(p string) bool {
	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}

// ExtractSymbolMentions performs a best-effort scan for PascalCase or
// camelCase identifiers of length >= 3 in src, excluding the short-word
// blocklist.
func ExtractSymbolMentions(src string) []string {
	seen := make(map[string]bool)
	var mentions []string
	for _, tok := range identifierRE.FindAllString(src, -1) {
		if len(tok) < 3 || shortWordBlocklist[tok] || !isMixedCase(tok) {
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		mentions = append(mentions, tok)
	}
	return mentions
}

// isMixedCase reports whether tok looks like PascalCase or camelCase:
// it contains at least one ASCII uppercase and at least one ASCII
// lowercase letter, i.e. it is not all-lowercase and not all-uppercase.
func isMixedCase(tok string) bool {
	hasUpper, hasLower := false, false
	for _, r := range tok {
		if r >= 'A' && r <= 'Z' {
			hasUpper = true
		}
		if r >= 'a' && r <= 'z' {
			hasLower = true
		}
	}
	return hasUpper && hasLower
}
