package prompt

import (
	"regexp"
	"sort"
	"strings"
)

// The template engine compiles templates but keeps its syntax tree
// private, so free variables are derived by scanning the template's
// expression and statement tags directly. Names declared inside the
// template (for-loop targets, set assignments, the loop builtin) and
// language keywords are not free; names used as filters or attribute
// lookups are not variables.

var (
	tagRe   = regexp.MustCompile(`\{\{-?([\s\S]*?)-?\}\}|\{%-?([\s\S]*?)-?%\}`)
	identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	strRe   = regexp.MustCompile(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`)
)

var templateKeywords = map[string]bool{
	"if": true, "elif": true, "else": true, "endif": true,
	"for": true, "in": true, "endfor": true, "empty": true,
	"set": true, "with": true, "endwith": true,
	"block": true, "endblock": true, "extends": true, "include": true,
	"macro": true, "endmacro": true, "filter": true, "endfilter": true,
	"not": true, "and": true, "or": true, "is": true,
	"true": true, "false": true, "True": true, "False": true,
	"none": true, "None": true, "nil": true,
}

// Variables returns the set of free variable names referenced in a
// template string, sorted and deduplicated. It is a pure function of the
// template text; PromptBuilder uses it after a successful parse so the
// declared inputs always match what the compiled template will read.
func Variables(source string) []string {
	declared := map[string]bool{"loop": true}
	referenced := map[string]bool{}

	tags := tagRe.FindAllStringSubmatch(source, -1)

	// First pass: names the template itself declares.
	for _, tag := range tags {
		body := strRe.ReplaceAllString(tag[1]+tag[2], "")
		fields := strings.Fields(body)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "for":
			// {% for a, b in expr %} declares a and b.
			for _, f := range fields[1:] {
				if f == "in" {
					break
				}
				for _, name := range identRe.FindAllString(f, -1) {
					declared[name] = true
				}
			}
		case "set", "with":
			// {% set x = expr %} declares x.
			if len(fields) > 1 {
				if name := identRe.FindString(fields[1]); name != "" {
					declared[name] = true
				}
			}
		}
	}

	// Second pass: every identifier read by the template, skipping
	// attribute lookups (after ".") and filter names (after "|").
	for _, tag := range tags {
		body := strRe.ReplaceAllString(tag[1]+tag[2], "")
		for _, loc := range identRe.FindAllStringIndex(body, -1) {
			name := body[loc[0]:loc[1]]
			if templateKeywords[name] || declared[name] {
				continue
			}
			if prev := lastNonSpace(body[:loc[0]]); prev == '.' || prev == '|' {
				continue
			}
			referenced[name] = true
		}
	}

	vars := make([]string, 0, len(referenced))
	for name := range referenced {
		vars = append(vars, name)
	}
	sort.Strings(vars)
	return vars
}

// lastNonSpace returns the last non-whitespace byte of s, or 0 when s is
// blank.
func lastNonSpace(s string) byte {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return s[i]
		}
	}
	return 0
}
