package parser

import "strings"

// IndentedToSCSS rewrites the whitespace-significant "Sass" syntax into
// brace-and-semicolon SCSS before tokenizing, the same strategy real Sass
// implementations avoid but that keeps this core down to one lexer/parser
// pair instead of two parallel grammars. Nesting is inferred purely from
// indentation width; a line's trailing terminator is a "{" when a
// following line is indented further, otherwise a ";", except for
// comment lines which get neither.
//
// Span accuracy for indented-syntax sources is approximate: parser.Parse
// re-tokenizes the rewritten text rather than the original, so reported
// columns refer to the brace-expanded form. Exact indented-syntax source
// mapping is not implemented.
func IndentedToSCSS(text string) string {
	lines := strings.Split(text, "\n")
	indents := make([]int, len(lines))
	trimmed := make([]string, len(lines))
	blank := make([]bool, len(lines))
	for i, line := range lines {
		t := strings.TrimRight(line, " \t\r")
		content := strings.TrimLeft(t, " \t")
		trimmed[i] = content
		blank[i] = strings.TrimSpace(content) == ""
		indents[i] = len(t) - len(content)
	}

	var out strings.Builder
	stack := []int{0}
	for i := range lines {
		if blank[i] {
			out.WriteString("\n")
			continue
		}
		indent := indents[i]
		for len(stack) > 1 && indent < stack[len(stack)-1] {
			stack = stack[:len(stack)-1]
			out.WriteString("}\n")
		}
		if indent > stack[len(stack)-1] {
			stack = append(stack, indent)
		}

		content := trimmed[i]
		isComment := strings.HasPrefix(content, "//") || strings.HasPrefix(content, "/*")
		out.WriteString(content)
		if isComment {
			out.WriteString("\n")
			continue
		}
		if hasIndentedChildren(indents, blank, i, indent) {
			out.WriteString(" {\n")
		} else {
			out.WriteString(";\n")
		}
	}
	for len(stack) > 1 {
		stack = stack[:len(stack)-1]
		out.WriteString("}\n")
	}
	return out.String()
}

func hasIndentedChildren(indents []int, blank []bool, i int, indent int) bool {
	for j := i + 1; j < len(indents); j++ {
		if blank[j] {
			continue
		}
		return indents[j] > indent
	}
	return false
}
