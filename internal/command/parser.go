package command

import "strings"

// ParseResult holds the command word and the text following it.
type ParseResult struct {
	// Command is the word after the leading '/', lowercased.
	Command string
	// RawArgs is the text after the single separator following the command word.
	RawArgs string
}

// Parse splits a chat line of the form "/name args" into its command and arguments.
//
// Postcondition: Returns a ParseResult. If line is not a slash command, Command is empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return ParseResult{}
	}
	end := 1
	for end < len(line) && isLetter(line[end]) {
		end++
	}
	if end == 1 || (end < len(line) && !isSpace(line[end])) {
		return ParseResult{}
	}
	res := ParseResult{Command: strings.ToLower(line[1:end])}
	if end < len(line) {
		res.RawArgs = line[end+1:]
	}
	return res
}

// Split extracts every registered slash command from a chat line, e.g.
// "note: /r 1d20 /r 2d4" yields ["/r 1d20", "/r 2d4"]. A command runs until the
// next '/' or the end of the line.
//
// Postcondition: each element begins with '/' and a registered name or alias.
func (r *Registry) Split(line string) []string {
	var out []string
	for i := 0; i < len(line); i++ {
		if line[i] != '/' {
			continue
		}
		end := i + 1
		for end < len(line) && isLetter(line[end]) {
			end++
		}
		if end >= len(line) || !isSpace(line[end]) {
			continue
		}
		if _, ok := r.Resolve(strings.ToLower(line[i+1 : end])); !ok {
			continue
		}
		stop := len(line)
		if next := strings.IndexByte(line[end:], '/'); next >= 0 {
			stop = end + next
		}
		out = append(out, strings.TrimSpace(line[i:stop]))
		i = stop - 1
	}
	return out
}

// ExpressionPrefix splits s into the leading run that can belong to a dice
// expression and the remaining action text. The run is built from "d<n>",
// "<n>d<n>", "kh<n>", "kl<n>", "ro<cmp><n>", signs, numbers, whitespace and
// whole-word modifier shorthand in all lower or all upper case.
//
// Postcondition: expr+rest == s.
func ExpressionPrefix(s string) (expr, rest string) {
	i := 0
	for i < len(s) {
		n := expressionAtom(s[i:])
		if n == 0 {
			break
		}
		i += n
	}
	return s[:i], s[i:]
}

// expressionAtom returns the length of the expression atom at the start of s, or 0.
func expressionAtom(s string) int {
	c := s[0]
	switch {
	case c == '+' || c == '-':
		return 1
	case isSpace(c):
		n := 1
		for n < len(s) && isSpace(s[n]) {
			n++
		}
		return n
	case isDigit(c):
		n := digitRun(s)
		if n < len(s) && s[n] == 'd' {
			if m := digitRun(s[n+1:]); m > 0 {
				return n + 1 + m
			}
		}
		return n
	case c == 'd' && len(s) > 1 && isDigit(s[1]):
		return 2
	case strings.HasPrefix(s, "kh") || strings.HasPrefix(s, "kl"):
		if m := digitRun(s[2:]); m > 0 {
			return 2 + m
		}
	case strings.HasPrefix(s, "ro"):
		if cmp := comparatorLen(s[2:]); cmp > 0 {
			if m := digitRun(s[2+cmp:]); m > 0 {
				return 2 + cmp + m
			}
		}
	}
	return shorthandLen(s)
}

var shorthandTokens = []string{"str", "dex", "con", "int", "wis", "cha", "pb"}

func shorthandLen(s string) int {
	for _, tok := range shorthandTokens {
		for _, form := range [...]string{tok, strings.ToUpper(tok)} {
			if strings.HasPrefix(s, form) && (len(s) == len(form) || !isWordByte(s[len(form)])) {
				return len(form)
			}
		}
	}
	return 0
}

func comparatorLen(s string) int {
	switch {
	case strings.HasPrefix(s, "<="), strings.HasPrefix(s, ">="):
		return 2
	case strings.HasPrefix(s, "<"), strings.HasPrefix(s, ">"), strings.HasPrefix(s, "="):
		return 1
	}
	return 0
}

func digitRun(s string) int {
	n := 0
	for n < len(s) && isDigit(s[n]) {
		n++
	}
	return n
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
func isLetter(c byte) bool { return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') }
func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isWordByte(c byte) bool { return c == '_' || isDigit(c) || isLetter(c) }
