package repl

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/dioscript/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "vars", "funcs", "output", "edit", "reset", "clear", "quit",
}

// keywords are offered as completions in eval mode.
var keywords = []string{
	"if", "else", "for", "in", "while", "return", "true", "false", "none",
}

// isWordRune reports whether r belongs to a completable word: an identifier,
// a qualified "module::name", or a "@variable".
func isWordRune(r rune) bool {
	switch r {
	case '_', '-', ':', '@':
		return true
	}

	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wordBounds returns the word surrounding cursor and its byte offsets in
// input. The word is empty when the cursor is not touching one.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isWordRune(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if !isWordRune(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// candidates returns the completions available for word in eval mode.
func candidates(sess *lang.Session, word string) []string {
	if strings.HasPrefix(word, "@") {
		names := make([]string, 0, sess.Len())
		for name := range sess.Variables() {
			names = append(names, "@"+name)
		}

		return names
	}

	reg := sess.Runtime().Registry()

	var names []string

	if !strings.Contains(word, "::") {
		names = slices.Clone(keywords)
		names = append(names, reg.Functions(lang.RootModule)...)
	}

	for _, module := range reg.Modules() {
		for _, fn := range reg.Functions(module) {
			names = append(names, module+"::"+fn)
		}
	}

	return names
}

// computeMatches ranks the candidates for the word at the cursor, best
// first. An empty word has no matches.
func (m model) computeMatches() (matches fuzzy.Matches, start, end int) {
	word, start, end := wordBounds(m.input.Value(), m.offset())
	if word == "" || word == "@" && m.sess.Len() == 0 {
		return nil, start, end
	}

	var list []string
	if m.mode == modeCtrl {
		list = ctrlCommands
	} else {
		list = candidates(m.sess, word)
	}

	if word == "@" {
		matches = make(fuzzy.Matches, len(list))
		for i, s := range list {
			matches[i] = fuzzy.Match{Str: s, Index: i}
		}

		return matches, start, end
	}

	return fuzzy.Find(word, list), start, end
}

// renderCandidateBar renders matches on one line no wider than width,
// ending in an ellipsis when they do not all fit.
func renderCandidateBar(matches fuzzy.Matches, selected int, width int) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	room := width - lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		item := renderCandidate(match, i == selected)

		w := lipgloss.Width(item)
		if i > 0 {
			w += len(sep)
		}

		if i > 0 && used+w > room && i < len(matches)-1 {
			b.WriteString(sep + ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(item)

		used += w
	}

	return b.String()
}

// renderCandidate renders one candidate with its matched runes highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, mark := suggestionStyle, matchStyle
	if selected {
		base, mark = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(mark.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	return b.String()
}
