package shell

import "strings"

// tokenize splits a line of input into whitespace separated words. A leading
// "bg" word is removed and reported as background. Words starting with ~ have
// the ~ replaced with home.
func tokenize(line, home string) (args []string, background bool) {
	words := strings.Fields(line)

	if len(words) > 0 && words[0] == "bg" {
		background = true
		words = words[1:]
	}

	for i, word := range words {
		if home != "" && strings.HasPrefix(word, "~") {
			words[i] = home + word[1:]
		}
	}

	return words, background
}
