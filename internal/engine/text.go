package engine

import "strings"

var punctReplacer = strings.NewReplacer(
	"&", " and ",
	"[", " ", "]", " ",
	"{", " ", "}", " ",
	"(", " ", ")", " ",
	"<", " ", ">", " ",
	`"`, " ", "'", " ",
	":", " ", ";", " ",
	"#", " ", "@", " ",
	"-", " ", "_", " ",
)

// CleanText normalizes free-form phrase input before embedding: noisy
// punctuation becomes whitespace, "&" becomes "and", and runs of
// whitespace collapse to single spaces. Sentence punctuation (.,!?)
// is kept as-is for the embedding model.
func CleanText(text string) string {
	text = punctReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}
