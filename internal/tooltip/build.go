package tooltip

import (
	"strings"

	"golang.org/x/net/html"
)

// Texts rendered into tooltip rows before and in place of lookup results.
const (
	LoadingText    = "loading..."
	NoPhoneticText = "no phonetic available"
)

// Tokenize splits text into word tokens on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// BuildMainTooltip builds the tooltip for a hovered selection. Multi-token
// input produces a phrase view with one interactive element per word, each
// of which can host its own word tooltip. Single-token input produces a
// word view with loading placeholders for the phonetic and meaning rows.
func BuildMainTooltip(text string) *html.Node {
	tokens := Tokenize(text)
	if len(tokens) > 1 {
		return buildPhraseView(tokens)
	}

	word := strings.TrimSpace(text)
	if len(tokens) == 1 {
		word = tokens[0]
	}
	return buildWordView(word)
}

func buildPhraseView(tokens []string) *html.Node {
	root := newElement("div", attr("class", ClassRoot+" "+ClassPhrase))
	for i, token := range tokens {
		if i > 0 {
			root.AppendChild(newText(" "))
		}
		term := newElement("span", attr("class", ClassTerm), attr("data-word", token))
		term.AppendChild(newText(token))
		root.AppendChild(term)
	}
	return root
}

func buildWordView(word string) *html.Node {
	root := newElement("div", attr("class", ClassRoot+" "+ClassWord), attr("data-word", word))
	root.AppendChild(loadingRow(ClassPhonetic))
	root.AppendChild(loadingRow(ClassMeaning))
	return root
}

func loadingRow(class string) *html.Node {
	row := newElement("div", attr("class", class))
	row.AppendChild(textSpan(ClassLoading, LoadingText))
	return row
}

func textSpan(class, text string) *html.Node {
	span := newElement("span", attr("class", class))
	span.AppendChild(newText(text))
	return span
}

// BuildWordTooltip builds the nested tooltip shown for one word inside a
// phrase view. The phonetic row shows, in priority order, the resolved
// transcription, the lookup error, or a loading placeholder, followed by
// one audio trigger per accent variant. The meaning row starts as a
// loading placeholder either way.
func BuildWordTooltip(word, phoneticText string, hasError bool, errorMessage string) *html.Node {
	root := newElement("div", attr("class", ClassRoot+" "+ClassWord), attr("data-word", word))

	row := newElement("div", attr("class", ClassPhonetic))
	row.AppendChild(phoneticState(phoneticText, hasError, errorMessage))
	for _, accent := range []string{"us", "uk"} {
		row.AppendChild(audioTrigger(word, accent))
	}
	root.AppendChild(row)

	root.AppendChild(loadingRow(ClassMeaning))
	return root
}

func phoneticState(text string, hasError bool, errorMessage string) *html.Node {
	switch {
	case text != "":
		return textSpan(ClassText, text)
	case hasError:
		if errorMessage == "" {
			errorMessage = "phonetic lookup failed"
		}
		return textSpan(ClassError, errorMessage)
	default:
		return textSpan(ClassLoading, LoadingText)
	}
}

// audioTrigger is the inert per-accent pronunciation affordance. The
// consumer wires the click handler.
func audioTrigger(word, accent string) *html.Node {
	btn := newElement("button",
		attr("class", ClassAudio),
		attr("type", "button"),
		attr("data-word", word),
		attr("data-accent", accent),
	)
	btn.AppendChild(newText(strings.ToUpper(accent)))
	return btn
}
