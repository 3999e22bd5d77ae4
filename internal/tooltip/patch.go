package tooltip

import (
	"sync"

	"golang.org/x/net/html"
)

// ApplyMeaning fills the meaning row of a built tooltip with the resolved
// explanation. The loading placeholder is removed and the explanation
// element is created on first call and reused afterwards, so repeated
// calls overwrite the text instead of accumulating nodes.
func ApplyMeaning(node *html.Node, explanation string) {
	row := FindByClass(node, ClassMeaning)
	if row == nil {
		return
	}
	removeChildrenByClass(row, ClassLoading)

	for child := row.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && HasClass(child, ClassText) {
			setText(child, explanation)
			return
		}
	}
	row.AppendChild(textSpan(ClassText, explanation))
}

// ApplyPhonetic fills the phonetic row of a built tooltip. The loading
// placeholder is removed and exactly one terminal node is appended: the
// error display when lookupErr is set, the transcription when text is
// non-empty, or the no-phonetic fallback. Calling it again appends another
// terminal node; callers clear the row before re-applying.
func ApplyPhonetic(node *html.Node, text string, lookupErr error) {
	row := FindByClass(node, ClassPhonetic)
	if row == nil {
		return
	}
	removeChildrenByClass(row, ClassLoading)

	switch {
	case lookupErr != nil:
		row.AppendChild(textSpan(ClassError, lookupErr.Error()))
	case text != "":
		row.AppendChild(textSpan(ClassText, text))
	default:
		row.AppendChild(textSpan(ClassText, NoPhoneticText))
	}
}

// Patcher applies lookup results to tooltip slots with generation
// tagging. A slot is one visible tooltip anchor; every new hover calls
// Begin, which invalidates results still in flight for earlier hovers of
// the same slot, so a slow response can never overwrite a newer one.
type Patcher struct {
	mu   sync.Mutex
	gens map[string]uint64
}

// NewPatcher creates an empty Patcher.
func NewPatcher() *Patcher {
	return &Patcher{gens: make(map[string]uint64)}
}

// Begin starts a new generation for slot and returns its tag. Results
// carrying an older tag are refused from then on.
func (p *Patcher) Begin(slot string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gens[slot]++
	return p.gens[slot]
}

func (p *Patcher) current(slot string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gens[slot]
}

// ApplyMeaning applies the explanation to node if gen is still the
// current generation for slot. It reports whether the write happened.
func (p *Patcher) ApplyMeaning(slot string, gen uint64, node *html.Node, explanation string) bool {
	if gen != p.current(slot) {
		return false
	}
	ApplyMeaning(node, explanation)
	return true
}

// ApplyPhonetic applies the phonetic result to node if gen is still the
// current generation for slot. It reports whether the write happened.
func (p *Patcher) ApplyPhonetic(slot string, gen uint64, node *html.Node, text string, lookupErr error) bool {
	if gen != p.current(slot) {
		return false
	}
	ApplyPhonetic(node, text, lookupErr)
	return true
}
