package htmlfrag

import "strings"

// Predicate decides whether a start tag opens a capture region.
type Predicate func(tag string, attrs map[string]string) bool

// ClassPredicate matches tags whose class list contains class.
func ClassPredicate(class string) Predicate {
	return func(_ string, attrs map[string]string) bool {
		return hasClass(attrs, class)
	}
}

var (
	errorMessage = ClassPredicate("ui-message-error")
	genreTitle   = ClassPredicate("genreTitle")
)

// Capture returns the text of every top-level region opened by a tag
// matching pred. Tags nested inside a region only move the depth counter, so
// a region runs until the close tag balancing the one that opened it.
func Capture(doc string, pred Predicate) []string {
	p := &captureParser{pred: pred}
	walk(doc, p)

	return p.strings
}

// ErrorMessages captures the site's error banners.
func ErrorMessages(doc string) []string {
	return Capture(doc, errorMessage)
}

// GenreTitles captures the title of a genre page.
func GenreTitles(doc string) []string {
	return Capture(doc, genreTitle)
}

type captureParser struct {
	pred    Predicate
	strings []string
	current strings.Builder
	depth   int
}

func (p *captureParser) startTag(name string, attrs map[string]string) {
	if p.depth > 0 {
		p.depth++
		return
	}
	if p.pred(name, attrs) {
		p.depth = 1
	}
}

func (p *captureParser) endTag(string) {
	if p.depth == 0 {
		return
	}

	p.depth--
	if p.depth == 0 {
		p.strings = append(p.strings, p.current.String())
		p.current.Reset()
	}
}

func (p *captureParser) text(data string) {
	if p.depth > 0 {
		p.current.WriteString(data)
	}
}
