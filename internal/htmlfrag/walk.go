package htmlfrag

import (
	"strings"

	"golang.org/x/net/html"
)

type handler interface {
	startTag(name string, attrs map[string]string)
	endTag(name string)
	text(data string)
}

// void elements never get an end tag, so they are closed right away to keep
// depth counting balanced.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

func walk(doc string, h handler) {
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return

		case html.StartTagToken:
			tok := z.Token()
			h.startTag(tok.Data, attrMap(tok.Attr))
			if voidElements[tok.Data] {
				h.endTag(tok.Data)
			}

		case html.SelfClosingTagToken:
			tok := z.Token()
			h.startTag(tok.Data, attrMap(tok.Attr))
			h.endTag(tok.Data)

		case html.EndTagToken:
			tok := z.Token()
			if voidElements[tok.Data] {
				continue
			}
			h.endTag(tok.Data)

		case html.TextToken:
			h.text(string(z.Text()))
		}
	}
}

func attrMap(attrs []html.Attribute) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Val
	}

	return m
}

func hasClass(attrs map[string]string, class string) bool {
	for _, c := range strings.Fields(attrs["class"]) {
		if c == class {
			return true
		}
	}

	return false
}
