package htmlfrag

import (
	"net/url"
	"strconv"
)

// Form is one <form> element: its own attributes and the default values of
// every named tag nested inside it.
type Form struct {
	ID     string
	Attrs  map[string]string
	Fields map[string]string

	valueless map[string]bool
}

// Payload returns the form's defaults with overrides applied. Fields that
// had no value attribute are left out unless overridden.
func (f *Form) Payload(overrides map[string]string) url.Values {
	out := url.Values{}
	for name, value := range f.Fields {
		if f.valueless[name] {
			continue
		}
		out.Set(name, value)
	}
	for name, value := range overrides {
		out.Set(name, value)
	}

	return out
}

// Forms holds the forms of a page in document order.
type Forms []*Form

// ByID looks up a form by its id attribute or positional key.
func (fs Forms) ByID(id string) (*Form, bool) {
	for _, f := range fs {
		if f.ID == id {
			return f, true
		}
	}

	return nil, false
}

// WithField returns the first form whose field name has the given value.
func (fs Forms) WithField(name, value string) (*Form, bool) {
	for _, f := range fs {
		if v, ok := f.Fields[name]; ok && !f.valueless[name] && v == value {
			return f, true
		}
	}

	return nil, false
}

// ParseForms returns every form in doc. Forms without an id are keyed by the
// number of forms collected before them; a repeated key replaces the earlier form
// in place.
func ParseForms(doc string) Forms {
	p := &formParser{index: map[string]int{}}
	walk(doc, p)

	return p.forms
}

type formParser struct {
	forms   Forms
	index   map[string]int
	current *Form
}

func (p *formParser) startTag(name string, attrs map[string]string) {
	if name == "form" {
		id, ok := attrs["id"]
		if !ok {
			id = strconv.Itoa(len(p.forms))
		}

		f := &Form{
			ID:        id,
			Attrs:     attrs,
			Fields:    map[string]string{},
			valueless: map[string]bool{},
		}
		if i, dup := p.index[id]; dup {
			p.forms[i] = f
		} else {
			p.index[id] = len(p.forms)
			p.forms = append(p.forms, f)
		}
		p.current = f
	}

	if p.current == nil {
		return
	}
	field, ok := attrs["name"]
	if !ok {
		return
	}
	value, hasValue := attrs["value"]
	p.current.Fields[field] = value
	if hasValue {
		delete(p.current.valueless, field)
	} else {
		p.current.valueless[field] = true
	}
}

func (p *formParser) endTag(name string) {
	if name == "form" {
		p.current = nil
	}
}

func (p *formParser) text(string) {}
