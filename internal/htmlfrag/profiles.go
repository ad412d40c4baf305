package htmlfrag

import "strings"

const profileLinkClass = "profile-link"

// Profile is one entry of the "who's watching" chooser.
type Profile struct {
	Name string
	Link string
}

// ParseProfiles returns the profile links of doc in document order.
func ParseProfiles(doc string) []Profile {
	p := &profileParser{}
	walk(doc, p)

	return p.profiles
}

type profileParser struct {
	profiles []Profile
	link     string
	name     strings.Builder
}

func (p *profileParser) startTag(name string, attrs map[string]string) {
	if name == "a" && hasClass(attrs, profileLinkClass) {
		p.link = attrs["href"]
	}
}

func (p *profileParser) endTag(name string) {
	if name != "a" || p.link == "" {
		return
	}

	p.profiles = append(p.profiles, Profile{
		Name: strings.TrimSpace(p.name.String()),
		Link: p.link,
	})
	p.link = ""
	p.name.Reset()
}

func (p *profileParser) text(data string) {
	if p.link != "" {
		p.name.WriteString(data)
	}
}
