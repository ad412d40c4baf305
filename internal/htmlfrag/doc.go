// Package htmlfrag extracts small fragments from HTML pages: form definitions,
// the profile chooser's entries and free text captured between tags that
// match a predicate. Every parser makes a single pass over the token stream
// in document order and never fails; missing markup yields empty results.
package htmlfrag
