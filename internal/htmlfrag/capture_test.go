package htmlfrag

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestGenreTitles(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "nested tags stay in one capture",
			doc:  `<div class="genreTitle"><span>A</span>B</div>`,
			want: []string{"AB"},
		},
		{
			name: "inner close tag does not end capture",
			doc:  `<div class="row genreTitle"><div><b>Action</b></div> &amp; Adventure</div><div>after</div>`,
			want: []string{"Action & Adventure"},
		},
		{
			name: "void and self-closing tags keep depth balanced",
			doc:  `<h1 class="genreTitle">Late<br>Night<img src="x.png"/></h1><p>Comedies</p>`,
			want: []string{"LateNight"},
		},
		{
			name: "multiple regions",
			doc:  `<span class="genreTitle">One</span><p>x</p><span class="genreTitle">Two</span>`,
			want: []string{"One", "Two"},
		},
		{
			name: "nested matching tag does not start a new region",
			doc:  `<div class="genreTitle">Outer <span class="genreTitle">Inner</span></div>`,
			want: []string{"Outer Inner"},
		},
		{
			name: "absent",
			doc:  `<html><body><div class="title">Nope</div></body></html>`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenreTitles(tt.doc)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("GenreTitles() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	doc := `<div class="ui-message-container ui-message-error"><div>JS disabled</div></div>
	<form><div class="ui-message-error"><span>Incorrect password</span></div></form>`

	require.Equal(t, []string{"JS disabled", "Incorrect password"}, ErrorMessages(doc))
}

func TestCaptureCustomPredicate(t *testing.T) {
	pred := func(tag string, attrs map[string]string) bool {
		return tag == "title"
	}

	require.Equal(t, []string{"Netflix"}, Capture(`<head><title>Netflix</title></head>`, pred))
}

func TestCaptureUnclosedRegion(t *testing.T) {
	require.Empty(t, GenreTitles(`<div class="genreTitle">never closed`))
}
