package htmlfrag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body>
<form id="search" action="/search" method="get"><input name="q" value=""></form>
<form class="login-form" action="/login" method="post">
	<input type="hidden" name="action" value="loginAction">
	<input type="hidden" name="flow" value="websiteSignUp">
	<input type="email" name="email">
	<input type="password" name="password">
	<input type="checkbox" name="rememberMe" value="true" checked>
	<button type="submit">Sign In</button>
</form>
</body></html>`

func TestParseFormsKeysByID(t *testing.T) {
	forms := ParseForms(`<form id="X" action="/a" method="post"><input name="k" value="v"></form>`)

	f, ok := forms.ByID("X")
	require.True(t, ok)
	require.Equal(t, "v", f.Fields["k"])
	require.Equal(t, "/a", f.Attrs["action"])
	require.Equal(t, "post", f.Attrs["method"])
}

func TestParseFormsPositionalKeys(t *testing.T) {
	forms := ParseForms(loginPage)
	require.Len(t, forms, 2)

	require.Equal(t, "search", forms[0].ID)
	require.Equal(t, "1", forms[1].ID)

	login, ok := forms.WithField("action", "loginAction")
	require.True(t, ok)
	require.Equal(t, "1", login.ID)
	require.Equal(t, "websiteSignUp", login.Fields["flow"])
}

func TestParseFormsDuplicateIDReplaces(t *testing.T) {
	forms := ParseForms(`
		<form id="a"><input name="first" value="1"></form>
		<form id="a"><input name="second" value="2"></form>`)

	require.Len(t, forms, 1)
	require.NotContains(t, forms[0].Fields, "first")
	require.Equal(t, "2", forms[0].Fields["second"])
}

func TestParseFormsIgnoresFieldsOutsideForms(t *testing.T) {
	forms := ParseForms(`<input name="stray" value="x"><form id="f"></form><input name="after" value="y">`)

	require.Len(t, forms, 1)
	require.Empty(t, forms[0].Fields)
}

func TestFormPayload(t *testing.T) {
	login, ok := ParseForms(loginPage).WithField("action", "loginAction")
	require.True(t, ok)

	payload := login.Payload(map[string]string{
		"email":    "someone@example.com",
		"password": "hunter2",
	})

	require.Equal(t, "loginAction", payload.Get("action"))
	require.Equal(t, "true", payload.Get("rememberMe"))
	require.Equal(t, "someone@example.com", payload.Get("email"))
	require.Equal(t, "hunter2", payload.Get("password"))
}

func TestFormPayloadDropsValuelessFields(t *testing.T) {
	f, ok := ParseForms(`<form id="f"><input name="bare"><input name="empty" value=""></form>`).ByID("f")
	require.True(t, ok)

	payload := f.Payload(nil)
	require.NotContains(t, payload, "bare")
	require.Contains(t, payload, "empty")
}

func TestParseFormsNoForms(t *testing.T) {
	require.Empty(t, ParseForms(`<p>nothing here</p>`))
	require.Empty(t, ParseForms(``))
}
