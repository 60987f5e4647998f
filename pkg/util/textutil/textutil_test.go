package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "printer on fire", StripHTML("  <b>printer</b> on <script>alert(1)</script>fire "))
	assert.Equal(t, "Pedro's desk", StripHTML("Pedro's desk"))
	assert.Equal(t, "", StripHTML("<img src=x>"))
	assert.Equal(t, "Tom & Jerry", StripHTML("Tom &amp; Jerry"))
	assert.Equal(t, "a < b", StripHTML("a < b"))
}

func TestStripHTMLEncodedMarkup(t *testing.T) {
	inputs := []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"&amp;lt;img src=x onerror=alert(1)&amp;gt;",
		"&#60;b&#62;bold&#60;/b&#62;",
		"&amp;amp;lt;script&amp;amp;gt;x&amp;amp;lt;/script&amp;amp;gt;",
	}
	for _, in := range inputs {
		out := StripHTML(in)
		assert.NotContains(t, out, "<script", in)
		assert.NotContains(t, out, "<img", in)
		assert.NotContains(t, out, "<b>", in)
		assert.Equal(t, out, StripHTML(out), in)
	}
	assert.Equal(t, "bold", StripHTML("&#60;b&#62;bold&#60;/b&#62;"))
}

func TestStripHTMLPtr(t *testing.T) {
	assert.Nil(t, StripHTMLPtr(nil))
	blank := "   "
	assert.Nil(t, StripHTMLPtr(&blank))
	desc := "<i>2nd floor</i>"
	got := StripHTMLPtr(&desc)
	if assert.NotNil(t, got) {
		assert.Equal(t, "2nd floor", *got)
	}
}

func TestMachineName(t *testing.T) {
	tests := map[string]string{
		"Técnico de Campo":   "tecnico_de_campo",
		"  Suporte   N2 ":    "suporte_n2",
		"Gestão-Financeira":  "gestao_financeira",
		"ADMIN":              "admin",
		"!!!":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, MachineName(in), in)
	}
}
