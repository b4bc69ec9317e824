package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestPrinter_English(t *testing.T) {
	p := New("en")
	assert.Equal(t, language.English, p.Tag())
	assert.Equal(t, MsgExportInkErrors, p.Text(MsgExportInkErrors))
	assert.Equal(t, MsgUnexpectedError, p.Text(MsgUnexpectedError))
}

func TestPrinter_Translated(t *testing.T) {
	p := New("de-AT")
	assert.Equal(t, language.German, p.Tag())
	assert.Equal(t, "Unerwarteter Fehler", p.Text(MsgUnexpectedError))

	assert.Equal(t, "Error inesperado", New("es").Text(MsgUnexpectedError))
}

func TestPrinter_Fallback(t *testing.T) {
	assert.Equal(t, language.English, New("").Tag())
	assert.Equal(t, language.English, New("not a tag!").Tag())
	assert.Equal(t, MsgUnexpectedError, New("ja").Text(MsgUnexpectedError))
}

func TestPrinter_UnknownKey(t *testing.T) {
	assert.Equal(t, "no such message", New("en").Text("no such message"))
}
