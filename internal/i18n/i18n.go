// Package i18n localizes the few user-facing strings the live compiler
// produces itself. Everything else the user sees comes from the compiler.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text doubles as the key.
const (
	MsgExportInkErrors = "Ink has errors - please fix them before exporting."
	MsgUnexpectedError = "Unexpected error"
)

// Localizer looks up the display text for a message key.
type Localizer interface {
	Text(key string) string
}

var supported = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Spanish,
}

var translations = map[language.Tag]map[string]string{
	language.German: {
		MsgExportInkErrors: "Ink enthält Fehler - bitte vor dem Exportieren beheben.",
		MsgUnexpectedError: "Unerwarteter Fehler",
	},
	language.French: {
		MsgExportInkErrors: "Ink contient des erreurs - corrigez-les avant d'exporter.",
		MsgUnexpectedError: "Erreur inattendue",
	},
	language.Spanish: {
		MsgExportInkErrors: "Ink tiene errores - corrígelos antes de exportar.",
		MsgUnexpectedError: "Error inesperado",
	},
}

var defaultCatalog = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, key := range []string{MsgExportInkErrors, MsgUnexpectedError} {
		_ = b.SetString(language.English, key, key)
	}
	for tag, msgs := range translations {
		for key, text := range msgs {
			_ = b.SetString(tag, key, text)
		}
	}
	return b
}

// Printer is a Localizer backed by an x/text message catalog.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// New returns a Printer for lang (a BCP 47 tag such as "de" or "fr-CA").
// Unknown or malformed tags fall back to English.
func New(lang string) *Printer {
	tag := language.English
	if parsed, err := language.Parse(lang); err == nil {
		_, idx, conf := language.NewMatcher(supported).Match(parsed)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	return &Printer{
		tag: tag,
		p:   message.NewPrinter(tag, message.Catalog(defaultCatalog)),
	}
}

// Tag returns the matched language.
func (p *Printer) Tag() language.Tag {
	return p.tag
}

// Text implements Localizer. Unknown keys are returned unchanged.
func (p *Printer) Text(key string) string {
	return p.p.Sprintf(key)
}
