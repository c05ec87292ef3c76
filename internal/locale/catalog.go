// SPDX-License-Identifier: MIT

package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys used by the built-in templates. The key doubles as the
// English text.
const (
	MsgTitle    = "Point Cloud Visualizer"
	MsgLoading  = "Loading viewer…"
	MsgLanguage = "Language"
	MsgVersion  = "Version %s"
)

var translations = map[language.Tag]map[string]string{
	language.German: {
		MsgTitle:    "Punktwolken-Visualisierung",
		MsgLoading:  "Viewer wird geladen…",
		MsgLanguage: "Sprache",
		MsgVersion:  "Version %s",
	},
	language.French: {
		MsgTitle:    "Visualiseur de nuages de points",
		MsgLoading:  "Chargement du visualiseur…",
		MsgLanguage: "Langue",
		MsgVersion:  "Version %s",
	},
}

// buildCatalog returns the message catalog and the languages it covers.
// English needs no entries since keys are English.
func buildCatalog() (catalog.Catalog, []language.Tag, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	tags := []language.Tag{language.English}
	for _, tag := range []language.Tag{language.German, language.French} {
		for key, text := range translations[tag] {
			if err := b.SetString(tag, key, text); err != nil {
				return nil, nil, err
			}
		}
		tags = append(tags, tag)
	}
	return b, tags, nil
}

// NewPrinter returns a printer for tag backed by the built-in catalog.
func NewPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(builtinCatalog))
}

var builtinCatalog, builtinTags = mustCatalog()

func mustCatalog() (catalog.Catalog, []language.Tag) {
	c, tags, err := buildCatalog()
	if err != nil {
		panic(err)
	}
	return c, tags
}
