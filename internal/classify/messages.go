package classify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Catalog keys. Headline arguments are, in order: similarity percent,
// naturalness percent, usable reference count and coverage percent.
const (
	msgInsufficientData  = "headline.insufficient_data"
	msgAuthentic         = "headline.authentic"
	msgDissimulated      = "headline.authentic_dissimulated"
	msgProbablyAuthentic = "headline.probably_authentic"
	msgTracedPattern     = "headline.traced_pattern"
	msgModerate          = "headline.moderate_similarity"
	msgPartialData       = "headline.partial_data"
	msgProbablyFalse     = "headline.probably_false"
	msgNoMatch           = "headline.no_match"

	msgWeak          = "detail.weak"
	msgWeakCategory  = "detail.weak_category"
	msgSpread        = "detail.spread"
	msgPartialVector = "detail.partial"
	msgSkipped       = "detail.skipped"
)

// Supported lists the explanation languages; the first is the fallback.
var Supported = []language.Tag{language.English, language.Italian}

var matcher = language.NewMatcher(Supported)

var entries = map[language.Tag]map[string]string{
	language.English: {
		msgInsufficientData:  "Insufficient comparable data: %[3]d usable reference(s), coverage %.0[4]f%%.",
		msgAuthentic:         "High similarity (%.0[1]f%%) with natural execution (naturalness %.0[2]f%%).",
		msgDissimulated:      "High similarity (%.0[1]f%%) with reduced naturalness (%.0[2]f%%), consistent with a genuine signature deliberately altered by its author.",
		msgProbablyAuthentic: "Good similarity (%.0[1]f%%) to the reference signatures.",
		msgTracedPattern:     "Very high similarity (%.0[1]f%%) but low naturalness (%.0[2]f%%), consistent with a traced or copied pattern.",
		msgModerate:          "Moderate similarity (%.0[1]f%%) to the reference signatures.",
		msgPartialData:       "Low similarity (%.0[1]f%%) measured on incomplete feature vectors; the data is insufficient for a conclusion.",
		msgProbablyFalse:     "Low similarity (%.0[1]f%%) to the reference signatures.",
		msgNoMatch:           "The measurements fit no decision rule (similarity %.0[1]f%%, naturalness %.0[2]f%%).",

		msgWeak:          "Weakest areas: %s.",
		msgWeakCategory:  "%s (%s)",
		msgSpread:        "The references disagree (spread %.0f%%); more references would strengthen the conclusion.",
		msgPartialVector: "Some features could not be measured and were left out: %s.",
		msgSkipped:       "%d reference(s) excluded for insufficient coverage.",

		string(labelAuthentic):         "Authentic",
		string(labelDissimulated):      "Authentic (dissimulated)",
		string(labelProbablyAuthentic): "Probably authentic",
		string(labelSuspicious):        "Suspicious",
		string(labelUncertain):         "Uncertain",
		string(labelProbablyFalse):     "Probably false",
	},
	language.Italian: {
		msgInsufficientData:  "Dati confrontabili insufficienti: %[3]d riferimento/i utilizzabile/i, copertura %.0[4]f%%.",
		msgAuthentic:         "Alta somiglianza (%.0[1]f%%) con esecuzione naturale (naturalezza %.0[2]f%%).",
		msgDissimulated:      "Alta somiglianza (%.0[1]f%%) con naturalezza ridotta (%.0[2]f%%), compatibile con una firma autentica volutamente alterata dal suo autore.",
		msgProbablyAuthentic: "Buona somiglianza (%.0[1]f%%) con le firme di riferimento.",
		msgTracedPattern:     "Somiglianza molto alta (%.0[1]f%%) ma naturalezza bassa (%.0[2]f%%), compatibile con un ricalco o una copia.",
		msgModerate:          "Somiglianza moderata (%.0[1]f%%) con le firme di riferimento.",
		msgPartialData:       "Bassa somiglianza (%.0[1]f%%) misurata su vettori di caratteristiche incompleti; i dati non bastano per una conclusione.",
		msgProbablyFalse:     "Bassa somiglianza (%.0[1]f%%) con le firme di riferimento.",
		msgNoMatch:           "Le misure non corrispondono ad alcuna regola di decisione (somiglianza %.0[1]f%%, naturalezza %.0[2]f%%).",

		msgWeak:          "Aree più deboli: %s.",
		msgWeakCategory:  "%s (%s)",
		msgSpread:        "I riferimenti non concordano (dispersione %.0f%%); altri riferimenti rafforzerebbero la conclusione.",
		msgPartialVector: "Alcune caratteristiche non sono misurabili e sono state escluse: %s.",
		msgSkipped:       "%d riferimento/i escluso/i per copertura insufficiente.",

		string(labelAuthentic):         "Autentica",
		string(labelDissimulated):      "Autentica (dissimulata)",
		string(labelProbablyAuthentic): "Probabilmente autentica",
		string(labelSuspicious):        "Sospetta",
		string(labelUncertain):         "Incerta",
		string(labelProbablyFalse):     "Probabilmente falsa",
	},
}

type labelKey string

const (
	labelAuthentic         labelKey = "label.authentic"
	labelDissimulated      labelKey = "label.authentic_dissimulated"
	labelProbablyAuthentic labelKey = "label.probably_authentic"
	labelSuspicious        labelKey = "label.suspicious"
	labelUncertain         labelKey = "label.uncertain"
	labelProbablyFalse     labelKey = "label.probably_false"
)

// newCatalog builds the message catalog. It panics on a malformed entry,
// which can only be a programming error.
func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range entries {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

var messages = newCatalog()

// MatchLanguage picks the best supported language for a list of BCP 47
// tags or Accept-Language strings. Unknown input falls back to English.
func MatchLanguage(prefs ...string) language.Tag {
	tag, _ := language.MatchStrings(matcher, prefs...)
	base, _ := tag.Base()
	for _, s := range Supported {
		if b, _ := s.Base(); b == base {
			return s
		}
	}
	return Supported[0]
}

func newPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(messages))
}
