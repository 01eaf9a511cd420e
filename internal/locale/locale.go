package locale

import (
	"golang.org/x/text/language"
)

// supported lists the languages with a message table, default first.
var supported = []language.Tag{
	language.English,
	language.French,
}

var matcher = language.NewMatcher(supported)

// Match returns the best supported language for a list of preferences such
// as "fr-CA", "fr;q=0.9, en;q=0.8" or an empty string. Unknown or malformed
// input falls back to English.
func Match(preferences ...string) language.Tag {
	for _, pref := range preferences {
		if pref == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(pref)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, index, confidence := matcher.Match(tags...)
		if confidence == language.No {
			continue
		}
		return supported[index]
	}
	return language.English
}

// Supported returns the supported language tags.
func Supported() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// Messages holds the fixed user-facing strings of a language.
type Messages struct {
	// Uncertain is the title of an error or low-confidence record.
	Uncertain string

	// RetakePhoto is the description used when the backend gave no reason.
	RetakePhoto string

	// NoAdvice is the single advice item used when the backend gave none.
	NoAdvice string

	// Connectivity is the title of a transport failure record.
	Connectivity string

	// Unreachable is the description of a transport failure record.
	Unreachable string

	// LowConfidence labels a record under the confidence threshold.
	LowConfidence string

	// ChatWelcome greets the user of the assistant.
	ChatWelcome string

	// ChatUnavailable replaces a reply whose status is not success.
	ChatUnavailable string

	// ChatNetworkError replaces a reply that could not be fetched.
	ChatNetworkError string
}

var french = Messages{
	Uncertain:        "Je ne sais pas 😕",
	RetakePhoto:      "La confiance de l'IA est trop basse. Veuillez reprendre une photo plus claire de la feuille.",
	NoAdvice:         "Aucun conseil spécifique disponible.",
	Connectivity:     "Erreur de connexion",
	Unreachable:      "Impossible de joindre le serveur d'analyse locale (backend manquant).",
	LowConfidence:    "⚠️ Confiance faible",
	ChatWelcome:      "Bonjour ! Je suis Dr. Plant 🌱. Une question sur une maladie, un arrosage, ou l'entretien d'une plante ?",
	ChatUnavailable:  "Désolé, je rencontre un problème de connexion avec mon cerveau.",
	ChatNetworkError: "Erreur réseau. Le serveur de diagnostic est-il allumé ?",
}

var english = Messages{
	Uncertain:        "I don't know 😕",
	RetakePhoto:      "The AI confidence is too low. Please take a clearer photo of the leaf.",
	NoAdvice:         "No specific advice available.",
	Connectivity:     "Connection error",
	Unreachable:      "Unable to reach the local analysis server (backend missing).",
	LowConfidence:    "⚠️ Low confidence",
	ChatWelcome:      "Hello! I'm Dr. Plant 🌱. A question about a disease, watering, or plant care?",
	ChatUnavailable:  "Sorry, I'm having trouble connecting to my brain.",
	ChatNetworkError: "Network error. Is the diagnosis server running?",
}

// For returns the message table for tag. Tags that are not French use
// English.
func For(tag language.Tag) Messages {
	if base, _ := tag.Base(); base.String() == "fr" {
		return french
	}
	return english
}
