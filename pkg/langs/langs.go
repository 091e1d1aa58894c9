// Package langs holds the fixed ISO-639-1 language code set used for source
// and target language selection (spec §6) and the code→display-name table the
// translator's prompt template substitutes (spec §4.F).
package langs

// Codes is the full 40-language set. The source-only "auto" sentinel is not
// in it (see AutoDetect and IsValidSource); target language selection
// excludes "auto", see IsValidTarget.
var Codes = []string{
	"en", "es", "fr", "de", "it", "pt", "nl", "pl", "ru", "uk",
	"ar", "hi", "bn", "ta", "te", "mr", "gu", "kn", "ml", "pa",
	"ur", "zh", "ja", "ko", "vi", "th", "id", "ms", "tr", "sv",
	"da", "no", "fi", "el", "cs", "ro", "hu", "he", "fa", "sw",
}

// AutoDetect is the sentinel source-language code meaning "detect".
const AutoDetect = "auto"

var displayNames = map[string]string{
	"en": "English", "es": "Spanish", "fr": "French", "de": "German",
	"it": "Italian", "pt": "Portuguese", "nl": "Dutch", "pl": "Polish",
	"ru": "Russian", "uk": "Ukrainian", "ar": "Arabic", "hi": "Hindi",
	"bn": "Bengali", "ta": "Tamil", "te": "Telugu", "mr": "Marathi",
	"gu": "Gujarati", "kn": "Kannada", "ml": "Malayalam", "pa": "Punjabi",
	"ur": "Urdu", "zh": "Chinese", "ja": "Japanese", "ko": "Korean",
	"vi": "Vietnamese", "th": "Thai", "id": "Indonesian", "ms": "Malay",
	"tr": "Turkish", "sv": "Swedish", "da": "Danish", "no": "Norwegian",
	"fi": "Finnish", "el": "Greek", "cs": "Czech", "ro": "Romanian",
	"hu": "Hungarian", "he": "Hebrew", "fa": "Persian", "sw": "Swahili",
}

// DisplayName resolves a code to its human-readable name. Unknown codes pass
// through unchanged, per spec §4.F.
func DisplayName(code string) string {
	if name, ok := displayNames[code]; ok {
		return name
	}
	return code
}

// IsValidSource reports whether code is a recognized source-language
// selection, including "auto".
func IsValidSource(code string) bool {
	if code == AutoDetect {
		return true
	}
	_, ok := displayNames[code]
	return ok
}

// IsValidTarget reports whether code is a recognized target-language
// selection. "auto" is not a valid target.
func IsValidTarget(code string) bool {
	_, ok := displayNames[code]
	return ok
}
