package translation

import (
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Configure loads the "default" domain of lang from localesDir.
// Message IDs are English, so "en" needs no catalog.
func Configure(localesDir, lang string) {
	gotext.Configure(localesDir, normalize(lang), "default")
}

// normalize turns POSIX locale names like zh_TW.UTF-8 into zh_TW
func normalize(lang string) string {
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
