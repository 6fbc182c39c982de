// internal/middleware/i18n.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/javajoker/pirotecnica-backend/internal/utils"
)

var (
	supportedLanguages = []language.Tag{language.English, language.Italian}
	languageMatcher    = language.NewMatcher(supportedLanguages)
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.ContextKeyLang, preferredLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// preferredLanguage handles values like "it-IT,it;q=0.9,en;q=0.8". Anything
// unsupported falls back to English.
func preferredLanguage(header string) string {
	if header == "" {
		return "en"
	}

	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return "en"
	}

	_, index, confidence := languageMatcher.Match(tags...)
	if confidence == language.No {
		return "en"
	}

	base, _ := supportedLanguages[index].Base()
	return base.String()
}
