package resolver

import (
	"regexp"
	"strings"

	"github.com/brightai/refcheck/internal/extract"
)

// Ignore reasons. They are shown to maintainers of an Arabic-language site,
// so the wording stays in Arabic.
const (
	IgnoreEmpty          = "قيمة فارغة"
	IgnoreAnchor         = "مرساة داخل الصفحة"
	IgnoreDynamic        = "مسار ديناميكي"
	IgnoreEnvVariable    = "متغير بيئة"
	IgnoreSubstitution   = "مرجع استبدال برمجي"
	IgnoreJSVariable     = "متغير جافاسكربت"
	IgnoreNonFileAction  = "مسار إجراء غير ملفي"
	IgnoreIdentifier     = "قيمة معرف غير ملفية"
	IgnoreMediaType      = "نوع وسائط"
	IgnoreStyleValue     = "قيمة تصميم غير ملفية"
	IgnoreExternal       = "رابط خارجي أو غير ملفي"
	IgnoreAPIPath        = "مسار واجهة برمجية"
	IgnoreEmptyAfterNorm = "مسار فارغ بعد التنظيف"
)

// SkipPrefixes are URI prefixes that never point at a project file.
var SkipPrefixes = []string{
	"http://",
	"https://",
	"//",
	"mailto:",
	"tel:",
	"javascript:",
	"data:",
	"blob:",
	"sms:",
	"geo:",
	"ftp:",
	"ws:",
	"wss:",
	"whatsapp:",
	"chrome-extension:",
	"about:",
}

// APIPrefixes are paths served by the backend rather than by static files.
var APIPrefixes = []string{"/api/", "api/", "/backend/", "backend/", "/server/", "server/"}

var (
	substitutionRegex  = regexp.MustCompile(`^\$\d+$`)
	propertyChainRegex = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)+$`)
	identifierRegex    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	mediaTypeRegex     = regexp.MustCompile(`(?i)^[a-z]+/[a-z0-9.+-]+$`)
)

// IgnoreReason returns why ref is not a file reference, or "" when it must
// be evaluated. Rules are checked in a fixed order and the first match wins.
func IgnoreReason(ref extract.Reference) string {
	trimmed := strings.TrimSpace(ref.Original)
	if trimmed == "" {
		return IgnoreEmpty
	}
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(trimmed, "#"):
		return IgnoreAnchor
	case strings.Contains(trimmed, "${"), strings.Contains(trimmed, "{{"),
		strings.Contains(trimmed, "}}"), strings.Contains(trimmed, "<%"):
		return IgnoreDynamic
	case strings.Contains(trimmed, "%PUBLIC_URL%"):
		return IgnoreEnvVariable
	case substitutionRegex.MatchString(trimmed):
		return IgnoreSubstitution
	case propertyChainRegex.MatchString(trimmed) && !strings.Contains(trimmed, "/"):
		return IgnoreJSVariable
	}

	if ref.PatternType == extract.PatternAttr && ref.AttributeName == "action" &&
		!strings.ContainsAny(trimmed, "/.") {
		return IgnoreNonFileAction
	}

	if (ref.PatternType == extract.PatternCSSURL || ref.PatternType == extract.PatternAttr) &&
		identifierRegex.MatchString(trimmed) {
		return IgnoreIdentifier
	}

	if mediaTypeRegex.MatchString(trimmed) && !strings.Contains(trimmed, ".") {
		return IgnoreMediaType
	}

	if ref.PatternType == extract.PatternCSSURL && (lower == "blob" || strings.HasPrefix(lower, "var(")) {
		return IgnoreStyleValue
	}

	if hasAnyPrefix(lower, SkipPrefixes) {
		return IgnoreExternal
	}
	if hasAnyPrefix(lower, APIPrefixes) {
		return IgnoreAPIPath
	}
	return ""
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
