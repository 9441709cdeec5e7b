// Package sanitize strips dangerous markup from rich-text article content.
// It is rule based rather than a full HTML parser: constructs that no rule
// matches pass through untouched.
package sanitize

import (
	"regexp"
	"strings"
)

const youtubeAllow = "accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture"

var (
	commentRe     = regexp.MustCompile(`(?s)<!--.*?-->`)
	scriptBlockRe = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	scriptTagRe   = regexp.MustCompile(`(?i)</?script\b[^>]*>`)
	styleBlockRe  = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`)
	styleTagRe    = regexp.MustCompile(`(?i)</?style\b[^>]*>`)
	openTagRe     = regexp.MustCompile(`<[a-zA-Z][^>]*>`)
	tagTailRe     = regexp.MustCompile(`\s+(/?>)$`)
	handlerRe     = regexp.MustCompile(`(?i)(\s+|/|["'])on[a-z0-9_-]+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	jsURIRe       = regexp.MustCompile(`(?i)\b(href|src)\s*=\s*(?:"\s*javascript:[^"]*"|'\s*javascript:[^']*'|javascript:[^\s>]*)`)
	inlineStyleRe = regexp.MustCompile(`(?i)\s+style\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	iframeRe      = regexp.MustCompile(`(?is)<iframe\b[^>]*>(?:.*?</iframe\s*>)?`)
	imgRe         = regexp.MustCompile(`(?i)<img\b[^>]*>`)
	anchorRe      = regexp.MustCompile(`(?i)<a\b[^>]*>`)

	srcAttrRe  = regexp.MustCompile(`(?i)\ssrc\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>]+))`)
	altAttrRe  = regexp.MustCompile(`(?i)\salt\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>]+))`)
	hrefAttrRe = regexp.MustCompile(`(?i)\shref\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>]+))`)

	youtubeEmbedRe = regexp.MustCompile(`(?i)^https?://(www\.)?youtube(-nocookie)?\.com/embed/`)
	imgSrcRe       = regexp.MustCompile(`(?i)^(https?:|/|data:)`)
	hrefRe         = regexp.MustCompile(`(?i)^(https?:|/|mailto:)`)

	attrEscaper = strings.NewReplacer(`"`, "&quot;", "<", "&lt;", ">", "&gt;")
)

// HTML returns s with comments, scripts, styles, event handlers and
// javascript: URIs removed. Iframes survive only for YouTube embeds,
// images only for http(s), root-relative or data: sources and links only
// for http(s), root-relative or mailto: targets; each survivor is
// re-emitted with a fixed attribute set.
func HTML(s string) string {
	if s == "" {
		return ""
	}

	s = commentRe.ReplaceAllString(s, "")
	s = scriptBlockRe.ReplaceAllString(s, "")
	s = scriptTagRe.ReplaceAllString(s, "")
	s = styleBlockRe.ReplaceAllString(s, "")
	s = styleTagRe.ReplaceAllString(s, "")
	s = openTagRe.ReplaceAllStringFunc(s, stripHandlers)
	s = jsURIRe.ReplaceAllString(s, `$1="#"`)

	// Inline styles go before the element rewrites so the sizing style
	// added to images below is kept.
	s = inlineStyleRe.ReplaceAllString(s, "")

	s = iframeRe.ReplaceAllStringFunc(s, rewriteIframe)
	s = imgRe.ReplaceAllStringFunc(s, rewriteImg)
	s = anchorRe.ReplaceAllStringFunc(s, rewriteAnchor)
	return s
}

// Text trims s and sanitizes it. Used for short fields like titles.
func Text(s string) string {
	return HTML(strings.TrimSpace(s))
}

// stripHandlers removes on* attributes from one opening tag. A handler may
// follow whitespace, a slash or the closing quote of the previous
// attribute. Matches cannot overlap, so the pass repeats until nothing
// changes.
func stripHandlers(tag string) string {
	stripped := false
	for {
		out := handlerRe.ReplaceAllStringFunc(tag, func(m string) string {
			switch c := m[0]; c {
			case '/', '"', '\'':
				return string(c)
			default:
				return " "
			}
		})
		if out == tag {
			break
		}
		tag, stripped = out, true
	}
	if stripped {
		tag = tagTailRe.ReplaceAllString(tag, "$1")
	}
	return tag
}

func rewriteIframe(tag string) string {
	src, ok := attr(srcAttrRe, tag)
	if !ok || !youtubeEmbedRe.MatchString(src) {
		return ""
	}
	return `<iframe src="` + attrEscaper.Replace(src) + `" frameborder="0" allow="` + youtubeAllow + `" allowfullscreen></iframe>`
}

func rewriteImg(tag string) string {
	src, ok := attr(srcAttrRe, tag)
	if !ok || !imgSrcRe.MatchString(src) {
		return ""
	}
	alt, _ := attr(altAttrRe, tag)
	return `<img src="` + attrEscaper.Replace(src) + `" alt="` + attrEscaper.Replace(alt) + `" style="max-width:100%">`
}

func rewriteAnchor(tag string) string {
	href, ok := attr(hrefAttrRe, tag)
	if !ok || !hrefRe.MatchString(href) {
		return "<a>"
	}
	return `<a href="` + attrEscaper.Replace(href) + `" target="_blank" rel="noopener noreferrer">`
}

func attr(re *regexp.Regexp, tag string) (string, bool) {
	m := re.FindStringSubmatch(tag)
	if m == nil {
		return "", false
	}
	for _, v := range m[1:] {
		if v != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", true
}
