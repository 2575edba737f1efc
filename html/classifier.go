package html

import (
	"regexp"
	"strings"
)

var (
	rxUnlikelyCandidates   = regexp.MustCompile(`(?i)-ad-|ai2html|banner|breadcrumbs|combx|comment|community|cover-wrap|disqus|extra|footer|gdpr|header|legends|menu|related|remark|replies|rss|shoutbox|sidebar|skyscraper|social|sponsor|supplemental|ad-break|agegate|pagination|pager|popup|yom-remote`)
	rxOkMaybeItsACandidate = regexp.MustCompile(`(?i)and|article|body|column|content|main|shadow`)
	rxPositive             = regexp.MustCompile(`(?i)article|body|content|entry|hentry|h-entry|main|page|pagination|post|text|blog|story`)
	rxNegative             = regexp.MustCompile(`(?i)-ad-|hidden|^hid$| hid$| hid |^hid |banner|combx|comment|com-|contact|foot|footer|footnote|gdpr|masthead|media|meta|outbrain|promo|related|scroll|share|shoutbox|sidebar|skyscraper|sponsor|shopping|tags|tool|widget`)
	rxByline               = regexp.MustCompile(`(?i)byline|author|dateline|writtenby|p-author`)
	rxVideos               = regexp.MustCompile(`(?i)//(www\.)?((dailymotion|youtube|youtube-nocookie|player\.vimeo|v\.qq)\.com|(archive|upload\.wikimedia)\.org|player\.twitch\.tv)`)
	rxWhitespace           = regexp.MustCompile(`^\s*$`)
	rxHasContent           = regexp.MustCompile(`\S$`)
	rxHashURL              = regexp.MustCompile(`^#.+`)
	rxNormalize            = regexp.MustCompile(`\s{2,}`)
)

// RegexClassifier holds the pattern bank used to classify class/id strings
// and text. It is stateless and safe for concurrent use.
type RegexClassifier struct {
	videos *regexp.Regexp
}

// NewRegexClassifier returns a classifier. A non-nil videos pattern replaces
// the default list of allowed video hosts.
func NewRegexClassifier(videos *regexp.Regexp) *RegexClassifier {
	if videos == nil {
		videos = rxVideos
	}
	return &RegexClassifier{videos: videos}
}

// IsUnlikelyCandidate reports whether s looks like page chrome.
func (c *RegexClassifier) IsUnlikelyCandidate(s string) bool {
	return rxUnlikelyCandidates.MatchString(s)
}

// OkMaybeItsACandidate reports whether s looks like content despite
// matching IsUnlikelyCandidate.
func (c *RegexClassifier) OkMaybeItsACandidate(s string) bool {
	return rxOkMaybeItsACandidate.MatchString(s)
}

// IsUnlikely combines both checks: unlikely and not rescued by "maybe".
func (c *RegexClassifier) IsUnlikely(s string) bool {
	return c.IsUnlikelyCandidate(s) && !c.OkMaybeItsACandidate(s)
}

func (c *RegexClassifier) IsPositive(s string) bool { return rxPositive.MatchString(s) }

func (c *RegexClassifier) IsNegative(s string) bool { return rxNegative.MatchString(s) }

func (c *RegexClassifier) IsByline(s string) bool { return rxByline.MatchString(s) }

// IsVideo reports whether s references an allowed video host.
func (c *RegexClassifier) IsVideo(s string) bool { return c.videos.MatchString(s) }

func (c *RegexClassifier) IsHashURL(s string) bool { return rxHashURL.MatchString(s) }

func (c *RegexClassifier) IsWhitespace(s string) bool { return rxWhitespace.MatchString(s) }

// HasContent reports whether s ends in a non-space character.
func (c *RegexClassifier) HasContent(s string) bool { return rxHasContent.MatchString(s) }

// Normalize collapses whitespace runs to a single space and trims.
func (c *RegexClassifier) Normalize(s string) string {
	return strings.TrimSpace(rxNormalize.ReplaceAllString(s, " "))
}
