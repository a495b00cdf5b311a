package literature

import (
	"regexp"
	"strings"
)

// ContentProcessor normalizes abstract text before it is chunked.
type ContentProcessor struct {
	horizontalSpace *regexp.Regexp
	htmlTags        *regexp.Regexp
}

func NewContentProcessor() *ContentProcessor {
	return &ContentProcessor{
		horizontalSpace: regexp.MustCompile(`[ \t\f\v]+`),
		htmlTags:        regexp.MustCompile(`</?[a-zA-Z][^>]*>`),
	}
}

// CleanAbstract strips markup, collapses runs of spaces and keeps at most one
// blank line between paragraphs.
func (cp *ContentProcessor) CleanAbstract(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = cp.htmlTags.ReplaceAllString(content, "")
	content = cp.horizontalSpace.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	var cleaned []string
	emptyLines := 0

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			emptyLines++
			if emptyLines <= 1 {
				cleaned = append(cleaned, "")
			}
		} else {
			emptyLines = 0
			cleaned = append(cleaned, line)
		}
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}
