package grading

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// PlainText strips markup from collaborator output and returns the text unescaped, so
// "salt & pepper" is stored and compared exactly as a learner would type it.
func PlainText(value string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(value)))
}
