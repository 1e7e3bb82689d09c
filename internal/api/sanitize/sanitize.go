package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

func Text(input string) string {
	return html.EscapeString(strings.TrimSpace(input))
}

func TextPtr(input *string) *string {
	if input == nil {
		return nil
	}
	value := Text(*input)
	return &value
}

// Strict strips all markup, leaving plain text. Used for member names and
// admin search keywords before they reach SQL or responses.
func Strict(input string) string {
	value := strings.TrimSpace(input)
	if value == "" {
		return ""
	}
	return getStrictPolicy().Sanitize(value)
}

func getStrictPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})

	return strictPolicy
}
