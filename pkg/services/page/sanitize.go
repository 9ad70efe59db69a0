package page

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	pagePolicyOnce sync.Once
	pagePolicy     *bluemonday.Policy
)

// pageSanitizer allows the form markup the page templates emit and strips
// scripts, handlers and anything else a form author may have embedded in
// labels or options.
func pageSanitizer() *bluemonday.Policy {
	pagePolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowElements(
			"form", "fieldset", "legend", "label", "input", "select", "option",
			"textarea", "section", "div", "span", "h2", "p",
		)
		policy.AllowAttrs("id", "class", "name").Globally()
		policy.AllowAttrs("for").OnElements("label")
		policy.AllowAttrs("type", "value", "required", "checked", "placeholder").OnElements("input")
		policy.AllowAttrs("value", "selected").OnElements("option")
		policy.AllowAttrs("required").OnElements("select", "textarea")
		policy.AllowDataAttributes()
		pagePolicy = policy
	})
	return pagePolicy
}

func sanitizeMarkup(raw string) string {
	return strings.TrimSpace(pageSanitizer().Sanitize(raw))
}
