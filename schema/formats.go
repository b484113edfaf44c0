package schema

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// formatValidate is safe for concurrent use; it is only used through Var.
var formatValidate = validator.New()

var formatTags = map[Format]string{
	FormatUUID:     "uuid",
	FormatEmail:    "email",
	FormatURL:      "url",
	FormatDateTime: "datetime=" + time.RFC3339,
}

// checkFormat reports whether s satisfies the format. Unknown formats pass.
func checkFormat(s string, f Format) bool {
	tag, ok := formatTags[f]
	if !ok {
		return true
	}
	return formatValidate.Var(s, tag) == nil
}
