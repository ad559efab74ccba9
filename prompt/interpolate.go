package prompt

import (
	"strconv"
	"strings"
	"time"
)

// Context carries the values a batch system prompt may reference.
type Context struct {
	BotName   string
	BotIndex  int
	BatchSize int
	ServerID  int64
	Now       time.Time
}

// HasPlaceholders reports whether template uses any {{...}} variable.
func HasPlaceholders(template string) bool {
	return strings.Contains(template, "{{") && strings.Contains(template, "}}")
}

// Interpolate replaces {{variable}} placeholders in a system prompt. A prompt
// without placeholders comes back unchanged. Unknown placeholders are left as
// they are so operators can spot typos in the bot's prompt.
func Interpolate(template string, ctx Context) string {
	if !HasPlaceholders(template) {
		return template
	}

	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	r := strings.NewReplacer(
		"{{bot.name}}", ctx.BotName,
		"{{bot.index}}", strconv.Itoa(ctx.BotIndex),
		"{{batch.size}}", strconv.Itoa(ctx.BatchSize),
		"{{server.id}}", strconv.FormatInt(ctx.ServerID, 10),
		"{{date}}", now.Format("2006-01-02"),
		"{{datetime}}", now.Format(time.RFC3339),
	)
	return r.Replace(template)
}
