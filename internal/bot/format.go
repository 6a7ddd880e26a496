package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// FormatNotification formats a new-video announcement.
func FormatNotification(feedTitle, link string) string {
	return fmt.Sprintf("%s published a new video:\n%s", feedTitle, link)
}

// FormatSubscriptionList formats channel titles as a sorted bullet list.
func FormatSubscriptionList(titles []string) string {
	lines := lo.Map(titles, func(title string, _ int) string {
		return "- " + title
	})
	sort.Strings(lines)
	return "Subscribed channels:\n" + strings.Join(lines, "\n")
}
