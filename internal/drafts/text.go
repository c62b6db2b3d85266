package drafts

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// Filename extensions that show up in scraped asset URLs and look like email
// domains to the pattern above (e.g. "logo@2x.png").
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico"}

// ExtractEmails pulls email addresses out of free-form text.
// Addresses are lowercased and de-duplicated, preserving first-seen order.
// Matches whose domain is an image filename are discarded.
func ExtractEmails(text string) []string {
	if text == "" {
		return nil
	}

	var result []string
	seen := make(map[string]bool)

	for _, match := range emailPattern.FindAllString(text, -1) {
		addr := strings.ToLower(match)

		if isImageName(addr) {
			continue
		}
		if seen[addr] {
			continue
		}
		seen[addr] = true
		result = append(result, addr)
	}

	return result
}

func isImageName(addr string) bool {
	for _, ext := range imageExtensions {
		if strings.HasSuffix(addr, ext) {
			return true
		}
	}
	return false
}

// CleanText collapses whitespace runs to single spaces and truncates the
// result to maxLen runes. Used for log and audit previews of draft bodies.
func CleanText(s string, maxLen int) string {
	cleaned := strings.Join(strings.Fields(s), " ")
	if maxLen > 3 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			return string(runes[:maxLen-3]) + "..."
		}
	}
	return cleaned
}
