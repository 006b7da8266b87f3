package summarizer

import (
	"fmt"
	"path"
	"strings"

	"github.com/dharnesh67/neurohub/internal/domain"
)

// keywordBullets maps commit-message keywords to fallback bullet points, in
// the order they are emitted.
var keywordBullets = []struct {
	keyword string
	bullet  string
}{
	{"fix", "Fixed bug or issue"},
	{"add", "Added new functionality"},
	{"refactor", "Refactored existing code"},
	{"test", "Updated or added tests"},
	{"docs", "Updated documentation"},
}

// FallbackCommitSummary derives a deterministic summary from the commit
// message keywords and diff statistics. It never calls the network.
func FallbackCommitSummary(detail domain.CommitDetail) string {
	message := strings.ToLower(detail.Message)

	var bullets []string
	for _, kb := range keywordBullets {
		if strings.Contains(message, kb.keyword) {
			bullets = append(bullets, "* "+kb.bullet)
		}
	}
	if len(bullets) == 0 {
		first := strings.SplitN(strings.TrimSpace(detail.Message), "\n", 2)[0]
		if first == "" {
			first = "No commit message provided"
		}
		bullets = append(bullets, "* "+first)
	}

	bullets = append(bullets, fmt.Sprintf("* Changed %d file(s): +%d / -%d lines",
		len(detail.FilesChanged), detail.Additions, detail.Deletions))

	return strings.Join(bullets, "\n")
}

// FallbackFileSummary derives a deterministic file description from the path
// and content shape. Used when the model path is exhausted during indexing
// so the file still gets a committed description.
func FallbackFileSummary(filePath, content string) string {
	lines := strings.Count(content, "\n") + 1
	ext := strings.TrimPrefix(path.Ext(filePath), ".")
	if ext == "" {
		ext = "text"
	}
	return fmt.Sprintf("Source file %s (%s, %d lines). Automatic summary unavailable.",
		filePath, ext, lines)
}
