package summarizer

import (
	"fmt"
	"strings"

	"github.com/dharnesh67/neurohub/internal/domain"
)

// commitPrompt builds the structured prompt for commit summarization.
// The model is instructed to answer under a fixed schema so summaries stay
// comparable across commits.
func commitPrompt(detail domain.CommitDetail) string {
	filesChanged := "None"
	if len(detail.FilesChanged) > 0 {
		quoted := make([]string, len(detail.FilesChanged))
		for i, f := range detail.FilesChanged {
			quoted[i] = "[" + f + "]"
		}
		filesChanged = strings.Join(quoted, ", ")
	}

	return fmt.Sprintf(`You are an expert programmer summarizing a git commit.

Summarize the commit below as terse bullet points. Cover, where applicable:
the main change, secondary changes, tests, dependencies, breaking changes,
security implications, documentation, and performance. Omit sections that do
not apply. Reference changed files in square brackets, like [src/main.go].

EXAMPLE SUMMARY COMMENTS:
* Raised the amount of returned recordings from 10 to 100 [packages/server/recordings_api.ts]
* Fixed a typo in the github action name [.github/workflows/summarizer.yml]
* Moved the octokit initialization to a separate file [src/octokit.ts]
* Lowered numeric tolerance for test files
Most commits will have fewer comments than this example list. Do not include
parts of the example in your summary; it only shows appropriate style.

Commit Hash: %s
Author: %s
Date: %s
Files Changed: %s
Additions: %d
Deletions: %d
Commit Message: %s

Output only the summary, in bullet points.`,
		detail.Hash,
		detail.AuthorName,
		detail.CommitDate.Format("2006-01-02"),
		filesChanged,
		detail.Additions,
		detail.Deletions,
		detail.Message,
	)
}

// fileChunkPrompt builds the prompt for summarizing one chunk of a source
// file, in the voice of a senior engineer onboarding a junior one.
func fileChunkPrompt(path, content string, chunkIndex, totalChunks int) string {
	position := ""
	if totalChunks > 1 {
		position = fmt.Sprintf(" (part %d of %d)", chunkIndex, totalChunks)
	}

	return fmt.Sprintf(`You are a senior software engineer who specialises in
onboarding junior engineers onto projects. Explain the purpose of the %s
file%s to a junior engineer.

Here is the code:
--
%s
--

Give a summary of no more than 100 words of the code above.`,
		path, position, content)
}

// combinePrompt asks the model to merge per-chunk summaries into one
// file-level description.
func combinePrompt(summaries []string, identifier string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `The file %s was summarized in %d parts. Synthesize the
partial summaries below into one unified description of the whole file, no
more than 120 words. Do not mention that the file was split into parts.

`, identifier, len(summaries))
	for i, part := range summaries {
		fmt.Fprintf(&sb, "Part %d:\n%s\n\n", i+1, strings.TrimSpace(part))
	}
	sb.WriteString("Output only the unified summary.")
	return sb.String()
}
