package convert

import "github.com/starford/techdocs/internal/models"

// Toggle converts content from one format to another. Content is returned
// unchanged when the formats are equal, when it is empty, or when either
// format is unknown.
func Toggle(content string, from, to models.Format) string {
	if from == to || content == "" || !from.Valid() || !to.Valid() {
		return content
	}
	if to == models.FormatWord {
		return ToWord(content)
	}
	return ToMarkdown(content)
}
