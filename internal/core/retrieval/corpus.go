package retrieval

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// corpusEntry covers the object-list corpus format. Section content may
// arrive under "content" or "text", and the identifier under "id" or
// "section".
type corpusEntry struct {
	ID      string `json:"id"`
	Section string `json:"section"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Text    string `json:"text"`
}

// ParseCorpus normalizes both accepted corpus wire formats into chunks:
// either a mapping of identifier -> section content, or a list of objects
// with id/section, title and content. Map entries are ordered by identifier
// so the index layout is reproducible.
func ParseCorpus(data []byte) ([]RegulationChunk, error) {
	var entries []corpusEntry
	if err := json.Unmarshal(data, &entries); err == nil {
		chunks := make([]RegulationChunk, 0, len(entries))
		for i, e := range entries {
			id := e.ID
			if id == "" {
				id = e.Section
			}
			text := e.Content
			if text == "" {
				text = e.Text
			}
			if text == "" {
				return nil, fmt.Errorf("corpus entry %d has no content", i)
			}
			chunks = append(chunks, RegulationChunk{
				Text:       text,
				Identifier: id,
				Title:      e.Title,
			})
		}
		return chunks, nil
	}

	var sections map[string]string
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("corpus is neither a section list nor an identifier mapping: %w", err)
	}

	ids := make([]string, 0, len(sections))
	for id := range sections {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	chunks := make([]RegulationChunk, 0, len(ids))
	for _, id := range ids {
		chunks = append(chunks, RegulationChunk{
			Text:       sections[id],
			Identifier: id,
		})
	}
	return chunks, nil
}

// LoadCorpus reads and normalizes the regulation corpus file.
func LoadCorpus(path string) ([]RegulationChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file '%s': %w", path, err)
	}
	return ParseCorpus(data)
}
