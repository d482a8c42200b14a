package resolver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Aman-CERP/palicanon/internal/facet"
)

// Publication is one row of the publication-metadata table.
type Publication struct {
	ID        string
	AuthorUID string
	TextUID   string
	Raw       json.RawMessage
}

type publicationFields struct {
	AuthorUID string `json:"author_uid"`
	TextUID   string `json:"text_uid"`
}

// parsePublications decodes the publication table preserving table order. The
// table is either an object keyed by publication id or an array of rows.
func parsePublications(data []byte) ([]Publication, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	var pubs []Publication
	add := func(id string, raw json.RawMessage) error {
		var f publicationFields
		if err := json.Unmarshal(raw, &f); err != nil {
			return fmt.Errorf("publication %q: %w", id, err)
		}
		pubs = append(pubs, Publication{ID: id, AuthorUID: f.AuthorUID, TextUID: f.TextUID, Raw: raw})
		return nil
	}

	switch tok {
	case json.Delim('{'):
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, err
			}
			if err := add(key, raw); err != nil {
				return nil, err
			}
		}
	case json.Delim('['):
		for i := 0; dec.More(); i++ {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, err
			}
			if err := add(fmt.Sprintf("#%d", i), raw); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("publication table must be an object or array")
	}
	return pubs, nil
}

// matchPublication returns the first publication, in table order, whose author is
// author and whose text collection prefix equals the prefix of id. Several rows can
// match; table order decides.
func matchPublication(pubs []Publication, author, id string) (Publication, bool) {
	if author == "" {
		return Publication{}, false
	}
	prefix := facet.CollectionPrefix(id)
	for _, p := range pubs {
		if p.AuthorUID == author && facet.CollectionPrefix(p.TextUID) == prefix {
			return p, true
		}
	}
	return Publication{}, false
}

// AuthorInfo is one row of the author-metadata table.
type AuthorInfo struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// parseAuthors decodes the author table, keyed by author id or as an array of rows.
func parseAuthors(data []byte) (map[string]AuthorInfo, error) {
	trimmed := bytes.TrimSpace(data)
	authors := map[string]AuthorInfo{}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []AuthorInfo
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, err
		}
		for _, r := range rows {
			authors[r.UID] = r
		}
		return authors, nil
	}
	if err := json.Unmarshal(trimmed, &authors); err != nil {
		return nil, err
	}
	for uid, info := range authors {
		if info.UID == "" {
			info.UID = uid
			authors[uid] = info
		}
	}
	return authors, nil
}

// readOptional reads path, returning nil data for a missing file.
func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}
