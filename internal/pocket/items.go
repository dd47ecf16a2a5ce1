package pocket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
)

type retrieveResponse struct {
	Status int      `json:"status"`
	List   itemList `json:"list"`
}

type rawItem struct {
	ItemID      string                     `json:"item_id"`
	ResolvedURL string                     `json:"resolved_url"`
	GivenURL    string                     `json:"given_url"`
	Title       string                     `json:"resolved_title"`
	GivenTitle  string                     `json:"given_title"`
	SortID      int                        `json:"sort_id"`
	Tags        map[string]json.RawMessage `json:"tags"`
}

// itemList decodes Pocket's "list" member. Pocket sends an object keyed by
// item id, or an empty array when nothing matched. Document order is kept.
type itemList struct {
	Items []domain.Item
}

func (l *itemList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '[' {
		var raw []rawItem
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		for _, r := range raw {
			l.Items = append(l.Items, r.toItem(r.ItemID))
		}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // opening brace
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected list key %v", tok)
		}
		var r rawItem
		if err := dec.Decode(&r); err != nil {
			return fmt.Errorf("item %s: %w", id, err)
		}
		l.Items = append(l.Items, r.toItem(id))
	}
	_, err := dec.Token() // closing brace
	return err
}

func (r rawItem) toItem(key string) domain.Item {
	id := r.ItemID
	if id == "" {
		id = key
	}
	title := r.Title
	if title == "" {
		title = r.GivenTitle
	}
	tags := make([]string, 0, len(r.Tags))
	for tag := range r.Tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return domain.Item{
		ID:          id,
		ResolvedURL: r.ResolvedURL,
		Title:       title,
		Tags:        tags,
		SortID:      r.SortID,
	}
}
