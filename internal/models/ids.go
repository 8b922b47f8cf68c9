package models

import (
	"encoding/json"
	"strings"
)

// IDList is a list of node ids as models write them: each entry is either an
// id string or an object with an "id" string. Other entries are dropped, as
// is a value that is not an array. null decodes to a nil list.
type IDList []string

func (l *IDList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		if strings.TrimSpace(string(data)) == "null" {
			*l = nil
		} else {
			*l = IDList{}
		}
		return nil
	}

	ids := make(IDList, 0, len(raw))
	for _, r := range raw {
		if id := RefID(r); id != "" {
			ids = append(ids, id)
		}
	}
	*l = ids
	return nil
}

// RefID returns the id named by a bare string or an {"id": "..."} object, or
// "" for anything else.
func RefID(raw json.RawMessage) string {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return strings.TrimSpace(id)
	}

	var ref struct {
		ID *string `json:"id"`
	}
	if err := json.Unmarshal(raw, &ref); err == nil && ref.ID != nil {
		return strings.TrimSpace(*ref.ID)
	}
	return ""
}
