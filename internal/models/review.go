package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	ScorePositive = 1
	ScoreNegative = -1
)

// Review is a signed sentiment note attached to one item.
type Review struct {
	ID int64 `json:"id" db:"id"`
	// ItemID is the canonical link. Rows imported before linking by id only
	// carry AppName.
	ItemID  *int64  `json:"item_id"  db:"app_id"`
	AppName *string `json:"app_name" db:"app_name"`
	Text    string  `json:"text"     db:"review_text"`
	Score   int     `json:"score"    db:"review_score"`
	Votes   *int    `json:"votes"    db:"review_votes"`
}

// ItemRef addresses an item either by numeric id or, for legacy links, by
// name. JSON accepts both numbers and strings.
type ItemRef string

func (r *ItemRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = ItemRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item reference must be a string or a number: %w", err)
	}
	*r = ItemRef(n.String())
	return nil
}

// ID reports whether the reference is a positive integer id.
func (r ItemRef) ID() (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(string(r)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (r ItemRef) String() string {
	return strings.TrimSpace(string(r))
}

// ReviewCreate is the input for adding a review. Score is a pointer so a
// missing score can be told apart from an invalid one.
type ReviewCreate struct {
	ItemRef ItemRef `json:"itemRef"`
	Text    string  `json:"text"`
	Score   *int    `json:"score"`
	Votes   *int    `json:"votes,omitempty"`
}
