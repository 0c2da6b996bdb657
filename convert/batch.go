package convert

import (
	"cardbridge/jscontact"
	"cardbridge/vcard"
)

// Edge links a group card to one of its members.
type Edge struct {
	// Group is the UID of the group card.
	Group string `json:"group"`
	// Member is the member URI as written in the group.
	Member string `json:"member"`
	// Pref is the 1-based position of the member in preference order.
	Pref int `json:"pref"`
	// Index is the batch position of the member card, or -1.
	Index int `json:"index"`
}

// Resolved reports whether the member is a card of the batch.
func (e Edge) Resolved() bool {
	return e.Index >= 0
}

// BatchResult is the outcome of converting several vCards.
type BatchResult struct {
	Results []Result
	Edges   []Edge
}

// Failed returns the number of records that failed.
func (b BatchResult) Failed() int {
	n := 0

	for _, r := range b.Results {
		if r.Failed() {
			n++
		}
	}

	return n
}

// ConvertBatch converts every card and resolves group membership across
// them. A failed record does not stop the batch.
func (c *ToJSContact) ConvertBatch(cards []*vcard.Card) BatchResult {
	results := make([]Result, len(cards))
	for i, card := range cards {
		results[i] = c.Convert(card)
	}

	return BatchResult{Results: results, Edges: ResolveMembers(results)}
}

// ResolveMembers returns the membership edges of the converted group cards
// in batch order, each group's members in preference order. Members are
// looked up by UID among the converted cards; failed records take no part.
func ResolveMembers(results []Result) []Edge {
	byUID := make(map[string]int, len(results))

	for i, r := range results {
		if r.Card == nil || r.Card.UID == "" {
			continue
		}

		if _, dup := byUID[r.Card.UID]; !dup {
			byUID[r.Card.UID] = i
		}
	}

	var edges []Edge

	for _, r := range results {
		if r.Card == nil {
			continue
		}

		for pos, m := range r.Members {
			idx, ok := byUID[m]
			if !ok {
				idx = -1
			}

			edges = append(edges, Edge{Group: r.Card.UID, Member: m, Pref: pos + 1, Index: idx})
		}
	}

	return edges
}

// ConvertBatch converts every card. A failed record does not stop the
// batch.
func (c *ToVCard) ConvertBatch(cards []*jscontact.Card) []VCardResult {
	results := make([]VCardResult, len(cards))
	for i, card := range cards {
		results[i] = c.Convert(card)
	}

	return results
}
