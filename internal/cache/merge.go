package cache

import (
	"sort"

	"study-cache/internal/models"
)

// MergeMessages reconciles a locally held message list with a freshly
// fetched remote list for one group. The remote list is authoritative for
// every message up to its newest timestamp; local messages the server has
// not observed yet (strictly newer than that timestamp and absent from the
// remote set) are kept after it. The result is deduplicated by id and
// sorted by (created_at, id). Applying the merge twice with the same
// remote input yields the same result.
func MergeMessages(local, remote []models.ChatMessage) []models.ChatMessage {
	if len(remote) == 0 {
		// Nothing fetched: an empty poll must not erase local history.
		out := append([]models.ChatMessage(nil), local...)
		sortMessages(out)
		return dedupeMessages(out)
	}

	remoteIDs := make(map[string]struct{}, len(remote))
	newestRemote := remote[0].CreatedAt
	for _, m := range remote {
		remoteIDs[m.ID] = struct{}{}
		if m.CreatedAt.After(newestRemote) {
			newestRemote = m.CreatedAt
		}
	}

	var tail []models.ChatMessage
	for _, m := range local {
		if _, known := remoteIDs[m.ID]; known {
			continue
		}
		if m.CreatedAt.After(newestRemote) {
			tail = append(tail, m)
		}
	}

	out := make([]models.ChatMessage, 0, len(remote)+len(tail))
	out = append(out, remote...)
	out = append(out, tail...)
	sortMessages(out)
	return dedupeMessages(out)
}

func sortMessages(msgs []models.ChatMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Before(msgs[j])
	})
}

// dedupeMessages drops later duplicates by id. Input must be sorted.
func dedupeMessages(msgs []models.ChatMessage) []models.ChatMessage {
	seen := make(map[string]struct{}, len(msgs))
	out := msgs[:0]
	for _, m := range msgs {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}
