package flow

import (
	"encoding/json"

	"github.com/lawgraph-core/server/internal/agent/model"
)

// Token estimation mirrors the approximate counter used for budget decisions:
// one token per four characters of text, plus a small per-message framing
// overhead. Budgets are soft limits for context sizing, not billing.
const (
	charsPerToken      = 4
	perMessageOverhead = 3
)

// approxTokens estimates the token footprint of one message, including any
// embedded tool-call arguments.
func approxTokens(msg model.Message) int {
	chars := len(msg.Content)
	for _, call := range msg.ToolCalls {
		chars += len(call.Name)
		if len(call.Args) > 0 {
			if b, err := json.Marshal(call.Args); err == nil {
				chars += len(b)
			}
		}
	}
	return chars/charsPerToken + perMessageOverhead
}

// approxTokensTotal sums approxTokens over a message sequence.
func approxTokensTotal(msgs []model.Message) int {
	total := 0
	for _, m := range msgs {
		total += approxTokens(m)
	}
	return total
}

// trimToBudget reduces msgs to a "keep most recent" window of at most budget
// tokens, then snaps the window onto exchange boundaries: the first retained
// message must have a role in startOn and the last a role in endOn. The input
// slice is never mutated.
//
// With keepLastStart set, an empty result falls back to the suffix beginning
// at the most recent startOn-role message, so a single oversized exchange
// still reaches the model rather than silently vanishing.
func trimToBudget(msgs []model.Message, budget int, startOn, endOn []model.Role, keepLastStart bool) []model.Message {
	if len(msgs) == 0 {
		return nil
	}

	// Largest suffix that fits the budget.
	start := len(msgs)
	total := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := approxTokens(msgs[i])
		if total+cost > budget {
			break
		}
		total += cost
		start = i
	}
	window := msgs[start:]

	// Snap the front onto a startOn boundary.
	for len(window) > 0 && !roleIn(window[0].Role, startOn) {
		window = window[1:]
	}
	// Snap the back onto an endOn boundary.
	for len(window) > 0 && !roleIn(window[len(window)-1].Role, endOn) {
		window = window[:len(window)-1]
	}

	if len(window) == 0 && keepLastStart {
		if idx := lastIndexWithRole(msgs, startOn); idx >= 0 {
			window = msgs[idx:]
		}
	}

	out := make([]model.Message, len(window))
	copy(out, window)
	return out
}

// trailingToolExchange returns the index where the trailing assistant/tool
// block starts, or -1 when the history does not end in one. The block is the
// final run of tool results plus the assistant message that requested them.
func trailingToolExchange(msgs []model.Message) int {
	i := len(msgs) - 1
	for i >= 0 && msgs[i].Role == model.RoleTool {
		i--
	}
	if i < 0 || i == len(msgs)-1 {
		return -1 // no tool results at the tail
	}
	if msgs[i].Role != model.RoleAssistant {
		return -1
	}
	return i
}

// idSet collects message ids for membership checks during reassembly.
func idSet(msgs []model.Message) map[string]struct{} {
	set := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		set[m.ID] = struct{}{}
	}
	return set
}

func roleIn(r model.Role, roles []model.Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

func lastIndexWithRole(msgs []model.Message, roles []model.Role) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if roleIn(msgs[i].Role, roles) {
			return i
		}
	}
	return -1
}
