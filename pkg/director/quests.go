package director

import (
	"strings"

	"github.com/jwebster45206/tabletop-agents/pkg/action"
)

// QuestRule advances a progress counter when a resolved action matches.
// Rules see both the action and its resolution, and run after every
// successful resolution, in registration order.
type QuestRule struct {
	Quest       string
	ProgressKey string
	Delta       int
	Matches     func(a action.Action, res Resolution) bool
}

// QuestTable evaluates registered rules against resolved actions.
type QuestTable struct {
	rules []QuestRule
}

// DefaultQuestTable returns the table with the built-in shipment rule:
// a talk with the barkeep whose outcome mentions the shipment advances
// the main quest.
func DefaultQuestTable() *QuestTable {
	t := &QuestTable{}
	t.Register(QuestRule{
		Quest:       "Find the missing shipment",
		ProgressKey: "main_quest_progress",
		Delta:       1,
		Matches: func(a action.Action, res Resolution) bool {
			return a.Type == action.TypeTalk &&
				a.Target == "barkeep" &&
				strings.Contains(strings.ToLower(res.Message), "shipment")
		},
	})
	return t
}

// Register appends a rule to the table.
func (t *QuestTable) Register(r QuestRule) {
	t.rules = append(t.rules, r)
}

// Evaluate returns the progress updates triggered by a resolved action,
// keyed by progress counter. Failed resolutions never advance a quest,
// and rules only fire while their quest is still active.
func (t *QuestTable) Evaluate(a action.Action, res Resolution, activeQuests []string) map[string]int {
	if !res.Success {
		return nil
	}

	active := make(map[string]bool, len(activeQuests))
	for _, q := range activeQuests {
		active[q] = true
	}

	var updates map[string]int
	for _, r := range t.rules {
		if r.Quest != "" && !active[r.Quest] {
			continue
		}
		if !r.Matches(a, res) {
			continue
		}
		if updates == nil {
			updates = make(map[string]int)
		}
		updates[r.ProgressKey] += r.Delta
	}
	return updates
}
