package director

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/tabletop-agents/pkg/action"
	"github.com/jwebster45206/tabletop-agents/pkg/memory"
	"github.com/jwebster45206/tabletop-agents/pkg/oracle"
	"github.com/jwebster45206/tabletop-agents/pkg/world"
)

// Resolution is the aggregated outcome of one player action, after the
// oracle's interpretation has been validated and applied to the world.
type Resolution struct {
	Success      bool                          `json:"success"`
	Message      string                        `json:"message"`
	Details      string                        `json:"details,omitempty"`
	WorldChanges []string                      `json:"world_changes,omitempty"`
	QuestUpdates map[string]int                `json:"quest_updates,omitempty"`
	NPCReactions map[string]oracle.NPCResponse `json:"npc_reactions,omitempty"`
	Fallback     bool                          `json:"fallback,omitempty"`
}

// Director owns the world model. All world mutation flows through
// ResolveAction and Tick, called from the sequential round loop.
type Director struct {
	world  *world.Model
	oracle oracle.Service
	quests *QuestTable
	mem    *memory.Log
	logger *slog.Logger
	titler cases.Caser
}

// New creates a Director over a world model.
func New(w *world.Model, svc oracle.Service, logger *slog.Logger) *Director {
	if logger == nil {
		logger = slog.Default()
	}
	return &Director{
		world:  w,
		oracle: svc,
		quests: DefaultQuestTable(),
		mem:    memory.NewLog(memory.DefaultMaxEntries),
		logger: logger.With("agent", "director"),
		titler: cases.Title(language.English),
	}
}

// World exposes the model for read-only callers.
func (d *Director) World() *world.Model {
	return d.world
}

// Memory exposes the director's own message log.
func (d *Director) Memory() *memory.Log {
	return d.mem
}

// Quests replaces the default quest table.
func (d *Director) Quests(t *QuestTable) {
	d.quests = t
}

// DescribeScene narrates the current location. If the oracle is down the
// narration degrades to a template over the raw scene data.
func (d *Director) DescribeScene(ctx context.Context) string {
	snap := d.world.Snapshot()

	req := oracle.SceneRequest{
		Location:   snap.Location,
		TimeOfDay:  string(snap.TimeOfDay),
		Atmosphere: snap.Atmosphere,
	}
	for _, n := range snap.VisibleNPCs {
		req.Elements = append(req.Elements, "NPC: "+n)
	}
	for _, it := range snap.VisibleItems {
		req.Elements = append(req.Elements, "Item: "+it)
	}

	desc, err := d.oracle.NarrateScene(ctx, req)
	if err != nil {
		d.logger.Warn("scene narration unavailable, using template", "error", err)
		return d.templateScene(snap)
	}

	d.mem.Record(desc.Description, "director", "scene_description")
	return desc.Description
}

func (d *Director) templateScene(snap world.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are in %s, in the %s. %s", d.titler.String(snap.Location), snap.TimeOfDay, snap.Description)
	if len(snap.VisibleNPCs) > 0 {
		fmt.Fprintf(&b, " You see %s here.", strings.Join(snap.VisibleNPCs, ", "))
	}
	if len(snap.VisibleItems) > 0 {
		fmt.Fprintf(&b, " Nearby: %s.", strings.Join(snap.VisibleItems, ", "))
	}
	if len(snap.Exits) > 0 {
		fmt.Fprintf(&b, " Exits lead to %s.", strings.Join(snap.Exits, ", "))
	}
	text := b.String()
	d.mem.Record(text, "director", "scene_description")
	return text
}

// NarrateDialog voices an NPC responding to a situation. Oracle failure
// degrades to a terse canned line.
func (d *Director) NarrateDialog(ctx context.Context, npcName, situation string) *oracle.DialogResponse {
	npc, ok := d.world.NPC(npcName)
	if !ok {
		return &oracle.DialogResponse{
			Speech: "There is no reply.",
			Tone:   "silent",
		}
	}

	resp, err := d.oracle.NarrateDialog(ctx, oracle.CharacterInfo{
		Name: npc.Name,
		Role: npc.Role,
	}, situation)
	if err != nil {
		d.logger.Warn("dialog narration unavailable, using template", "npc", npcName, "error", err)
		return &oracle.DialogResponse{
			Speech: fmt.Sprintf("%s nods but says little.", d.titler.String(npc.Name)),
			Tone:   "guarded",
		}
	}
	return resp
}

// ResolveAction interprets a player action through the oracle, validates
// the returned consequences, and applies them to the world in a fixed
// order. It never returns an error: oracle failure produces a fallback
// resolution so the round always completes.
func (d *Director) ResolveAction(ctx context.Context, a action.Action) Resolution {
	if a.Type == action.TypeInvalid {
		d.world.SetLastAction(a.Source, string(a.Type), false)
		return Resolution{
			Success: false,
			Message: "The moment passes in confusion; nothing happens.",
		}
	}

	// Talking to someone who is not here is settled without the oracle.
	if a.Type == action.TypeTalk && a.Target != "" && !d.npcPresent(a.Target) {
		d.world.SetLastAction(a.Source, string(a.Type), false)
		return Resolution{
			Success: false,
			Message: fmt.Sprintf("There is no one called %s here.", a.Target),
		}
	}

	state := d.world.State()
	snap := d.world.Snapshot()

	rctx := oracle.ResolutionContext{
		Location:      snap.Location,
		TimeOfDay:     string(snap.TimeOfDay),
		ActionType:    string(a.Type),
		ActionContent: a.Content,
		Target:        a.Target,
		Destination:   a.Destination,
		CurrentNPCs:   snap.VisibleNPCs,
		ActiveQuests:  snap.ActiveQuests,
		QuestState: map[string]int{
			"main_quest_progress": state.Global.MainQuestProgress,
			"threat_level":        state.Global.ThreatLevel,
		},
	}

	resolved, err := d.oracle.ResolvePlayerAction(ctx, rctx)
	if err != nil {
		d.logger.Warn("oracle resolution unavailable, using fallback", "action", a.Type, "error", err)
		return d.fallbackResolution(a)
	}

	res := Resolution{
		Success:      resolved.Success,
		Message:      resolved.Message,
		Details:      resolved.Details,
		NPCReactions: resolved.NPCResponses,
	}

	// Consequences apply in a fixed order so partial failures leave the
	// world in a predictable state: location, NPC state, items, clock.
	if resolved.LocationChange != "" {
		if d.world.MoveTo(resolved.LocationChange) {
			res.WorldChanges = append(res.WorldChanges, "moved to "+resolved.LocationChange)
		}
	}
	for name, patch := range resolved.NPCStateChange {
		if d.world.MergeNPCState(name, patch) {
			res.WorldChanges = append(res.WorldChanges, "updated "+name)
		}
	}
	for _, ic := range resolved.ItemChanges {
		switch world.ItemChangeKind(ic.Action) {
		case world.ItemAdd, world.ItemRemove:
			d.world.ApplyItemChange(ic.Item, world.ItemChangeKind(ic.Action))
			res.WorldChanges = append(res.WorldChanges, ic.Action+" "+ic.Item)
		default:
			d.logger.Warn("ignoring item change of unknown kind", "item", ic.Item, "kind", ic.Action)
		}
	}
	if resolved.TimePassed {
		d.world.AdvanceTick()
		res.WorldChanges = append(res.WorldChanges, "time passed")
	}

	d.world.SetLastAction(a.Source, string(a.Type), res.Success)

	res.QuestUpdates = d.applyQuestProgress(a, res, resolved.QuestProgress)

	// A talk that resolved without the target speaking still gets a voice.
	if a.Type == action.TypeTalk && a.Target != "" {
		if _, spoke := res.NPCReactions[a.Target]; !spoke {
			dialog := d.NarrateDialog(ctx, a.Target, a.Content)
			if res.NPCReactions == nil {
				res.NPCReactions = make(map[string]oracle.NPCResponse)
			}
			res.NPCReactions[a.Target] = oracle.NPCResponse{
				NPCName:     a.Target,
				Reaction:    dialog.Speech,
				RevealsInfo: dialog.RevealsQuestInfo,
			}
		}
	}

	return res
}

// fallbackResolution acknowledges the action without inventing
// consequences. Moves to a known destination still happen, since they
// need no interpretation.
func (d *Director) fallbackResolution(a action.Action) Resolution {
	res := Resolution{Success: true, Fallback: true}

	switch a.Type {
	case action.TypeMove:
		if a.Destination != "" && d.world.MoveTo(a.Destination) {
			res.Message = fmt.Sprintf("You make your way to %s.", a.Destination)
			res.WorldChanges = append(res.WorldChanges, "moved to "+a.Destination)
		} else {
			res.Success = false
			res.Message = "You cannot find a way there."
		}
	case action.TypeLook:
		res.Message = d.templateScene(d.world.Snapshot())
	case action.TypeTalk:
		if a.Target != "" {
			res.Message = fmt.Sprintf("%s listens to you.", d.titler.String(a.Target))
		} else {
			res.Message = "Your words hang in the air."
		}
	default:
		res.Message = fmt.Sprintf("You %s.", strings.ToLower(a.Content))
	}

	d.world.SetLastAction(a.Source, string(a.Type), res.Success)
	res.QuestUpdates = d.applyQuestProgress(a, res, nil)
	return res
}

// applyQuestProgress merges oracle-reported progress with the rule table
// and applies both to the world counters. Rules are evaluated against
// the finished resolution, so what the outcome says matters more than
// what the player asked.
func (d *Director) applyQuestProgress(a action.Action, res Resolution, fromOracle map[string]int) map[string]int {
	updates := d.quests.Evaluate(a, res, d.world.State().ActiveQuests)
	for k, v := range fromOracle {
		if updates == nil {
			updates = make(map[string]int)
		}
		updates[k] += v
	}
	for k, v := range updates {
		d.world.AddQuestProgress(k, v)
		d.logger.Info("quest progress", "counter", k, "delta", v)
	}
	return updates
}

func (d *Director) npcPresent(name string) bool {
	for _, npc := range d.world.NPCsAt(d.world.State().CurrentLocation) {
		if npc.Name == name {
			return true
		}
	}
	return false
}

// Tick advances the world clock outside of action resolution.
func (d *Director) Tick() {
	d.world.AdvanceTick()
}
