package director

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jwebster45206/tabletop-agents/pkg/action"
	"github.com/jwebster45206/tabletop-agents/pkg/oracle"
	"github.com/jwebster45206/tabletop-agents/pkg/scenario"
	"github.com/jwebster45206/tabletop-agents/pkg/world"
)

// stubOracle lets each test inject exactly the oracle behavior it needs.
type stubOracle struct {
	narrateSceneFunc func(oracle.SceneRequest) (*oracle.SceneDescription, error)
	narrateDialog    func(oracle.CharacterInfo, string) (*oracle.DialogResponse, error)
	resolveFunc      func(oracle.ResolutionContext) (*oracle.ActionResolution, error)
	resolveCalls     int
}

func (s *stubOracle) NarrateScene(ctx context.Context, req oracle.SceneRequest) (*oracle.SceneDescription, error) {
	if s.narrateSceneFunc == nil {
		return nil, errors.New("no scene narration")
	}
	return s.narrateSceneFunc(req)
}

func (s *stubOracle) NarrateDialog(ctx context.Context, info oracle.CharacterInfo, situation string) (*oracle.DialogResponse, error) {
	if s.narrateDialog == nil {
		return nil, errors.New("no dialog narration")
	}
	return s.narrateDialog(info, situation)
}

func (s *stubOracle) DecideCharacterAction(ctx context.Context, info oracle.CharacterInfo, actx oracle.ActionContext) (*oracle.CharacterAction, error) {
	return nil, errors.New("not used")
}

func (s *stubOracle) ResolvePlayerAction(ctx context.Context, rctx oracle.ResolutionContext) (*oracle.ActionResolution, error) {
	s.resolveCalls++
	if s.resolveFunc == nil {
		return nil, errors.New("no resolution")
	}
	return s.resolveFunc(rctx)
}

func testWorld(t *testing.T) *world.Model {
	t.Helper()
	m, err := world.NewModel(&scenario.WorldConfig{
		Locations: []scenario.Location{
			{Name: "tavern", Description: "A smoky tavern", ConnectedTo: []string{"street"}, Items: []string{"mug"}},
			{Name: "street", Description: "A muddy street", ConnectedTo: []string{"tavern"}},
		},
		NPCs: []scenario.NPC{
			{Name: "barkeep", Role: "merchant", Location: "tavern"},
		},
		InitialState: scenario.InitialState{
			CurrentLocation: "tavern",
			TimeOfDay:       "morning",
			ActiveQuests:    []string{"Find the missing shipment"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	return m
}

func TestDescribeScene_Oracle(t *testing.T) {
	stub := &stubOracle{
		narrateSceneFunc: func(req oracle.SceneRequest) (*oracle.SceneDescription, error) {
			if req.Location != "tavern" || req.TimeOfDay != "morning" {
				t.Errorf("unexpected scene request: %+v", req)
			}
			return &oracle.SceneDescription{Description: "The tavern hums with low conversation."}, nil
		},
	}
	d := New(testWorld(t), stub, nil)

	got := d.DescribeScene(context.Background())
	if got != "The tavern hums with low conversation." {
		t.Errorf("DescribeScene() = %q", got)
	}
	if d.Memory().Len() != 1 {
		t.Error("scene narration should be recorded in director memory")
	}
}

func TestDescribeScene_FallbackTemplate(t *testing.T) {
	d := New(testWorld(t), &stubOracle{}, nil)

	got := d.DescribeScene(context.Background())
	for _, want := range []string{"Tavern", "barkeep", "mug", "street"} {
		if !strings.Contains(got, want) {
			t.Errorf("template narration missing %q: %q", want, got)
		}
	}
}

func TestResolveAction_AppliesConsequences(t *testing.T) {
	stub := &stubOracle{
		resolveFunc: func(rctx oracle.ResolutionContext) (*oracle.ActionResolution, error) {
			return &oracle.ActionResolution{
				Success:        true,
				Message:        "You slip out to the street.",
				LocationChange: "street",
				ItemChanges:    []oracle.ItemChange{{Item: "mug", Action: "remove"}},
				TimePassed:     true,
			}, nil
		},
	}
	w := testWorld(t)
	d := New(w, stub, nil)

	res := d.ResolveAction(context.Background(), action.Action{
		Type: action.TypeMove, Content: "head outside", Source: "Thorin", Destination: "street",
	})

	if !res.Success {
		t.Error("resolution should succeed")
	}
	if w.State().CurrentLocation != "street" {
		t.Errorf("CurrentLocation = %q, want street", w.State().CurrentLocation)
	}
	if w.State().TimeOfDay != world.Afternoon {
		t.Errorf("TimeOfDay = %q, want afternoon", w.State().TimeOfDay)
	}
	la := w.State().LastAction
	if la == nil || la.Player != "Thorin" || !la.Success {
		t.Errorf("LastAction = %+v", la)
	}
	if len(res.WorldChanges) != 3 {
		t.Errorf("WorldChanges = %v, want move+item+time", res.WorldChanges)
	}
}

func TestResolveAction_IgnoresUnknownReferences(t *testing.T) {
	stub := &stubOracle{
		resolveFunc: func(rctx oracle.ResolutionContext) (*oracle.ActionResolution, error) {
			return &oracle.ActionResolution{
				Success:        true,
				Message:        "ok",
				LocationChange: "moonbase",
				NPCStateChange: map[string]map[string]any{"ghost": {"mood": "angry"}},
				ItemChanges:    []oracle.ItemChange{{Item: "mug", Action: "transmute"}},
			}, nil
		},
	}
	w := testWorld(t)
	d := New(w, stub, nil)

	res := d.ResolveAction(context.Background(), action.Action{
		Type: action.TypeLook, Content: "look around", Source: "Thorin",
	})

	if w.State().CurrentLocation != "tavern" {
		t.Error("unknown location change must not move the party")
	}
	if len(res.WorldChanges) != 0 {
		t.Errorf("WorldChanges = %v, want none applied", res.WorldChanges)
	}
	if !res.Success {
		t.Error("invalid references degrade, they do not fail the action")
	}
}

func TestResolveAction_FallbackOnOracleError(t *testing.T) {
	w := testWorld(t)
	d := New(w, &stubOracle{}, nil)

	res := d.ResolveAction(context.Background(), action.Action{
		Type: action.TypeMove, Content: "go to the street", Source: "Thorin", Destination: "street",
	})

	if !res.Fallback {
		t.Error("resolution should be marked fallback")
	}
	if !res.Success || w.State().CurrentLocation != "street" {
		t.Error("fallback move to a known destination should still happen")
	}
}

func TestResolveAction_FallbackMoveToUnknown(t *testing.T) {
	w := testWorld(t)
	d := New(w, &stubOracle{}, nil)

	res := d.ResolveAction(context.Background(), action.Action{
		Type: action.TypeMove, Content: "go to the moon", Source: "Thorin", Destination: "moon",
	})
	if res.Success {
		t.Error("fallback move to unknown destination should fail")
	}
	if w.State().CurrentLocation != "tavern" {
		t.Error("party must not move")
	}
}

func TestResolveAction_TalkToAbsentNPC(t *testing.T) {
	stub := &stubOracle{}
	d := New(testWorld(t), stub, nil)

	res := d.ResolveAction(context.Background(), action.Action{
		Type: action.TypeTalk, Content: "hello?", Source: "Thorin", Target: "ghost",
	})

	if res.Success {
		t.Error("talking to an absent NPC should fail")
	}
	if stub.resolveCalls != 0 {
		t.Error("absent target is settled without consulting the oracle")
	}
	if !strings.Contains(res.Message, "ghost") {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestResolveAction_InvalidAction(t *testing.T) {
	stub := &stubOracle{}
	w := testWorld(t)
	d := New(w, stub, nil)

	res := d.ResolveAction(context.Background(), action.Invalid(action.Action{Content: "garbled", Source: "Thorin"}))

	if res.Success {
		t.Error("invalid action should not succeed")
	}
	if stub.resolveCalls != 0 {
		t.Error("invalid actions are settled without the oracle")
	}
	if la := w.State().LastAction; la == nil || la.Success {
		t.Errorf("LastAction = %+v, want recorded failure", la)
	}
}

func TestResolveAction_QuestRule(t *testing.T) {
	// The player never says the key word; what matters is that the
	// outcome of the talk mentions the shipment.
	stub := &stubOracle{
		resolveFunc: func(rctx oracle.ResolutionContext) (*oracle.ActionResolution, error) {
			return &oracle.ActionResolution{Success: true, Message: "The barkeep mutters about the missing shipment."}, nil
		},
		narrateDialog: func(info oracle.CharacterInfo, situation string) (*oracle.DialogResponse, error) {
			return &oracle.DialogResponse{Speech: "Aye, it never arrived.", RevealsQuestInfo: true}, nil
		},
	}
	w := testWorld(t)
	d := New(w, stub, nil)

	res := d.ResolveAction(context.Background(), action.Action{
		Type: action.TypeTalk, Content: "Anything odd happen lately?",
		Source: "Thorin", Target: "barkeep",
	})

	if res.QuestUpdates["main_quest_progress"] != 1 {
		t.Errorf("QuestUpdates = %v, want main_quest_progress+1", res.QuestUpdates)
	}
	if w.State().Global.MainQuestProgress != 1 {
		t.Errorf("MainQuestProgress = %d, want 1", w.State().Global.MainQuestProgress)
	}
	reaction, ok := res.NPCReactions["barkeep"]
	if !ok {
		t.Fatal("talk resolution should include the target's voice")
	}
	if !reaction.RevealsInfo {
		t.Error("reaction should carry the reveal flag")
	}
}

func TestResolveAction_QuestRuleNeedsOutcomeMention(t *testing.T) {
	stub := &stubOracle{
		resolveFunc: func(rctx oracle.ResolutionContext) (*oracle.ActionResolution, error) {
			return &oracle.ActionResolution{Success: true, Message: "The barkeep shrugs and wipes a glass."}, nil
		},
		narrateDialog: func(info oracle.CharacterInfo, situation string) (*oracle.DialogResponse, error) {
			return &oracle.DialogResponse{Speech: "Hm."}, nil
		},
	}
	w := testWorld(t)
	d := New(w, stub, nil)

	res := d.ResolveAction(context.Background(), action.Action{
		Type: action.TypeTalk, Content: "What do you know about the missing shipment?",
		Source: "Thorin", Target: "barkeep",
	})
	if len(res.QuestUpdates) != 0 {
		t.Errorf("QuestUpdates = %v, want none when the outcome stays silent", res.QuestUpdates)
	}
	if w.State().Global.MainQuestProgress != 0 {
		t.Errorf("MainQuestProgress = %d, want 0", w.State().Global.MainQuestProgress)
	}
}

func TestResolveAction_QuestRuleInactiveQuest(t *testing.T) {
	stub := &stubOracle{
		resolveFunc: func(rctx oracle.ResolutionContext) (*oracle.ActionResolution, error) {
			return &oracle.ActionResolution{Success: true, Message: "He grumbles about the shipment."}, nil
		},
		narrateDialog: func(info oracle.CharacterInfo, situation string) (*oracle.DialogResponse, error) {
			return &oracle.DialogResponse{Speech: "Hm."}, nil
		},
	}
	m, err := world.NewModel(&scenario.WorldConfig{
		Locations: []scenario.Location{{Name: "tavern", Description: "tavern"}},
		NPCs:      []scenario.NPC{{Name: "barkeep", Role: "merchant", Location: "tavern"}},
		InitialState: scenario.InitialState{
			CurrentLocation: "tavern",
		},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	d := New(m, stub, nil)

	res := d.ResolveAction(context.Background(), action.Action{
		Type: action.TypeTalk, Content: "any word on the shipment?",
		Source: "Thorin", Target: "barkeep",
	})
	if len(res.QuestUpdates) != 0 {
		t.Errorf("QuestUpdates = %v, want none while quest inactive", res.QuestUpdates)
	}
}

func TestNarrateDialog_Fallbacks(t *testing.T) {
	d := New(testWorld(t), &stubOracle{}, nil)

	resp := d.NarrateDialog(context.Background(), "barkeep", "greetings")
	if resp.Speech == "" {
		t.Error("fallback dialog should carry a line")
	}

	resp = d.NarrateDialog(context.Background(), "ghost", "hello?")
	if resp.Tone != "silent" {
		t.Errorf("unknown NPC tone = %q, want silent", resp.Tone)
	}
}

func TestQuestTable_Evaluate(t *testing.T) {
	tbl := DefaultQuestTable()
	active := []string{"Find the missing shipment"}
	talk := action.Action{Type: action.TypeTalk, Target: "barkeep", Content: "Anything odd happen lately?"}

	tests := []struct {
		name string
		a    action.Action
		res  Resolution
		want int
	}{
		{"outcome mentions shipment", talk,
			Resolution{Success: true, Message: "The barkeep mutters about the missing Shipment."}, 1},
		{"outcome silent on shipment", talk,
			Resolution{Success: true, Message: "The barkeep shrugs."}, 0},
		{"failed talk", talk,
			Resolution{Success: false, Message: "He clams up about the shipment."}, 0},
		{"wrong target", action.Action{Type: action.TypeTalk, Target: "guard"},
			Resolution{Success: true, Message: "The guard mentions a shipment."}, 0},
		{"wrong action type", action.Action{Type: action.TypeLook, Target: "barkeep"},
			Resolution{Success: true, Message: "Crates from the lost shipment."}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tbl.Evaluate(tt.a, tt.res, active)["main_quest_progress"]
			if got != tt.want {
				t.Errorf("Evaluate() progress = %d, want %d", got, tt.want)
			}
		})
	}
}
