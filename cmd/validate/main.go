package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/tabletop-agents/pkg/scenario"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <scenario.json|scenario.yaml>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &ScenarioValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	for _, w := range validator.warnings {
		fmt.Printf("warning: %s\n", w)
	}
	fmt.Println("Scenario file is valid!")
}

type ScenarioValidator struct {
	warnings []string
}

var validFilename = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func (v *ScenarioValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	ext := filepath.Ext(baseName)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return fmt.Errorf("scenario file must be .json or .yaml: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ext)
	if !validFilename.MatchString(nameWithoutExt) {
		return fmt.Errorf("scenario filename '%s' must be lowercase snake_case (e.g., my_scenario.json)", baseName)
	}

	sc, err := scenario.Load(filename)
	if err != nil {
		return err
	}

	v.checkReachability(sc)
	v.checkContent(sc)
	return nil
}

// checkReachability walks the location graph from the starting location
// and warns about anywhere the party can never visit.
func (v *ScenarioValidator) checkReachability(sc *scenario.Scenario) {
	connections := make(map[string][]string, len(sc.WorldConfig.Locations))
	for _, loc := range sc.WorldConfig.Locations {
		connections[loc.Name] = loc.ConnectedTo
	}

	start := sc.WorldConfig.InitialState.CurrentLocation
	if start == "" {
		start = sc.WorldConfig.Locations[0].Name
	}

	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range connections[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, loc := range sc.WorldConfig.Locations {
		if !visited[loc.Name] {
			v.warnings = append(v.warnings, fmt.Sprintf("location %q is unreachable from %q", loc.Name, start))
		}
	}
}

func (v *ScenarioValidator) checkContent(sc *scenario.Scenario) {
	for _, npc := range sc.WorldConfig.NPCs {
		if npc.Role == "" {
			v.warnings = append(v.warnings, fmt.Sprintf("NPC %q has no role", npc.Name))
		}
	}
	for _, loc := range sc.WorldConfig.Locations {
		if loc.Description == "" {
			v.warnings = append(v.warnings, fmt.Sprintf("location %q has no description", loc.Name))
		}
		if len(loc.ConnectedTo) == 0 {
			v.warnings = append(v.warnings, fmt.Sprintf("location %q has no exits", loc.Name))
		}
	}
	for _, p := range sc.Players {
		if p.Class == "" {
			v.warnings = append(v.warnings, fmt.Sprintf("player %q has no class", p.Name))
		}
		if (p.Stats == scenario.Stats{}) {
			v.warnings = append(v.warnings, fmt.Sprintf("player %q has all-zero stats", p.Name))
		}
	}
	if len(sc.WorldConfig.InitialState.ActiveQuests) == 0 {
		v.warnings = append(v.warnings, "scenario starts with no active quests")
	}
}
