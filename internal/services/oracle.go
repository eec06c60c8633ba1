package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/tabletop-agents/pkg/chat"
	"github.com/jwebster45206/tabletop-agents/pkg/oracle"
)

// promptOracle implements oracle.Service on top of any completer. Every
// method is prompt + complete + decode + validate; the provider only
// supplies the transport.
type promptOracle struct {
	completer completer
	logger    *slog.Logger
}

func newPromptOracle(c completer, logger *slog.Logger) *promptOracle {
	if logger == nil {
		logger = slog.Default()
	}
	return &promptOracle{completer: c, logger: logger}
}

func (p *promptOracle) ask(ctx context.Context, system, user string, out any) error {
	content, err := completeWithRetry(ctx, p.completer, p.logger, []chat.Message{
		chat.System(system),
		chat.User(user),
	})
	if err != nil {
		return err
	}
	return decodeResponse(content, out)
}

func (p *promptOracle) NarrateScene(ctx context.Context, req oracle.SceneRequest) (*oracle.SceneDescription, error) {
	user, err := userPayload("Scene", req)
	if err != nil {
		return nil, err
	}
	var desc oracle.SceneDescription
	if err := p.ask(ctx, sceneSystemPrompt, user, &desc); err != nil {
		return nil, err
	}
	if desc.Description == "" {
		return nil, fmt.Errorf("oracle returned an empty scene description")
	}
	return &desc, nil
}

func (p *promptOracle) NarrateDialog(ctx context.Context, info oracle.CharacterInfo, situation string) (*oracle.DialogResponse, error) {
	user, err := userPayload("Character", info)
	if err != nil {
		return nil, err
	}
	user += "\n\nSituation: " + situation
	var resp oracle.DialogResponse
	if err := p.ask(ctx, dialogSystemPrompt, user, &resp); err != nil {
		return nil, err
	}
	if resp.Speech == "" {
		return nil, fmt.Errorf("oracle returned empty dialog")
	}
	return &resp, nil
}

func (p *promptOracle) DecideCharacterAction(ctx context.Context, info oracle.CharacterInfo, actx oracle.ActionContext) (*oracle.CharacterAction, error) {
	user, err := userPayload("Character", info)
	if err != nil {
		return nil, err
	}
	situation, err := userPayload("Situation", actx)
	if err != nil {
		return nil, err
	}
	var a oracle.CharacterAction
	if err := p.ask(ctx, decideSystemPrompt, user+"\n\n"+situation, &a); err != nil {
		return nil, err
	}
	if a.ActionType == "" || a.Description == "" {
		return nil, fmt.Errorf("oracle returned an incomplete action")
	}
	return &a, nil
}

func (p *promptOracle) ResolvePlayerAction(ctx context.Context, rctx oracle.ResolutionContext) (*oracle.ActionResolution, error) {
	user, err := userPayload("Action", rctx)
	if err != nil {
		return nil, err
	}
	var res oracle.ActionResolution
	if err := p.ask(ctx, resolveSystemPrompt, user, &res); err != nil {
		return nil, err
	}
	if res.Message == "" {
		return nil, fmt.Errorf("oracle returned an empty resolution")
	}
	return &res, nil
}
