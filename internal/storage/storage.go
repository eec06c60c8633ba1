package storage

import (
	"context"

	"github.com/jwebster45206/tabletop-agents/pkg/session"
)

// Storage persists sessions and their transcripts.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	SaveSession(ctx context.Context, state session.SaveState) error
	LoadSession(ctx context.Context, sessionID string) (*session.SaveState, error)
	ListSessions(ctx context.Context) ([]string, error)

	AppendTranscript(ctx context.Context, sessionID string, e session.TranscriptEntry) error
	Transcript(ctx context.Context, sessionID string) ([]session.TranscriptEntry, error)
}
