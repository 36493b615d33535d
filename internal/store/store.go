// Package store persists topics and their arguments for the reference server.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"debatepad/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
)

type NotFoundError struct {
	Kind string // "topic" or "argument"
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TopicStore is the server's source of truth. Every mutating call returns or leaves behind
// a complete topic; arguments never exist outside a topic.
type TopicStore interface {
	// ListTopics returns all topics, newest first.
	ListTopics(ctx context.Context) ([]model.Topic, error)
	GetTopic(ctx context.Context, id string) (model.Topic, error)
	CreateTopic(ctx context.Context, title string) (model.Topic, error)
	DeleteTopic(ctx context.Context, id string) error
	AddArgument(ctx context.Context, topicID string, side model.Side, point string, facts []string) (model.Topic, error)
	DeleteArgument(ctx context.Context, topicID, argumentID string) error
	Close() error
}

// Open picks a backend from dsn: mongodb:// and mongodb+srv:// URIs use MongoDB, anything
// else is a sqlite file path.
func Open(ctx context.Context, dsn string, log *slog.Logger) (TopicStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty store location", ErrInvalid)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if strings.HasPrefix(dsn, "mongodb://") || strings.HasPrefix(dsn, "mongodb+srv://") {
		return OpenMongo(ctx, dsn, log)
	}
	return NewSQLiteStore(dsn)
}

func newID() string {
	return uuid.NewString()
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalid)
	}
	return title, nil
}

func cleanArgument(side model.Side, point string, facts []string) (string, []string, error) {
	if !side.Valid() {
		return "", nil, fmt.Errorf("%w: side must be 'for' or 'against'", ErrInvalid)
	}
	point = strings.TrimSpace(point)
	if point == "" {
		return "", nil, fmt.Errorf("%w: point is required", ErrInvalid)
	}
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return point, out, nil
}

func nowUTC() time.Time {
	// Millisecond precision survives both sqlite text columns and BSON dates unchanged.
	return time.Now().UTC().Truncate(time.Millisecond)
}

func normalize(t *model.Topic) {
	if t.ArgumentsFor == nil {
		t.ArgumentsFor = []model.Argument{}
	}
	if t.ArgumentsAgainst == nil {
		t.ArgumentsAgainst = []model.Argument{}
	}
	for i := range t.ArgumentsFor {
		if t.ArgumentsFor[i].SupportingFacts == nil {
			t.ArgumentsFor[i].SupportingFacts = []string{}
		}
	}
	for i := range t.ArgumentsAgainst {
		if t.ArgumentsAgainst[i].SupportingFacts == nil {
			t.ArgumentsAgainst[i].SupportingFacts = []string{}
		}
	}
}
