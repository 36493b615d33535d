package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"debatepad/internal/model"
)

const topicsCollection = "topics"

// MongoStore keeps one document per topic with both argument lists embedded.
type MongoStore struct {
	client *mongo.Client
	topics *mongo.Collection
	log    *slog.Logger
	now    func() time.Time
}

type argumentDoc struct {
	ID              string    `bson:"id"`
	Point           string    `bson:"point"`
	SupportingFacts []string  `bson:"supporting_facts"`
	CreatedAt       time.Time `bson:"created_at"`
}

type topicDoc struct {
	ID               string        `bson:"_id"`
	Title            string        `bson:"title"`
	ArgumentsFor     []argumentDoc `bson:"arguments_for"`
	ArgumentsAgainst []argumentDoc `bson:"arguments_against"`
	CreatedAt        time.Time     `bson:"created_at"`
	UpdatedAt        time.Time     `bson:"updated_at"`
}

// OpenMongo connects and pings within 10 seconds. The database name comes from the URI
// path and defaults to "debatepad".
func OpenMongo(ctx context.Context, uri string, log *slog.Logger) (*MongoStore, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := extractDBName(uri)
	log.Info("mongo store connected", "database", dbName)
	coll := client.Database(dbName).Collection(topicsCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}})
	if err != nil {
		log.Warn("create topics index failed", "error", err)
	}
	return &MongoStore{client: client, topics: coll, log: log, now: nowUTC}, nil
}

func extractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "debatepad"
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return "debatepad"
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) ListTopics(ctx context.Context) ([]model.Topic, error) {
	cur, err := s.topics.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []topicDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Topic, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *MongoStore) GetTopic(ctx context.Context, id string) (model.Topic, error) {
	var d topicDoc
	err := s.topics.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Topic{}, NotFoundError{Kind: "topic", ID: id}
	}
	if err != nil {
		return model.Topic{}, err
	}
	return d.toModel(), nil
}

func (s *MongoStore) CreateTopic(ctx context.Context, title string) (model.Topic, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return model.Topic{}, err
	}
	now := s.now()
	d := topicDoc{
		ID:               newID(),
		Title:            title,
		ArgumentsFor:     []argumentDoc{},
		ArgumentsAgainst: []argumentDoc{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := s.topics.InsertOne(ctx, d); err != nil {
		return model.Topic{}, err
	}
	return d.toModel(), nil
}

func (s *MongoStore) DeleteTopic(ctx context.Context, id string) error {
	res, err := s.topics.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return NotFoundError{Kind: "topic", ID: id}
	}
	return nil
}

func (s *MongoStore) AddArgument(ctx context.Context, topicID string, side model.Side, point string, facts []string) (model.Topic, error) {
	point, facts, err := cleanArgument(side, point, facts)
	if err != nil {
		return model.Topic{}, err
	}
	now := s.now()
	arg := argumentDoc{ID: newID(), Point: point, SupportingFacts: facts, CreatedAt: now}
	update := bson.M{
		"$push": bson.M{sideField(side): arg},
		"$set":  bson.M{"updated_at": now},
	}

	var d topicDoc
	err = s.topics.FindOneAndUpdate(ctx, bson.M{"_id": topicID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Topic{}, NotFoundError{Kind: "topic", ID: topicID}
	}
	if err != nil {
		return model.Topic{}, err
	}
	return d.toModel(), nil
}

func (s *MongoStore) DeleteArgument(ctx context.Context, topicID, argumentID string) error {
	filter := bson.M{
		"_id": topicID,
		"$or": bson.A{
			bson.M{"arguments_for.id": argumentID},
			bson.M{"arguments_against.id": argumentID},
		},
	}
	update := bson.M{
		"$pull": bson.M{
			"arguments_for":     bson.M{"id": argumentID},
			"arguments_against": bson.M{"id": argumentID},
		},
		"$set": bson.M{"updated_at": s.now()},
	}
	res, err := s.topics.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if _, err := s.GetTopic(ctx, topicID); err != nil {
		return err
	}
	return NotFoundError{Kind: "argument", ID: argumentID}
}

func sideField(side model.Side) string {
	if side == model.SideAgainst {
		return "arguments_against"
	}
	return "arguments_for"
}

func (d topicDoc) toModel() model.Topic {
	conv := func(in []argumentDoc) []model.Argument {
		out := make([]model.Argument, 0, len(in))
		for _, a := range in {
			out = append(out, model.Argument{ID: a.ID, Point: a.Point, SupportingFacts: a.SupportingFacts, CreatedAt: a.CreatedAt.UTC()})
		}
		return out
	}
	t := model.Topic{
		ID:               d.ID,
		Title:            d.Title,
		ArgumentsFor:     conv(d.ArgumentsFor),
		ArgumentsAgainst: conv(d.ArgumentsAgainst),
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
	normalize(&t)
	return t
}
