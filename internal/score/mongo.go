package score

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const scoreCollection = "game_scores"

// scoreDocument segue o formato dos documentos de placar já consumidos pelo
// leaderboard: um documento por participante por partida.
type scoreDocument struct {
	UserID    string        `bson:"userId"`
	GameID    string        `bson:"gameId"`
	Score     int           `bson:"score"`
	Metadata  scoreMetadata `bson:"metadata"`
	CreatedAt time.Time     `bson:"createdAt"`
}

type scoreMetadata struct {
	SessionID   string `bson:"sessionId"`
	Opponent    string `bson:"opponent"`
	Result      string `bson:"result"`
	MoveHistory []int  `bson:"moveHistory"`
}

func newScoreDocument(r Report) scoreDocument {
	return scoreDocument{
		UserID: r.ParticipantID,
		GameID: r.GameType,
		Score:  r.Score,
		Metadata: scoreMetadata{
			SessionID:   r.SessionID,
			Opponent:    r.OpponentID,
			Result:      string(r.Outcome),
			MoveHistory: append([]int{}, r.Moves...),
		},
		CreatedAt: r.FinishedAt,
	}
}

type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoSink(ctx context.Context, uri, database string) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	s := &MongoSink{
		client: client,
		coll:   client.Database(database).Collection(scoreCollection),
	}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoSink) Name() string { return "mongo" }

func (s *MongoSink) Record(ctx context.Context, r Report) error {
	if _, err := s.coll.InsertOne(ctx, newScoreDocument(r)); err != nil {
		return errors.Wrap(err, "insert score")
	}
	return nil
}

func (s *MongoSink) Ping(ctx context.Context) error {
	return errors.Wrap(s.client.Ping(ctx, readpref.Primary()), "mongo ping")
}

func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
