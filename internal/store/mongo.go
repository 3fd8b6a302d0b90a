package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	defaultMongoDatabase = "wellnesswave"
	mongoCollection      = "assessments"
	mongoCloseTimeout    = 5 * time.Second
)

// MongoStore keeps assessments in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoAssessment struct {
	ID        any       `bson:"_id"`
	Type      string    `bson:"type"`
	Answers   []float64 `bson:"answers"`
	Score     float64   `bson:"score"`
	Result    string    `bson:"result"`
	CreatedAt time.Time `bson:"created_at"`
}

func openMongo(ctx context.Context, uri string) (*MongoStore, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("parse mongo uri: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = defaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	s := &MongoStore{
		client: client,
		coll:   client.Database(dbName).Collection(mongoCollection),
	}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return s, nil
}

func (s *MongoStore) Assessments() AssessmentRepo {
	return &mongoAssessments{coll: s.coll}
}

func (s *MongoStore) Backend() string { return "mongodb" }

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

type mongoAssessments struct {
	coll *mongo.Collection
}

// docID maps an assessment ID onto the stored _id. Hex strings are
// ObjectIDs; anything else is kept as a plain string.
func docID(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

func (r *mongoAssessments) Insert(ctx context.Context, a *Assessment) (string, error) {
	var id any = primitive.NewObjectID()
	if a.ID != "" {
		id = docID(a.ID)
	}
	doc := mongoAssessment{
		ID:        id,
		Type:      a.Type,
		Answers:   nonNilAnswers(a.Answers),
		Score:     a.Score,
		Result:    a.Result,
		CreatedAt: a.CreatedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert assessment: %w", err)
	}
	return idString(id), nil
}

func (r *mongoAssessments) Get(ctx context.Context, id string) (*Assessment, error) {
	var doc mongoAssessment
	err := r.coll.FindOne(ctx, bson.M{"_id": docID(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	a := fromMongo(doc)
	return &a, nil
}

func (r *mongoAssessments) List(ctx context.Context, opts ListOpts) ([]Assessment, error) {
	filter := bson.M{}
	if opts.Type != "" {
		filter["type"] = opts.Type
	}
	find := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if opts.Limit > 0 {
		find.SetLimit(int64(opts.Limit))
	}

	cur, err := r.coll.Find(ctx, filter, find)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	var docs []mongoAssessment
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode assessments: %w", err)
	}

	out := make([]Assessment, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromMongo(d))
	}
	return out, nil
}

func (r *mongoAssessments) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count assessments: %w", err)
	}
	return n, nil
}

func (r *mongoAssessments) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete assessments: %w", err)
	}
	return res.DeletedCount, nil
}

func fromMongo(d mongoAssessment) Assessment {
	return Assessment{
		ID:        idString(d.ID),
		Type:      d.Type,
		Answers:   nonNilAnswers(d.Answers),
		Score:     d.Score,
		Result:    d.Result,
		CreatedAt: d.CreatedAt.UTC(),
	}
}
