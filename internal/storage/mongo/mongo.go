// Package mongo provides a MongoDB-backed implementation of the
// storage.Storage interface using the official mongo-driver.
//
// The *mongo.Client is a connection pool that is safe for concurrent use.
// It is created once by New, shared by every request, and released by
// Close during shutdown.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Mongo is the MongoDB implementation of storage.Storage.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type addressDocument struct {
	City    string `bson:"city"`
	Country string `bson:"country"`
}

type studentDocument struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Name    string             `bson:"name"`
	Age     int                `bson:"age"`
	Address addressDocument    `bson:"address"`
}

type summaryDocument struct {
	Name string `bson:"name"`
	Age  int    `bson:"age"`
}

// New connects to the cluster described by cfg and verifies the
// connection with a ping. The connect timeout only bounds startup.
func New(ctx context.Context, cfg config.Mongo) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo.New: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.New: ping: %w", err)
	}

	return NewWithClient(client, cfg.Database, cfg.Collection), nil
}

// NewWithClient wraps an existing client. The returned store takes
// ownership: Close disconnects the client.
func NewWithClient(client *mongo.Client, database, collection string) *Mongo {
	return &Mongo{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
}

func (m *Mongo) CreateStudent(ctx context.Context, student types.Student) (types.StudentID, error) {
	doc := studentDocument{
		ID:   primitive.NewObjectID(),
		Name: student.Name,
		Age:  student.Age,
		Address: addressDocument{
			City:    student.Address.City,
			Country: student.Address.Country,
		},
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return types.StudentID{}, fmt.Errorf("CreateStudent: insert: %w", err)
	}
	return types.StudentIDFromObjectID(doc.ID), nil
}

func (m *Mongo) GetStudentByID(ctx context.Context, id types.StudentID) (types.Student, error) {
	var doc studentDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": id.ObjectID()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.Student{}, fmt.Errorf("GetStudentByID: %s: %w", id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: find: %w", err)
	}

	return types.Student{
		ID:   types.StudentIDFromObjectID(doc.ID),
		Name: doc.Name,
		Age:  doc.Age,
		Address: types.Address{
			City:    doc.Address.City,
			Country: doc.Address.Country,
		},
	}, nil
}

// listQuery turns a filter into a query document. A MinAge of 0 adds no
// condition.
func listQuery(filter types.StudentFilter) bson.D {
	query := bson.D{}
	if filter.Country != "" {
		query = append(query, bson.E{Key: "address.country", Value: filter.Country})
	}
	if filter.MinAge != 0 {
		query = append(query, bson.E{Key: "age", Value: bson.M{"$gte": filter.MinAge}})
	}
	return query
}

func (m *Mongo) GetStudents(ctx context.Context, filter types.StudentFilter, limit int) ([]types.StudentSummary, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetProjection(bson.D{{Key: "_id", Value: 0}, {Key: "name", Value: 1}, {Key: "age", Value: 1}})

	cursor, err := m.collection.Find(ctx, listQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: find: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []summaryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("GetStudents: decode: %w", err)
	}

	students := make([]types.StudentSummary, 0, len(docs))
	for _, d := range docs {
		students = append(students, types.StudentSummary{Name: d.Name, Age: d.Age})
	}
	return students, nil
}

// setDocument builds the $set payload. An address is always written as a
// whole sub-document; callers merge it beforehand.
func setDocument(update types.StudentUpdate) bson.D {
	set := bson.D{}
	if update.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *update.Name})
	}
	if update.Age != nil {
		set = append(set, bson.E{Key: "age", Value: *update.Age})
	}
	if update.Address != nil {
		set = append(set, bson.E{Key: "address", Value: addressDocument{
			City:    update.Address.City,
			Country: update.Address.Country,
		}})
	}
	return set
}

func (m *Mongo) UpdateStudentByID(ctx context.Context, id types.StudentID, update types.StudentUpdate) error {
	filter := bson.M{"_id": id.ObjectID()}

	// $set rejects an empty document, so an empty update only checks
	// existence.
	if update.IsEmpty() {
		n, err := m.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("UpdateStudentByID: count: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("UpdateStudentByID: %s: %w", id, storage.ErrNotFound)
		}
		return nil
	}

	result, err := m.collection.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: setDocument(update)}})
	if err != nil {
		return fmt.Errorf("UpdateStudentByID: update: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("UpdateStudentByID: %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (m *Mongo) DeleteStudentByID(ctx context.Context, id types.StudentID) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id.ObjectID()})
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: delete: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("DeleteStudentByID: %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

var _ storage.Storage = (*Mongo)(nil)
