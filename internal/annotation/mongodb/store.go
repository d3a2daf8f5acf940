// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

// Package mongodb implements annotation.Store on MongoDB and GridFS.
package mongodb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/annotons/genocrowd/internal/annotation"
)

// Collection and bucket names shared with the legacy deployment.
const (
	GenesCollection  = "genes.files"
	UsersCollection  = "users"
	GroupsCollection = "groups"
	AnswersBucket    = "answers"
)

// Store implements annotation.Store.
type Store struct {
	db     *mongo.Database
	genes  *mongo.Collection
	users  *mongo.Collection
	groups *mongo.Collection
}

var _ annotation.Store = (*Store)(nil)

// NewStore creates a Store over db.
func NewStore(db *mongo.Database) *Store {
	return &Store{
		db:     db,
		genes:  db.Collection(GenesCollection),
		users:  db.Collection(UsersCollection),
		groups: db.Collection(GroupsCollection),
	}
}

func storeError(operation string, err error) error {
	return oops.Code("STORE_UNAVAILABLE").With("operation", operation).Wrap(err)
}

type geneDocument struct {
	ID          any    `bson:"_id"`
	Chromosome  string `bson:"chromosome"`
	Start       int64  `bson:"start"`
	End         int64  `bson:"end"`
	Strand      int    `bson:"strand"`
	IsAnnotable bool   `bson:"isAnnotable"`
}

// geneKey converts a string ID back to the stored _id. Hex IDs are ObjectIDs.
func geneKey(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func geneID(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

func toGeneDocument(g annotation.Gene) geneDocument {
	return geneDocument{
		ID:          geneKey(g.ID),
		Chromosome:  g.Chromosome,
		Start:       g.Start,
		End:         g.End,
		Strand:      g.Strand,
		IsAnnotable: g.IsAnnotable,
	}
}

func (d geneDocument) toGene() annotation.Gene {
	return annotation.Gene{
		ID:          geneID(d.ID),
		Chromosome:  d.Chromosome,
		Start:       d.Start,
		End:         d.End,
		Strand:      d.Strand,
		IsAnnotable: d.IsAnnotable,
	}
}

// Positions returns every gene in insertion order.
func (s *Store) Positions(ctx context.Context) ([]annotation.Gene, error) {
	cursor, err := s.genes.Find(ctx, bson.D{})
	if err != nil {
		return nil, storeError("find genes", err)
	}
	var docs []geneDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeError("decode genes", err)
	}
	genes := make([]annotation.Gene, 0, len(docs))
	for _, d := range docs {
		genes = append(genes, d.toGene())
	}
	return genes, nil
}

type userAnnotation struct {
	Current *geneDocument `bson:"current_annotation"`
}

// CurrentAnnotation returns the gene copied onto the user record, or nil.
func (s *Store) CurrentAnnotation(ctx context.Context, username string) (*annotation.Gene, error) {
	opts := options.FindOne().SetProjection(bson.D{{Key: "current_annotation", Value: 1}})
	var doc userAnnotation
	err := s.users.FindOne(ctx, bson.D{{Key: "username", Value: username}}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, oops.With("username", username).Wrap(annotation.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("username", username).Wrap(storeError("get current annotation", err))
	}
	if doc.Current == nil {
		return nil, nil
	}
	gene := doc.Current.toGene()
	return &gene, nil
}

// SetCurrentAnnotation copies gene onto the user record, or sets it to null.
func (s *Store) SetCurrentAnnotation(ctx context.Context, username string, gene *annotation.Gene) error {
	var value any
	if gene != nil {
		value = toGeneDocument(*gene)
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "current_annotation", Value: value}}}}
	result, err := s.users.UpdateOne(ctx, bson.D{{Key: "username", Value: username}}, update)
	if err != nil {
		return oops.With("username", username).Wrap(storeError("set current annotation", err))
	}
	if result.MatchedCount == 0 {
		return oops.With("username", username).Wrap(annotation.ErrNotFound)
	}
	return nil
}

// PutAnswer uploads payload to the answers bucket with the gene's ID as
// file ID and its coordinates as metadata.
func (s *Store) PutAnswer(ctx context.Context, gene annotation.Gene, payload []byte) error {
	bucket, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(AnswersBucket))
	if err != nil {
		return storeError("open answers bucket", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return storeError("set write deadline", err)
		}
	}

	metadata := bson.D{
		{Key: "chromosome", Value: gene.Chromosome},
		{Key: "start", Value: gene.Start},
		{Key: "end", Value: gene.End},
		{Key: "strand", Value: gene.Strand},
		{Key: "isAnnotable", Value: true},
	}
	err = bucket.UploadFromStreamWithID(
		geneKey(gene.ID),
		gene.ID+".json",
		bytes.NewReader(payload),
		options.GridFSUpload().SetMetadata(metadata),
	)
	if mongo.IsDuplicateKeyError(err) {
		return oops.Code("ANSWER_EXISTS").With("gene", gene.ID).Wrap(annotation.ErrAnswerExists)
	}
	if err != nil {
		return oops.With("gene", gene.ID).Wrap(storeError("upload answer", err))
	}
	return nil
}

// CountAnswers counts files in the answers bucket.
func (s *Store) CountAnswers(ctx context.Context) (int64, error) {
	n, err := s.db.Collection(AnswersBucket+".files").CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, storeError("count answers", err)
	}
	return n, nil
}

// InsertGenes writes genes in one batch. Genes without an ID get an ObjectID.
func (s *Store) InsertGenes(ctx context.Context, genes []annotation.Gene) (int, error) {
	if len(genes) == 0 {
		return 0, nil
	}
	docs := make([]any, 0, len(genes))
	for _, g := range genes {
		doc := toGeneDocument(g)
		if g.ID == "" {
			doc.ID = primitive.NewObjectID()
		}
		docs = append(docs, doc)
	}
	result, err := s.genes.InsertMany(ctx, docs)
	if err != nil {
		inserted := 0
		if result != nil {
			inserted = len(result.InsertedIDs)
		}
		return inserted, storeError("insert genes", err)
	}
	return len(result.InsertedIDs), nil
}

var groupsFilter = bson.D{{Key: "groupsAmount", Value: bson.D{{Key: "$exists", Value: true}}}}

type groupDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	GroupsAmount int                `bson:"groupsAmount"`
	GroupsList   string             `bson:"groupsList"`
}

// InitGroups upserts the group record, leaving an existing one untouched.
func (s *Store) InitGroups(ctx context.Context) (bool, error) {
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{
		{Key: "groupsAmount", Value: annotation.DefaultGroupsAmount},
		{Key: "groupsList", Value: ""},
	}}}
	result, err := s.groups.UpdateOne(ctx, groupsFilter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, storeError("init groups", err)
	}
	return result.UpsertedCount > 0, nil
}

// NumberOfGroups reads groupsAmount from the group record.
func (s *Store) NumberOfGroups(ctx context.Context) (int, error) {
	var doc groupDocument
	err := s.groups.FindOne(ctx, groupsFilter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, oops.Code("GROUPS_NOT_INITIALIZED").Wrap(annotation.ErrNotFound)
	}
	if err != nil {
		return 0, storeError("get groups", err)
	}
	return doc.GroupsAmount, nil
}

// SetGroupsAmount upserts groupsAmount on the group record.
func (s *Store) SetGroupsAmount(ctx context.Context, n int) error {
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "groupsAmount", Value: n}}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "groupsList", Value: ""}}},
	}
	if _, err := s.groups.UpdateOne(ctx, groupsFilter, update, options.Update().SetUpsert(true)); err != nil {
		return oops.With("groups_amount", n).Wrap(storeError("set groups amount", err))
	}
	return nil
}

// ListGroups returns every group document.
func (s *Store) ListGroups(ctx context.Context) ([]annotation.Group, error) {
	cursor, err := s.groups.Find(ctx, bson.D{})
	if err != nil {
		return nil, storeError("list groups", err)
	}
	var docs []groupDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeError("decode groups", err)
	}
	groups := make([]annotation.Group, 0, len(docs))
	for _, d := range docs {
		groups = append(groups, annotation.Group{
			ID:           d.ID.Hex(),
			GroupsAmount: d.GroupsAmount,
			GroupsList:   d.GroupsList,
		})
	}
	return groups, nil
}
