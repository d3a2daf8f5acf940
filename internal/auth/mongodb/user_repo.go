// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

// Package mongodb implements auth.UserRepository on MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/annotons/genocrowd/internal/auth"
)

// UsersCollection holds user records, shared with the annotation store.
const UsersCollection = "users"

// Unique index names. Duplicate key errors name the index that fired.
const (
	usernameIndex = "username_unique"
	emailIndex    = "email_unique"
)

// UserRepository implements auth.UserRepository using MongoDB.
type UserRepository struct {
	users *mongo.Collection
}

var _ auth.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a UserRepository over db's users collection.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{users: db.Collection(UsersCollection)}
}

// EnsureIndexes creates the unique username and email indexes.
// It is idempotent and runs at startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(usernameIndex),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(emailIndex),
		},
	})
	if err != nil {
		return auth.StoreError("create user indexes", err)
	}
	return nil
}

// storedHash decodes the password field. Accounts created by the legacy
// deployment carry it as binary.
type storedHash string

func (h *storedHash) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*h = storedHash(raw.StringValue())
	case bsontype.Binary:
		_, b := raw.Binary()
		*h = storedHash(b)
	case bsontype.Null, bsontype.Undefined:
		*h = ""
	default:
		return fmt.Errorf("cannot decode %s into a password hash", t)
	}
	return nil
}

type userDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Username   string             `bson:"username"`
	Email      string             `bson:"email"`
	Password   storedHash         `bson:"password"`
	IsAdmin    bool               `bson:"isAdmin"`
	Blocked    bool               `bson:"blocked"`
	IsExternal bool               `bson:"isExternal"`
	Created    float64            `bson:"created"`
}

func toDocument(u *auth.User) userDocument {
	var created float64
	if !u.Created.IsZero() {
		created = float64(u.Created.Unix())
	}
	return userDocument{
		ID:         primitive.ObjectID(u.ID),
		Username:   u.Username,
		Email:      u.Email,
		Password:   storedHash(u.PasswordHash),
		IsAdmin:    u.IsAdmin,
		Blocked:    u.Blocked,
		IsExternal: u.IsExternal,
		Created:    created,
	}
}

func (d *userDocument) toUser() *auth.User {
	sec, frac := math.Modf(d.Created)
	return &auth.User{
		ID:           auth.ID(d.ID),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: string(d.Password),
		IsAdmin:      d.IsAdmin,
		Blocked:      d.Blocked,
		IsExternal:   d.IsExternal,
		Created:      time.Unix(int64(sec), int64(frac*1e9)).UTC(),
	}
}

// Create stores a new user and assigns its ID.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	doc := toDocument(user)
	doc.ID = primitive.NewObjectID()
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if dup := duplicateError(err, user.Username, user.Email); dup != nil {
			return dup
		}
		return oops.With("username", user.Username).Wrap(auth.StoreError("insert user", err))
	}
	user.ID = auth.ID(doc.ID)
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id auth.ID) (*auth.User, error) {
	return r.findOne(ctx, "_id", primitive.ObjectID(id), id.String())
}

// GetByUsername retrieves a user by exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return r.findOne(ctx, "username", username, username)
}

// GetByEmail retrieves a user by exact email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.findOne(ctx, "email", email, email)
}

func (r *UserRepository) findOne(ctx context.Context, field string, value any, display string) (*auth.User, error) {
	var doc userDocument
	err := r.users.FindOne(ctx, bson.D{{Key: field, Value: value}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, oops.Code("USER_NOT_FOUND").With(field, display).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With(field, display).Wrap(auth.StoreError("get user by "+field, err))
	}
	return doc.toUser(), nil
}

// List returns every user ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]*auth.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: 1}, {Key: "username", Value: 1}})
	cursor, err := r.users.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, auth.StoreError("list users", err)
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, auth.StoreError("decode users", err)
	}
	users := make([]*auth.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toUser())
	}
	return users, nil
}

// UpdateProfile overwrites username and email and returns the updated record.
func (r *UserRepository) UpdateProfile(ctx context.Context, id auth.ID, username, email string) (*auth.User, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "username", Value: username},
		{Key: "email", Value: email},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err := r.users.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: primitive.ObjectID(id)}}, update, opts).Decode(&doc)
	switch {
	case err == nil:
		return doc.toUser(), nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if dup := duplicateError(err, username, email); dup != nil {
		return nil, dup
	}
	return nil, oops.With("id", id.String()).Wrap(auth.StoreError("update profile", err))
}

// UpdatePassword overwrites the password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id auth.ID, passwordHash string) error {
	return r.set(ctx, bson.D{{Key: "_id", Value: primitive.ObjectID(id)}}, "password", passwordHash, "id", id.String())
}

// SetAdmin overwrites the admin flag.
func (r *UserRepository) SetAdmin(ctx context.Context, username string, isAdmin bool) error {
	return r.set(ctx, bson.D{{Key: "username", Value: username}}, "isAdmin", isAdmin, "username", username)
}

// SetBlocked overwrites the blocked flag.
func (r *UserRepository) SetBlocked(ctx context.Context, username string, blocked bool) error {
	return r.set(ctx, bson.D{{Key: "username", Value: username}}, "blocked", blocked, "username", username)
}

func (r *UserRepository) set(ctx context.Context, filter bson.D, field string, value any, key, display string) error {
	result, err := r.users.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: bson.D{{Key: field, Value: value}}}})
	if err != nil {
		return oops.With(key, display).Wrap(auth.StoreError("set "+field, err))
	}
	if result.MatchedCount == 0 {
		return oops.Code("USER_NOT_FOUND").With(key, display).Wrap(auth.ErrNotFound)
	}
	return nil
}

// duplicateError maps a duplicate key error to the auth sentinel for the
// offending index. It returns nil for any other error.
func duplicateError(err error, username, email string) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if strings.Contains(err.Error(), emailIndex) {
		return oops.Code(auth.CodeDuplicateEmail).
			With("email", email).
			Wrap(auth.ErrDuplicateEmail)
	}
	return oops.Code(auth.CodeDuplicateUsername).
		With("username", username).
		Wrap(auth.ErrDuplicateUsername)
}
