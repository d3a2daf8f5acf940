// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

// Package annotation manages gene positions, the gene each user is
// currently annotating, stored answers and annotation groups.
package annotation

import (
	"context"
	"errors"
)

// DefaultGroupsAmount is the group count written by InitGroups.
const DefaultGroupsAmount = 2

// MsgGroupsAmountInvalid is reported when a group count below one is requested.
const MsgGroupsAmountInvalid = "Groups amount must be positive"

var (
	// ErrNotFound is returned when no gene is checked out or the group
	// record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAnswerExists is returned when a gene already has a stored answer.
	ErrAnswerExists = errors.New("answer already stored for gene")

	// ErrInvalidGroupsAmount rejects a group count below one.
	ErrInvalidGroupsAmount = errors.New(MsgGroupsAmountInvalid)
)

// Gene is an annotatable region. ID is the store's identifier in string
// form, and answers for the gene are stored under the same ID.
type Gene struct {
	ID          string `json:"_id" yaml:"id"`
	Chromosome  string `json:"chromosome" yaml:"chromosome"`
	Start       int64  `json:"start" yaml:"start"`
	End         int64  `json:"end" yaml:"end"`
	Strand      int    `json:"strand" yaml:"strand"`
	IsAnnotable bool   `json:"isAnnotable" yaml:"isAnnotable"`
}

// Group is the singleton record holding the number of annotation groups.
type Group struct {
	ID           string `json:"_id"`
	GroupsAmount int    `json:"groupsAmount"`
	GroupsList   string `json:"groupsList"`
}

// Store persists annotation data.
type Store interface {
	// Positions returns every gene.
	Positions(ctx context.Context) ([]Gene, error)

	// CurrentAnnotation returns the gene checked out by username, or nil.
	CurrentAnnotation(ctx context.Context, username string) (*Gene, error)

	// SetCurrentAnnotation checks gene out to username. A nil gene clears
	// the checkout. An unknown username is ErrNotFound.
	SetCurrentAnnotation(ctx context.Context, username string, gene *Gene) error

	// PutAnswer stores payload as the answer for gene.
	PutAnswer(ctx context.Context, gene Gene, payload []byte) error

	// CountAnswers returns the number of stored answers.
	CountAnswers(ctx context.Context) (int64, error)

	// InsertGenes adds genes and returns how many were written. Genes
	// without an ID are assigned one.
	InsertGenes(ctx context.Context, genes []Gene) (int, error)

	// InitGroups creates the group record if none exists and reports
	// whether it did.
	InitGroups(ctx context.Context) (bool, error)

	// NumberOfGroups returns the configured group count.
	NumberOfGroups(ctx context.Context) (int, error)

	// SetGroupsAmount overwrites the group count, creating the record if needed.
	SetGroupsAmount(ctx context.Context, n int) error

	// ListGroups returns the group records.
	ListGroups(ctx context.Context) ([]Group, error)
}
