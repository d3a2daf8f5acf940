// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

// Package annotationtest provides an in-memory annotation.Store for tests.
package annotationtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/annotons/genocrowd/internal/annotation"
)

// MemoryStore is an annotation.Store backed by maps.
type MemoryStore struct {
	mu      sync.Mutex
	genes   []annotation.Gene
	current map[string]*annotation.Gene
	answers map[string][]byte
	groups  *annotation.Group
	nextID  int

	// Err, when set, is returned by every method.
	Err error
	// ClearErr, when set, is returned by SetCurrentAnnotation when it is
	// asked to clear a checkout.
	ClearErr error
}

var _ annotation.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store that knows the given usernames.
func NewMemoryStore(usernames ...string) *MemoryStore {
	s := &MemoryStore{
		current: make(map[string]*annotation.Gene),
		answers: make(map[string][]byte),
	}
	for _, u := range usernames {
		s.current[u] = nil
	}
	return s
}

// Answer returns the stored payload for a gene ID.
func (s *MemoryStore) Answer(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.answers[id]
	return b, ok
}

func (s *MemoryStore) Positions(_ context.Context) ([]annotation.Gene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]annotation.Gene{}, s.genes...), nil
}

func (s *MemoryStore) CurrentAnnotation(_ context.Context, username string) (*annotation.Gene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	gene, ok := s.current[username]
	if !ok {
		return nil, annotation.ErrNotFound
	}
	if gene == nil {
		return nil, nil
	}
	copied := *gene
	return &copied, nil
}

func (s *MemoryStore) SetCurrentAnnotation(_ context.Context, username string, gene *annotation.Gene) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.current[username]; !ok {
		return annotation.ErrNotFound
	}
	if gene == nil {
		if s.ClearErr != nil {
			return s.ClearErr
		}
		s.current[username] = nil
		return nil
	}
	copied := *gene
	s.current[username] = &copied
	return nil
}

func (s *MemoryStore) PutAnswer(_ context.Context, gene annotation.Gene, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.answers[gene.ID]; ok {
		return annotation.ErrAnswerExists
	}
	s.answers[gene.ID] = append([]byte{}, payload...)
	return nil
}

func (s *MemoryStore) CountAnswers(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return int64(len(s.answers)), nil
}

func (s *MemoryStore) InsertGenes(_ context.Context, genes []annotation.Gene) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	for _, g := range genes {
		if g.ID == "" {
			s.nextID++
			g.ID = fmt.Sprintf("gene-%d", s.nextID)
		}
		s.genes = append(s.genes, g)
	}
	return len(genes), nil
}

func (s *MemoryStore) InitGroups(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	if s.groups != nil {
		return false, nil
	}
	s.groups = &annotation.Group{ID: "groups", GroupsAmount: annotation.DefaultGroupsAmount}
	return true, nil
}

func (s *MemoryStore) NumberOfGroups(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	if s.groups == nil {
		return 0, annotation.ErrNotFound
	}
	return s.groups.GroupsAmount, nil
}

func (s *MemoryStore) SetGroupsAmount(_ context.Context, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.groups == nil {
		s.groups = &annotation.Group{ID: "groups"}
	}
	s.groups.GroupsAmount = n
	return nil
}

func (s *MemoryStore) ListGroups(_ context.Context) ([]annotation.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.groups == nil {
		return []annotation.Group{}, nil
	}
	return []annotation.Group{*s.groups}, nil
}
