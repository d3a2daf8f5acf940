// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package annotation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// Service implements the annotation workflow over a Store.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a Service. A nil logger uses slog.Default.
func NewService(store Store, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, oops.Errorf("annotation store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}, nil
}

// Positions lists every gene.
func (s *Service) Positions(ctx context.Context) ([]Gene, error) {
	genes, err := s.store.Positions(ctx)
	if err != nil {
		return nil, oops.With("operation", "list positions").Wrap(err)
	}
	return genes, nil
}

// Current returns the gene username is annotating, or nil when none.
func (s *Service) Current(ctx context.Context, username string) (*Gene, error) {
	gene, err := s.store.CurrentAnnotation(ctx, username)
	if err != nil {
		return nil, oops.With("username", username).Wrap(err)
	}
	return gene, nil
}

// Checkout records gene as the one username is annotating, replacing any
// previous checkout.
func (s *Service) Checkout(ctx context.Context, username string, gene Gene) error {
	if gene.ID == "" {
		return oops.Code("ANNOTATION_INVALID_GENE").With("username", username).Errorf("gene id is required")
	}
	if err := s.store.SetCurrentAnnotation(ctx, username, &gene); err != nil {
		return oops.With("username", username).With("gene", gene.ID).Wrap(err)
	}
	return nil
}

// StoreAnswer saves payload as the answer for the gene username has checked
// out, then clears the checkout. It returns the answered gene. When the gene
// already has an answer the checkout is cleared and ErrAnswerExists returned.
func (s *Service) StoreAnswer(ctx context.Context, username string, payload []byte) (*Gene, error) {
	gene, err := s.store.CurrentAnnotation(ctx, username)
	if err != nil {
		return nil, oops.With("username", username).Wrap(err)
	}
	if gene == nil {
		return nil, oops.Code("ANNOTATION_NOT_CHECKED_OUT").
			With("username", username).
			Wrap(ErrNotFound)
	}

	if err := s.store.PutAnswer(ctx, *gene, payload); err != nil {
		if errors.Is(err, ErrAnswerExists) {
			// An answered gene cannot stay checked out.
			if clearErr := s.store.SetCurrentAnnotation(ctx, username, nil); clearErr != nil {
				return nil, oops.With("username", username).With("gene", gene.ID).Wrap(clearErr)
			}
			s.logger.InfoContext(ctx, "released checkout of answered gene",
				"username", username,
				"gene", gene.ID)
		}
		return nil, oops.With("username", username).With("gene", gene.ID).Wrap(err)
	}
	if err := s.store.SetCurrentAnnotation(ctx, username, nil); err != nil {
		return nil, oops.With("username", username).With("gene", gene.ID).Wrap(err)
	}

	s.logger.InfoContext(ctx, "answer stored",
		"username", username,
		"gene", gene.ID,
		"bytes", len(payload))
	return gene, nil
}

// CountAnswers returns the number of stored answers.
func (s *Service) CountAnswers(ctx context.Context) (int64, error) {
	n, err := s.store.CountAnswers(ctx)
	if err != nil {
		return 0, oops.With("operation", "count answers").Wrap(err)
	}
	return n, nil
}

// InitGroups creates the group record with DefaultGroupsAmount groups when
// it does not exist yet.
func (s *Service) InitGroups(ctx context.Context) (bool, error) {
	created, err := s.store.InitGroups(ctx)
	if err != nil {
		return false, oops.With("operation", "init groups").Wrap(err)
	}
	if created {
		s.logger.InfoContext(ctx, "groups initialized", "groups_amount", DefaultGroupsAmount)
	}
	return created, nil
}

// NumberOfGroups returns the configured group count.
func (s *Service) NumberOfGroups(ctx context.Context) (int, error) {
	n, err := s.store.NumberOfGroups(ctx)
	if err != nil {
		return 0, oops.With("operation", "number of groups").Wrap(err)
	}
	return n, nil
}

// SetGroupsAmount changes the group count. n must be at least one.
func (s *Service) SetGroupsAmount(ctx context.Context, n int) error {
	if n < 1 {
		return oops.Code("GROUPS_AMOUNT_INVALID").With("groups_amount", n).Wrap(ErrInvalidGroupsAmount)
	}
	if err := s.store.SetGroupsAmount(ctx, n); err != nil {
		return oops.With("groups_amount", n).Wrap(err)
	}
	s.logger.InfoContext(ctx, "groups amount changed", "groups_amount", n)
	return nil
}

// ListGroups returns the group records.
func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, oops.With("operation", "list groups").Wrap(err)
	}
	return groups, nil
}

// SeedGenes inserts genes and returns how many were written.
func (s *Service) SeedGenes(ctx context.Context, genes []Gene) (int, error) {
	if len(genes) == 0 {
		return 0, nil
	}
	for i, g := range genes {
		if g.End < g.Start {
			return 0, oops.Code("ANNOTATION_INVALID_GENE").
				With("index", i).
				With("chromosome", g.Chromosome).
				Errorf("gene end %d precedes start %d", g.End, g.Start)
		}
	}
	n, err := s.store.InsertGenes(ctx, genes)
	if err != nil {
		return n, oops.With("operation", "seed genes").Wrap(err)
	}
	s.logger.InfoContext(ctx, "genes seeded", "count", n)
	return n, nil
}

// IsNotFound reports whether err means a missing checkout or group record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
