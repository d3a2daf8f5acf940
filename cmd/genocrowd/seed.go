// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/annotons/genocrowd/internal/annotation"
)

// seedFile is the YAML layout read by seed-genes:
//
//	genes:
//	  - chromosome: chr1
//	    start: 1200
//	    end: 5400
//	    strand: 1
//	    isAnnotable: true
type seedFile struct {
	Genes []annotation.Gene `yaml:"genes"`
}

func newSeedGenesCmd(opts *globalOptions, deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-genes <file.yaml>",
		Short: "Load gene positions from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			genes, err := readSeedFile(args[0])
			if err != nil {
				return err
			}
			return withBackends(cmd, opts, deps, func(ctx context.Context, b *Backends) error {
				svc, err := annotation.NewService(b.Annotations, slog.Default())
				if err != nil {
					return err
				}
				n, err := svc.SeedGenes(ctx, genes)
				if err != nil {
					return err
				}
				cmd.Printf("Seeded %d gene(s)\n", n)
				return nil
			})
		},
	}
}

func readSeedFile(path string) ([]annotation.Gene, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, oops.Code("SEED_READ_FAILED").With("path", path).Wrap(err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Debug("error closing seed file", "path", path, "error", closeErr)
		}
	}()

	genes, err := parseSeed(f)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return genes, nil
}

// parseSeed decodes a seed document, rejecting unknown keys. An empty
// document yields no genes.
func parseSeed(r io.Reader) ([]annotation.Gene, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc seedFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, oops.Code("SEED_PARSE_FAILED").Wrap(err)
	}
	return doc.Genes, nil
}
