// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

//go:build integration

package genocrowd_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/annotons/genocrowd/internal/annotation"
	annotationmongo "github.com/annotons/genocrowd/internal/annotation/mongodb"
	"github.com/annotons/genocrowd/internal/auth"
	authmongo "github.com/annotons/genocrowd/internal/auth/mongodb"
)

var _ = Describe("Annotation store on MongoDB", func() {
	var (
		ctx context.Context
		svc *annotation.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		resetMongo(ctx)

		users := authmongo.NewUserRepository(env.db)
		Expect(users.Create(ctx, &auth.User{Username: "jsmith", Email: "jsmith@genocrowd.org", PasswordHash: "h"})).To(Succeed())

		var err error
		svc, err = annotation.NewService(annotationmongo.NewStore(env.db), slog.New(slog.NewTextHandler(io.Discard, nil)))
		Expect(err).NotTo(HaveOccurred())
	})

	It("checks out a gene and stores the answer in GridFS", func() {
		n, err := svc.SeedGenes(ctx, []annotation.Gene{
			{Chromosome: "chr1", Start: 100, End: 900, Strand: 1, IsAnnotable: true},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))

		genes, err := svc.Positions(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(genes).To(HaveLen(1))
		gene := genes[0]
		Expect(gene.ID).To(HaveLen(24))

		current, err := svc.Current(ctx, "jsmith")
		Expect(err).NotTo(HaveOccurred())
		Expect(current).To(BeNil())

		Expect(svc.Checkout(ctx, "jsmith", gene)).To(Succeed())
		current, err = svc.Current(ctx, "jsmith")
		Expect(err).NotTo(HaveOccurred())
		Expect(current).NotTo(BeNil())
		Expect(current.ID).To(Equal(gene.ID))

		answered, err := svc.StoreAnswer(ctx, "jsmith", []byte(`{"exons":[[120,300]]}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(answered.ID).To(Equal(gene.ID))

		count, err := svc.CountAnswers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(int64(1)))

		current, err = svc.Current(ctx, "jsmith")
		Expect(err).NotTo(HaveOccurred())
		Expect(current).To(BeNil())

		bucket, err := gridfs.NewBucket(env.db, options.GridFSBucket().SetName(annotationmongo.AnswersBucket))
		Expect(err).NotTo(HaveOccurred())
		var buf bytes.Buffer
		_, err = bucket.DownloadToStreamByName(gene.ID+".json", &buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(Equal(`{"exons":[[120,300]]}`))

		var file struct {
			Metadata struct {
				Chromosome  string `bson:"chromosome"`
				Start       int64  `bson:"start"`
				IsAnnotable bool   `bson:"isAnnotable"`
			} `bson:"metadata"`
		}
		Expect(env.db.Collection(annotationmongo.AnswersBucket+".files").FindOne(ctx, bson.D{}).Decode(&file)).To(Succeed())
		Expect(file.Metadata.Chromosome).To(Equal("chr1"))
		Expect(file.Metadata.Start).To(Equal(int64(100)))
		Expect(file.Metadata.IsAnnotable).To(BeTrue())

		By("refusing a second answer for the same gene")
		Expect(svc.Checkout(ctx, "jsmith", gene)).To(Succeed())
		_, err = svc.StoreAnswer(ctx, "jsmith", []byte(`{}`))
		Expect(err).To(MatchError(annotation.ErrAnswerExists))

		By("releasing the stale checkout")
		current, err = svc.Current(ctx, "jsmith")
		Expect(err).NotTo(HaveOccurred())
		Expect(current).To(BeNil())
	})

	It("reports an answer without checkout as not found", func() {
		_, err := svc.StoreAnswer(ctx, "jsmith", []byte(`{}`))
		Expect(annotation.IsNotFound(err)).To(BeTrue())
	})

	It("manages the group record", func() {
		_, err := svc.NumberOfGroups(ctx)
		Expect(annotation.IsNotFound(err)).To(BeTrue())

		created, err := svc.InitGroups(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeTrue())

		created, err = svc.InitGroups(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeFalse())

		n, err := svc.NumberOfGroups(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(annotation.DefaultGroupsAmount))

		Expect(svc.SetGroupsAmount(ctx, 5)).To(Succeed())
		groups, err := svc.ListGroups(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(groups).To(HaveLen(1))
		Expect(groups[0].GroupsAmount).To(Equal(5))

		Expect(svc.SetGroupsAmount(ctx, 0)).To(MatchError(annotation.ErrInvalidGroupsAmount))
	})
})
