// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package web

import (
	"errors"
	"net/http"

	"github.com/annotons/genocrowd/internal/annotation"
)

// Messages for annotation requests the caller can correct.
const (
	MsgNoCurrentAnnotation = "No gene is being annotated"
	MsgAnswerExists        = "Gene already annotated"
	MsgInvalidGene         = "Gene id is required"
)

type positionsResponse struct {
	Positions []annotation.Gene `json:"positions"`
	Envelope
}

func (a *API) positions(w http.ResponseWriter, r *http.Request) {
	genes, err := a.annotation.Positions(r.Context())
	if err != nil {
		a.serverError(w, r, "list positions failed", err)
		return
	}
	respond(w, r, http.StatusOK, positionsResponse{Positions: genes})
}

type geneResponse struct {
	Gene *annotation.Gene `json:"gene"`
	Envelope
}

func (a *API) currentAnnotation(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	gene, err := a.annotation.Current(r.Context(), user.Username)
	if err != nil {
		a.serverError(w, r, "get current annotation failed", err)
		return
	}
	respond(w, r, http.StatusOK, geneResponse{Gene: gene})
}

func (a *API) checkout(w http.ResponseWriter, r *http.Request) {
	var gene annotation.Gene
	if !decode(w, r, &gene) {
		return
	}
	if gene.ID == "" {
		respond(w, r, http.StatusOK, failed(MsgInvalidGene))
		return
	}
	user := UserFromContext(r.Context())
	if err := a.annotation.Checkout(r.Context(), user.Username, gene); err != nil {
		a.serverError(w, r, "checkout gene failed", err)
		return
	}
	respond(w, r, http.StatusOK, ok)
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (a *API) storeAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decode(w, r, &req) {
		return
	}
	user := UserFromContext(r.Context())

	_, err := a.annotation.StoreAnswer(r.Context(), user.Username, []byte(req.Answer))
	switch {
	case err == nil:
		a.metrics.AnswerStored()
		respond(w, r, http.StatusOK, ok)
	case annotation.IsNotFound(err):
		respond(w, r, http.StatusOK, failed(MsgNoCurrentAnnotation))
	case errors.Is(err, annotation.ErrAnswerExists):
		respond(w, r, http.StatusOK, failed(MsgAnswerExists))
	default:
		a.serverError(w, r, "store answer failed", err)
	}
}

type countResponse struct {
	Count int64 `json:"count"`
	Envelope
}

func (a *API) countAnswers(w http.ResponseWriter, r *http.Request) {
	n, err := a.annotation.CountAnswers(r.Context())
	if err != nil {
		a.serverError(w, r, "count answers failed", err)
		return
	}
	respond(w, r, http.StatusOK, countResponse{Count: n})
}
