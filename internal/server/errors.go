package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/studyloop/internal/ingest"
	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/questiongen"
	"github.com/abhisek/studyloop/internal/segment"
	"github.com/abhisek/studyloop/internal/session"
	"github.com/abhisek/studyloop/internal/store"
)

// Messages shown to clients. Backend output is never echoed.
const (
	msgTryAgain  = "could not generate a question, try again"
	msgExhausted = "no new material left in this document"
	msgIndexing  = "could not index the document right now, try again"
	msgInternal  = "internal error"
)

// fail maps err to a status and a client-safe message. The full error is
// kept on the context for the request log.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	status, msg := classify(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrMissingUser),
		errors.Is(err, session.ErrInvalidChoice),
		errors.Is(err, ingest.ErrEmptyDocument):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrUnknownDocument),
		errors.Is(err, session.ErrUnknownQuestion),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, mastery.ErrCorpusExhausted):
		return http.StatusServiceUnavailable, msgExhausted
	case errors.Is(err, questiongen.ErrGenerationFailed),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, msgTryAgain
	case errors.Is(err, segment.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable, msgIndexing
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
