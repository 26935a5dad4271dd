package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/studyloop/internal/questiongen"
	"github.com/abhisek/studyloop/internal/session"
	"github.com/abhisek/studyloop/internal/store"
)

type documentResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
}

type questionResponse struct {
	ID         string   `json:"id"`
	DocumentID string   `json:"document_id"`
	Difficulty int      `json:"difficulty"`
	Topic      string   `json:"topic"`
	Stem       string   `json:"stem"`
	Options    []string `json:"options"`
}

type answerResponse struct {
	EventID      string `json:"event_id"`
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correct_index"`
	Rationale    string `json:"rationale,omitempty"`
	Difficulty   int    `json:"difficulty"`
}

func (s *Server) listDocuments(c *gin.Context) {
	docs, err := s.docs.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentResponse{ID: d.ID, Title: d.Title, Source: d.Source, Chunks: d.Chunks, CreatedAt: d.CreatedAt})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getDocument(c *gin.Context) {
	doc, err := s.docs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, documentResponse{
		ID: doc.ID, Title: doc.Title, Source: doc.Source, Chunks: len(doc.ChunkIDs), CreatedAt: doc.CreatedAt,
	})
}

func (s *Server) createDocument(c *gin.Context) {
	if s.ing == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "document upload is disabled"})
		return
	}
	if s.cfg.MaxDocumentBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxDocumentBytes)
	}
	var req struct {
		Title string `json:"title" binding:"required"`
		Text  string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and text are required"})
		return
	}
	res, err := s.ing.Text(c.Request.Context(), req.Title, "upload", req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, documentResponse{
		ID: res.Document.ID, Title: res.Document.Title, Source: res.Document.Source,
		Chunks: len(res.Chunks), CreatedAt: res.Document.CreatedAt,
	})
}

func (s *Server) deleteDocument(c *gin.Context) {
	if err := s.docs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) nextQuestion(c *gin.Context) {
	var req struct {
		DocumentID string `json:"document_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document_id is required"})
		return
	}
	item, err := s.orc.NextQuestion(c.Request.Context(), c.Param("user"), req.DocumentID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toQuestionResponse(item))
}

func toQuestionResponse(item *questiongen.Item) questionResponse {
	return questionResponse{
		ID:         item.ID,
		DocumentID: item.DocumentID,
		Difficulty: item.Difficulty,
		Topic:      item.Topic,
		Stem:       item.Stem,
		Options:    item.Options[:],
	}
}

func (s *Server) submitAnswer(c *gin.Context) {
	var req struct {
		QuestionID string `json:"question_id" binding:"required"`
		Choice     *int   `json:"choice" binding:"required"`
		EventID    string `json:"event_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question_id and choice are required"})
		return
	}
	ctx := c.Request.Context()
	user := c.Param("user")
	ev, err := s.orc.SubmitAnswer(ctx, session.Submission{
		EventID:    req.EventID,
		UserID:     user,
		QuestionID: req.QuestionID,
		Chosen:     *req.Choice,
	})
	if err != nil {
		fail(c, err)
		return
	}
	q, err := s.qs.Get(ctx, ev.QuestionID)
	if err != nil {
		fail(c, err)
		return
	}
	state, err := s.orc.Mastery(ctx, user)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, answerResponse{
		EventID:      ev.ID,
		Correct:      ev.Correct,
		CorrectIndex: q.CorrectIndex,
		Rationale:    q.Rationale,
		Difficulty:   state.Difficulty,
	})
}

func (s *Server) progress(c *gin.Context) {
	p, err := s.orc.Progress(c.Request.Context(), c.Param("user"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"difficulty":              p.Difficulty,
		"min_difficulty":          p.MinDifficulty,
		"max_difficulty":          p.MaxDifficulty,
		"correct_to_level_up":     p.CorrectToLevelUp,
		"incorrect_to_level_down": p.IncorrectToLevelDown,
		"window_accuracy":         p.WindowAccuracy,
		"overall_accuracy":        p.OverallAccuracy,
		"answered":                p.Answered,
		"mood":                    p.Mood,
		"weak_topics":             p.WeakTopics,
	})
}

func (s *Server) stats(c *gin.Context) {
	st, err := s.hist.Stats(c.Request.Context(), c.Param("user"))
	if err != nil {
		fail(c, err)
		return
	}
	byDifficulty := make(map[string]gin.H, len(st.ByDifficulty))
	for d, a := range st.ByDifficulty {
		byDifficulty[strconv.Itoa(d)] = accuracyJSON(a)
	}
	byDocument := make(map[string]gin.H, len(st.ByDocument))
	for id, a := range st.ByDocument {
		byDocument[id] = accuracyJSON(a)
	}
	resp := gin.H{
		"overall":       accuracyJSON(st.Overall),
		"recent":        accuracyJSON(st.Recent),
		"by_difficulty": byDifficulty,
		"by_document":   byDocument,
	}
	if level, ok := st.WeakestDifficulty(); ok {
		resp["weakest_difficulty"] = level
	}
	c.JSON(http.StatusOK, resp)
}

func accuracyJSON(a store.Accuracy) gin.H {
	return gin.H{"correct": a.Correct, "total": a.Total, "rate": a.Rate()}
}

func (s *Server) history(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := s.hist.Query(c.Request.Context(), c.Param("user"), store.QueryOpts{Limit: limit, Descending: true})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) reset(c *gin.Context) {
	if err := s.orc.Reset(c.Request.Context(), c.Param("user")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
