package store

import (
	"math"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	tableDocuments    = "documents"
	tableChunks       = "chunks"
	tableQuestions    = "questions"
	tableAnswerEvents = "answer_events"
	tableMastery      = "mastery_states"
	tableLLMEvents    = "llm_request_events"
	tableMasteryEvent = "mastery_events"
	tableSequence     = "global_sequence"
)

// longText maps to TEXT on every dialect.
const longText = math.MaxInt32

func stringCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: 255}
}

func textCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: longText}
}

func intCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeInt}
}

func int64Col(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeInt64}
}

func boolCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeBool, Default: false}
}

func timeCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeTime}
}

func autoID() *schema.Column {
	return &schema.Column{Name: "id", Type: field.TypeInt, Increment: true}
}

// tables declares the database schema. Migration is append-only: new tables
// and columns are created, nothing is dropped.
func tables() []*schema.Table {
	docID := stringCol("id")
	documents := schema.NewTable(tableDocuments).
		AddPrimary(docID).
		AddColumn(stringCol("title")).
		AddColumn(textCol("source")).
		AddColumn(textCol("text")).
		AddColumn(timeCol("created_at"))

	chunkID := stringCol("id")
	chunkDoc := stringCol("document_id")
	chunks := schema.NewTable(tableChunks).
		AddPrimary(chunkID).
		AddColumn(chunkDoc).
		AddColumn(intCol("seq")).
		AddColumn(textCol("text")).
		AddColumn(intCol("start_offset")).
		AddColumn(intCol("end_offset")).
		AddColumn(&schema.Column{Name: "embedding", Type: field.TypeBytes, Nullable: true}).
		AddColumn(textCol("keywords")).
		AddColumn(stringCol("topic")).
		AddColumn(boolCol("oversized"))
	chunks.AddForeignKey(&schema.ForeignKey{
		Symbol:     "chunks_documents_chunks",
		Columns:    []*schema.Column{chunkDoc},
		RefTable:   documents,
		RefColumns: []*schema.Column{docID},
		OnDelete:   schema.Cascade,
	})
	chunks.AddIndex("chunk_document_seq", true, []string{"document_id", "seq"})

	questionDoc := stringCol("document_id")
	questionChunk := stringCol("chunk_id")
	questions := schema.NewTable(tableQuestions).
		AddPrimary(stringCol("id")).
		AddColumn(questionDoc).
		AddColumn(questionChunk).
		AddColumn(stringCol("user_id")).
		AddColumn(intCol("difficulty")).
		AddColumn(textCol("stem")).
		AddColumn(textCol("options")).
		AddColumn(intCol("correct_index")).
		AddColumn(textCol("rationale")).
		AddColumn(stringCol("topic")).
		AddColumn(timeCol("created_at"))
	questions.AddForeignKey(&schema.ForeignKey{
		Symbol:     "questions_documents_questions",
		Columns:    []*schema.Column{questionDoc},
		RefTable:   documents,
		RefColumns: []*schema.Column{docID},
		OnDelete:   schema.Cascade,
	})
	questions.AddForeignKey(&schema.ForeignKey{
		Symbol:     "questions_chunks_questions",
		Columns:    []*schema.Column{questionChunk},
		RefTable:   chunks,
		RefColumns: []*schema.Column{chunkID},
		OnDelete:   schema.Cascade,
	})
	questions.AddIndex("question_user_document", false, []string{"user_id", "document_id"})

	// Answer history is append-only and outlives deleted documents, so it
	// carries no foreign keys.
	answers := schema.NewTable(tableAnswerEvents).
		AddPrimary(stringCol("id")).
		AddColumn(&schema.Column{Name: "sequence", Type: field.TypeInt64, Unique: true}).
		AddColumn(stringCol("user_id")).
		AddColumn(stringCol("question_id")).
		AddColumn(stringCol("chunk_id")).
		AddColumn(stringCol("document_id")).
		AddColumn(stringCol("topic")).
		AddColumn(intCol("difficulty")).
		AddColumn(intCol("chosen")).
		AddColumn(boolCol("correct")).
		AddColumn(timeCol("answered_at"))
	answers.AddIndex("answer_user_sequence", false, []string{"user_id", "sequence"})

	masteryStates := schema.NewTable(tableMastery).
		AddPrimary(stringCol("user_id")).
		AddColumn(textCol("data")).
		AddColumn(timeCol("updated_at"))

	llmEvents := schema.NewTable(tableLLMEvents).
		AddPrimary(autoID()).
		AddColumn(&schema.Column{Name: "sequence", Type: field.TypeInt64, Unique: true}).
		AddColumn(timeCol("timestamp")).
		AddColumn(stringCol("provider")).
		AddColumn(stringCol("model")).
		AddColumn(stringCol("purpose")).
		AddColumn(stringCol("user_id")).
		AddColumn(intCol("input_tokens")).
		AddColumn(intCol("output_tokens")).
		AddColumn(int64Col("latency_ms")).
		AddColumn(boolCol("success")).
		AddColumn(textCol("error_message")).
		AddColumn(textCol("request_body")).
		AddColumn(textCol("response_body"))
	llmEvents.AddIndex("llm_event_purpose", false, []string{"purpose"})

	masteryEvents := schema.NewTable(tableMasteryEvent).
		AddPrimary(autoID()).
		AddColumn(&schema.Column{Name: "sequence", Type: field.TypeInt64, Unique: true}).
		AddColumn(timeCol("timestamp")).
		AddColumn(stringCol("user_id")).
		AddColumn(intCol("from_difficulty")).
		AddColumn(intCol("to_difficulty")).
		AddColumn(stringCol("reason")).
		AddColumn(stringCol("answer_event_id"))
	masteryEvents.AddIndex("mastery_event_user", false, []string{"user_id"})

	sequence := schema.NewTable(tableSequence).
		AddPrimary(intCol("id")).
		AddColumn(int64Col("next_val"))

	return []*schema.Table{documents, chunks, questions, answers, masteryStates, llmEvents, masteryEvents, sequence}
}
