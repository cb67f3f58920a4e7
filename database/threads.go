package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/ragcore/helper"
	"github.com/siherrmann/ragcore/model"
	loadSql "github.com/siherrmann/ragcore/sql"
)

// ThreadsDBHandlerFunctions defines the interface for thread-message
// database operations.
type ThreadsDBHandlerFunctions interface {
	AppendMessage(feedbackID int, text string, isUser bool, references []string, chunkIDs []int) (*model.ThreadMessage, error)
	SelectMessages(feedbackID int) ([]*model.ThreadMessage, error)
}

// ThreadsDBHandler handles the append-only message log of a follow-up
// dialog thread. No teacher-pack precedent; follows the teacher's
// NewXDBHandler(db, force) + CreateTable() + stored-procedure pattern.
type ThreadsDBHandler struct {
	db *helper.Database
}

func NewThreadsDBHandler(db *helper.Database, force bool) (*ThreadsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	h := &ThreadsDBHandler{db: db}

	if err := loadSql.LoadThreadsSql(h.db.Instance, force); err != nil {
		return nil, helper.NewError("load threads sql", err)
	}
	if err := h.CreateTable(); err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ThreadsDBHandler")
	return h, nil
}

func (h *ThreadsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_thread_messages();`)
	if err != nil {
		log.Panicf("error initializing thread_messages table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table thread_messages")
	return nil
}

// AppendMessage persists one thread turn. The owning Feedback row is
// locked for the duration of the transaction so concurrent appends to
// the same thread serialize rather than interleave.
func (h *ThreadsDBHandler) AppendMessage(feedbackID int, text string, isUser bool, references []string, chunkIDs []int) (*model.ThreadMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return nil, helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT * FROM lock_feedback_for_update($1)`, feedbackID); err != nil {
		return nil, helper.NewError("lock feedback row", err)
	}

	row := tx.QueryRowContext(
		ctx,
		`SELECT * FROM insert_thread_message($1, $2, $3, $4, $5)`,
		feedbackID, text, isUser, pq.Array(references), pq.Array(chunkIDs),
	)

	message := &model.ThreadMessage{}
	if err := scanThreadMessage(row.Scan, message); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, helper.NewError("commit transaction", err)
	}

	return message, nil
}

// SelectMessages returns every message of a thread in creation order.
func (h *ThreadsDBHandler) SelectMessages(feedbackID int) ([]*model.ThreadMessage, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_thread_messages($1)`, feedbackID)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var messages []*model.ThreadMessage
	for rows.Next() {
		message := &model.ThreadMessage{}
		if err := scanThreadMessage(rows.Scan, message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rowsErr(rows)
}

func scanThreadMessage(scan func(dest ...interface{}) error, message *model.ThreadMessage) error {
	err := scan(
		&message.ID,
		&message.FeedbackID,
		&message.Text,
		&message.IsUser,
		pq.Array(&message.References),
		pq.Array(&message.ChunkIDs),
		&message.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	return nil
}
