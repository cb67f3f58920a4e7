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

// FeedbackDBHandlerFunctions defines the interface for feedback and
// thread-creation database operations.
type FeedbackDBHandlerFunctions interface {
	UpsertFeedback(memoryID int, rating *int, text string, favorite bool) (*model.Feedback, error)
	SelectFeedbackByMemory(memoryID int) (*model.Feedback, error)
	SelectFeedback(id int) (*model.Feedback, error)
	CreateThread(memoryID int, title string) (*model.Feedback, error)
	SelectFavorites() ([]*model.Feedback, error)
	SelectThreads() ([]*model.Feedback, error)
}

// FeedbackDBHandler handles feedback rows and thread creation (C12's
// entry point). No teacher-pack precedent; follows the teacher's
// NewXDBHandler(db, force) + CreateTable() + stored-procedure pattern.
type FeedbackDBHandler struct {
	db *helper.Database
}

func NewFeedbackDBHandler(db *helper.Database, force bool) (*FeedbackDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	h := &FeedbackDBHandler{db: db}

	if err := loadSql.LoadFeedbackSql(h.db.Instance, force); err != nil {
		return nil, helper.NewError("load feedback sql", err)
	}
	if err := h.CreateTable(); err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized FeedbackDBHandler")
	return h, nil
}

func (h *FeedbackDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_feedback();`)
	if err != nil {
		log.Panicf("error initializing feedback table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table feedback")
	return nil
}

func (h *FeedbackDBHandler) UpsertFeedback(memoryID int, rating *int, text string, favorite bool) (*model.Feedback, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_feedback($1, $2, $3, $4)`,
		memoryID, rating, text, favorite,
	)
	feedback := &model.Feedback{}
	if err := scanFeedback(row.Scan, feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

func (h *FeedbackDBHandler) SelectFeedbackByMemory(memoryID int) (*model.Feedback, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM select_feedback_by_memory($1)`, memoryID)
	feedback := &model.Feedback{}
	if err := scanFeedback(row.Scan, feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

func (h *FeedbackDBHandler) SelectFeedback(id int) (*model.Feedback, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM select_feedback($1)`, id)
	feedback := &model.Feedback{}
	if err := scanFeedback(row.Scan, feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

// CreateThread fails with CONFLICT if a thread already exists for the
// memory entry, and NOT_FOUND if the memory entry does not exist.
func (h *FeedbackDBHandler) CreateThread(memoryID int, title string) (*model.Feedback, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM create_thread($1, $2)`, memoryID, title)
	feedback := &model.Feedback{}
	if err := scanFeedback(row.Scan, feedback); err != nil {
		if pqErr, ok := asPQError(err); ok {
			switch pqErr.Code {
			case "23505":
				return nil, helper.NewKindError("create thread", helper.KindConflict, err)
			case "P0002":
				return nil, helper.NewKindError("create thread", helper.KindNotFound, err)
			}
		}
		return nil, err
	}
	return feedback, nil
}

// SelectFavorites returns every feedback row marked favorite, most
// recently updated first.
func (h *FeedbackDBHandler) SelectFavorites() ([]*model.Feedback, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_favorites()`)
	if err != nil {
		return nil, helper.NewError("select favorites", err)
	}
	defer rows.Close()
	return scanFeedbackRows(rows)
}

// SelectThreads returns every feedback row that owns a thread, most
// recently updated first.
func (h *FeedbackDBHandler) SelectThreads() ([]*model.Feedback, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_threads()`)
	if err != nil {
		return nil, helper.NewError("select threads", err)
	}
	defer rows.Close()
	return scanFeedbackRows(rows)
}

func scanFeedbackRows(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]*model.Feedback, error) {
	var out []*model.Feedback
	for rows.Next() {
		feedback := &model.Feedback{}
		if err := scanFeedback(rows.Scan, feedback); err != nil {
			return nil, err
		}
		out = append(out, feedback)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("select feedback rows", err)
	}
	return out, nil
}

func scanFeedback(scan func(dest ...interface{}) error, feedback *model.Feedback) error {
	err := scan(
		&feedback.ID,
		&feedback.MemoryID,
		&feedback.Rating,
		&feedback.Text,
		&feedback.Favorite,
		&feedback.HasThread,
		&feedback.ThreadTitle,
		&feedback.CreatedAt,
		&feedback.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	return nil
}

func asPQError(err error) (*pq.Error, bool) {
	for e := err; e != nil; {
		if pqErr, ok := e.(*pq.Error); ok {
			return pqErr, true
		}
		unwrapper, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = unwrapper.Unwrap()
	}
	return nil, false
}
