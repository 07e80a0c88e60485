package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"comercio/m/internal/logger"
)

// Action identifies the kind of mutation being recorded.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Event is one append-only audit entry. PriorData and NewData are marshaled
// to JSON snapshots when present.
type Event struct {
	Entity      string
	RecordID    string
	Action      Action
	UserID      *int64
	PriorData   any
	NewData     any
	Description *string
}

// Recorder appends events to auditoria_eventos in the background. Recording
// is fire-and-forget: it happens after the primary transaction committed, and
// a failed insert is logged and discarded, never surfaced to the caller.
type Recorder struct {
	db  *sqlx.DB
	log *logger.Logger
	wg  sync.WaitGroup
}

// NewRecorder builds a Recorder over the shared database handle.
func NewRecorder(db *sqlx.DB, log *logger.Logger) *Recorder {
	return &Recorder{db: db, log: log.With("component", "audit")}
}

// Record dispatches the event asynchronously and returns immediately.
func (r *Recorder) Record(ev Event) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.persist(ev)
	}()
}

// Wait blocks until all in-flight events have been attempted. Used on
// shutdown and in tests.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) persist(ev Event) {
	prior, err := marshalSnapshot(ev.PriorData)
	if err != nil {
		r.log.Error("audit snapshot marshal failed", "entity", ev.Entity, "record_id", ev.RecordID, "error", err)
		return
	}
	next, err := marshalSnapshot(ev.NewData)
	if err != nil {
		r.log.Error("audit snapshot marshal failed", "entity", ev.Entity, "record_id", ev.RecordID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const stmt = `INSERT INTO auditoria_eventos
		(entidad, registro_id, accion, usuario_id, datos_previos, datos_nuevos, descripcion)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, stmt, ev.Entity, ev.RecordID, string(ev.Action), ev.UserID, prior, next, ev.Description); err != nil {
		r.log.Error("audit insert failed", "entity", ev.Entity, "record_id", ev.RecordID, "action", ev.Action, "error", err)
	}
}

func marshalSnapshot(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}
