package mirror

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	supa "github.com/nedpals/supabase-go"

	"github.com/gridsmith/energyplanner/planner"
)

const uploadTimeout = time.Second * 10

// Mirror uploads each published plan to a Supabase table for remote
// monitoring. It hides the underlying open source supabase library and adds
// reconnection and timeout logic. Upload failures are logged and never
// affect planning.
type Mirror struct {
	url            string
	anonKey        string
	schema         string
	table          string
	installationID uuid.UUID

	subClient       *supa.Client // the raw client of the underlying supabase library we are using
	shouldReconnect bool         // when true, the subClient is 'dirty' and will be re-created next time an upload is made
	logger          *slog.Logger
}

// slotRow is the uploaded form of one scheduled slot.
type slotRow struct {
	Installation string    `json:"installation"`
	PlanRun      string    `json:"plan_run"`
	Position     int       `json:"position"`
	Start        time.Time `json:"start"`
	State        string    `json:"state"`
	Soc          int       `json:"soc"`
	Active       bool      `json:"active"`
}

func New(url, anonKey, schema, table string, installationID uuid.UUID) (*Mirror, error) {
	if url == "" {
		return nil, errors.New("no mirror url configured")
	}
	return &Mirror{
		url:            url,
		anonKey:        anonKey,
		schema:         schema,
		table:          table,
		installationID: installationID,
		// shouldReconnect is marked as true from instantiation so the
		// connection will be made lazily on the first upload
		shouldReconnect: true,
		logger:          slog.Default().With("host", url),
	}, nil
}

// Run loops forever waiting for published plans and uploads each one.
func (m *Mirror) Run(ctx context.Context, plans <-chan planner.PlanSnapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot := <-plans:
			if err := m.uploadPlan(snapshot); err != nil {
				m.logger.Error("failed to upload plan", "run_id", snapshot.RunID, "error", err)
				continue
			}
			m.logger.Info("Uploaded plan", "run_id", snapshot.RunID)
		}
	}
}

// uploadPlan converts the snapshot's scheduled slots into table rows and
// inserts them in one request.
func (m *Mirror) uploadPlan(snapshot planner.PlanSnapshot) error {

	m.reconnectIfNecessary()

	rows := planRows(snapshot, m.installationID)
	if len(rows) == 0 {
		return nil
	}

	// The supabase client library doesn't have good timeout support, so here
	// we wrap the call in a timeout
	errCh := make(chan error, 1)
	go func() {
		errCh <- m.subClient.DB.From(m.table).Insert(rows).Execute(nil)
	}()

	select {
	case <-time.After(uploadTimeout):
		m.shouldReconnect = true
		return errors.New("timed out")
	case err := <-errCh:
		if err != nil {
			m.shouldReconnect = true
		}
		return err
	}
}

// planRows converts a snapshot's scheduled slots into table rows. The "off"
// sentinel terminates the schedule, so only the positions before it upload.
func planRows(snapshot planner.PlanSnapshot, installationID uuid.UUID) []slotRow {
	var rows []slotRow
	for i, slot := range snapshot.Slots {
		if slot.State == planner.StateOff {
			break
		}
		rows = append(rows, slotRow{
			Installation: installationID.String(),
			PlanRun:      snapshot.RunID.String(),
			Position:     i,
			Start:        slot.Start,
			State:        string(slot.State),
			Soc:          slot.Soc,
			Active:       slot.Active,
		})
	}
	return rows
}

// createSubClient creates the open-source supabase library client with
// sensible defaults.
func (m *Mirror) createSubClient() {

	subClient := supa.CreateClient(m.url, m.anonKey)

	// The supabase client library doesn't have a fully featured interface,
	// here we specify options directly by adding headers to the postgrest
	// requests. Use the appropriate schema:
	if m.schema != "" {
		subClient.DB.AddHeader("Accept-Profile", m.schema)
		subClient.DB.AddHeader("Content-Profile", m.schema)
	}

	m.subClient = subClient
}

// reconnectIfNecessary will recreate the client if there have been problems
// with the connection.
func (m *Mirror) reconnectIfNecessary() {
	if !m.shouldReconnect {
		return
	}

	m.createSubClient()
	m.shouldReconnect = false

	m.logger.Info("Created supabase client", "table", m.table)
}
