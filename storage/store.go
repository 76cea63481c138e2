package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/LdDl/hive-mot/mot"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Store persists tracking runs in SQLite
type Store struct {
	db *sql.DB
}

// RunRecord describes a single processed detections file
type RunRecord struct {
	RunID       uuid.UUID
	FileName    string
	Date        string
	Time        string
	Start       int
	End         int
	Records     int
	TotalTracks int
	NoData      bool
	// Nil when file was tracked without a zone
	Counts    *mot.DirectionCounts
	CreatedAt time.Time
}

// DayTotals is aggregate of every tracked run of a date
type DayTotals struct {
	Date        string
	Runs        int
	TotalTracks int
	Counts      mot.DirectionCounts
}

// Open opens (or creates) database file and applies migrations
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open database '%s'", path)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "can't enable foreign keys")
	}
	store := &Store{db: db}
	if err := store.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes database
func (store *Store) Close() error {
	return store.db.Close()
}

// SaveRun stores run and its tracks in a single transaction
func (store *Store) SaveRun(ctx context.Context, run RunRecord, tracks []mot.ClassifiedTrack) error {
	if run.RunID == uuid.Nil {
		run.RunID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "can't begin transaction")
	}
	defer tx.Rollback()

	var enter, exit, inside, outside sql.NullInt64
	if run.Counts != nil {
		enter = sql.NullInt64{Int64: int64(run.Counts.Enter), Valid: true}
		exit = sql.NullInt64{Int64: int64(run.Counts.Exit), Valid: true}
		inside = sql.NullInt64{Int64: int64(run.Counts.Inside), Valid: true}
		outside = sql.NullInt64{Int64: int64(run.Counts.Outside), Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, file_name, date, time, start_frame, end_frame, records, total_tracks, no_data,
			enter_count, exit_count, inside_count, outside_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID.String(), run.FileName, run.Date, run.Time, run.Start, run.End, run.Records, run.TotalTracks, run.NoData,
		enter, exit, inside, outside, run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.Wrapf(err, "can't insert run '%s'", run.FileName)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (
			run_id, track_id, direction, length, distance, first_frame, last_frame, first_x, first_y, last_x, last_y
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "can't prepare track insert")
	}
	defer stmt.Close()
	for _, track := range tracks {
		frames := track.GetFrameIDs()
		first, last := track.First(), track.Last()
		_, err := stmt.ExecContext(ctx,
			run.RunID.String(), track.GetID(), track.Direction.String(), track.Len(), track.GetDistance(),
			frames[0], frames[len(frames)-1], first.X, first.Y, last.X, last.Y,
		)
		if err != nil {
			return errors.Wrapf(err, "can't insert track %d", track.GetID())
		}
	}
	return errors.Wrap(tx.Commit(), "can't commit run")
}

// IsProcessed reports whether a run for the file (base name) was stored
func (store *Store) IsProcessed(ctx context.Context, fileName string) (bool, error) {
	var exists bool
	err := store.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM runs WHERE file_name = ?)", fileName).Scan(&exists)
	if err != nil {
		return false, errors.Wrapf(err, "can't check file '%s'", fileName)
	}
	return exists, nil
}

// DailyCounts sums tracked runs of the date (YYYYMMDD). Files without data are not counted
func (store *Store) DailyCounts(ctx context.Context, date string) (DayTotals, error) {
	totals := DayTotals{Date: date}
	err := store.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(total_tracks), 0),
			COALESCE(SUM(enter_count), 0),
			COALESCE(SUM(exit_count), 0),
			COALESCE(SUM(inside_count), 0),
			COALESCE(SUM(outside_count), 0)
		FROM runs
		WHERE date = ? AND no_data = 0`, date,
	).Scan(&totals.Runs, &totals.TotalTracks, &totals.Counts.Enter, &totals.Counts.Exit, &totals.Counts.Inside, &totals.Counts.Outside)
	if err != nil {
		return DayTotals{}, errors.Wrapf(err, "can't aggregate date %s", date)
	}
	return totals, nil
}

// RunTracks returns stored tracks of the run ordered by track id
func (store *Store) RunTracks(ctx context.Context, runID uuid.UUID) ([]TrackRecord, error) {
	rows, err := store.db.QueryContext(ctx, `
		SELECT track_id, direction, length, distance, first_frame, last_frame, first_x, first_y, last_x, last_y
		FROM tracks
		WHERE run_id = ?
		ORDER BY track_id`, runID.String())
	if err != nil {
		return nil, errors.Wrapf(err, "can't query tracks of run %s", runID)
	}
	defer rows.Close()
	out := []TrackRecord{}
	for rows.Next() {
		var record TrackRecord
		var direction string
		err := rows.Scan(&record.TrackID, &direction, &record.Length, &record.Distance, &record.FirstFrame, &record.LastFrame,
			&record.First.X, &record.First.Y, &record.Last.X, &record.Last.Y)
		if err != nil {
			return nil, errors.Wrap(err, "can't scan track")
		}
		record.Direction, err = mot.ParseDirection(direction)
		if err != nil {
			return nil, errors.Wrapf(err, "track %d", record.TrackID)
		}
		out = append(out, record)
	}
	return out, errors.Wrap(rows.Err(), "can't iterate tracks")
}

// TrackRecord is stored summary of a track
type TrackRecord struct {
	TrackID    int
	Direction  mot.Direction
	Length     int
	Distance   float64
	FirstFrame int
	LastFrame  int
	First      mot.Point
	Last       mot.Point
}
