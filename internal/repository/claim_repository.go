package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claimdesk/claim-service/internal/domain"
)

// ClaimRepository persists claim snapshots with optimistic concurrency.
//
// Save accepts a snapshot whose Version is exactly one ahead of the stored
// version and that extends the stored case by one timeline event; it writes
// the row and the new event together. A snapshot identical to the stored one
// is acknowledged without a write, so a load followed by a save changes
// nothing. Any other snapshot at the stored version, or at a version that is
// neither, is a *domain.ConflictError. A successor that alters immutable
// fields or earlier events fails with ErrHistoryRewrite.
type ClaimRepository interface {
	Create(ctx context.Context, claim domain.ClaimCase) error
	Load(ctx context.Context, claimID string) (domain.ClaimCase, error)
	Save(ctx context.Context, claim domain.ClaimCase) error
	ListByPolicy(ctx context.Context, policyNo string) ([]domain.ClaimCase, error)
}

type claimRepository struct {
	pool *pgxpool.Pool
}

// NewClaimRepository instantiates the Postgres repository.
func NewClaimRepository(pool *pgxpool.Pool) ClaimRepository {
	return &claimRepository{pool: pool}
}

const claimColumns = `claim_id, version, policy_no, state, conversation_id, insured_entity_name,
               accident_type, accident_date_time, accident_location, accident_description,
               reporter_name, reporter_contact, attachments, created_at, updated_at`

func (r *claimRepository) Create(ctx context.Context, claim domain.ClaimCase) error {
	const query = `
        INSERT INTO claim_cases (` + claimColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        ON CONFLICT (claim_id) DO NOTHING`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx, query,
		claim.ClaimID,
		claim.Version,
		claim.PolicyNo,
		claim.State,
		claim.ConversationID,
		claim.InsuredEntityName,
		claim.AccidentType,
		claim.AccidentDateTime,
		claim.AccidentLocation,
		claim.AccidentDescription,
		claim.ReporterName,
		claim.ReporterContact,
		attachmentsOrEmpty(claim.Attachments),
		claim.CreatedAt,
		claim.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return &domain.ConflictError{ClaimID: claim.ClaimID, Expected: 0, Actual: claim.Version}
	}
	if err := insertEvents(ctx, tx, claim.ClaimID, claim.Timeline, 0); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *claimRepository) Save(ctx context.Context, claim domain.ClaimCase) error {
	const query = `
        UPDATE claim_cases SET version=$1, state=$2, insured_entity_name=$3, accident_type=$4,
            accident_date_time=$5, accident_location=$6, accident_description=$7,
            reporter_name=$8, reporter_contact=$9, attachments=$10, updated_at=$11
        WHERE claim_id=$12 AND version=$13`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	lockQuery := `SELECT ` + claimColumns + ` FROM claim_cases WHERE claim_id=$1 FOR UPDATE`
	stored, err := scanClaim(tx.QueryRow(ctx, lockQuery, claim.ClaimID))
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.NotFoundError{ClaimID: claim.ClaimID}
	}
	if err != nil {
		return err
	}
	timelines, err := loadTimelines(ctx, tx, []string{claim.ClaimID})
	if err != nil {
		return err
	}
	stored.Timeline = timelines[claim.ClaimID]

	write, err := checkSave(stored, claim)
	if err != nil || !write {
		return err
	}

	cmd, err := tx.Exec(ctx, query,
		claim.Version,
		claim.State,
		claim.InsuredEntityName,
		claim.AccidentType,
		claim.AccidentDateTime,
		claim.AccidentLocation,
		claim.AccidentDescription,
		claim.ReporterName,
		claim.ReporterContact,
		attachmentsOrEmpty(claim.Attachments),
		claim.UpdatedAt,
		claim.ClaimID,
		claim.Version-1,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return &domain.ConflictError{ClaimID: claim.ClaimID, Expected: claim.Version - 1, Actual: stored.Version}
	}
	offset := len(stored.Timeline)
	if err := insertEvents(ctx, tx, claim.ClaimID, claim.Timeline[offset:], offset); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *claimRepository) Load(ctx context.Context, claimID string) (domain.ClaimCase, error) {
	query := `SELECT ` + claimColumns + ` FROM claim_cases WHERE claim_id=$1`
	claim, err := scanClaim(r.pool.QueryRow(ctx, query, claimID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ClaimCase{}, &domain.NotFoundError{ClaimID: claimID}
	}
	if err != nil {
		return domain.ClaimCase{}, err
	}
	timelines, err := loadTimelines(ctx, r.pool, []string{claimID})
	if err != nil {
		return domain.ClaimCase{}, err
	}
	claim.Timeline = timelines[claimID]
	return claim, nil
}

func (r *claimRepository) ListByPolicy(ctx context.Context, policyNo string) ([]domain.ClaimCase, error) {
	query := `SELECT ` + claimColumns + ` FROM claim_cases WHERE policy_no=$1 ORDER BY created_at ASC, claim_id ASC`
	rows, err := r.pool.Query(ctx, query, policyNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.ClaimCase{}
	ids := []string{}
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, claim)
		ids = append(ids, claim.ClaimID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return result, nil
	}

	timelines, err := loadTimelines(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Timeline = timelines[result[i].ClaimID]
	}
	return result, nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadTimelines(ctx context.Context, q querier, ids []string) (map[string][]domain.ClaimTimelineEvent, error) {
	const query = `
        SELECT claim_id, occurred_at, action, description, actor
        FROM claim_timeline_events WHERE claim_id = ANY($1) ORDER BY claim_id, seq ASC`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.ClaimTimelineEvent, len(ids))
	for _, id := range ids {
		result[id] = []domain.ClaimTimelineEvent{}
	}
	for rows.Next() {
		var (
			claimID string
			event   domain.ClaimTimelineEvent
		)
		if err := rows.Scan(&claimID, &event.Timestamp, &event.Action, &event.Description, &event.Actor); err != nil {
			return nil, err
		}
		event.Timestamp = event.Timestamp.UTC()
		result[claimID] = append(result[claimID], event)
	}
	return result, rows.Err()
}

// insertEvents stores events with seq numbers continuing after offset.
func insertEvents(ctx context.Context, tx pgx.Tx, claimID string, events []domain.ClaimTimelineEvent, offset int) error {
	if len(events) == 0 {
		return nil
	}
	const query = `
        INSERT INTO claim_timeline_events (claim_id, seq, occurred_at, action, description, actor)
        VALUES ($1,$2,$3,$4,$5,$6)`
	batch := &pgx.Batch{}
	for i, event := range events {
		batch.Queue(query, claimID, offset+i+1, event.Timestamp, event.Action, event.Description, event.Actor)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func scanClaim(row pgx.Row) (domain.ClaimCase, error) {
	var claim domain.ClaimCase
	if err := row.Scan(
		&claim.ClaimID,
		&claim.Version,
		&claim.PolicyNo,
		&claim.State,
		&claim.ConversationID,
		&claim.InsuredEntityName,
		&claim.AccidentType,
		&claim.AccidentDateTime,
		&claim.AccidentLocation,
		&claim.AccidentDescription,
		&claim.ReporterName,
		&claim.ReporterContact,
		&claim.Attachments,
		&claim.CreatedAt,
		&claim.UpdatedAt,
	); err != nil {
		return domain.ClaimCase{}, err
	}
	claim.CreatedAt = claim.CreatedAt.UTC()
	claim.UpdatedAt = claim.UpdatedAt.UTC()
	if claim.AccidentDateTime != nil {
		t := claim.AccidentDateTime.UTC()
		claim.AccidentDateTime = &t
	}
	if claim.Attachments == nil {
		claim.Attachments = []string{}
	}
	return claim, nil
}

func attachmentsOrEmpty(attachments []string) []string {
	if attachments == nil {
		return []string{}
	}
	return attachments
}
