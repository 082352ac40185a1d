package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"relocation_quiz_backend/internal/leads/domain"
	"relocation_quiz_backend/internal/savings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("lead not found")
	ErrDuplicate       = errors.New("lead already exists for this email")
	ErrSessionNotFound = errors.New("quiz session not found")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	defaultListLimit = 50
)

const leadColumns = `
	id, form_type, email, first_name, last_name, phone, sms_consent, location,
	investment_range, message, session_id, answers, savings, annual_savings,
	tier, priority, tags, status, admin_notes, ip_address, user_agent,
	created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateSession(ctx context.Context, s domain.QuizSession) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO quiz_sessions (
			session_id, utm_source, utm_medium, utm_campaign, utm_term, utm_content,
			referrer, device_type, browser
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO NOTHING
	`, s.SessionID, nullIfEmpty(s.UTMSource), nullIfEmpty(s.UTMMedium), nullIfEmpty(s.UTMCampaign),
		nullIfEmpty(s.UTMTerm), nullIfEmpty(s.UTMContent), nullIfEmpty(s.Referrer),
		nullIfEmpty(s.DeviceType), nullIfEmpty(s.Browser))
	if err != nil {
		return false, fmt.Errorf("insert quiz session: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) UpsertAnswer(ctx context.Context, a domain.QuizAnswer) error {
	value, err := json.Marshal(a.Value)
	if err != nil {
		return fmt.Errorf("marshal answer value: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO quiz_answers (session_id, step, question_key, answer_value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT quiz_answers_session_question_key DO UPDATE
		SET step = EXCLUDED.step, answer_value = EXCLUDED.answer_value, updated_at = now()
	`, a.SessionID, a.Step, a.QuestionKey, value)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return ErrSessionNotFound
		}
		return fmt.Errorf("upsert quiz answer: %w", err)
	}
	return nil
}

func (r *Repository) CreateLead(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	answers, err := marshalNullable(lead.Answers)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("marshal answers: %w", err)
	}
	breakdown, err := marshalNullable(lead.Savings)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("marshal savings: %w", err)
	}

	tags := lead.Tags
	if tags == nil {
		tags = []string{}
	}
	status := lead.Status
	if status == "" {
		status = domain.StatusNew
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			form_type, email, first_name, last_name, phone, sms_consent, location,
			investment_range, message, session_id, answers, savings, annual_savings,
			tier, priority, tags, status, ip_address, user_agent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING `+leadColumns,
		string(lead.FormType), lead.Email, nullIfEmpty(lead.FirstName), nullIfEmpty(lead.LastName),
		nullIfEmpty(lead.Phone), lead.SMSConsent, nullIfEmpty(lead.Location),
		nullIfEmpty(lead.InvestmentRange), nullIfEmpty(lead.Message), nullIfEmpty(lead.SessionID),
		answers, breakdown, lead.AnnualSavings,
		nullIfEmpty(string(lead.Tier)), nullIfEmpty(string(lead.Priority)), tags, string(status),
		nullIfEmpty(lead.IPAddress), nullIfEmpty(lead.UserAgent),
	)

	created, err := scanLead(row)
	if err != nil {
		switch pgCode(err) {
		case pgUniqueViolation:
			return domain.Lead{}, ErrDuplicate
		case pgForeignKeyViolation:
			return domain.Lead{}, ErrSessionNotFound
		}
		return domain.Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return created, nil
}

func (r *Repository) LatestSubmission(ctx context.Context, email string, formType domain.FormType, since time.Time) (time.Time, bool, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT max(submitted_at)
		FROM rate_limit_records
		WHERE email = $1 AND form_type = $2 AND submitted_at >= $3
	`, email, string(formType), since).Scan(&latest)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query rate limit records: %w", err)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return *latest, true, nil
}

func (r *Repository) InsertRateLimitRecord(ctx context.Context, record domain.RateLimitRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO rate_limit_records (email, form_type, ip_address, submitted_at)
		VALUES ($1, $2, $3, $4)
	`, record.Email, string(record.FormType), nullIfEmpty(record.IPAddress), record.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert rate limit record: %w", err)
	}
	return nil
}

func (r *Repository) PruneRateLimitRecords(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rate_limit_records WHERE submitted_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune rate limit records: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) ListLeads(ctx context.Context, params ListParams) ([]domain.Lead, error) {
	where, args := buildLeadFilter(params)
	limit, offset := pageBounds(params)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		leadColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func (r *Repository) CountLeads(ctx context.Context, params ListParams) (int, error) {
	where, args := buildLeadFilter(params)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM leads `+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return total, nil
}

func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) UpdateLeadWorkflow(ctx context.Context, id uuid.UUID, params UpdateWorkflowParams) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			status = COALESCE($2, status),
			admin_notes = COALESCE($3, admin_notes),
			tags = COALESCE($4, tags),
			updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, params.Status, params.AdminNotes, params.Tags,
	)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("update lead: %w", err)
	}
	return lead, nil
}

// buildLeadFilter returns the WHERE clause (possibly empty) and its args.
func buildLeadFilter(params ListParams) (string, []interface{}) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)

	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("form_type", params.FormType)
	add("tier", params.Tier)
	add("status", params.Status)

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func pageBounds(params ListParams) (int, int) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead                                      domain.Lead
		formType, status                          string
		firstName, lastName, phone, location      *string
		investmentRange, message, sessionID       *string
		tier, priority, adminNotes, ip, userAgent *string
		answersRaw, savingsRaw                    []byte
	)

	err := row.Scan(
		&lead.ID, &formType, &lead.Email, &firstName, &lastName, &phone, &lead.SMSConsent, &location,
		&investmentRange, &message, &sessionID, &answersRaw, &savingsRaw, &lead.AnnualSavings,
		&tier, &priority, &lead.Tags, &status, &adminNotes, &ip, &userAgent,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}

	lead.FormType = domain.FormType(formType)
	lead.Status = domain.Status(status)
	lead.FirstName = deref(firstName)
	lead.LastName = deref(lastName)
	lead.Phone = deref(phone)
	lead.Location = deref(location)
	lead.InvestmentRange = deref(investmentRange)
	lead.Message = deref(message)
	lead.SessionID = deref(sessionID)
	lead.Tier = domain.Tier(deref(tier))
	lead.Priority = domain.Priority(deref(priority))
	lead.AdminNotes = deref(adminNotes)
	lead.IPAddress = deref(ip)
	lead.UserAgent = deref(userAgent)

	if len(answersRaw) > 0 {
		var answers domain.QuizAnswers
		if err := json.Unmarshal(answersRaw, &answers); err != nil {
			return domain.Lead{}, fmt.Errorf("decode answers: %w", err)
		}
		lead.Answers = &answers
	}
	if len(savingsRaw) > 0 {
		var breakdown savings.Breakdown
		if err := json.Unmarshal(savingsRaw, &breakdown); err != nil {
			return domain.Lead{}, fmt.Errorf("decode savings: %w", err)
		}
		lead.Savings = &breakdown
	}

	return lead, nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func marshalNullable[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
