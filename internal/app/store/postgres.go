package store

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"vcturbo/internal/app/db"
	"vcturbo/internal/app/user"
)

var _ Repository = (*Postgres)(nil)

// Postgres is the Repository backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps a migrated pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const userColumns = `id, name, email, password, profile_pic_url, created_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.ProfilePicURL, &u.CreatedAt)
	return u, err
}

// translate maps driver errors onto the package sentinels.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return errors.Wrap(ErrNotFound, what)
	case db.IsUniqueViolation(err):
		return errors.Wrap(ErrConflict, what)
	case db.IsForeignKeyViolation(err):
		return errors.Wrap(ErrNotFound, what)
	default:
		return errors.Wrap(err, what)
	}
}

func (p *Postgres) CreateUser(ctx context.Context, u user.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.Password, u.ProfilePicURL, u.CreatedAt,
	)
	return translate(err, "create user")
}

func (p *Postgres) UserByID(ctx context.Context, id string) (user.User, error) {
	u, err := scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, translate(err, "user by id")
}

func (p *Postgres) UserByEmail(ctx context.Context, email string) (user.User, error) {
	u, err := scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	return u, translate(err, "user by email")
}

func (p *Postgres) UpdateProfilePic(ctx context.Context, id, url string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE users SET profile_pic_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return translate(err, "update profile pic")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrNotFound, "user %q", id)
	}
	return nil
}

// likePattern escapes LIKE metacharacters in q and wraps it for a substring match.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

func (p *Postgres) SearchUsers(ctx context.Context, query, excludeID string, limit int) ([]user.User, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE id <> $1 AND (name ILIKE $2 OR email ILIKE $2)
		 ORDER BY name, id
		 LIMIT $3`,
		excludeID, likePattern(query), limit,
	)
	if err != nil {
		return nil, translate(err, "search users")
	}
	defer rows.Close()

	users := make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, translate(err, "scan user")
		}
		users = append(users, u)
	}
	return users, translate(rows.Err(), "search users")
}

const edgeColumns = `user_lo, user_hi, requester, status, created_at, updated_at`

func scanEdge(row pgx.Row, extra ...any) (FriendEdge, error) {
	var e FriendEdge
	var status string
	dest := append([]any{&e.Pair.Lo, &e.Pair.Hi, &e.Requester, &status, &e.CreatedAt, &e.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return FriendEdge{}, err
	}
	e.Status = EdgeStatus(status)
	return e, nil
}

func (p *Postgres) Edge(ctx context.Context, key PairKey) (FriendEdge, error) {
	e, err := scanEdge(p.pool.QueryRow(ctx,
		`SELECT `+edgeColumns+` FROM friend_edges WHERE user_lo = $1 AND user_hi = $2`,
		key.Lo, key.Hi,
	))
	return e, translate(err, "edge "+key.String())
}

func (p *Postgres) CreateEdge(ctx context.Context, edge FriendEdge) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO friend_edges (user_lo, user_hi, requester, status) VALUES ($1, $2, $3, $4)`,
		edge.Pair.Lo, edge.Pair.Hi, edge.Requester, string(edge.Status),
	)
	return translate(err, "create edge "+edge.Pair.String())
}

func (p *Postgres) UpdateEdgeStatus(ctx context.Context, key PairKey, status EdgeStatus) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE friend_edges SET status = $3, updated_at = now() WHERE user_lo = $1 AND user_hi = $2`,
		key.Lo, key.Hi, string(status),
	)
	if err != nil {
		return translate(err, "update edge "+key.String())
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrNotFound, "edge %s", key)
	}
	return nil
}

func (p *Postgres) DeleteEdge(ctx context.Context, key PairKey) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM friend_edges WHERE user_lo = $1 AND user_hi = $2`,
		key.Lo, key.Hi,
	)
	if err != nil {
		return translate(err, "delete edge "+key.String())
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrNotFound, "edge %s", key)
	}
	return nil
}

func (p *Postgres) RelationshipsOf(ctx context.Context, userID string) ([]Relationship, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT e.user_lo, e.user_hi, e.requester, e.status, e.created_at, e.updated_at,
		        u.id, u.name, u.email, u.password, u.profile_pic_url, u.created_at
		 FROM friend_edges e
		 JOIN users u ON u.id = CASE WHEN e.user_lo = $1 THEN e.user_hi ELSE e.user_lo END
		 WHERE e.user_lo = $1 OR e.user_hi = $1
		 ORDER BY e.created_at, e.user_lo, e.user_hi`,
		userID,
	)
	if err != nil {
		return nil, translate(err, "relationships")
	}
	defer rows.Close()

	out := make([]Relationship, 0)
	for rows.Next() {
		var other user.User
		e, err := scanEdge(rows, &other.ID, &other.Name, &other.Email, &other.Password, &other.ProfilePicURL, &other.CreatedAt)
		if err != nil {
			return nil, translate(err, "scan relationship")
		}
		out = append(out, Relationship{Edge: e, Other: other})
	}
	return out, translate(rows.Err(), "relationships")
}

func (p *Postgres) AppendMessage(ctx context.Context, m Message) (Message, error) {
	key := m.Pair()
	err := p.pool.QueryRow(ctx,
		`INSERT INTO messages (id, pair_lo, pair_hi, sender_id, receiver_id, content, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING seq`,
		m.ID, key.Lo, key.Hi, m.SenderID, m.ReceiverID, m.Content, m.Timestamp,
	).Scan(&m.Seq)
	return m, translate(err, "append message")
}

func (p *Postgres) Conversation(ctx context.Context, key PairKey) ([]Message, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, sender_id, receiver_id, content, sent_at, seq
		 FROM messages
		 WHERE pair_lo = $1 AND pair_hi = $2
		 ORDER BY sent_at, seq`,
		key.Lo, key.Hi,
	)
	if err != nil {
		return nil, translate(err, "conversation")
	}
	defer rows.Close()

	out := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Timestamp, &m.Seq); err != nil {
			return nil, translate(err, "scan message")
		}
		m.Timestamp = m.Timestamp.UTC()
		out = append(out, m)
	}
	return out, translate(rows.Err(), "conversation")
}
