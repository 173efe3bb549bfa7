package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/loywise/maildesk/internal/models"
	"github.com/loywise/maildesk/internal/store"
)

type MemberStore struct {
	db *sqlx.DB
}

func NewMemberStore(db *sqlx.DB) *MemberStore {
	return &MemberStore{db: db}
}

func (s *MemberStore) GetMemberByNumber(ctx context.Context, memberNo string) (*models.Member, error) {
	member := &models.Member{}
	err := s.db.GetContext(ctx, member,
		`SELECT member_no, title, first_name, last_name, tier, email
		 FROM members WHERE member_no = $1`,
		models.Truncate(memberNo, models.MaxMemberNo),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return member, nil
}

func (s *MemberStore) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	// Several profiles may share an address; the lowest member number wins so
	// repeated runs resolve the same profile.
	member := &models.Member{}
	err := s.db.GetContext(ctx, member,
		`SELECT member_no, title, first_name, last_name, tier, email
		 FROM members WHERE email = $1
		 ORDER BY member_no LIMIT 1`,
		models.Truncate(email, models.MaxMemberEmail),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return member, nil
}

func (s *MemberStore) CreateMemberIfAbsent(ctx context.Context, member models.Member) (bool, error) {
	member = member.Clamped()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO members (member_no, title, first_name, last_name, tier, email)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (member_no) DO NOTHING`,
		member.MemberNo, member.Title, member.FirstName, member.LastName, member.Tier, member.Email,
	)
	if err != nil {
		return false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return inserted > 0, nil
}
