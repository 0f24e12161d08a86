package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
)

// CreateGroup persists a new group with its members and contacts.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	// Generate IDs if not set
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	return s.withTx(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx,
			"INSERT INTO groups (id, name, created_at) VALUES (?, ?, ?)",
			group.ID, group.Name, group.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		for i := range group.Members {
			if err := insertMember(ctx, q, group.ID, &group.Members[i]); err != nil {
				return err
			}
		}
		for i := range group.Contacts {
			if err := insertContact(ctx, q, group.ID, &group.Contacts[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetGroup retrieves a group by ID, including members and contacts.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.q.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("group", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	// Get members
	rows, err := s.q.QueryContext(ctx,
		"SELECT user_id, display_name, weight FROM group_members WHERE group_id = ? ORDER BY rowid",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.UserID, &m.DisplayName, &m.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		group.Members = append(group.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	// Get contacts
	contactRows, err := s.q.QueryContext(ctx,
		"SELECT id, name, weight FROM contacts WHERE group_id = ? ORDER BY rowid",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}
	defer contactRows.Close()

	for contactRows.Next() {
		var c models.GroupContact
		if err := contactRows.Scan(&c.ID, &c.Name, &c.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		group.Contacts = append(group.Contacts, c)
	}
	if err := contactRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}

	return group, nil
}

// AddMember registers a user in an existing group.
func (s *SQLiteStore) AddMember(ctx context.Context, groupID string, member *models.GroupMember) error {
	return s.withTx(ctx, func(q querier) error {
		if err := groupExists(ctx, q, groupID); err != nil {
			return err
		}
		return insertMember(ctx, q, groupID, member)
	})
}

// AddContact registers a proxy contact in an existing group.
func (s *SQLiteStore) AddContact(ctx context.Context, groupID string, contact *models.GroupContact) error {
	return s.withTx(ctx, func(q querier) error {
		if err := groupExists(ctx, q, groupID); err != nil {
			return err
		}
		return insertContact(ctx, q, groupID, contact)
	})
}

// SetWeight updates the weight of a member or contact of the group.
func (s *SQLiteStore) SetWeight(ctx context.Context, groupID string, p models.Participant, weight int) error {
	var (
		res sql.Result
		err error
	)
	switch {
	case p.IsMember():
		res, err = s.q.ExecContext(ctx,
			"UPDATE group_members SET weight = ? WHERE group_id = ? AND user_id = ?",
			weight, groupID, p.ID(),
		)
	case p.IsContact():
		res, err = s.q.ExecContext(ctx,
			"UPDATE contacts SET weight = ? WHERE group_id = ? AND id = ?",
			weight, groupID, p.ID(),
		)
	default:
		return notFound("participant", p.String())
	}
	if err != nil {
		return fmt.Errorf("failed to update weight: %w", err)
	}
	return checkAffected(res, "participant", p.String())
}

func groupExists(ctx context.Context, q querier, groupID string) error {
	var exists int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE id = ?", groupID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("group", groupID)
	}
	if err != nil {
		return fmt.Errorf("failed to check group existence: %w", err)
	}
	return nil
}

func insertMember(ctx context.Context, q querier, groupID string, m *models.GroupMember) error {
	if m.Weight == 0 {
		m.Weight = 1
	}
	_, err := q.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id, display_name, weight) VALUES (?, ?, ?, ?)",
		groupID, m.UserID, m.DisplayName, m.Weight,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

func insertContact(ctx context.Context, q querier, groupID string, c *models.GroupContact) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Weight == 0 {
		c.Weight = 1
	}
	_, err := q.ExecContext(ctx,
		"INSERT INTO contacts (id, group_id, name, weight) VALUES (?, ?, ?, ?)",
		c.ID, groupID, c.Name, c.Weight,
	)
	if err != nil {
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	return nil
}
