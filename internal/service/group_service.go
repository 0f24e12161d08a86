package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// GroupService maintains the member registry that expenses are split against.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a new group with its initial members and contacts.
func (s *GroupService) CreateGroup(ctx context.Context, name string, members []models.GroupMember, contacts []models.GroupContact) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", models.ErrInvalidArgument)
	}
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if m.UserID == "" {
			return nil, fmt.Errorf("%w: member user ID is required", models.ErrInvalidArgument)
		}
		if seen[m.UserID] {
			return nil, fmt.Errorf("%w: duplicate member %s", models.ErrInvalidArgument, m.UserID)
		}
		seen[m.UserID] = true
	}

	group := &models.Group{
		Name:     name,
		Members:  members,
		Contacts: contacts,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	slog.Info("Group created",
		"group_id", group.ID,
		"members_count", len(group.Members),
		"contacts_count", len(group.Contacts),
	)
	return group, nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.store.GetGroup(ctx, groupID)
}

// AddMember registers a user in the group.
func (s *GroupService) AddMember(ctx context.Context, groupID string, member models.GroupMember) (*models.Group, error) {
	if member.UserID == "" {
		return nil, fmt.Errorf("%w: member user ID is required", models.ErrInvalidArgument)
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Has(models.Member(member.UserID)) {
		return nil, fmt.Errorf("%w: %s is already a member", models.ErrInvalidArgument, member.UserID)
	}

	if err := s.store.AddMember(ctx, groupID, &member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	slog.Info("Member added", "group_id", groupID, "user_id", member.UserID, "weight", member.Weight)
	return s.store.GetGroup(ctx, groupID)
}

// AddContact registers a proxy contact in the group and returns it with its ID.
func (s *GroupService) AddContact(ctx context.Context, groupID string, contact models.GroupContact) (*models.GroupContact, error) {
	if strings.TrimSpace(contact.Name) == "" {
		return nil, fmt.Errorf("%w: contact name is required", models.ErrInvalidArgument)
	}
	if err := s.store.AddContact(ctx, groupID, &contact); err != nil {
		return nil, err
	}
	slog.Info("Contact added", "group_id", groupID, "contact_id", contact.ID)
	return &contact, nil
}

// SetWeight changes the family/head count of a participant. Shares already
// allocated keep their amounts.
func (s *GroupService) SetWeight(ctx context.Context, groupID string, p models.Participant, weight int) error {
	if weight < 1 {
		return fmt.Errorf("%w: weight must be at least 1, got %d", models.ErrInvalidArgument, weight)
	}
	if err := s.store.SetWeight(ctx, groupID, p, weight); err != nil {
		return err
	}
	slog.Info("Weight updated", "group_id", groupID, "participant", p, "weight", weight)
	return nil
}
