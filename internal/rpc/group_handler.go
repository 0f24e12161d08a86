package rpc

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/service"
)

// GroupHandler serves settleup.v1.GroupService.
type GroupHandler struct {
	svc *service.GroupService
}

// NewGroupServiceHandler builds the handler for every GroupService
// procedure. It returns the path to mount it on.
func NewGroupServiceHandler(svc *service.GroupService, opts ...connect.HandlerOption) (string, http.Handler) {
	h := &GroupHandler{svc: svc}
	mux := http.NewServeMux()
	handle(mux, CreateGroupProcedure, h.CreateGroup, opts)
	handle(mux, GetGroupProcedure, h.GetGroup, opts)
	handle(mux, AddMemberProcedure, h.AddMember, opts)
	handle(mux, AddContactProcedure, h.AddContact, opts)
	handle(mux, SetWeightProcedure, h.SetWeight, opts)
	return "/" + GroupServiceName + "/", mux
}

// CreateGroup creates a new group.
func (h *GroupHandler) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[GroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
		"contacts_count", len(req.Msg.Contacts),
	)

	members := make([]models.GroupMember, len(req.Msg.Members))
	for i, m := range req.Msg.Members {
		members[i] = models.GroupMember{UserID: m.UserID, DisplayName: m.DisplayName, Weight: m.Weight}
	}
	contacts := make([]models.GroupContact, len(req.Msg.Contacts))
	for i, c := range req.Msg.Contacts {
		contacts[i] = models.GroupContact{Name: c.Name, Weight: c.Weight}
	}

	group, err := h.svc.CreateGroup(ctx, req.Msg.Name, members, contacts)
	if err != nil {
		return nil, toConnectError(CreateGroupProcedure, err)
	}
	return connect.NewResponse(&GroupResponse{Group: toGroup(group)}), nil
}

// GetGroup retrieves a group by ID.
func (h *GroupHandler) GetGroup(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	if req.Msg.GroupID == "" {
		return nil, invalidArgument("group_id required")
	}
	group, err := h.svc.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(GetGroupProcedure, err)
	}
	return connect.NewResponse(&GroupResponse{Group: toGroup(group)}), nil
}

// AddMember registers a user in a group.
func (h *GroupHandler) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[GroupResponse], error) {
	slog.Info("AddMember request received", "group_id", req.Msg.GroupID, "user_id", req.Msg.Member.UserID)

	m := req.Msg.Member
	group, err := h.svc.AddMember(ctx, req.Msg.GroupID, models.GroupMember{
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Weight:      m.Weight,
	})
	if err != nil {
		return nil, toConnectError(AddMemberProcedure, err)
	}
	return connect.NewResponse(&GroupResponse{Group: toGroup(group)}), nil
}

// AddContact registers a proxy contact in a group.
func (h *GroupHandler) AddContact(ctx context.Context, req *connect.Request[AddContactRequest]) (*connect.Response[ContactResponse], error) {
	slog.Info("AddContact request received", "group_id", req.Msg.GroupID)

	c := req.Msg.Contact
	contact, err := h.svc.AddContact(ctx, req.Msg.GroupID, models.GroupContact{Name: c.Name, Weight: c.Weight})
	if err != nil {
		return nil, toConnectError(AddContactProcedure, err)
	}
	return connect.NewResponse(&ContactResponse{Contact: toContact(contact)}), nil
}

// SetWeight updates the family/head count of a member or contact.
func (h *GroupHandler) SetWeight(ctx context.Context, req *connect.Request[SetWeightRequest]) (*connect.Response[Empty], error) {
	slog.Info("SetWeight request received",
		"group_id", req.Msg.GroupID,
		"participant", req.Msg.Participant,
		"weight", req.Msg.Weight,
	)

	if req.Msg.Participant.IsZero() {
		return nil, invalidArgument("participant required")
	}
	if err := h.svc.SetWeight(ctx, req.Msg.GroupID, req.Msg.Participant, req.Msg.Weight); err != nil {
		return nil, toConnectError(SetWeightProcedure, err)
	}
	return connect.NewResponse(&Empty{}), nil
}
