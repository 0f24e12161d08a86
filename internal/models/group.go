package models

// Group is the member registry the engine reads participants and weights from.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Members are the registered users in the group.
	Members []GroupMember

	// Contacts are proxy participants without an account.
	Contacts []GroupContact

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// GroupMember is the membership relation of a registered user.
type GroupMember struct {
	UserID      string
	DisplayName string

	// Weight is the family/head count used by the equal split. Values below 1 count as 1.
	Weight int
}

// GroupContact is a lightweight proxy participant owned by a group.
type GroupContact struct {
	ID     string
	Name   string
	Weight int
}

// EffectiveWeight applies the weight floor of 1.
func EffectiveWeight(w int) int {
	if w < 1 {
		return 1
	}
	return w
}

// Participants lists every member and contact of the group, members first.
func (g *Group) Participants() []Participant {
	out := make([]Participant, 0, len(g.Members)+len(g.Contacts))
	for _, m := range g.Members {
		out = append(out, Member(m.UserID))
	}
	for _, c := range g.Contacts {
		out = append(out, Contact(c.ID))
	}
	return out
}

// Has reports whether p belongs to the group.
func (g *Group) Has(p Participant) bool {
	_, ok := g.WeightOf(p)
	return ok
}

// WeightOf returns the effective weight of p and whether p belongs to the group.
func (g *Group) WeightOf(p Participant) (int, bool) {
	switch p.Kind() {
	case KindMember:
		for _, m := range g.Members {
			if m.UserID == p.ID() {
				return EffectiveWeight(m.Weight), true
			}
		}
	case KindContact:
		for _, c := range g.Contacts {
			if c.ID == p.ID() {
				return EffectiveWeight(c.Weight), true
			}
		}
	}
	return 0, false
}
