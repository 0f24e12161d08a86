package models

import (
	"fmt"
	"strings"
)

// ParticipantKind tells a registered member apart from a proxy contact.
type ParticipantKind uint8

const (
	// KindMember is a registered user belonging to the group.
	KindMember ParticipantKind = iota + 1
	// KindContact is a lightweight proxy contact owned by the group.
	KindContact
)

func (k ParticipantKind) String() string {
	switch k {
	case KindMember:
		return "member"
	case KindContact:
		return "contact"
	default:
		return "unknown"
	}
}

// Participant references either a registered member or a proxy contact, never
// both and never neither. The fields are unexported so the only way to build a
// non-zero Participant is Member, Contact or ParseParticipant.
//
// Participants are comparable and can be used as map keys.
type Participant struct {
	kind ParticipantKind
	id   string
}

// Member returns a participant referencing a registered user.
func Member(userID string) Participant {
	return Participant{kind: KindMember, id: userID}
}

// Contact returns a participant referencing a proxy contact.
func Contact(contactID string) Participant {
	return Participant{kind: KindContact, id: contactID}
}

// Kind returns the participant kind, zero for the zero Participant.
func (p Participant) Kind() ParticipantKind { return p.kind }

// ID returns the user ID or contact ID.
func (p Participant) ID() string { return p.id }

// IsZero reports whether p references nobody.
func (p Participant) IsZero() bool { return p.kind == 0 || p.id == "" }

// IsMember reports whether p references a registered user.
func (p Participant) IsMember() bool { return p.kind == KindMember }

// IsContact reports whether p references a proxy contact.
func (p Participant) IsContact() bool { return p.kind == KindContact }

// String renders the participant as "member:<id>" or "contact:<id>".
func (p Participant) String() string {
	if p.IsZero() {
		return ""
	}
	return p.kind.String() + ":" + p.id
}

// ParseParticipant parses the form produced by String.
func ParseParticipant(s string) (Participant, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return Participant{}, fmt.Errorf("invalid participant %q: want member:<id> or contact:<id>", s)
	}
	switch kind {
	case "member":
		return Member(id), nil
	case "contact":
		return Contact(id), nil
	default:
		return Participant{}, fmt.Errorf("invalid participant kind %q", kind)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Participant) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields the zero
// Participant.
func (p *Participant) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = Participant{}
		return nil
	}
	parsed, err := ParseParticipant(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
