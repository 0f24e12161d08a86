package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParticipant(t *testing.T) {
	tests := []struct {
		in      string
		want    Participant
		wantErr bool
	}{
		{in: "member:u1", want: Member("u1")},
		{in: "contact:c-9", want: Contact("c-9")},
		{in: "member:", wantErr: true},
		{in: "u1", wantErr: true},
		{in: "friend:u1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseParticipant(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParticipantIdentity(t *testing.T) {
	// Same ID, different kinds: never the same participant.
	assert.NotEqual(t, Member("42"), Contact("42"))
	assert.True(t, Participant{}.IsZero())
	assert.True(t, Member("a").IsMember())
	assert.True(t, Contact("a").IsContact())

	seen := map[Participant]bool{Member("a"): true}
	assert.True(t, seen[Member("a")])
	assert.False(t, seen[Contact("a")])
}

func TestParticipantJSON(t *testing.T) {
	type wrapper struct {
		Who Participant `json:"who"`
	}

	data, err := json.Marshal(wrapper{Who: Contact("c1")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"who":"contact:c1"}`, string(data))

	var w wrapper
	require.Error(t, json.Unmarshal([]byte(`{"who":"nobody"}`), &w))
}

func TestEnumsRejectUnknownText(t *testing.T) {
	var p SplitPolicy
	assert.Error(t, p.UnmarshalText([]byte("by-vibes")))

	var es ExpenseStatus
	assert.Error(t, es.UnmarshalText([]byte("settled")))

	var ps PaymentStatus
	assert.Error(t, ps.UnmarshalText([]byte("refunded")))

	_, err := PaymentStatus(0).MarshalText()
	assert.Error(t, err, "zero value must not be persisted")
}

func TestShareState(t *testing.T) {
	share := ExpenseShare{}
	assert.Equal(t, ShareUnpaid, share.State())

	share.Payment = &Payment{Status: PaymentPending}
	assert.Equal(t, SharePending, share.State())

	share.Payment.Status = PaymentRejected
	assert.Equal(t, ShareRejected, share.State())
	assert.False(t, share.IsPaid())

	share.Payment.Status = PaymentPaid
	assert.True(t, share.IsPaid())
}

func TestGroupWeights(t *testing.T) {
	g := &Group{
		Members:  []GroupMember{{UserID: "a", Weight: 3}, {UserID: "b"}},
		Contacts: []GroupContact{{ID: "c", Weight: -2}},
	}

	w, ok := g.WeightOf(Member("a"))
	assert.True(t, ok)
	assert.Equal(t, 3, w)

	w, ok = g.WeightOf(Member("b"))
	assert.True(t, ok)
	assert.Equal(t, 1, w, "missing weight defaults to 1")

	w, ok = g.WeightOf(Contact("c"))
	assert.True(t, ok)
	assert.Equal(t, 1, w, "weight floor is 1")

	assert.False(t, g.Has(Contact("a")))
	assert.Equal(t, []Participant{Member("a"), Member("b"), Contact("c")}, g.Participants())
}
