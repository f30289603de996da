package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v int64) *int64 {
	return &v
}

func TestCheck(t *testing.T) {
	owner := Requester{ID: 1, Role: RoleUser}
	stranger := Requester{ID: 2, Role: RoleUser}
	linkedExpert := Requester{ID: 9, Role: RoleExpert}
	otherExpert := Requester{ID: 10, Role: RoleExpert}

	tests := []struct {
		name      string
		requester Requester
		resource  Resource
		action    Action
		allowed   bool
	}{
		{"owner reads owned row", owner, Owned(1, ptr(9)), Read, true},
		{"owner writes owned row", owner, Owned(1, ptr(9)), Write, true},
		{"stranger reads owned row", stranger, Owned(1, ptr(9)), Read, false},
		{"linked expert reads owned row", linkedExpert, Owned(1, ptr(9)), Read, true},
		{"linked expert cannot write owned row", linkedExpert, Owned(1, ptr(9)), Write, false},
		{"unlinked expert reads owned row", otherExpert, Owned(1, ptr(9)), Read, false},
		{"expert on unlinked owner", linkedExpert, Owned(1, nil), Read, false},

		{"client reads own statistics", owner, ExpertLinkedResource{ClientID: 1, ClientExpertID: ptr(9)}, Read, true},
		{"linked expert reads client statistics", linkedExpert, ExpertLinkedResource{ClientID: 1, ClientExpertID: ptr(9)}, Read, true},
		{"other expert reads client statistics", otherExpert, ExpertLinkedResource{ClientID: 1, ClientExpertID: ptr(9)}, Read, false},
		{"user reads another user's statistics", stranger, ExpertLinkedResource{ClientID: 1, ClientExpertID: ptr(9)}, Read, false},

		{"user reads any profile", stranger, SelfResource{UserID: 1}, Read, true},
		{"user cannot edit another profile", stranger, SelfResource{UserID: 1}, Write, false},
		{"linked expert reads client profile", linkedExpert, SelfResource{UserID: 1, ExpertID: ptr(9)}, Read, true},
		{"unlinked expert reads profile", otherExpert, SelfResource{UserID: 1, ExpertID: ptr(9)}, Read, false},
		{"self edit", owner, SelfResource{UserID: 1}, Write, true},

		{"anonymous requester", Requester{}, Owned(0, nil), Read, false},
		{"unknown role", Requester{ID: 1, Role: "admin"}, Owned(1, nil), Read, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.requester, tc.resource, tc.action)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestRequireExpert(t *testing.T) {
	assert.NoError(t, RequireExpert(Requester{ID: 3, Role: RoleExpert}))
	assert.ErrorIs(t, RequireExpert(Requester{ID: 3, Role: RoleUser}), ErrForbidden)
	assert.ErrorIs(t, RequireExpert(Requester{Role: RoleExpert}), ErrForbidden)
}
