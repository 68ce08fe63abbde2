package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/campus-events/internal/model"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		admitted int
		capacity *int
		want     model.RegistrationStatus
	}{
		{name: "unbounded", admitted: 500, capacity: nil, want: model.StatusRegistered},
		{name: "zero capacity is unbounded", admitted: 3, capacity: intPtr(0), want: model.StatusRegistered},
		{name: "negative capacity is unbounded", admitted: 3, capacity: intPtr(-1), want: model.StatusRegistered},
		{name: "room left", admitted: 4, capacity: intPtr(5), want: model.StatusRegistered},
		{name: "exactly full", admitted: 5, capacity: intPtr(5), want: model.StatusWaitlisted},
		{name: "over full", admitted: 6, capacity: intPtr(5), want: model.StatusWaitlisted},
		{name: "empty event", admitted: 0, capacity: intPtr(1), want: model.StatusRegistered},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Decide(tt.admitted, tt.capacity))
		})
	}
}
