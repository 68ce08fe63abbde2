package registration

import "github.com/iliyamo/campus-events/internal/model"

// Decide returns the status a new or revived registration receives given
// the number of admitted registrations already in the event.  A nil or
// non-positive capacity places no bound on admission.
func Decide(admitted int, capacity *int) model.RegistrationStatus {
	if capacity == nil || *capacity <= 0 {
		return model.StatusRegistered
	}
	if admitted < *capacity {
		return model.StatusRegistered
	}
	return model.StatusWaitlisted
}
