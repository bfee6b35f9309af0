package models

// ProfileStatus is a profile's membership standing, orthogonal to its role.
type ProfileStatus string

const (
	ProfileApproved ProfileStatus = "approved"
	ProfilePending  ProfileStatus = "pending" // membership application under review
	ProfileDenied   ProfileStatus = "denied"  // blocks sign-in
)

// Valid reports whether s is a known profile status.
func (s ProfileStatus) Valid() bool {
	switch s {
	case ProfileApproved, ProfilePending, ProfileDenied:
		return true
	}
	return false
}

// SubmissionStatus is the moderation state of a Submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Valid reports whether s is a known submission status.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionApproved, SubmissionRejected:
		return true
	}
	return false
}
