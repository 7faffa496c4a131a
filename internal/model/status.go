package model

// WorkflowStatus is the closed set of states an endorsement workflow can be
// in. A request starts at StatusRequestEndorsement; every later state is set
// from the classification of an incoming reply.
type WorkflowStatus string

const (
	StatusUnknown             WorkflowStatus = ""
	StatusRequestEndorsement  WorkflowStatus = "request_endorsement"
	StatusTentativeAccept     WorkflowStatus = "tentative_accept"
	StatusTentativeReject     WorkflowStatus = "tentative_reject"
	StatusReject              WorkflowStatus = "reject"
	StatusAnnounceReview      WorkflowStatus = "announce_review"
	StatusAnnounceEndorsement WorkflowStatus = "announce_endorsement"
)

// Deliverable reports whether the status carries an actual review or
// endorsement outcome, as opposed to a bare accept/reject reply.
func (s WorkflowStatus) Deliverable() bool {
	return s == StatusAnnounceReview || s == StatusAnnounceEndorsement
}

// ReviewType distinguishes the two kinds of deliverable outcomes.
type ReviewType string

const (
	ReviewTypeReview      ReviewType = "review"
	ReviewTypeEndorsement ReviewType = "endorsement"
)

// ReviewTypeFor maps a deliverable workflow status to the review type of the
// endorsement row it produces. The second return is false for statuses that
// do not produce an endorsement.
func ReviewTypeFor(s WorkflowStatus) (ReviewType, bool) {
	switch s {
	case StatusAnnounceReview:
		return ReviewTypeReview, true
	case StatusAnnounceEndorsement:
		return ReviewTypeEndorsement, true
	default:
		return "", false
	}
}
