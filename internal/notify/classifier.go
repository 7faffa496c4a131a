package notify

import (
	"github.com/scholarhub/notify-api/internal/model"
)

// Activity and action type tags from the COAR Notify vocabulary.
const (
	ActivityAnnounce        = "Announce"
	ActivityOffer           = "Offer"
	ActivityTentativeAccept = "TentativeAccept"
	ActivityTentativeReject = "TentativeReject"
	ActivityReject          = "Reject"

	KindReview      = "coar-notify:ReviewAction"
	KindEndorsement = "coar-notify:EndorsementAction"
)

// kindOrder fixes the precedence when several recognized tags co-occur in
// one notification: simple reply types first, then the compound action
// kinds. First match wins.
var kindOrder = []string{
	ActivityTentativeAccept,
	ActivityTentativeReject,
	ActivityReject,
	KindReview,
	KindEndorsement,
}

// Kind derives the notification kind from the type tags, or "" when no
// recognized tag is present.
func Kind(types TypeList) string {
	for _, k := range kindOrder {
		if types.Contains(k) {
			return k
		}
	}
	return ""
}

// simpleStatuses maps the simple reply activities to workflow statuses.
// These pre-empt compound combinations: a Reject tag classifies as reject no
// matter what else the notification carries.
var simpleStatuses = []struct {
	tag    string
	status model.WorkflowStatus
}{
	{ActivityTentativeAccept, model.StatusTentativeAccept},
	{ActivityTentativeReject, model.StatusTentativeReject},
	{ActivityReject, model.StatusReject},
}

// Classify maps a notification's type tags and derived kind to a workflow
// status. StatusUnknown signals an unsupported combination; the caller
// treats that as a terminal, non-retryable failure. Offer+EndorsementAction
// is deliberately unsupported here: it is valid only as an outbound
// activity, never as an incoming classification.
func Classify(types TypeList, kind string) model.WorkflowStatus {
	if kind == "" {
		return model.StatusUnknown
	}

	for _, s := range simpleStatuses {
		if types.Contains(s.tag) {
			return s.status
		}
	}

	if types.Contains(ActivityAnnounce) {
		switch {
		case kind == KindReview && types.Contains(KindReview):
			return model.StatusAnnounceReview
		case kind == KindEndorsement && types.Contains(KindEndorsement):
			return model.StatusAnnounceEndorsement
		}
	}

	return model.StatusUnknown
}
