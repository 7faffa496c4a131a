package notify

import (
	"github.com/google/uuid"
)

// JSON-LD contexts carried by every outbound notification.
var outboundContexts = TypeList{
	"https://www.w3.org/ns/activitystreams",
	"https://purl.org/coar/notify",
}

// OfferParams carries everything needed to build an outbound
// offer-of-endorsement notification.
type OfferParams struct {
	// Requesting user, asserted as the notification's actor.
	UserURI  string
	UserName string

	// Record the endorsement is requested for.
	RecordURL    string
	RecordCiteAs string

	// This service's identity and public inbox.
	OriginID    string
	OriginInbox string

	// Target actor and its inbox.
	TargetID    string
	TargetInbox string
}

// NewEndorsementOffer builds an Offer+EndorsementAction envelope with a
// freshly minted urn:uuid notification id. The id is the correlation token
// the actor's replies will carry in inReplyTo.
func NewEndorsementOffer(p OfferParams) *Envelope {
	return &Envelope{
		LDContext: outboundContexts,
		ID:        "urn:uuid:" + uuid.NewString(),
		Type:      TypeList{ActivityOffer, KindEndorsement},
		Actor: Agent{
			ID:   p.UserURI,
			Name: p.UserName,
			Type: TypeList{"Person"},
		},
		Object: &Object{
			ID:     p.RecordURL,
			Type:   TypeList{"Page", "sorg:AboutPage"},
			CiteAs: p.RecordCiteAs,
			Item: &Item{
				ID:        p.RecordURL,
				MediaType: "text/html",
				Type:      TypeList{"Page", "sorg:AboutPage"},
			},
		},
		Origin: &ServiceRef{
			ID:    p.OriginID,
			Inbox: p.OriginInbox,
			Type:  TypeList{"Service"},
		},
		Target: &ServiceRef{
			ID:    p.TargetID,
			Inbox: p.TargetInbox,
			Type:  TypeList{"Service"},
		},
	}
}
