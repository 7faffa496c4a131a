package notify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewPayload(recid string) string {
	return fmt.Sprintf(`{
		"@context": ["https://www.w3.org/ns/activitystreams", "https://coar-notify.net"],
		"actor": {
			"id": "https://review-service.example.org/coar_notify/",
			"name": "Peer Community in Evolutionary Biology",
			"type": "Service"
		},
		"context": {"id": "https://repository.example.org/records/%s"},
		"id": "urn:uuid:94ecae35-dcfd-4182-8550-22c7164fe23f",
		"inReplyTo": "urn:uuid:0370c0fb-bb78-4a9b-87f5-bed307a509dd",
		"object": {
			"id": "https://review-service.example.org/articles/rec?articleId=794#review-3136",
			"ietf:cite-as": "https://review-service.example.org/articles/rec?articleId=794#review-3136",
			"type": ["Page", "sorg:WebPage"]
		},
		"origin": {
			"id": "https://review-service.example.org/coar_notify/",
			"inbox": "https://review-service.example.org/coar_notify/inbox/",
			"type": "Service"
		},
		"target": {
			"id": "https://repository.example.org",
			"inbox": "https://repository.example.org/api/notify/inbox",
			"type": "Service"
		},
		"type": ["Announce", "coar-notify:ReviewAction"]
	}`, recid)
}

func TestParseEnvelope(t *testing.T) {
	env, err := ParseEnvelope([]byte(reviewPayload("abcd-1234")))
	require.NoError(t, err)

	assert.Equal(t, "urn:uuid:94ecae35-dcfd-4182-8550-22c7164fe23f", env.ID)
	assert.Equal(t, TypeList{"Announce", "coar-notify:ReviewAction"}, env.Type)
	assert.Equal(t, "https://review-service.example.org/coar_notify/", env.Actor.ID)
	assert.Equal(t, "Peer Community in Evolutionary Biology", env.Actor.Name)
	assert.Equal(t, "urn:uuid:0370c0fb-bb78-4a9b-87f5-bed307a509dd", env.InReplyTo)
	assert.Equal(t, "https://repository.example.org/records/abcd-1234", env.RecordURL())
	assert.Equal(t, "https://review-service.example.org/articles/rec?articleId=794#review-3136", env.ResultURL())
}

func TestParseEnvelopeScalarType(t *testing.T) {
	payload := `{
		"id": "urn:uuid:11111111-2222-3333-4444-555555555555",
		"type": "TentativeAccept",
		"actor": {"id": "https://review-service.example.org/coar_notify/"},
		"inReplyTo": "urn:uuid:0370c0fb-bb78-4a9b-87f5-bed307a509dd"
	}`
	env, err := ParseEnvelope([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, TypeList{"TentativeAccept"}, env.Type)
}

func TestParseEnvelopeMalformedJSON(t *testing.T) {
	_, err := ParseEnvelope([]byte(`{"id": "urn:uuid:x", "type": ["Announce"`))
	require.Error(t, err)
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestParseEnvelopeMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing id", `{"type": ["Announce"], "actor": {"id": "https://a.example.org"}}`},
		{"missing type", `{"id": "urn:uuid:x", "actor": {"id": "https://a.example.org"}}`},
		{"missing actor id", `{"id": "urn:uuid:x", "type": ["Announce"], "actor": {"name": "A"}}`},
		{"missing actor", `{"id": "urn:uuid:x", "type": ["Announce"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnvelope([]byte(tt.payload))
			require.Error(t, err)
			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestRecordURLFallsBackToOfferObject(t *testing.T) {
	payload := `{
		"id": "urn:uuid:x-offer",
		"type": ["Offer", "coar-notify:EndorsementAction"],
		"actor": {"id": "mailto:owner@example.org", "name": "Owner", "type": "Person"},
		"object": {
			"id": "urn:uuid:offer-object",
			"object": {"id": "https://repository.example.org/records/wxyz-9876"}
		}
	}`
	env, err := ParseEnvelope([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "https://repository.example.org/records/wxyz-9876", env.RecordURL())
}

func TestRecordID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://repository.example.org/records/abcd-1234", "abcd-1234"},
		{"https://repository.example.org/records/abcd-1234/", "abcd-1234"},
		{"https://repository.example.org/records/abcd-1234?tab=files", "abcd-1234"},
		{"https://repository.example.org/records/abcd-1234#citation", "abcd-1234"},
		{"https://repository.example.org/uploads/abcd-1234", ""},
		{"not a url at all", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RecordID(tt.url), "url %q", tt.url)
	}
}
