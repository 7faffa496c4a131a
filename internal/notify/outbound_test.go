package notify

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEndorsementOffer(t *testing.T) {
	env := NewEndorsementOffer(OfferParams{
		UserURI:      "https://repo.example.org/users/42",
		UserName:     "owner",
		RecordURL:    "https://repo.example.org/records/8x9q1-abc42",
		RecordCiteAs: "https://doi.org/10.1234/example",
		OriginID:     "https://repo.example.org",
		OriginInbox:  "https://repo.example.org/api/v1/inbox",
		TargetID:     "https://reviews.example.org",
		TargetInbox:  "https://reviews.example.org/inbox",
	})

	assert.True(t, strings.HasPrefix(env.ID, "urn:uuid:"))
	assert.Equal(t, TypeList{ActivityOffer, KindEndorsement}, env.Type)
	assert.Equal(t, TypeList{"Person"}, env.Actor.Type)

	require.NotNil(t, env.Object)
	assert.Equal(t, "https://repo.example.org/records/8x9q1-abc42", env.Object.ID)
	assert.Equal(t, "https://doi.org/10.1234/example", env.Object.CiteAs)

	require.NotNil(t, env.Object.Item)
	assert.Equal(t, env.Object.ID, env.Object.Item.ID)
	assert.Equal(t, "text/html", env.Object.Item.MediaType)
	assert.Equal(t, TypeList{"Page", "sorg:AboutPage"}, env.Object.Item.Type)

	require.NotNil(t, env.Origin)
	assert.Equal(t, "https://repo.example.org/api/v1/inbox", env.Origin.Inbox)
	require.NotNil(t, env.Target)
	assert.Equal(t, "https://reviews.example.org/inbox", env.Target.Inbox)
}

func TestEndorsementOfferWireFormat(t *testing.T) {
	env := NewEndorsementOffer(OfferParams{
		UserURI:     "https://repo.example.org/users/42",
		RecordURL:   "https://repo.example.org/records/8x9q1-abc42",
		OriginID:    "https://repo.example.org",
		OriginInbox: "https://repo.example.org/api/v1/inbox",
		TargetID:    "https://reviews.example.org",
		TargetInbox: "https://reviews.example.org/inbox",
	})

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))

	object, ok := payload["object"].(map[string]interface{})
	require.True(t, ok)
	item, ok := object["ietf:item"].(map[string]interface{})
	require.True(t, ok, "offer object must carry an ietf:item block")
	assert.Equal(t, "https://repo.example.org/records/8x9q1-abc42", item["id"])
	assert.Equal(t, "text/html", item["mediaType"])

	// Without a DOI there is nothing to cite.
	_, present := object["ietf:cite-as"]
	assert.False(t, present)
}
