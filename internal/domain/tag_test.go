package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTag_VisibleTo(t *testing.T) {
	private := &Tag{OwnerID: "10", Name: "hi"}
	global := &Tag{OwnerID: "10", Name: "hi", Global: true}

	tests := []struct {
		name      string
		tag       *Tag
		requester string
		ignore    bool
		want      bool
	}{
		{"owner sees private", private, "10", false, true},
		{"stranger does not see private", private, "55", false, false},
		{"ignore visibility shows private", private, "55", true, true},
		{"stranger sees global", global, "55", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tag.VisibleTo(tt.requester, tt.ignore))
		})
	}
}

func TestTag_UnmarshalJSON_StringOwner(t *testing.T) {
	var tag Tag
	err := json.Unmarshal([]byte(`{"ownerID":"118206187034558464","name":"hi","text":"hello","global":true}`), &tag)
	require.NoError(t, err)

	assert.Equal(t, Tag{OwnerID: "118206187034558464", Name: "hi", Text: "hello", Global: true}, tag)
}

func TestTag_UnmarshalJSON_NumericOwner(t *testing.T) {
	var tag Tag
	err := json.Unmarshal([]byte(`{"ownerID":118206187034558464,"name":"hi","text":"hello","global":false}`), &tag)
	require.NoError(t, err)

	assert.Equal(t, "118206187034558464", tag.OwnerID)
	assert.Equal(t, "hello", tag.Text)
}

func TestTag_UnmarshalJSON_RejectsFractionalOwner(t *testing.T) {
	var tag Tag
	err := json.Unmarshal([]byte(`{"ownerID":1.5,"name":"hi"}`), &tag)
	assert.Error(t, err)
}

func TestTag_MarshalJSON_WritesStringOwner(t *testing.T) {
	data, err := json.Marshal(Tag{OwnerID: "10", Name: "hi", Text: "hello"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"ownerID":"10","name":"hi","text":"hello","global":false}`, string(data))
}
