package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReviewsPayloadBareArray(t *testing.T) {
	data := []byte(`[{"id":"r1","movieId":"m1","rating":4,"comment":"good","user":{"id":"u1","username":"alice"}}]`)
	thread, err := decodeReviewsPayload(data)
	require.NoError(t, err)
	require.Len(t, thread.Reviews, 1)
	assert.Equal(t, "r1", thread.Reviews[0].ID)
	assert.Equal(t, 4, thread.Reviews[0].Rating)
	assert.Equal(t, "alice", thread.Reviews[0].Author.Username)
	assert.Nil(t, thread.Avg)
}

func TestDecodeReviewsPayloadEnvelope(t *testing.T) {
	data := []byte(`{"reviews":[{"id":"r1","rating":5}],"avg":4.5,"count":2}`)
	thread, err := decodeReviewsPayload(data)
	require.NoError(t, err)
	require.Len(t, thread.Reviews, 1)
	require.NotNil(t, thread.Avg)
	assert.InDelta(t, 4.5, float64(*thread.Avg), 0.001)
	assert.Equal(t, 2, thread.Count)
}

func TestDecodeReviewsPayloadGarbage(t *testing.T) {
	_, err := decodeReviewsPayload([]byte(`"nope"`))
	assert.Error(t, err)
}

func TestParseErrorMessage(t *testing.T) {
	assert.Equal(t, "boom", parseErrorMessage([]byte(`{"message":"boom"}`)))
	assert.Equal(t, "boom", parseErrorMessage([]byte(`{"error":"boom"}`)))
	assert.Equal(t, "plain text boom", parseErrorMessage([]byte("plain text boom\n")))
}
