package eventbridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bql/application/ports"
)

// testClient points an eventbridge.Client at an httptest.Server instead of
// the real AWS endpoint, so PublishMutation can be exercised without
// network access or credentials.
func testClient(t *testing.T, server *httptest.Server) *eventbridge.Client {
	t.Helper()
	return eventbridge.New(eventbridge.Options{
		Region:       "us-east-1",
		Credentials:  awscreds.NewStaticCredentialsProvider("test", "test", ""),
		BaseEndpoint: aws.String(server.URL),
	})
}

func successResponse() string {
	return `{"FailedEntryCount":0,"Entries":[{"EventId":"evt-1"}]}`
}

func TestPublishMutation_SendsOneEntryPerEvent(t *testing.T) {
	var capturedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		capturedBody = buf
		w.Header().Set("Content-Type", "application/x-amz-json-1.1")
		_, _ = w.Write([]byte(successResponse()))
	}))
	defer server.Close()

	p := New(testClient(t, server), "bql-bus", zap.NewNop())
	event := ports.MutationEvent{QueryText: "CREATE (n)", Operation: "create_node", NodeID: "n1", Confirmed: true}

	err := p.PublishMutation(context.Background(), event)
	require.NoError(t, err)
	assert.Contains(t, string(capturedBody), "create_node")
}

func TestPublishMutation_FailedEntryCountIsReportedAsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-amz-json-1.1")
		_, _ = w.Write([]byte(`{"FailedEntryCount":1,"Entries":[{"ErrorCode":"InternalFailure","ErrorMessage":"boom"}]}`))
	}))
	defer server.Close()

	p := New(testClient(t, server), "bql-bus", zap.NewNop())
	event := ports.MutationEvent{Operation: "create_node", NodeID: "n1", Confirmed: true}

	err := p.PublishMutation(context.Background(), event)
	assert.Error(t, err)
}

func TestPublishMutation_FallsBackToEdgeIDWhenNodeIDEmpty(t *testing.T) {
	var capturedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		capturedBody = buf
		w.Header().Set("Content-Type", "application/x-amz-json-1.1")
		_, _ = w.Write([]byte(successResponse()))
	}))
	defer server.Close()

	p := New(testClient(t, server), "bql-bus", zap.NewNop())
	event := ports.MutationEvent{Operation: "create_edge", EdgeID: "e1", Confirmed: true}

	err := p.PublishMutation(context.Background(), event)
	require.NoError(t, err)
	assert.Contains(t, string(capturedBody), "bql:mutation:e1")
}

func TestPublishMutation_MarshalsFullEventIntoDetail(t *testing.T) {
	var capturedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		capturedBody = buf
		w.Header().Set("Content-Type", "application/x-amz-json-1.1")
		_, _ = w.Write([]byte(successResponse()))
	}))
	defer server.Close()

	p := New(testClient(t, server), "bql-bus", zap.NewNop())
	event := ports.MutationEvent{QueryText: `MATCH (n) DELETE n`, Operation: "delete_node", NodeID: "n9", Confirmed: false}

	err := p.PublishMutation(context.Background(), event)
	require.NoError(t, err)

	var req struct {
		Entries []struct {
			Detail string `json:"Detail"`
		} `json:"Entries"`
	}
	require.NoError(t, json.Unmarshal(capturedBody, &req))
	require.Len(t, req.Entries, 1)

	var detail ports.MutationEvent
	require.NoError(t, json.Unmarshal([]byte(req.Entries[0].Detail), &detail))
	assert.Equal(t, "n9", detail.NodeID)
	assert.False(t, detail.Confirmed)
}
