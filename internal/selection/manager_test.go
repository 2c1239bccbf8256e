package selection

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filletSpec() Spec {
	return Spec{
		ToolName:   "fillet_edges",
		Type:       TypeEdges,
		ObjectName: "Box",
		Message:    "Please select edges to fillet on Box",
		Hints:      "Ctrl+click for multiple edges.",
		Extra:      map[string]any{"radius": 2.0, "name": "Fillet"},
	}
}

func TestRequestSelectionBuildsAwaitingPayload(t *testing.T) {
	m := NewManager()
	req := m.RequestSelection(filletSpec())

	assert.True(t, strings.HasPrefix(req.OperationID, "fillet_edges_"))
	assert.Equal(t, 1, m.Len())
	assert.WithinDuration(t, req.CreatedAt.Add(DefaultTTL), req.ExpiresAt, time.Millisecond)

	p := req.Payload()
	assert.Equal(t, StatusAwaiting, p["status"])
	assert.Equal(t, req.OperationID, p["operation_id"])
	assert.Equal(t, "edges", p["selection_type"])
	assert.Equal(t, "Box", p["object_name"])
	assert.Equal(t, 2.0, p["radius"])
	assert.Equal(t, "Please select edges to fillet on Box\nTip: Ctrl+click for multiple edges.", p["message"])
}

func TestRequestSelectionIDsAreUnique(t *testing.T) {
	m := NewManager()
	a := m.RequestSelection(filletSpec())
	b := m.RequestSelection(filletSpec())
	assert.NotEqual(t, a.OperationID, b.OperationID)
}

func TestPayloadExtraCannotShadowFixedKeys(t *testing.T) {
	m := NewManager()
	spec := filletSpec()
	spec.Extra = map[string]any{"status": "done", "operation_id": "forged"}
	req := m.RequestSelection(spec)

	p := req.Payload()
	assert.Equal(t, StatusAwaiting, p["status"])
	assert.Equal(t, req.OperationID, p["operation_id"])
}

func TestCompleteSelectionIsSingleConsumption(t *testing.T) {
	m := NewManager()
	req := m.RequestSelection(filletSpec())
	require.NoError(t, m.Record(req.OperationID, Pick{Elements: []int{1, 3}, Objects: []string{"Box"}}))

	res, err := m.CompleteSelection(context.Background(), req.OperationID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, res.Elements)
	assert.Equal(t, []string{"Box"}, res.Objects)
	assert.Equal(t, "fillet_edges", res.ToolName)
	assert.Equal(t, 2.0, res.Extra["radius"])

	_, err = m.CompleteSelection(context.Background(), req.OperationID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, m.Len())
}

func TestConcurrentCompletionsConsumeOnce(t *testing.T) {
	m := NewManager()
	req := m.RequestSelection(filletSpec())

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.CompleteSelection(context.Background(), req.OperationID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestCompleteSelectionAfterExpiryFails(t *testing.T) {
	m := NewManager(WithTTL(30*time.Millisecond), WithCleanupInterval(time.Hour))
	req := m.RequestSelection(filletSpec())
	require.NoError(t, m.Record(req.OperationID, Pick{Elements: []int{1}}))

	time.Sleep(80 * time.Millisecond)

	_, err := m.CompleteSelection(context.Background(), req.OperationID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCleanupReapsExpiredRequests(t *testing.T) {
	m := NewManager(WithTTL(30*time.Millisecond), WithCleanupInterval(time.Hour))
	m.RequestSelection(filletSpec())
	m.RequestSelection(filletSpec())

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, m.Len(), "expired requests are not live")
	assert.Equal(t, 2, m.Cleanup())
	assert.Zero(t, m.Cleanup())
}

func TestRecordUnknownID(t *testing.T) {
	m := NewManager()
	assert.ErrorIs(t, m.Record("fillet_edges_nope", Pick{}), ErrNotFound)
}

func TestCompleteSelectionFallsBackToPicker(t *testing.T) {
	var asked Request
	m := NewManager(WithPicker(func(_ context.Context, req Request) (Pick, error) {
		asked = req
		return Pick{Elements: []int{2, 4}}, nil
	}))
	req := m.RequestSelection(filletSpec())

	res, err := m.CompleteSelection(context.Background(), req.OperationID)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, res.Elements)
	assert.Equal(t, req.OperationID, asked.OperationID)
}

func TestRecordedPickWinsOverPicker(t *testing.T) {
	m := NewManager(WithPicker(func(context.Context, Request) (Pick, error) {
		t.Fatal("picker must not be consulted when a pick was recorded")
		return Pick{}, nil
	}))
	req := m.RequestSelection(filletSpec())
	require.NoError(t, m.Record(req.OperationID, Pick{Elements: []int{5}}))

	res, err := m.CompleteSelection(context.Background(), req.OperationID)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, res.Elements)
}

func TestPickerErrorIsReported(t *testing.T) {
	m := NewManager()
	m.SetPicker(func(context.Context, Request) (Pick, error) {
		return Pick{}, errors.New("no GUI")
	})
	req := m.RequestSelection(filletSpec())

	_, err := m.CompleteSelection(context.Background(), req.OperationID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not access GUI selection")
}

func TestPendingDoesNotConsume(t *testing.T) {
	m := NewManager()
	req := m.RequestSelection(filletSpec())

	got, ok := m.Pending(req.OperationID)
	require.True(t, ok)
	assert.Equal(t, TypeEdges, got.Type)
	assert.Equal(t, 1, m.Len())
}

func TestParseSubElements(t *testing.T) {
	names := []string{"Edge3", "Face2", "Edge12", "EdgeX", "Vertex1", "Edge0"}
	assert.Equal(t, []int{3, 12}, ParseSubElements(TypeEdges, names))
	assert.Equal(t, []int{2}, ParseSubElements(TypeFaces, names))
	assert.Equal(t, []int{1}, ParseSubElements(TypeVertices, names))
	assert.Nil(t, ParseSubElements(TypeObjects, names))
}

func TestStateVariants(t *testing.T) {
	req := Request{OperationID: "fillet_edges_1"}
	s := Awaiting(req)
	got, ok := s.Awaiting()
	require.True(t, ok)
	assert.Equal(t, "fillet_edges_1", got.OperationID)
	assert.Nil(t, s.Value())

	done := Done("Created fillet")
	_, ok = done.Awaiting()
	assert.False(t, ok)
	assert.Equal(t, "Created fillet", done.Value())
}
