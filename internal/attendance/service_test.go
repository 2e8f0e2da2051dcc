package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Benedict258/Tend-X/internal/queue"
	"github.com/Benedict258/Tend-X/internal/space"
)

type fakeResolver struct {
	res space.Resolution
	err error
}

func (f *fakeResolver) Resolve(_ context.Context, code string) (space.Resolution, error) {
	if code == "" {
		return space.Resolution{}, space.ErrInvalidCode
	}
	return f.res, f.err
}

type fakeStore struct {
	inserted  []Record
	insertErr error
}

func (f *fakeStore) Insert(_ context.Context, rec Record) (Record, error) {
	if f.insertErr != nil {
		return Record{}, f.insertErr
	}
	rec.ID = "rec-1"
	rec.SubmittedAt = time.Now().UTC()
	f.inserted = append(f.inserted, rec)
	return rec, nil
}

func (f *fakeStore) ListBySpace(_ context.Context, _ string, _, _ int) ([]Record, error) {
	return f.inserted, nil
}

func (f *fakeStore) CountBySpace(_ context.Context, _ string) (int64, error) {
	return int64(len(f.inserted)), nil
}

func acceptingSpace() *space.Space {
	return &space.Space{
		ID:         "space-1",
		OwnerID:    "owner-1",
		Title:      "Algorithms 101",
		UniqueCode: "TEND-00042",
		Status:     space.StatusOpen,
		RequiredFields: space.FieldSchema{
			{ID: "1", Name: "Student ID", Type: space.FieldNumber, Required: true},
		},
	}
}

func TestSubmitHappyPath(t *testing.T) {
	sp := acceptingSpace()
	resolver := &fakeResolver{res: space.Resolution{State: space.StateAccepting, Space: sp}}
	store := &fakeStore{}
	q := queue.NewInMemory(4)
	svc := NewService(resolver, store, q, zap.NewNop(), time.Second)

	uid := "user-9"
	rec, err := svc.Submit(context.Background(), "TEND-00042", &uid, map[string]string{
		"name":       "Jane Doe",
		"email":      "jane@x.com",
		"student_id": "99",
	})
	require.NoError(t, err)
	assert.Equal(t, "space-1", rec.SpaceID)
	require.NotNil(t, rec.UserID)
	assert.Equal(t, "user-9", *rec.UserID)
	assert.Equal(t, map[string]string{
		"name":       "Jane Doe",
		"email":      "jane@x.com",
		"student_id": "99",
	}, rec.Fields)
	require.Len(t, store.inserted, 1)

	// submission event lands on the queue for the worker
	msgs, err := q.Consume(context.Background())
	require.NoError(t, err)
	select {
	case msg := <-msgs:
		assert.Equal(t, queue.TypeSubmission, msg.Type)
		var evt SubmittedEvent
		require.NoError(t, json.Unmarshal(msg.Body, &evt))
		assert.Equal(t, "owner-1", evt.OwnerID)
		assert.Equal(t, "Jane Doe", evt.Name)
	case <-time.After(time.Second):
		t.Fatal("no queue message published")
	}
}

func TestSubmitNotFound(t *testing.T) {
	resolver := &fakeResolver{res: space.Resolution{State: space.StateNotFound}}
	store := &fakeStore{}
	svc := NewService(resolver, store, nil, zap.NewNop(), time.Second)

	_, err := svc.Submit(context.Background(), "TEND-99999", nil, map[string]string{})
	assert.ErrorIs(t, err, space.ErrNotFound)
	assert.Empty(t, store.inserted)
}

func TestSubmitClosedSpaceNeverWrites(t *testing.T) {
	sp := acceptingSpace()
	sp.Status = space.StatusClosed
	resolver := &fakeResolver{res: space.Resolution{State: space.StateRejected, Space: sp, Reason: "closed"}}
	store := &fakeStore{}
	svc := NewService(resolver, store, nil, zap.NewNop(), time.Second)

	_, err := svc.Submit(context.Background(), "TEND-00042", nil, map[string]string{
		"name": "Jane Doe", "email": "jane@x.com", "student_id": "99",
	})
	var rej *space.RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "closed", rej.Reason)
	assert.Empty(t, store.inserted, "a rejected space must issue no insert")
}

func TestSubmitInvalidEmailNeverWrites(t *testing.T) {
	resolver := &fakeResolver{res: space.Resolution{State: space.StateAccepting, Space: acceptingSpace()}}
	store := &fakeStore{}
	svc := NewService(resolver, store, nil, zap.NewNop(), time.Second)

	_, err := svc.Submit(context.Background(), "TEND-00042", nil, map[string]string{
		"name": "Jane Doe", "email": "not-an-email", "student_id": "99",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Empty(t, store.inserted, "validation failures must never reach the store")
}

func TestSubmitStoreFailure(t *testing.T) {
	resolver := &fakeResolver{res: space.Resolution{State: space.StateAccepting, Space: acceptingSpace()}}
	store := &fakeStore{insertErr: errors.New("connection reset")}
	svc := NewService(resolver, store, nil, zap.NewNop(), time.Second)

	_, err := svc.Submit(context.Background(), "TEND-00042", nil, map[string]string{
		"name": "Jane Doe", "email": "jane@x.com", "student_id": "99",
	})
	require.Error(t, err)
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr), "store failures are not validation errors")
}

func TestSubmitAnonymous(t *testing.T) {
	resolver := &fakeResolver{res: space.Resolution{State: space.StateAccepting, Space: acceptingSpace()}}
	store := &fakeStore{}
	svc := NewService(resolver, store, nil, zap.NewNop(), time.Second)

	rec, err := svc.Submit(context.Background(), "TEND-00042", nil, map[string]string{
		"name": "Walk In", "email": "walkin@x.co", "student_id": "7",
	})
	require.NoError(t, err)
	assert.Nil(t, rec.UserID)
}
