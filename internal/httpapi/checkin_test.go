package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Benedict258/Tend-X/internal/attendance"
	"github.com/Benedict258/Tend-X/internal/auth"
	"github.com/Benedict258/Tend-X/internal/community"
	"github.com/Benedict258/Tend-X/internal/config"
	"github.com/Benedict258/Tend-X/internal/notify"
	"github.com/Benedict258/Tend-X/internal/space"
	"github.com/Benedict258/Tend-X/internal/user"
)

type fakeSpaces struct {
	resolution space.Resolution
}

func (f *fakeSpaces) Create(_ context.Context, _ string, _ space.CreateInput) (space.Space, error) {
	return space.Space{}, nil
}

func (f *fakeSpaces) Resolve(_ context.Context, code string) (space.Resolution, error) {
	if code == "" {
		return space.Resolution{}, space.ErrInvalidCode
	}
	return f.resolution, nil
}

func (f *fakeSpaces) Get(_ context.Context, _, _ string) (space.Space, error) {
	return space.Space{}, space.ErrNotFound
}

func (f *fakeSpaces) List(_ context.Context, _ string, _, _ int) ([]space.Space, error) {
	return nil, nil
}

func (f *fakeSpaces) SetStatus(_ context.Context, _, _, _ string) error {
	return nil
}

// fakeAttendance runs real validation against the resolved space so handler
// tests exercise the same error paths production does.
type fakeAttendance struct {
	spaces   *fakeSpaces
	inserted []attendance.Record
}

func (f *fakeAttendance) Submit(ctx context.Context, code string, userID *string, values map[string]string) (attendance.Record, error) {
	res, err := f.spaces.Resolve(ctx, code)
	if err != nil {
		return attendance.Record{}, err
	}
	switch res.State {
	case space.StateNotFound:
		return attendance.Record{}, space.ErrNotFound
	case space.StateRejected:
		return attendance.Record{}, &space.RejectedError{Reason: res.Reason}
	}
	payload, verr := attendance.ValidateSubmission(res.Space.RequiredFields, values)
	if verr != nil {
		return attendance.Record{}, verr
	}
	rec := attendance.Record{
		ID:          "rec-1",
		SpaceID:     res.Space.ID,
		UserID:      userID,
		Fields:      payload,
		SubmittedAt: time.Now().UTC(),
	}
	f.inserted = append(f.inserted, rec)
	return rec, nil
}

func (f *fakeAttendance) Records(_ context.Context, _ space.Space, _, _ int) ([]attendance.Record, int64, error) {
	return f.inserted, int64(len(f.inserted)), nil
}

type fakeUsers struct {
	profile *user.Profile
}

func (f *fakeUsers) Register(_ context.Context, email, fullName, _ string) (user.User, error) {
	return user.User{ID: "u-1", Email: email, FullName: fullName}, nil
}

func (f *fakeUsers) Login(_ context.Context, email, _ string) (user.User, error) {
	return user.User{ID: "u-1", Email: email}, nil
}

func (f *fakeUsers) Profile(_ context.Context, _ string) *user.Profile {
	return f.profile
}

func (f *fakeUsers) SaveRefreshToken(_ context.Context, _, _ string, _ time.Time) error {
	return nil
}

func (f *fakeUsers) RotateRefreshToken(_ context.Context, _ string) (bool, error) {
	return true, nil
}

type fakeCommunities struct{}

func (fakeCommunities) Create(_ context.Context, _, _, _ string) (community.Community, error) {
	return community.Community{}, nil
}
func (fakeCommunities) Join(_ context.Context, _, _ string) error { return nil }
func (fakeCommunities) CreatePost(_ context.Context, _, _, _ string) (community.Post, error) {
	return community.Post{}, nil
}
func (fakeCommunities) ListPosts(_ context.Context, _, _ string, _, _ int) ([]community.Post, error) {
	return nil, nil
}

type fakeNotify struct{}

func (fakeNotify) List(_ context.Context, _ string, _, _ int) ([]notify.Notification, error) {
	return nil, nil
}

func testConfig() config.App {
	return config.App{
		JWTIssuer:       "tendx",
		JWTSigningKey:   "unit-test-signing-key",
		AccessTTL:       15 * time.Minute,
		RefreshTTL:      time.Hour,
		RateLimitPerMin: 10000,
	}
}

func newTestRouter(spaces *fakeSpaces, users *fakeUsers) (*gin.Engine, *fakeAttendance) {
	gin.SetMode(gin.TestMode)
	att := &fakeAttendance{spaces: spaces}
	srv := &Server{
		Cfg:         testConfig(),
		Logger:      zap.NewNop(),
		Spaces:      spaces,
		Attendance:  att,
		Users:       users,
		Communities: fakeCommunities{},
		Notify:      fakeNotify{},
	}
	return srv.Router(), att
}

func acceptingResolution() space.Resolution {
	return space.Resolution{
		State: space.StateAccepting,
		Space: &space.Space{
			ID:         "space-1",
			Title:      "Algorithms 101",
			Type:       space.TypeClass,
			UniqueCode: "TEND-00042",
			Status:     space.StatusOpen,
			RequiredFields: space.FieldSchema{
				{ID: "1", Name: "Student ID", Type: space.FieldNumber, Required: true},
			},
		},
	}
}

func doJSON(r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestResolveUnknownCode(t *testing.T) {
	r, _ := newTestRouter(&fakeSpaces{resolution: space.Resolution{State: space.StateNotFound}}, &fakeUsers{})

	rec := doJSON(r, http.MethodGet, "/v1/checkin/TEND-99999", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveRejectedCarriesReason(t *testing.T) {
	res := acceptingResolution()
	res.State = space.StateRejected
	res.Reason = "paused"
	r, _ := newTestRouter(&fakeSpaces{resolution: res}, &fakeUsers{})

	rec := doJSON(r, http.MethodGet, "/v1/checkin/TEND-00042", nil, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "paused", body["reason"])
}

func TestResolveAcceptingReturnsSchema(t *testing.T) {
	r, _ := newTestRouter(&fakeSpaces{resolution: acceptingResolution()}, &fakeUsers{})

	rec := doJSON(r, http.MethodGet, "/v1/checkin/TEND-00042", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Fields []struct {
			Key      string `json:"key"`
			Required bool   `json:"required"`
		} `json:"fields"`
		Prefill *user.Profile `json:"prefill"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Fields, 3)
	assert.Equal(t, "name", body.Fields[0].Key)
	assert.Equal(t, "email", body.Fields[1].Key)
	assert.Equal(t, "student_id", body.Fields[2].Key)
	assert.Nil(t, body.Prefill, "anonymous visitor gets no prefill")
}

func TestResolveAcceptingWithPrefill(t *testing.T) {
	users := &fakeUsers{profile: &user.Profile{FullName: "Jane Doe", Email: "jane@x.com"}}
	r, _ := newTestRouter(&fakeSpaces{resolution: acceptingResolution()}, users)

	pair, err := auth.Issue("u-1", "member", "tendx", "unit-test-signing-key", time.Minute, time.Hour)
	require.NoError(t, err)

	rec := doJSON(r, http.MethodGet, "/v1/checkin/TEND-00042", nil, map[string]string{
		"Authorization": "Bearer " + pair.AccessToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Prefill *user.Profile `json:"prefill"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Prefill)
	assert.Equal(t, "Jane Doe", body.Prefill.FullName)
}

func TestSubmitCreatesRecord(t *testing.T) {
	r, att := newTestRouter(&fakeSpaces{resolution: acceptingResolution()}, &fakeUsers{})

	rec := doJSON(r, http.MethodPost, "/v1/checkin/TEND-00042", gin.H{
		"fields": gin.H{"name": "Jane Doe", "email": "jane@x.com", "student_id": "99"},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, att.inserted, 1)
	assert.Equal(t, "space-1", att.inserted[0].SpaceID)
	assert.Equal(t, map[string]string{
		"name":       "Jane Doe",
		"email":      "jane@x.com",
		"student_id": "99",
	}, att.inserted[0].Fields)
}

func TestSubmitInvalidEmailBlocked(t *testing.T) {
	r, att := newTestRouter(&fakeSpaces{resolution: acceptingResolution()}, &fakeUsers{})

	rec := doJSON(r, http.MethodPost, "/v1/checkin/TEND-00042", gin.H{
		"fields": gin.H{"name": "Jane Doe", "email": "not-an-email", "student_id": "99"},
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, att.inserted)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "email")
}

func TestSubmitClosedSpace(t *testing.T) {
	res := acceptingResolution()
	res.State = space.StateRejected
	res.Reason = "closed"
	r, att := newTestRouter(&fakeSpaces{resolution: res}, &fakeUsers{})

	rec := doJSON(r, http.MethodPost, "/v1/checkin/TEND-00042", gin.H{
		"fields": gin.H{"name": "Jane Doe", "email": "jane@x.com", "student_id": "99"},
	}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, att.inserted, "a closed space must issue no insert")
}
