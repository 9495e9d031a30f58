package dashboard

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayWithoutCredentialSendsNothing(t *testing.T) {
	doer := &recordingDoer{status: http.StatusOK, body: `{}`}
	redirect := &countingRedirect{}
	gw := newTestGateway(t, doer, NewSession(), redirect)

	for i := 0; i < 3; i++ {
		resp, err := gw.Do(context.Background(), "statistics", nil)
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, ErrAuthRequired)
		assert.Equal(t, KindAuthRequired, Kind(err))
	}
	assert.Zero(t, doer.calls())
	assert.EqualValues(t, 3, redirect.n.Load())
}

func TestGatewayAttachesBearerToken(t *testing.T) {
	doer := &recordingDoer{status: http.StatusOK, body: `{"success":true}`}
	gw := newTestGateway(t, doer, loggedIn(), &countingRedirect{})

	resp, err := gw.Do(context.Background(), "/vehicles", map[string][]string{"page": {"2"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(resp.Body))

	require.Equal(t, 1, doer.calls())
	req := doer.requests[0]
	assert.Equal(t, "Bearer tok-123", req.Header.Get("Authorization"))
	assert.Equal(t, "http://dashboard.test/api/vehicles?page=2", req.URL.String())
}

func TestGateway401EndsSessionOnce(t *testing.T) {
	doer := &recordingDoer{status: http.StatusUnauthorized, body: `{"detail":"expired"}`}
	redirect := &countingRedirect{}
	session := loggedIn()
	gw := newTestGateway(t, doer, session, redirect)

	_, err := gw.Do(context.Background(), "statistics", nil)
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Empty(t, session.Token())
	assert.EqualValues(t, 1, redirect.n.Load())
	assert.Equal(t, 1, doer.calls())
}

func TestGateway401ConcurrentRedirectsOnce(t *testing.T) {
	const callers = 5
	var arrived sync.WaitGroup
	arrived.Add(callers)
	release := make(chan struct{})
	doer := doerFunc(func(*http.Request) (*http.Response, error) {
		arrived.Done()
		<-release
		return jsonResponse(http.StatusUnauthorized, `{}`), nil
	})
	redirect := &countingRedirect{}
	gw := newTestGateway(t, doer, loggedIn(), redirect)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = gw.Do(context.Background(), "vehicles", nil)
		}(i)
	}
	arrived.Wait()
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, ErrAuthRequired)
	}
	assert.EqualValues(t, 1, redirect.n.Load())
}

func TestGateway403CredentialMarkers(t *testing.T) {
	for _, body := range []string{
		`{"detail":"Could not validate credentials"}`,
		`{"detail":"Not authenticated"}`,
		`{"success":false,"detail":"NOT AUTHENTICATED"}`,
	} {
		redirect := &countingRedirect{}
		session := loggedIn()
		gw := newTestGateway(t, &recordingDoer{status: http.StatusForbidden, body: body}, session, redirect)

		_, err := gw.Do(context.Background(), "statistics", nil)
		assert.ErrorIs(t, err, ErrAuthRequired, body)
		assert.False(t, session.Authenticated(), body)
		assert.EqualValues(t, 1, redirect.n.Load(), body)
	}
}

func TestGatewayPassesOtherStatusesThrough(t *testing.T) {
	for _, tc := range []struct {
		status int
		body   string
	}{
		{http.StatusForbidden, `{"success":false,"error":"store access denied"}`},
		{http.StatusNotFound, `{"detail":"Vehicle not found"}`},
		{http.StatusInternalServerError, `oops`},
	} {
		redirect := &countingRedirect{}
		session := loggedIn()
		doer := &recordingDoer{status: tc.status, body: tc.body}
		gw := newTestGateway(t, doer, session, redirect)

		resp, err := gw.Do(context.Background(), "vehicle/1", nil)
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode)
		assert.Equal(t, tc.body, string(resp.Body))
		assert.True(t, session.Authenticated())
		assert.Zero(t, redirect.n.Load())
		assert.Equal(t, 1, doer.calls(), "no retries")
	}
}

func TestGatewayTransportErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	calls := 0
	doer := doerFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return nil, boom
	})
	session := loggedIn()
	gw := newTestGateway(t, doer, session, &countingRedirect{})

	_, err := gw.Do(context.Background(), "statistics", nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, KindTransportFailure, Kind(err))
	assert.Equal(t, 1, calls)
	assert.True(t, session.Authenticated())
}

func TestGatewayPublicSkipsCredential(t *testing.T) {
	doer := &recordingDoer{status: http.StatusOK, body: `{}`}
	gw := newTestGateway(t, doer, NewSession(), &countingRedirect{})

	_, err := gw.Public(context.Background(), http.MethodPost, "login", map[string]string{"username": "sam"})
	require.NoError(t, err)
	require.Equal(t, 1, doer.calls())
	assert.Empty(t, doer.requests[0].Header.Get("Authorization"))
	assert.Equal(t, "application/json", doer.requests[0].Header.Get("Content-Type"))
}

func TestNewGatewayRejectsRelativeURL(t *testing.T) {
	_, err := NewGateway("/api", &recordingDoer{}, NewSession(), nil, nil)
	assert.Error(t, err)
}
