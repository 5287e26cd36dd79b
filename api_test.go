package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Seednode/valentine/db"
	"github.com/Seednode/valentine/sink"
)

func postJSON(t *testing.T, url, body string) (*http.Response, apiMessage) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var msg apiMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))

	return resp, msg
}

func TestSubmitResponse(t *testing.T) {
	srv := setupServer(t, testConfig())

	body := `{"person":"Sam","accepted":true,"giftChoice":"Other (I'll tell you what I want)","customGift":"A puppy","signature":"Sam","submittedAt":"2026-02-14T09:30:00Z"}`

	resp, err := http.Post(srv.URL+sink.ResponsesPath, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var saved savedMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&saved))
	require.Equal(t, "Response saved.", saved.Message)
	require.NotEmpty(t, saved.ID)

	got, err := srv.responses.Get(context.Background(), saved.ID)
	require.NoError(t, err)
	require.Equal(t, "Sam", got.Person)
	require.Equal(t, "A puppy", got.CustomGift)
	require.True(t, got.SubmittedAt.Equal(time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)))
}

func TestSubmitResponseRejectsBadInput(t *testing.T) {
	srv := setupServer(t, testConfig())
	url := srv.URL + sink.ResponsesPath

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"not json", `{"person":`, "Invalid submission."},
		{"no gift", `{"person":"Sam","accepted":true,"signature":"Sam"}`, sink.ErrMissingGift.Message},
		{"no signature", `{"person":"Sam","accepted":true,"giftChoice":"Jewelry set","signature":"  "}`, sink.ErrMissingSignature.Message},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, msg := postJSON(t, url, tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Equal(t, tt.message, msg.Message)
		})
	}

	count, err := srv.responses.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

const testAdminToken = "be-mine"

func adminGet(t *testing.T, url, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func adminConfig() *Config {
	cfg := testConfig()
	cfg.adminToken = testAdminToken

	return cfg
}

func TestListAndGetResponses(t *testing.T) {
	srv := setupServer(t, adminConfig())
	ctx := context.Background()

	first, err := srv.responses.Insert(ctx, db.Response{Person: "Sam", Accepted: true, GiftChoice: "Jewelry set", Signature: "Sam"})
	require.NoError(t, err)
	_, err = srv.responses.Insert(ctx, db.Response{Person: "Alex", Accepted: true, GiftChoice: "Perfume gift box", Signature: "Alex"})
	require.NoError(t, err)

	resp := adminGet(t, srv.URL+sink.ResponsesPath, testAdminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []db.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)

	resp = adminGet(t, srv.URL+sink.ResponsesPath+"/"+first.ID, testAdminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got db.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, first.ID, got.ID)
	require.Equal(t, "Sam", got.Person)
}

func TestGetResponseMissing(t *testing.T) {
	srv := setupServer(t, adminConfig())

	resp := adminGet(t, srv.URL+sink.ResponsesPath+"/does-not-exist", testAdminToken)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var msg apiMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	require.Equal(t, "Response not found.", msg.Message)
}

func TestReadResponsesNeedsToken(t *testing.T) {
	srv := setupServer(t, adminConfig())

	saved, err := srv.responses.Insert(context.Background(), db.Response{Person: "Sam", Accepted: true, GiftChoice: "Jewelry set", Signature: "Sam"})
	require.NoError(t, err)

	for _, token := range []string{"", "be-mine-too", "be-min"} {
		for _, url := range []string{srv.URL + sink.ResponsesPath, srv.URL + sink.ResponsesPath + "/" + saved.ID} {
			resp := adminGet(t, url, token)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s with %q", url, token)
			require.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))

			var msg apiMessage
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
			require.Equal(t, "Unauthorized.", msg.Message)
		}
	}
}

func TestReadResponsesDisabledWithoutToken(t *testing.T) {
	srv := setupServer(t, testConfig())

	saved, err := srv.responses.Insert(context.Background(), db.Response{Person: "Sam", Accepted: true, GiftChoice: "Jewelry set", Signature: "Sam"})
	require.NoError(t, err)

	resp := adminGet(t, srv.URL+sink.ResponsesPath, "")
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp = adminGet(t, srv.URL+sink.ResponsesPath+"/"+saved.ID, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// The http sink and the responses API are two ends of the same wire.
func TestHTTPSinkAgainstAPI(t *testing.T) {
	srv := setupServer(t, testConfig())
	ctx := context.Background()

	s := sink.NewHTTP(srv.URL+"/", time.Second)

	err := s.Submit(ctx, sink.Submission{
		Person:      "Sam",
		Accepted:    true,
		GiftChoice:  "Chocolate bouquet",
		Signature:   "Sam",
		SubmittedAt: time.Now(),
	})
	require.NoError(t, err)

	err = s.Submit(ctx, sink.Submission{Person: "Sam", Accepted: true, Signature: "Sam"})

	var sinkErr *sink.Error
	require.True(t, errors.As(err, &sinkErr))
	require.Equal(t, http.StatusBadRequest, sinkErr.Status)
	require.Equal(t, sink.ErrMissingGift.Message, sinkErr.Message)

	count, err := srv.responses.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
