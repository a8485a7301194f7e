package restdb

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestTranslateError(t *testing.T) {
	for _, tc := range []struct {
		status int
		body   string
		want   string
	}{
		{404, `{"error":"item not found"}`, "HTTP error: item not found (statusCode=404)"},
		{409, `{"error":"conflict","detail":1}`, "HTTP error: conflict (statusCode=409)"},
		{500, `{}`, "HTTP error: unknown (statusCode=500)"},
		{502, `<html>bad gateway</html>`, "HTTP error: unknown (statusCode=502)"},
		{200, ``, "HTTP error: unknown (statusCode=200)"},
		{400, `{"error":{"nested":true}}`, "HTTP error: unknown (statusCode=400)"},
	} {
		err := translateError(newResponse(tc.status, tc.body))
		require.Equal(t, tc.status, err.StatusCode)
		require.Equal(t, tc.want, err.Error())
		require.Equal(t, tc.body, string(err.Body))
	}

	err := translateError(&http.Response{StatusCode: 503})
	require.Equal(t, "HTTP error: unknown (statusCode=503)", err.Error())
}

func TestCheckStatusCode(t *testing.T) {
	require.NoError(t, checkStatusCode(newResponse(201, ""), 201))

	err := checkStatusCode(newResponse(200, `{"ok":true}`), 201)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, 200, e.StatusCode)
}

func TestStatusHelpers(t *testing.T) {
	notFound := fmt.Errorf("wrapped: %w", &Error{StatusCode: 404})
	require.Equal(t, 404, StatusCode(notFound))
	require.True(t, IsNotFound(notFound))
	require.False(t, IsConflict(notFound))
	require.True(t, IsConflict(&Error{StatusCode: 409}))
	require.Equal(t, 0, StatusCode(errors.New("plain")))
	require.Equal(t, 0, StatusCode(nil))
}

func TestErrorMessages(t *testing.T) {
	require.Equal(t, "restdb: name is missing", (&ConfigError{Field: "name", Reason: "missing"}).Error())
	require.Equal(t, "restdb: unsupported key type bool", (&UnsupportedTypeError{Value: true}).Error())
	require.Equal(t, "restdb: invalid index int", (&InvalidIndexError{Value: 1}).Error())
	require.Equal(t, `restdb: invalid url "x"`, (&InvalidURLError{URL: "x"}).Error())

	inner := errors.New("boom")
	require.ErrorIs(t, &InvalidURLError{URL: "x", Err: inner}, inner)
}
