package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFuncs(t *testing.T) {
	funcs := Funcs("https://api.kce.example/")

	imageSrc := funcs["imageSrc"].(func(string) string)
	require.Equal(t, "/media?src=https%3A%2F%2Fapi.kce.example%2Fuploads%2Fhoodie.png", imageSrc(`uploads\hoodie.png`))
	require.Equal(t, "", imageSrc(""))

	isoDate := funcs["isoDate"].(func(string) string)
	require.Equal(t, "01 Jul 2024", isoDate("2024-07-01T00:00:00.000Z"))
	require.Equal(t, "soon", isoDate("soon"))

	formatDate := funcs["formatDate"].(func(time.Time) string)
	require.Equal(t, "", formatDate(time.Time{}))
	require.Equal(t, "05 March 2024", formatDate(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)))

	_, err := dict("a", 1, "b")
	require.Error(t, err)
	m, err := dict("a", 1)
	require.NoError(t, err)
	require.Equal(t, 1, m["a"])
}

func TestUnknownPageIsServerError(t *testing.T) {
	hs := newHarness(t)
	rec := httptest.NewRecorder()
	hs.handler.views.Page(rec, "nope", nil)
	require.Equal(t, 500, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "template error"))
}
