package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type windowRequest struct {
	Years int    `query:"years" default:"8" validate:"gte=3,lte=15"`
	Label string `query:"label"`
}

func readWindow(target string) interface{} {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
	var req windowRequest
	return ReadAndValidateRequest(c, &req)
}

func TestReadAndValidateRequestBindError(t *testing.T) {
	res := readWindow("/w?years=abc")

	errs, ok := res.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BIND", errs[0].Code)
	assert.Equal(t, "years", errs[0].Field)
}

func TestReadAndValidateRequestDefaultsAndRules(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/w?label=x", nil), httptest.NewRecorder())
	var req windowRequest
	require.Nil(t, ReadAndValidateRequest(c, &req))
	assert.Equal(t, 8, req.Years)
	assert.Equal(t, "x", req.Label)

	res := readWindow("/w?years=2")
	errs, ok := res.([]ValidationError)
	require.True(t, ok)
	assert.Equal(t, "ERR_GTE", errs[0].Code)
	assert.Equal(t, "years", errs[0].Field)
}
