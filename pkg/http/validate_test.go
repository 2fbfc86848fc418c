package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type symbolQuery struct {
	Symbol string `query:"symbol" validate:"required,min=2,max=20,alphanum"`
	Limit  int    `query:"limit" default:"50" validate:"gte=1,lte=500"`
}

func bindQuery(t *testing.T, target string) (*symbolQuery, interface{}) {
	t.Helper()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
	req := &symbolQuery{}
	return req, ReadAndValidateRequest(c, req)
}

func TestReadAndValidateRequest(t *testing.T) {
	req, verr := bindQuery(t, "/?symbol=BTC")
	require.Nil(t, verr)
	assert.Equal(t, "BTC", req.Symbol)
	assert.Equal(t, 50, req.Limit)

	_, verr = bindQuery(t, "/")
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_REQUIRED", errs[0].Code)
	assert.Equal(t, "symbol", errs[0].Field)
	assert.Equal(t, "symbol is required", errs[0].Message)

	_, verr = bindQuery(t, "/?symbol=BT-C")
	errs = verr.([]ValidationError)
	assert.Equal(t, "ERR_ALPHANUM", errs[0].Code)

	_, verr = bindQuery(t, "/?symbol=BTC&limit=9999")
	errs = verr.([]ValidationError)
	assert.Equal(t, "limit", errs[0].Field)
	assert.Equal(t, "500", errs[0].Params["max"])
}
