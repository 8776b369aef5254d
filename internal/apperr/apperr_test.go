package apperr_test

import (
	"net/http"
	"testing"

	"procurement/internal/apperr"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestKindOfWalksWrappedChain(t *testing.T) {
	base := apperr.Conflict("request %s already decided", "r1")
	wrapped := errors.Wrap(base, "decide")

	require.Equal(t, apperr.KindConflict, apperr.KindOf(wrapped))
	require.True(t, apperr.Is(wrapped, apperr.KindConflict))
	require.Equal(t, http.StatusConflict, apperr.HTTPStatus(wrapped))
	require.Equal(t, "request r1 already decided", apperr.PublicMessage(wrapped))
}

func TestUnknownErrorIsInternal(t *testing.T) {
	err := errors.New("connection reset")

	require.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	require.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(err))
	require.Equal(t, "internal error", apperr.PublicMessage(err))
	require.Equal(t, apperr.Kind(""), apperr.KindOf(nil))
}

func TestHTTPStatusMapping(t *testing.T) {
	require.Equal(t, http.StatusNotFound, apperr.HTTPStatus(apperr.NotFound("rfq", "1")))
	require.Equal(t, http.StatusForbidden, apperr.HTTPStatus(apperr.Forbidden("no")))
	require.Equal(t, http.StatusBadRequest, apperr.HTTPStatus(apperr.Validation("title", "required")))
	require.Equal(t, http.StatusConflict, apperr.HTTPStatus(apperr.InvalidTransition("rfq", "DRAFT", "close")))
	require.Equal(t, "rfq in status DRAFT cannot close", apperr.InvalidTransition("rfq", "DRAFT", "close").Error())
}
