package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"typed", New(Network, "op", errors.New("x")), Network},
		{"wrapped typed", fmt.Errorf("outer: %w", New(Auth, "op", nil)), Auth},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), Timeout},
		{"message timeout", errors.New("Request timeout"), Timeout},
		{"refused", errors.New("dial tcp: connection refused"), Network},
		{"expired session", errors.New("session expired"), Auth},
		{"plain", errors.New("boom"), Unknown},
		{"nil", nil, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.err))
		})
	}
}

func TestKindForStatus(t *testing.T) {
	assert.Equal(t, Auth, KindForStatus(http.StatusUnauthorized))
	assert.Equal(t, Auth, KindForStatus(http.StatusForbidden))
	assert.Equal(t, Validation, KindForStatus(http.StatusBadRequest))
	assert.Equal(t, Validation, KindForStatus(http.StatusUnprocessableEntity))
	assert.Equal(t, API, KindForStatus(http.StatusInternalServerError))
	assert.Equal(t, API, KindForStatus(http.StatusBadGateway))
	assert.Equal(t, API, KindForStatus(http.StatusGatewayTimeout))
	assert.Equal(t, Validation, KindForStatus(http.StatusRequestTimeout))
}

func TestFromStatusMessage(t *testing.T) {
	err := FromStatus("gemini", 500, ` {"error":"boom"} `)
	assert.Equal(t, API, err.Kind)
	assert.Equal(t, `gemini: request failed with status 500: {"error":"boom"}`, err.Error())
	assert.Equal(t, 500, StatusFor(err))
}

func TestMessageLocalized(t *testing.T) {
	err := New(Timeout, "call", nil)
	assert.Equal(t, "Request timeout. Please try again.", Message(err, "en"))
	assert.Equal(t, "Waktu habis. Silakan coba lagi.", Message(err, "id-ID,id;q=0.9"))
	assert.Equal(t, "Request timeout. Please try again.", Message(err, "fr"))
	assert.Equal(t, "Network error. Please check your connection.", MessageFor(Network, ""))
}

func TestGuestTrialMessage(t *testing.T) {
	err := fmt.Errorf("explain: %w", GuestTrialError("learning.explain"))

	assert.Equal(t, Auth, Categorize(err))
	assert.Equal(t, http.StatusForbidden, StatusFor(err))
	assert.ErrorIs(t, err, ErrGuestTrialUsed)
	assert.Equal(t, "Guest trial limit reached. Please login to continue.", Message(err, "en-US"))
	assert.Equal(t, "Batas uji coba tamu tercapai. Silakan masuk untuk melanjutkan.", Message(err, "id"))
	assert.Equal(t, "Guest trial limit reached. Please login to continue.", Message(err, "fr"))

	// plain auth failures keep the sign-in message
	assert.Equal(t, "Authentication failed. Please sign in again.", Message(New(Auth, "verify", nil), "en"))
}
