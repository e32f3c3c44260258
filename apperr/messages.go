package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// ErrGuestTrialUsed marks a guest whose single free generation is spent.
// It is wrapped in an Auth error and has its own message.
var ErrGuestTrialUsed = errors.New("guest trial limit reached")

var trialMessages = map[string]string{
	"en": "Guest trial limit reached. Please login to continue.",
	"id": "Batas uji coba tamu tercapai. Silakan masuk untuk melanjutkan.",
}

// GuestTrialError is the error returned when a guest has no trial left.
func GuestTrialError(op string) *Error {
	return &Error{Kind: Auth, Status: http.StatusForbidden, Op: op, Err: ErrGuestTrialUsed}
}

var messages = map[string]map[Kind]string{
	"en": {
		Network:    "Network error. Please check your connection.",
		Timeout:    "Request timeout. Please try again.",
		Auth:       "Authentication failed. Please sign in again.",
		Validation: "Invalid input. Please check your data.",
		API:        "Server error. Please try again later.",
		Unknown:    "Something went wrong. Please try again.",
	},
	"id": {
		Network:    "Kesalahan jaringan. Periksa koneksi Anda.",
		Timeout:    "Waktu habis. Silakan coba lagi.",
		Auth:       "Autentikasi gagal. Silakan masuk kembali.",
		Validation: "Input tidak valid. Periksa data Anda.",
		API:        "Kesalahan server. Silakan coba lagi nanti.",
		Unknown:    "Terjadi kesalahan. Silakan coba lagi.",
	},
}

// Message returns the user facing text for err in lang ("en" or "id").
// Unknown languages fall back to English.
func Message(err error, lang string) string {
	if errors.Is(err, ErrGuestTrialUsed) {
		if msg, ok := trialMessages[normalizeLang(lang)]; ok {
			return msg
		}
		return trialMessages["en"]
	}
	return MessageFor(Categorize(err), lang)
}

func MessageFor(kind Kind, lang string) string {
	table, ok := messages[normalizeLang(lang)]
	if !ok {
		table = messages["en"]
	}
	if msg, ok := table[kind]; ok {
		return msg
	}
	return table[Unknown]
}

// normalizeLang reduces an Accept-Language style value ("id-ID,id;q=0.9")
// to its primary tag.
func normalizeLang(lang string) string {
	lang = strings.TrimSpace(strings.ToLower(lang))
	if i := strings.IndexAny(lang, ",;"); i >= 0 {
		lang = lang[:i]
	}
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}
