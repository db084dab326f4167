package proof

import "errors"

// Rejection reasons. Each one is persisted on the invalid ScanRecord and
// surfaced to clients as a stable reason code.
var (
	ErrTamperedToken       = errors.New("tampered token")
	ErrExpired             = errors.New("token expired")
	ErrUnauthorizedScanner = errors.New("scanner is not the assigned courier")
	ErrAlreadyRedeemed     = errors.New("token already redeemed")
	ErrWrongState          = errors.New("order is not being delivered")
)

// ReasonCode maps a rejection to its wire code. Unknown errors map to "internal".
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrTamperedToken):
		return "tampered_token"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrUnauthorizedScanner):
		return "unauthorized_scanner"
	case errors.Is(err, ErrAlreadyRedeemed):
		return "already_redeemed"
	case errors.Is(err, ErrWrongState):
		return "wrong_state"
	default:
		return "internal"
	}
}
