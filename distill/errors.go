package distill

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAgreement indicates that sifting left no positions at all, i.e.
	// the two parties never measured in compatible bases.
	ErrNoAgreement = errors.New("distill: no basis agreement in raw pairs")

	// ErrKeyExhausted indicates that security accounting yields no key
	// material. This is an expected terminal outcome under high noise or a
	// small pool, not a bug; callers recover by requesting more raw pairs.
	ErrKeyExhausted = errors.New("distill: no secure key material remains")
)

// A QberTooHighError is returned when the upper confidence bound on the
// error rate exceeds the configured threshold, signalling likely
// eavesdropping or excessive channel noise. The pipeline aborts before
// reconciliation.
type QberTooHighError struct {
	Upper     float64
	Threshold float64
}

func (e *QberTooHighError) Error() string {
	return fmt.Sprintf("distill: QBER upper bound %.4f exceeds threshold %.4f", e.Upper, e.Threshold)
}

// A MaxPassesError is returned when reconciliation runs out of passes with
// mismatches remaining. It is a configuration problem: the pass schedule was
// insufficient for the observed error rate.
type MaxPassesError struct {
	Passes    int
	Remaining int
}

func (e *MaxPassesError) Error() string {
	return fmt.Sprintf("distill: reconciliation did not converge after %d passes, %d mismatches remain", e.Passes, e.Remaining)
}
