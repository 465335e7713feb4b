package distill

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// A Round records one reconciliation pass: what was disclosed, how many
// blocks were touched, and how many bits of information the disclosures are
// worth. Rounds are append-only; once added to a transcript they are never
// mutated.
type Round struct {
	Pass                int   `json:"pass" cbor:"1,keyasint"`
	BlockLen            int   `json:"block_len" cbor:"2,keyasint"`
	PermSeed            int64 `json:"perm_seed" cbor:"3,keyasint"`
	BlocksChecked       int   `json:"blocks_checked" cbor:"4,keyasint"`
	BlocksFixed         int   `json:"blocks_fixed" cbor:"5,keyasint"`
	LeakedBits          int   `json:"leaked_bits" cbor:"6,keyasint"`
	RemainingMismatches int   `json:"remaining_mismatches" cbor:"7,keyasint"`
}

// A Transcript is the canonical leakage ledger for a reconciliation run. It
// holds only public values: permutation seeds and parity-disclosure counts,
// never key bits.
type Transcript struct {
	rounds []Round
}

// Append adds a completed round to the transcript.
func (t *Transcript) Append(r Round) {
	t.rounds = append(t.rounds, r)
}

// Rounds returns a copy of the recorded rounds, in order.
func (t *Transcript) Rounds() []Round {
	r := make([]Round, len(t.rounds))
	copy(r, t.rounds)
	return r
}

// Passes returns the number of recorded rounds.
func (t *Transcript) Passes() int {
	return len(t.rounds)
}

// LeakedBits returns the cumulative parity leakage across all rounds. This is
// the only information an eavesdropper is assumed to gain from
// reconciliation, and it is charged in full by the security accounting, even
// for runs that failed to converge.
func (t *Transcript) LeakedBits() int {
	var sum int
	for _, r := range t.rounds {
		sum += r.LeakedBits
	}
	return sum
}

// MarshalBinary encodes the transcript as CBOR.
func (t *Transcript) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(t.rounds)
}

// UnmarshalBinary decodes a transcript previously encoded with MarshalBinary.
func (t *Transcript) UnmarshalBinary(data []byte) error {
	return cbor.Unmarshal(data, &t.rounds)
}

// An Audit is the persisted, human-auditable record of one distillation run.
// It contains no private bit values.
type Audit struct {
	SampleSize  int     `json:"sample_size" cbor:"1,keyasint"`
	QberPoint   float64 `json:"qber_point" cbor:"2,keyasint"`
	QberUpper   float64 `json:"qber_upper" cbor:"3,keyasint"`
	LeakedBits  int     `json:"leaked_bits" cbor:"4,keyasint"`
	Passes      int     `json:"passes" cbor:"5,keyasint"`
	FinalLength int     `json:"final_length" cbor:"6,keyasint"`
	Rounds      []Round `json:"rounds" cbor:"7,keyasint"`
}

// WriteFile persists the audit record as CBOR. Audit records are public by
// construction, so no special permissions are required.
func (a *Audit) WriteFile(path string) error {
	data, err := cbor.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding audit record: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing audit record: %w", err)
	}
	return nil
}

// ReadAuditFile loads an audit record written by WriteFile.
func ReadAuditFile(path string) (*Audit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading audit record: %w", err)
	}
	a := new(Audit)
	if err := cbor.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("decoding audit record: %w", err)
	}
	return a, nil
}
