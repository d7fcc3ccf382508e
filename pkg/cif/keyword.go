package cif

// ValueState describes what the most recent read stored in a Keyword.
type ValueState uint8

const (
	// ValueAbsent means the keyword was not seen since the last delivery.
	ValueAbsent ValueState = iota

	// ValueOmitted means the file held ".".
	ValueOmitted

	// ValueUnknown means the file held "?".
	ValueUnknown

	// ValueBorrowed means the value views the reader's line buffer.
	ValueBorrowed

	// ValueOwned means the value is an independent copy.
	ValueOwned
)

func (s ValueState) String() string {
	switch s {
	case ValueAbsent:
		return "absent"
	case ValueOmitted:
		return "omitted"
	case ValueUnknown:
		return "unknown"
	case ValueBorrowed:
		return "borrowed"
	case ValueOwned:
		return "owned"
	default:
		return "invalid"
	}
}

// Keyword is a registered keyword slot within a Category. Its value is
// refreshed as the file is read and cleared after every data callback for
// its category.
type Keyword struct {
	name     string
	state    ValueState
	borrowed []byte
	owned    string
}

// Name returns the keyword name as registered.
func (k *Keyword) Name() string { return k.name }

// State returns the current value state.
func (k *Keyword) State() ValueState { return k.state }

// InFile reports whether the keyword was present in the file, including
// as "." or "?".
func (k *Keyword) InFile() bool { return k.state != ValueAbsent }

// Omitted reports whether the file held ".".
func (k *Keyword) Omitted() bool { return k.state == ValueOmitted }

// Unknown reports whether the file held "?".
func (k *Keyword) Unknown() bool { return k.state == ValueUnknown }

// Value returns a copy of the literal value. ok is false when the keyword is
// absent, omitted or unknown.
func (k *Keyword) Value() (string, bool) {
	switch k.state {
	case ValueBorrowed:
		return string(k.borrowed), true
	case ValueOwned:
		return k.owned, true
	default:
		return "", false
	}
}

// Bytes returns the literal value without copying it when possible. The
// result must not be retained past the current callback. It is nil when the
// keyword carries no literal value.
func (k *Keyword) Bytes() []byte {
	switch k.state {
	case ValueBorrowed:
		return k.borrowed
	case ValueOwned:
		return []byte(k.owned)
	default:
		return nil
	}
}

func (k *Keyword) setBorrowed(p []byte) {
	k.reset()
	k.state = ValueBorrowed
	k.borrowed = p
}

func (k *Keyword) setOwned(v string) {
	k.reset()
	k.state = ValueOwned
	k.owned = v
}

func (k *Keyword) setOmitted() {
	k.reset()
	k.state = ValueOmitted
}

func (k *Keyword) setUnknown() {
	k.reset()
	k.state = ValueUnknown
}

func (k *Keyword) reset() {
	k.state = ValueAbsent
	k.borrowed = nil
	k.owned = ""
}
