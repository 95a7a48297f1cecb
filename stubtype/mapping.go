package stubtype

// Position is where a type occurs at a function boundary.
type Position int

const (
	// Output is a return value, field or variable: what the module guarantees.
	Output Position = iota
	// Input is a parameter: what the module accepts.
	Input
)

func (p Position) String() string {
	switch p {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "unknown"
	}
}

// Stub is the capability every representable type supplies.
// A Go type that implements Stub is resolvable without any registration.
type Stub interface {
	TypeOutput() TypeInfo
}

// InputStub is implemented by types that accept a different annotation than
// they return, such as a path accepting str | os.PathLike but returning
// pathlib.Path.
type InputStub interface {
	Stub
	TypeInput() TypeInfo
}

// InputOf returns the input annotation of s, falling back to its output.
func InputOf(s Stub) TypeInfo {
	if in, ok := s.(InputStub); ok {
		return in.TypeInput()
	}
	return s.TypeOutput()
}

// OutputOf returns the output annotation of s.
func OutputOf(s Stub) TypeInfo {
	return s.TypeOutput()
}

// At returns the annotation of s for pos.
func At(s Stub, pos Position) TypeInfo {
	if pos == Input {
		return InputOf(s)
	}
	return OutputOf(s)
}

// Mapped is a Stub backed by fixed annotations. A zero In falls back to Out.
type Mapped struct {
	In  TypeInfo
	Out TypeInfo
}

// Simple returns a Mapped using t for both positions.
func Simple(t TypeInfo) Mapped {
	return Mapped{Out: t}
}

// TypeOutput implements Stub.
func (m Mapped) TypeOutput() TypeInfo { return m.Out }

// TypeInput implements InputStub.
func (m Mapped) TypeInput() TypeInfo {
	if m.In.IsZero() {
		return m.Out
	}
	return m.In
}
