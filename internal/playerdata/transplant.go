package playerdata

import (
	"fmt"

	"github.com/Tnze/go-mc/nbt"
)

type Outcome int

const (
	Copied Outcome = iota + 1
	AbsentInSource
)

func (o Outcome) String() string {
	switch o {
	case Copied:
		return "copied"
	case AbsentInSource:
		return "absent_in_source"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "copied":
		*o = Copied
	case "absent_in_source":
		*o = AbsentInSource
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

type FieldResult struct {
	Field   string  `json:"field"`
	Outcome Outcome `json:"outcome"`
	// Kind is the tag type that was copied; empty when absent.
	Kind string `json:"kind,omitempty"`
}

type Result struct {
	Fields []FieldResult `json:"fields"`
	Copied int           `json:"copied"`
}

// Absent lists the fields that were not found in the source.
func (r Result) Absent() []string {
	var out []string
	for _, f := range r.Fields {
		if f.Outcome == AbsentInSource {
			out = append(out, f.Field)
		}
	}
	return out
}

// Transplant copies each named field that exists in src onto dst, replacing
// whatever dst held there. The copy is deep; afterwards src and dst share no
// bytes below the copied keys. Fields missing from src leave dst untouched.
// Keys of dst not named in fields are never touched.
func Transplant(src, dst map[string]nbt.RawMessage, fields []string) Result {
	res := Result{Fields: make([]FieldResult, 0, len(fields))}
	for _, f := range fields {
		v, ok := src[f]
		if !ok {
			res.Fields = append(res.Fields, FieldResult{Field: f, Outcome: AbsentInSource})
			continue
		}
		dst[f] = Clone(v)
		res.Fields = append(res.Fields, FieldResult{Field: f, Outcome: Copied, Kind: TagName(v.Type)})
		res.Copied++
	}
	return res
}
