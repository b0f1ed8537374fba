// Package dispatch turns a named, client-requested operation into one
// parameterized statement. Operations are declared in tables that are
// validated once at startup; at request time a Gateway looks the name up,
// binds parameters (identity parameters always from the authenticated user)
// and executes the statement.
package dispatch

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Mode selects which table an operation belongs to and what it returns.
type Mode int

const (
	// ModeRead operations are SELECT statements returning rows.
	ModeRead Mode = iota
	// ModeWrite operations are client-triggered calls returning no rows.
	ModeWrite
	// ModeScheduled operations run from the scheduler, never for a user.
	ModeScheduled
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeScheduled:
		return "scheduled"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Source says where a parameter value comes from.
type Source int

const (
	// SourceClient values come from the request under Param.Name.
	SourceClient Source = iota
	// SourceIdentity values are the authenticated user id. A client value
	// under the same name is ignored.
	SourceIdentity
)

// Kind is the expected type of a client parameter.
type Kind int

const (
	KindInt Kind = iota
	KindText
	KindDecimal
	KindTextList
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindText:
		return "text"
	case KindDecimal:
		return "decimal"
	case KindTextList:
		return "text list"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Param declares the value bound to placeholder $i, where i is the param's
// 1-based position in Operation.Params.
type Param struct {
	Name     string
	Source   Source
	Kind     Kind
	Optional bool
}

// Operation is one entry of a dispatch table.
type Operation struct {
	Name      string
	Mode      Mode
	Statement string
	Params    []Param
}

// Registry is an immutable, validated dispatch table for one mode.
type Registry struct {
	mode Mode
	ops  map[string]Operation
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// NewRegistry validates ops and builds a registry. Every error found is
// reported, joined.
func NewRegistry(mode Mode, ops []Operation) (*Registry, error) {
	r := &Registry{mode: mode, ops: make(map[string]Operation, len(ops))}

	var errs []error
	for _, op := range ops {
		if _, dup := r.ops[op.Name]; dup {
			errs = append(errs, fmt.Errorf("operation %q registered twice", op.Name))
			continue
		}
		if err := validate(mode, op); err != nil {
			errs = append(errs, fmt.Errorf("operation %q: %w", op.Name, err))
			continue
		}
		r.ops[op.Name] = op
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// MustRegistry is NewRegistry that panics; for package-level tables.
func MustRegistry(mode Mode, ops []Operation) *Registry {
	r, err := NewRegistry(mode, ops)
	if err != nil {
		panic(err)
	}
	return r
}

func validate(mode Mode, op Operation) error {
	if op.Name == "" {
		return errors.New("empty name")
	}
	if op.Mode != mode {
		return fmt.Errorf("mode %s in a %s table", op.Mode, mode)
	}
	stmt := strings.TrimSpace(op.Statement)
	if stmt == "" {
		return errors.New("empty statement")
	}

	isSelect := strings.HasPrefix(strings.ToLower(stmt), "select")
	if mode == ModeRead && !isSelect {
		return errors.New("read operations must be SELECT statements")
	}
	if mode != ModeRead && isSelect {
		return errors.New("only read operations may be SELECT statements")
	}

	names := make(map[string]struct{}, len(op.Params))
	for _, p := range op.Params {
		if p.Name == "" {
			return errors.New("parameter without a name")
		}
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("parameter %q declared twice", p.Name)
		}
		names[p.Name] = struct{}{}
		if p.Source == SourceIdentity && mode == ModeScheduled {
			return fmt.Errorf("parameter %q: scheduled operations have no identity", p.Name)
		}
		if p.Source == SourceIdentity && p.Optional {
			return fmt.Errorf("parameter %q: identity parameters cannot be optional", p.Name)
		}
	}

	used := map[int]struct{}{}
	for _, m := range placeholderRe.FindAllStringSubmatch(stmt, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(op.Params) {
			return fmt.Errorf("placeholder $%s has no declared parameter", m[1])
		}
		used[n] = struct{}{}
	}
	if len(used) != len(op.Params) {
		return fmt.Errorf("statement uses %d distinct placeholders, %d parameters declared", len(used), len(op.Params))
	}
	return nil
}

// Mode is the mode every operation of the registry has.
func (r *Registry) Mode() Mode { return r.mode }

// Lookup returns the named operation.
func (r *Registry) Lookup(name string) (Operation, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// Names lists the registered operations in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
