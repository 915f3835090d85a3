package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/carbocation/flotilla/table"
)

// Lists resolves a name to a list of ids. ok is false when the name is not a
// known list. ctx bounds any fetch the lookup needs.
type Lists interface {
	Lookup(ctx context.Context, name string) (ids []string, ok bool, err error)
}

// StaticLists is a fixed set of named lists.
type StaticLists map[string][]string

func (s StaticLists) Lookup(_ context.Context, name string) ([]string, bool, error) {
	ids, ok := s[name]
	return ids, ok, nil
}

// UnknownNameError is returned for a column or list name that neither the
// metadata nor the lists know.
type UnknownNameError struct {
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("%q is neither a metadata column nor a known list", e.Name)
}

// Env is what an expression is evaluated against. Universe is the ordered set
// of candidate keys. Metadata, whose rows are keyed like Universe, and Lists
// may each be nil. Context is passed to Lists; nil means context.Background.
type Env struct {
	Context  context.Context
	Universe []string
	Metadata *table.Table
	Lists    Lists
}

func (env Env) context() context.Context {
	if env.Context == nil {
		return context.Background()
	}
	return env.Context
}

// set is a membership mask over the universe.
type set []bool

// Node is a parsed expression.
type Node interface {
	eval(env Env) (set, error)
	String() string
}

// Eval returns the keys of env.Universe that satisfy n, in universe order.
func Eval(n Node, env Env) ([]string, error) {
	mask, err := n.eval(env)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(env.Universe))
	for i, in := range mask {
		if in {
			out = append(out, env.Universe[i])
		}
	}
	return out, nil
}

// Select parses expr and evaluates it.
func Select(expr string, env Env) ([]string, error) {
	n, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return Eval(n, env)
}

// All matches every key.
type All struct{}

func (All) eval(env Env) (set, error) {
	out := make(set, len(env.Universe))
	for i := range out {
		out[i] = true
	}
	return out, nil
}

func (All) String() string { return "all" }

// Equals matches rows whose Column holds Value.
type Equals struct {
	Column string
	Value  string
}

func (e Equals) eval(env Env) (set, error) {
	if env.Metadata == nil || !env.Metadata.HasColumn(e.Column) {
		return nil, &UnknownNameError{Name: e.Column}
	}

	kind, err := env.Metadata.Kind(e.Column)
	if err != nil {
		return nil, err
	}
	var want float64
	if kind == table.Numeric {
		want, err = strconv.ParseFloat(e.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q is numeric but %q is not a number", e.Column, e.Value)
		}
	}

	out := make(set, len(env.Universe))
	for i, key := range env.Universe {
		if !env.Metadata.HasRow(key) {
			continue
		}
		if kind == table.Numeric {
			v, _ := env.Metadata.Float(key, e.Column)
			out[i] = v == want
			continue
		}
		v, _ := env.Metadata.Value(key, e.Column)
		out[i] = v.Valid && v.String == e.Value
	}
	return out, nil
}

func (e Equals) String() string { return e.Column + ": " + e.Value }

// Name is a bare identifier: a boolean metadata column, else a named list.
type Name struct {
	Name string
}

func (n Name) eval(env Env) (set, error) {
	if env.Metadata != nil && env.Metadata.HasColumn(n.Name) {
		if mask, ok := booleanColumn(env, n.Name); ok {
			return mask, nil
		}
	}

	if env.Lists != nil {
		ids, ok, err := env.Lists.Lookup(env.context(), n.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			member := make(map[string]struct{}, len(ids))
			for _, id := range ids {
				member[id] = struct{}{}
			}
			out := make(set, len(env.Universe))
			for i, key := range env.Universe {
				_, out[i] = member[key]
			}
			return out, nil
		}
	}

	return nil, &UnknownNameError{Name: n.Name}
}

func (n Name) String() string { return n.Name }

// booleanColumn reads col as booleans. ok is false if some non-missing value
// is not a boolean.
func booleanColumn(env Env, col string) (set, bool) {
	values, err := env.Metadata.StringColumn(col)
	if err != nil {
		return nil, false
	}
	rows := env.Metadata.Rows()
	truth := make(map[string]bool, len(rows))
	for i, v := range values {
		if !v.Valid {
			continue
		}
		b, ok := parseBool(v.String)
		if !ok {
			return nil, false
		}
		truth[rows[i]] = b
	}

	out := make(set, len(env.Universe))
	for i, key := range env.Universe {
		out[i] = truth[key]
	}
	return out, true
}

// parseBool accepts the spellings of booleans found in metadata sheets.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

// ParseBool reports the boolean value of a metadata cell. ok is false if the
// cell is not a boolean.
func ParseBool(s string) (value, ok bool) { return parseBool(s) }

type Not struct {
	X Node
}

func (n Not) eval(env Env) (set, error) {
	x, err := n.X.eval(env)
	if err != nil {
		return nil, err
	}
	out := make(set, len(x))
	for i, v := range x {
		out[i] = !v
	}
	return out, nil
}

func (n Not) String() string { return "not (" + n.X.String() + ")" }

type And struct {
	X, Y Node
}

func (n And) eval(env Env) (set, error) {
	x, err := n.X.eval(env)
	if err != nil {
		return nil, err
	}
	y, err := n.Y.eval(env)
	if err != nil {
		return nil, err
	}
	for i := range x {
		x[i] = x[i] && y[i]
	}
	return x, nil
}

func (n And) String() string { return "(" + n.X.String() + " and " + n.Y.String() + ")" }

type Or struct {
	X, Y Node
}

func (n Or) eval(env Env) (set, error) {
	x, err := n.X.eval(env)
	if err != nil {
		return nil, err
	}
	y, err := n.Y.eval(env)
	if err != nil {
		return nil, err
	}
	for i := range x {
		x[i] = x[i] || y[i]
	}
	return x, nil
}

func (n Or) String() string { return "(" + n.X.String() + " or " + n.Y.String() + ")" }
