package grading

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownOperation = errors.New("unknown check operation")
	ErrTooManyArgs      = errors.New("too many arguments for check operation")
)

// OpKind enumerates the operations a chain descriptor may name.
type OpKind int

const (
	OpSoft OpKind = iota + 1
	OpHard
	OpThreshLow
	OpThreshHigh
	OpNormalize
	OpReweight
	OpNum
	OpCode
	OpData
)

type opInfo struct {
	name  string
	arity int
}

var opTable = map[OpKind]opInfo{
	OpSoft:       {"soft", 0},
	OpHard:       {"hard", 0},
	OpThreshLow:  {"threshlow", 1},
	OpThreshHigh: {"threshhigh", 1},
	OpNormalize:  {"normalize", 1},
	OpReweight:   {"reweight", 1},
	OpNum:        {"num", 1},
	OpCode:       {"code", 0},
	OpData:       {"data", 0},
}

var opByName = func() map[string]OpKind {
	m := make(map[string]OpKind, len(opTable))
	for k, info := range opTable {
		m[info.name] = k
	}
	return m
}()

func (k OpKind) String() string {
	if info, ok := opTable[k]; ok {
		return info.name
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Op is one parsed step of a chain.
type Op struct {
	Kind OpKind
	Args []float64
}

// arg returns the i-th positional argument or def when it was not given.
func (o Op) arg(i int, def float64) float64 {
	if i < len(o.Args) {
		return o.Args[i]
	}
	return def
}

func (o Op) String() string {
	parts := []string{o.Kind.String()}
	for _, a := range o.Args {
		parts = append(parts, strconv.FormatFloat(a, 'f', -1, 64))
	}
	return strings.Join(parts, ChainDelimiter)
}

// ChainDelimiter separates operation names and arguments in a descriptor.
const ChainDelimiter = "_"

// Chain is an ordered list of operations built from a descriptor such as
// "soft_threshlow_50".
type Chain struct {
	Descriptor string
	Ops        []Op
}

// Empty reports whether the chain has nothing to run.
func (c Chain) Empty() bool { return len(c.Ops) == 0 }

// Has reports whether the chain contains an operation of kind k.
func (c Chain) Has(k OpKind) bool {
	for _, op := range c.Ops {
		if op.Kind == k {
			return true
		}
	}
	return false
}

// ParseChain builds a Chain from its descriptor. Numeric tokens following an
// operation name are consumed as that operation's arguments.
func ParseChain(desc string) (Chain, error) {
	c := Chain{Descriptor: desc}
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return c, nil
	}
	tokens := strings.Split(desc, ChainDelimiter)
	for i := 0; i < len(tokens); {
		name := strings.TrimSpace(tokens[i])
		kind, ok := opByName[name]
		if !ok {
			return Chain{}, fmt.Errorf("%w: %q in %q", ErrUnknownOperation, name, desc)
		}
		op := Op{Kind: kind}
		i++
		for i < len(tokens) {
			v, err := strconv.ParseFloat(strings.TrimSpace(tokens[i]), 64)
			if err != nil {
				break
			}
			op.Args = append(op.Args, v)
			i++
		}
		if len(op.Args) > opTable[kind].arity {
			return Chain{}, fmt.Errorf("%w: %s takes %d, got %d in %q",
				ErrTooManyArgs, name, opTable[kind].arity, len(op.Args), desc)
		}
		c.Ops = append(c.Ops, op)
	}
	return c, nil
}
