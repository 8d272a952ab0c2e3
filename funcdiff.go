package cuckoo

import (
	"errors"
	"fmt"
	"reflect"
)

// funcDifferences lists, per position, the arguments and results where two
// function types disagree. A nil entry means the position matches.
type funcDifferences struct {
	In  []*argDifference
	Out []*argDifference
}

func (d *funcDifferences) Error() error {
	errs := []error{}
	for i, arg := range d.In {
		if arg != nil {
			errs = append(errs, fmt.Errorf("argument %d: %v != %v", i, arg.A, arg.B))
		}
	}
	for i, out := range d.Out {
		if out != nil {
			errs = append(errs, fmt.Errorf("output %d: %v != %v", i, out.A, out.B))
		}
	}

	return errors.Join(errs...)
}

// argDifference holds the two types at one position. A is nil when the
// first function has no such position, B likewise for the second.
type argDifference struct {
	A reflect.Type
	B reflect.Type
}

func diffFuncs(a, b reflect.Value) *funcDifferences {
	at := a.Type()
	bt := b.Type()

	return &funcDifferences{
		In:  diffTypes(at.NumIn(), bt.NumIn(), at.In, bt.In),
		Out: diffTypes(at.NumOut(), bt.NumOut(), at.Out, bt.Out),
	}
}

func diffTypes(na, nb int, a, b func(int) reflect.Type) []*argDifference {
	diff := make([]*argDifference, max(na, nb))
	for i := range diff {
		var ta, tb reflect.Type
		if i < na {
			ta = a(i)
		}
		if i < nb {
			tb = b(i)
		}
		if ta != tb {
			diff[i] = &argDifference{A: ta, B: tb}
		}
	}
	return diff
}
