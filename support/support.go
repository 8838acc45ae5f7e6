/*
Package support defines the minimum support threshold of a mining run.

A threshold is either an absolute number of transactions or a fraction of
the total number of transactions in the dataset. Either way it is resolved,
once and before any mining starts, into the absolute count every itemset
must reach to be frequent.
*/
package support

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tells how a MinSupport value must be interpreted.
type Kind int

const (
	// Absolute thresholds are a number of transactions.
	Absolute Kind = iota + 1
	// Fraction thresholds are a proportion of the number of transactions.
	Fraction
)

/*
MinSupport is a minimum support threshold. Its zero value is not a valid
threshold: use AbsoluteCount, FractionOfTotal or Parse to build one.
*/
type MinSupport struct {
	kind     Kind
	count    int
	fraction float64
}

// AbsoluteCount returns a threshold of n transactions.
func AbsoluteCount(n int) MinSupport {
	return MinSupport{kind: Absolute, count: n}
}

// FractionOfTotal returns a threshold of f times the number of transactions.
func FractionOfTotal(f float64) MinSupport {
	return MinSupport{kind: Fraction, fraction: f}
}

/*
Parse takes the textual form of a threshold and returns it as a MinSupport.
A plain integer such as "10" is an absolute count, while any number with a
decimal point such as "0.25" or "10.0" is a fraction of the transaction count.
Anything else results in an error matching ErrInvalidConfiguration.
*/
func Parse(s string) (MinSupport, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return MinSupport{}, NewConfigurationError("minimum support", s, "empty value")
	}
	if strings.Contains(v, ".") {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return MinSupport{}, NewConfigurationError("minimum support", s, "not a number")
		}
		ms := FractionOfTotal(f)
		return ms, ms.Validate()
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return MinSupport{}, NewConfigurationError("minimum support", s, "not an integer nor a fraction")
	}
	ms := AbsoluteCount(n)
	return ms, ms.Validate()
}

// Kind returns whether the threshold is absolute or a fraction, or 0 for
// the zero value.
func (ms MinSupport) Kind() Kind {
	return ms.kind
}

// Validate returns an error matching ErrInvalidConfiguration if the
// threshold cannot be resolved.
func (ms MinSupport) Validate() error {
	switch ms.kind {
	case Absolute:
		if ms.count < 0 {
			return NewConfigurationError("minimum support", ms.String(), "must not be negative")
		}
	case Fraction:
		if math.IsNaN(ms.fraction) || math.IsInf(ms.fraction, 0) {
			return NewConfigurationError("minimum support", ms.String(), "must be a finite number")
		}
		if ms.fraction < 0 {
			return NewConfigurationError("minimum support", ms.String(), "must not be negative")
		}
	default:
		return NewConfigurationError("minimum support", "", "not set")
	}
	return nil
}

/*
Resolve takes the number of transactions in the dataset and returns the
absolute count an itemset needs to be frequent.

For a fraction, the count is the smallest integer not below
fraction × transactions, which keeps exactly the itemsets whose support is
greater than or equal to the unrounded product. A product above the number
of transactions resolves to transactions+1, which no itemset can reach.
Thresholds are never below 1.
*/
func (ms MinSupport) Resolve(transactions int) (int, error) {
	if err := ms.Validate(); err != nil {
		return 0, err
	}
	var count int
	if ms.kind == Absolute {
		count = ms.count
	} else {
		product := ms.fraction * float64(transactions)
		if product > float64(transactions) {
			count = transactions + 1
		} else {
			count = int(math.Ceil(product))
		}
	}
	if count < 1 {
		count = 1
	}
	return count, nil
}

func (ms MinSupport) String() string {
	switch ms.kind {
	case Absolute:
		return strconv.Itoa(ms.count)
	case Fraction:
		s := strconv.FormatFloat(ms.fraction, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s = fmt.Sprintf("%s.0", s)
		}
		return s
	}
	return ""
}
