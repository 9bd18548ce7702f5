// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

// Expansion identifies the decomposition rule in force at one level of a
// BKFDD, one of six tags organized along two orthogonal axes (§3.1):
//
//   - the function axis: Shannon, negative Davio, positive Davio;
//   - the variant axis: classical or biconditional.
type Expansion uint8

const (
	// CS is the classical Shannon expansion: f = x'.f|x=0 + x.f|x=1.
	CS Expansion = iota
	// CND is the classical negative Davio expansion.
	CND
	// CPD is the classical positive Davio expansion.
	CPD
	// BS is the biconditional Shannon expansion, cofactored on x<=>y for a
	// paired variable y instead of on x.
	BS
	// BND is the biconditional negative Davio expansion.
	BND
	// BPD is the biconditional positive Davio expansion.
	BPD
)

var expansionNames = [6]string{
	CS:  "CS",
	CND: "CND",
	CPD: "CPD",
	BS:  "BS",
	BND: "BND",
	BPD: "BPD",
}

func (e Expansion) String() string {
	if int(e) >= len(expansionNames) {
		return "?"
	}
	return expansionNames[e]
}

// IsShannon reports whether e decomposes on the function axis by Shannon
// expansion, classical or biconditional.
func (e Expansion) IsShannon() bool { return e == CS || e == BS }

// IsNDavio reports whether e is a negative-Davio expansion.
func (e Expansion) IsNDavio() bool { return e == CND || e == BND }

// IsPDavio reports whether e is a positive-Davio expansion.
func (e Expansion) IsPDavio() bool { return e == CPD || e == BPD }

// IsDavio reports whether e decomposes by either Davio polarity; it is the
// negation of IsShannon.
func (e Expansion) IsDavio() bool { return !e.IsShannon() }

// IsBi reports whether e is taken on the biconditional variant axis.
func (e Expansion) IsBi() bool { return e == BS || e == BND || e == BPD }

// IsCla reports whether e is taken on the classical variant axis; it is the
// negation of IsBi.
func (e Expansion) IsCla() bool { return !e.IsBi() }

// classical returns the classical counterpart of e on the variant axis,
// leaving the function axis unchanged. ChangeVariant uses it to unpair a
// biconditional level.
func (e Expansion) classical() Expansion {
	switch e {
	case BS:
		return CS
	case BND:
		return CND
	case BPD:
		return CPD
	default:
		return e
	}
}

// biconditional returns the biconditional counterpart of e.
func (e Expansion) biconditional() Expansion {
	switch e {
	case CS:
		return BS
	case CND:
		return BND
	case CPD:
		return BPD
	default:
		return e
	}
}
