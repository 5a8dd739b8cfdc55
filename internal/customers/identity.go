package customers

import (
	"strings"
	"unicode"
)

// IdentitySeparator joins the fields of a composite identity.
const IdentitySeparator = "|"

// IdentityKind tells which rule produced an Identity.
type IdentityKind int

const (
	// IdentityCard identities are the card suffix digits themselves.
	IdentityCard IdentityKind = iota + 1
	// IdentityComposite identities are built from date, amount and type.
	// Two distinct payments sharing all three collapse into one customer.
	IdentityComposite
)

func (k IdentityKind) String() string {
	switch k {
	case IdentityCard:
		return "card"
	case IdentityComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// Identity is the customer key derived from a transaction.
type Identity struct {
	Kind IdentityKind
	Key  string
}

func (i Identity) String() string {
	return i.Key
}

// ResolveIdentity derives the customer identity of a single transaction.
func ResolveIdentity(tx Transaction) Identity {
	if isDigits(tx.CardDigits) {
		return Identity{Kind: IdentityCard, Key: tx.CardDigits}
	}
	return Identity{
		Kind: IdentityComposite,
		Key:  strings.Join([]string{tx.PaidDate, tx.Amount, tx.Type}, IdentitySeparator),
	}
}

// ResolveAll tags every transaction with its customer identity, keeping input order.
func ResolveAll(txs []Transaction) []ResolvedTransaction {
	resolved := make([]ResolvedTransaction, len(txs))
	for i, tx := range txs {
		resolved[i] = ResolvedTransaction{Transaction: tx, CustomerID: ResolveIdentity(tx).Key}
	}
	return resolved
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
