package naming

import (
	"fmt"
	"math/bits"
	"math/rand/v2"
	"strconv"
)

const hexDigits = 4

// randomHex is swapped in tests.
var randomHex = func() string {
	return fmt.Sprintf("%0*X", hexDigits, rand.IntN(1<<(4*hexDigits)))
}

// Synthesize returns the display name of the index-th bot (1-based) of a
// batch of total bots. pool is only consulted for Realistic.
func Synthesize(policy Policy, baseName string, index, total int, pool []string) string {
	switch policy {
	case RandomHex:
		return baseName + "_" + randomHex()
	case Binary:
		return baseName + "_" + BinaryLabel(index, total)
	case Realistic:
		if index >= 1 && index <= len(pool) && pool[index-1] != "" {
			return pool[index-1]
		}
		return appendedID(baseName, index)
	case AppendedID:
		return appendedID(baseName, index)
	default:
		return appendedID(baseName, index)
	}
}

// BinaryLabel renders index in base 2, zero padded to the smallest width that
// fits every index in [1, total]: ceil(log2(total+1)) bits.
func BinaryLabel(index, total int) string {
	if total < 1 {
		total = 1
	}
	width := bits.Len(uint(total))
	return fmt.Sprintf("%0*b", width, index)
}

func appendedID(baseName string, index int) string {
	return baseName + "_" + strconv.Itoa(index)
}
