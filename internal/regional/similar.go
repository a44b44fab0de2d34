package regional

import "strings"

// SimilarityPercent compares two strings case-insensitively by recursively
// matching longest common substrings: 2*common / (len a + len b) * 100.
func SimilarityPercent(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if len(a)+len(b) == 0 {
		return 0
	}
	return float64(commonChars(a, b)) * 200 / float64(len(a)+len(b))
}

func commonChars(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	posA, posB, longest := 0, 0, 0
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}
			if k > longest {
				posA, posB, longest = i, j, k
			}
		}
	}
	if longest == 0 {
		return 0
	}
	return longest +
		commonChars(a[:posA], b[:posB]) +
		commonChars(a[posA+longest:], b[posB+longest:])
}
