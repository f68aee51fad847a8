package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollapseWhitespace(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{in: "GNU   C++17", expected: "GNU C++17"},
		{in: "\n\tPython 3.9 \n (PyPy)  ", expected: "Python 3.9 (PyPy)"},
		{in: "", expected: ""},
		{in: "plain", expected: "plain"},
		{in: "GNU\u00a0C++17", expected: "GNU C++17"},
		{in: "Java\u00a0 \u2009 8\u00a0", expected: "Java 8"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, CollapseWhitespace(test.in), test.in)
	}
}

func TestEqualNames(t *testing.T) {
	require.True(t, EqualNames("gnu c++17", "GNU   C++17"))
	require.True(t, EqualNames(" Python 3 ", "python\t3"))
	require.True(t, EqualNames("GNU\u00a0C++17", "gnu c++17"))
	require.False(t, EqualNames("GNU C++17", "GNU C++20"))
}

func TestClosestMatch(t *testing.T) {
	candidates := []string{"GNU C++17 7.3", "Python 3.7.3", "Java 8"}

	best, score, ok := ClosestMatch("python3", candidates)
	require.True(t, ok)
	require.Equal(t, "Python 3.7.3", best)
	require.Greater(t, score, 0.5)

	_, _, ok = ClosestMatch("anything", nil)
	require.False(t, ok)
}
