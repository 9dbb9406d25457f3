package nodes

// Helpers for the nested-list matching rules of node inputs. Each input is
// a list with one entry per object; shorter inputs are stretched to the
// longest by repeating their last entry.

// longest returns the largest of lens, or 0 if any is 0.
func longest(lens ...int) int {
	n := 0
	for _, l := range lens {
		if l == 0 {
			return 0
		}
		n = max(n, l)
	}
	return n
}

// at returns s[i], or the last element when i is past the end.
// s must not be empty.
func at[T any](s []T, i int) T {
	if i >= len(s) {
		return s[len(s)-1]
	}
	return s[i]
}

// MatchLongRepeat stretches every list to the length of the longest by
// repeating its last element. If any list is empty the result is nil.
func MatchLongRepeat[T any](lists ...[]T) [][]T {
	lens := make([]int, len(lists))
	for i, l := range lists {
		lens[i] = len(l)
	}
	n := longest(lens...)
	if n == 0 {
		return nil
	}
	out := make([][]T, len(lists))
	for i, l := range lists {
		out[i] = RepeatLast(l, n)
	}
	return out
}

// ZipLongRepeat returns one tuple per position of the longest list, taking
// the last element of shorter lists once they run out. If any list is
// empty the result is nil.
func ZipLongRepeat[T any](lists ...[]T) [][]T {
	matched := MatchLongRepeat(lists...)
	if matched == nil {
		return nil
	}
	n := len(matched[0])
	out := make([][]T, n)
	for i := range out {
		tuple := make([]T, len(matched))
		for j, l := range matched {
			tuple[j] = l[i]
		}
		out[i] = tuple
	}
	return out
}

// RepeatLast returns s fitted to length n: truncated when longer, padded
// with its last element when shorter. An empty s stays empty.
func RepeatLast[T any](s []T, n int) []T {
	if len(s) == 0 {
		return nil
	}
	out := make([]T, n)
	for i := range out {
		out[i] = at(s, i)
	}
	return out
}

// CycleTo returns s fitted to length n by cycling through it from the
// start. An empty s stays empty.
func CycleTo[T any](s []T, n int) []T {
	if len(s) == 0 {
		return nil
	}
	out := make([]T, n)
	for i := range out {
		out[i] = s[i%len(s)]
	}
	return out
}
