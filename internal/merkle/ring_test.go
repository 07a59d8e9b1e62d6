package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingPushWrapsAtCapacity(t *testing.T) {
	r := NewRing[int](3)
	r.Push(1)
	r.Push(2)
	r.Push(3)
	require.Equal(t, 3, r.Len())
	require.Equal(t, 1, r.Front())
	require.Equal(t, 3, r.Back())

	r.Push(4) // overwrites 1
	require.Equal(t, 3, r.Len())
	require.Equal(t, 2, r.Front())
	require.Equal(t, 4, r.Back())
}

func TestRingPopPastLenEmpties(t *testing.T) {
	r := NewRing[int](4)
	r.Push(1)
	r.Push(2)
	r.Pop(10)
	require.Equal(t, 0, r.Len())
}

func TestRingForEachOrder(t *testing.T) {
	r := NewRing[int](5)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	var seen []int
	r.ForEach(func(i int, v int) { seen = append(seen, v) })
	require.Equal(t, []int{1, 2, 3, 4, 5}, seen)
}
