package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue_Order(t *testing.T) {
	q := NewQueue(nil)
	defer q.Close()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		assert.True(t, q.Submit(func() { got = append(got, i) }))
	}
	q.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestQueue_NestedSubmit(t *testing.T) {
	q := NewQueue(nil)
	defer q.Close()

	var got []string
	q.Submit(func() {
		got = append(got, "outer")
		q.Submit(func() { got = append(got, "inner") })
	})
	q.Wait()

	assert.Equal(t, []string{"outer", "inner"}, got)
}

func TestQueue_PanicDoesNotStopLoop(t *testing.T) {
	q := NewQueue(nil)
	defer q.Close()

	ran := false
	q.Submit(func() { panic("bad callback") })
	q.Submit(func() { ran = true })
	q.Wait()

	assert.True(t, ran)
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue(nil)

	ran := 0
	for i := 0; i < 3; i++ {
		q.Submit(func() { ran++ })
	}
	q.Close()

	assert.Equal(t, 3, ran)
	assert.False(t, q.Submit(func() {}))
	q.Close()
}
