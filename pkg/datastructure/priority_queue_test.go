package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinHeapInsertExtract(t *testing.T) {
	pq := NewMinHeap[int32]()

	pq.Insert(PriorityQueueNode[int32]{Rank: 5, Item: 5})
	pq.Insert(PriorityQueueNode[int32]{Rank: 1, Item: 1})
	pq.Insert(PriorityQueueNode[int32]{Rank: 3, Item: 3})
	pq.Insert(PriorityQueueNode[int32]{Rank: 2, Item: 2})
	pq.Insert(PriorityQueueNode[int32]{Rank: 4, Item: 4})

	assert.Equal(t, 5, pq.Size())

	prev := -1.0
	for pq.Size() > 0 {
		node, err := pq.ExtractMin()
		assert.NoError(t, err)
		assert.Greater(t, node.Rank, prev)
		prev = node.Rank
	}

	_, err := pq.ExtractMin()
	assert.Error(t, err)
}

func TestMinHeapDecreaseKey(t *testing.T) {
	pq := NewMinHeap[int32]()

	pq.Insert(PriorityQueueNode[int32]{Rank: 10, Item: 7})
	pq.Insert(PriorityQueueNode[int32]{Rank: 20, Item: 8})

	err := pq.DecreaseKey(PriorityQueueNode[int32]{Rank: 1, Item: 8})
	assert.NoError(t, err)

	node, err := pq.GetMin()
	assert.NoError(t, err)
	assert.Equal(t, int32(8), node.Item)

	// increasing the rank is rejected
	err = pq.DecreaseKey(PriorityQueueNode[int32]{Rank: 100, Item: 7})
	assert.Error(t, err)
}

func TestMinHeapContains(t *testing.T) {
	pq := NewMinHeap[int32]()
	pq.Insert(PriorityQueueNode[int32]{Rank: 1, Item: 42})
	assert.True(t, pq.Contains(42))

	_, _ = pq.ExtractMin()
	assert.False(t, pq.Contains(42))
}
