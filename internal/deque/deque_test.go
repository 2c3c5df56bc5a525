package deque

import (
	"testing"

	"aesdsocket/internal/xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushBackPopFrontOrder(t *testing.T) {
	var d Deque[int]
	d.PushBack(1)
	d.PushBack(2)
	d.PushBack(3)
	require.Equal(t, 3, d.Size())

	v, err := d.PopFront()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = d.PeekFront()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, d.Size(), "peek must not remove")
}

func TestPopFrontEmpty(t *testing.T) {
	var d Deque[string]
	_, err := d.PopFront()
	assert.ErrorIs(t, err, xerrors.ErrInvalidState)

	_, err = d.PeekFront()
	assert.ErrorIs(t, err, xerrors.ErrInvalidState)
}

func TestDeleteSoleElement(t *testing.T) {
	var d Deque[int]
	n := d.PushBack(42)
	require.NoError(t, d.Delete(n))
	assert.Equal(t, 0, d.Size())
	_, err := d.PeekFront()
	assert.ErrorIs(t, err, xerrors.ErrInvalidState)
}

func TestDeleteHeadTailInterior(t *testing.T) {
	var d Deque[int]
	n1 := d.PushBack(1)
	n2 := d.PushBack(2)
	n3 := d.PushBack(3)
	n4 := d.PushBack(4)

	require.NoError(t, d.Delete(n2)) // interior
	require.NoError(t, d.Delete(n1)) // head
	require.NoError(t, d.Delete(n4)) // tail

	require.Equal(t, 1, d.Size())
	v, err := d.PeekFront()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Same(t, n3, n3) // sanity: handle for survivor still usable
	require.NoError(t, d.Delete(n3))
	assert.Equal(t, 0, d.Size())
}

func TestDeleteInvalidHandle(t *testing.T) {
	var d, other Deque[int]
	d.PushBack(1)
	foreign := other.PushBack(2)

	assert.ErrorIs(t, d.Delete(nil), xerrors.ErrInvalidState)
	assert.ErrorIs(t, d.Delete(foreign), xerrors.ErrInvalidState)
}

func TestDeleteTwiceFails(t *testing.T) {
	var d Deque[int]
	n := d.PushBack(1)
	require.NoError(t, d.Delete(n))
	assert.ErrorIs(t, d.Delete(n), xerrors.ErrInvalidState)
}
