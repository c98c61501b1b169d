package dtc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_GetBeforeSetReturnsNil(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Get())
}

func TestStore_SetThenGet(t *testing.T) {
	s := NewStore()
	snap := &Snapshot{
		ReceivedSystemMs: 123,
		Codes: []Code{
			{ECUID: "ECM", DTCCode: "P0001", StatusMask: 0x08},
		},
	}

	s.Set(snap)

	got := s.Get()
	assert.Same(t, snap, got)
	assert.Equal(t, uint64(123), got.ReceivedSystemMs)
	assert.Len(t, got.Codes, 1)
}

func TestStore_SetReplacesPrevious(t *testing.T) {
	s := NewStore()
	s.Set(&Snapshot{ReceivedSystemMs: 1})
	s.Set(&Snapshot{ReceivedSystemMs: 2})

	assert.Equal(t, uint64(2), s.Get().ReceivedSystemMs)
}
