/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGet(t *testing.T) {
	cs := NewCSpace()
	id := cs.Create(ResourceEndpoint, 42, AllRights)
	require.NotZero(t, id)

	c, ok := cs.Get(id)
	require.True(t, ok)
	assert.Equal(t, ResourceEndpoint, c.ResourceType)
	assert.EqualValues(t, 42, c.ResourceId)
	assert.Equal(t, AllRights, c.Rights)
}

func TestNextIdMonotone(t *testing.T) {
	cs := NewCSpace()
	var last Id
	for i := 0; i < 10; i++ {
		id := cs.Create(ResourceMemory, uint64(i), AllRights)
		assert.Greater(t, uint64(id), uint64(last))
		last = id
	}
}

func TestDeriveSubsetSucceeds(t *testing.T) {
	cs := NewCSpace()
	c1 := cs.Create(ResourceEndpoint, 1, AllRights)

	c2, ok := cs.Derive(c1, Rights{Read: true})
	require.True(t, ok)

	got, _ := cs.Get(c2)
	assert.Equal(t, Rights{Read: true}, got.Rights)
}

func TestDeriveEscalationFails(t *testing.T) {
	cs := NewCSpace()
	c1 := cs.Create(ResourceEndpoint, 1, AllRights)
	c2, _ := cs.Derive(c1, Rights{Read: true})

	_, ok := cs.Derive(c2, Rights{Read: true, Write: true})
	assert.False(t, ok)

	// applying the same call twice yields the same failure
	_, ok = cs.Derive(c2, Rights{Read: true, Write: true})
	assert.False(t, ok)

	got, _ := cs.Get(c2)
	assert.Equal(t, Rights{Read: true}, got.Rights, "c2's rights must remain unchanged")
}

func TestDeriveSameRightsRoundTrips(t *testing.T) {
	cs := NewCSpace()
	c1 := cs.Create(ResourceEndpoint, 1, Rights{Read: true, Write: true})

	c2, ok := cs.Derive(c1, Rights{Read: true, Write: true})
	require.True(t, ok)

	src, _ := cs.Get(c1)
	dst, _ := cs.Get(c2)
	assert.Equal(t, src.Rights, dst.Rights)
}

func TestDeriveFromMissingSourceFails(t *testing.T) {
	cs := NewCSpace()
	_, ok := cs.Derive(999, Rights{Read: true})
	assert.False(t, ok)
}

func TestRevokeThenGetFails(t *testing.T) {
	cs := NewCSpace()
	id := cs.Create(ResourceEndpoint, 1, AllRights)

	revoked, ok := cs.Revoke(id)
	require.True(t, ok)
	assert.Equal(t, id, revoked.Id)

	_, ok = cs.Get(id)
	assert.False(t, ok, "revoked capability must not be retrievable")
}

func TestRevokedIdNeverReused(t *testing.T) {
	cs := NewCSpace()
	id := cs.Create(ResourceEndpoint, 1, AllRights)
	cs.Revoke(id)

	// every subsequent create must still produce an id greater than the
	// revoked one; next_id is never rolled back.
	next := cs.Create(ResourceEndpoint, 2, AllRights)
	assert.Greater(t, uint64(next), uint64(id))
}

func TestRightsMonotonicityChain(t *testing.T) {
	cs := NewCSpace()
	c0 := cs.Create(ResourceMemory, 1, AllRights)

	cur := c0
	chainRights := []Rights{
		{Read: true, Write: true, Execute: true},
		{Read: true, Write: true},
		{Read: true},
	}
	for _, want := range chainRights {
		next, ok := cs.Derive(cur, want)
		require.True(t, ok)
		got, _ := cs.Get(next)
		assert.True(t, got.Rights.Has(Rights{}))
		cur = next
	}
	final, _ := cs.Get(cur)
	root, _ := cs.Get(c0)
	assert.True(t, root.Rights.Has(final.Rights), "final rights must be a subset of the root's")
}

func TestRightsBitsRoundTrip(t *testing.T) {
	r := Rights{Read: true, Execute: true}
	assert.Equal(t, r, RightsFromBits(r.Bits()))
}
