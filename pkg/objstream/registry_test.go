package objstream

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
	"github.com/lk2023060901/objgraph-go/pkg/util/typeutil"
)

func TestRegistryLookup(t *testing.T) {
	r := newTestRegistry()
	assert.Equal(t, 6, r.Len())
	assert.Equal(t, []string{diamondName, itemName, limbName, pairName, sharedName, widgetName}, typeutil.Sorted(r.Names()))

	desc, ok := r.Lookup(itemName)
	require.True(t, ok)
	assert.Equal(t, itemName, desc.Name())
	assert.Equal(t, reflect.TypeOf(&item{}), desc.Type())

	byType, ok := r.LookupType(reflect.TypeOf(&item{}))
	require.True(t, ok)
	assert.Same(t, desc, byType)

	_, ok = r.Lookup("test.ghost")
	assert.False(t, ok)
	_, ok = r.LookupType(reflect.TypeOf(item{}))
	assert.False(t, ok)
}

func TestRegistryBuilder(t *testing.T) {
	r := newTestRegistry()
	desc, _ := r.Lookup(itemName)

	blank, err := desc.Streamer(nil)
	require.NoError(t, err)
	assert.IsType(t, &item{}, blank.Object())

	existing := &item{Value: 3}
	bound, err := desc.Streamer(existing)
	require.NoError(t, err)
	assert.Same(t, existing, bound.Object())

	_, err = desc.Streamer(&pair{})
	assert.ErrorIs(t, err, merr.ErrTypeMismatch)
}

func TestRegistryRejects(t *testing.T) {
	r := NewRegistry()
	bindItem := func(o *item) Streamer { return itemStreamer{o} }

	require.NoError(t, Register(r, itemName, bindItem))
	assert.ErrorIs(t, Register(r, itemName, bindItem), merr.ErrTypeDuplicated)
	assert.ErrorIs(t, Register(r, "test.item2", bindItem), merr.ErrTypeDuplicated)
	assert.ErrorIs(t, Register(r, "", bindItem), merr.ErrParameterMissing)
	assert.ErrorIs(t, Register[item](r, "test.nobind", nil), merr.ErrParameterMissing)
	assert.ErrorIs(t, Register(r, "test.empty", func(o *empty) Streamer { return nil }), merr.ErrEntityInvalid)
	assert.ErrorIs(t, r.Register("test.value", reflect.TypeOf(item{}), func(Serializable) (Streamer, error) { return nil, nil }), merr.ErrTypeInvalid)
	assert.ErrorIs(t, r.Register("test.nobuilder", reflect.TypeOf(&pair{}), nil), merr.ErrParameterMissing)
	assert.Equal(t, 1, r.Len())

	assert.Panics(t, func() {
		MustRegister(r, itemName, bindItem)
	})
}

func TestRegistryNilStreamer(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, Register(r, pairName, func(o *pair) Streamer { return nil }))
	desc, _ := r.Lookup(pairName)
	_, err := desc.Streamer(nil)
	assert.ErrorIs(t, err, merr.ErrTypeInvalid)
}

func TestRegistryConcurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = Register(r, itemName, func(o *item) Streamer { return itemStreamer{o} })
			_, _ = r.Lookup(itemName)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, r.Len())
}

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, Default(), Default())
}
