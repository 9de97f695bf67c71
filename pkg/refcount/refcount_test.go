package refcount

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/objgraph-go/pkg/util/merr"
)

type node struct {
	Object
	name      string
	child     Ptr[*node]
	destroyed int
}

func (n *node) Destroy() {
	n.destroyed++
	n.child.Reset()
}

func (n *node) MakeCopy() any {
	if n.name == "" {
		return nil
	}
	cp := &node{name: n.name}
	cp.child = n.child.Clone()
	return cp
}

type plain struct {
	Object
}

type RefCountSuite struct {
	suite.Suite
}

func (s *RefCountSuite) TestRetainRelease() {
	n := &node{}
	s.Equal(int32(0), n.Uses())

	Retain(n)
	Retain(n)
	s.Equal(int32(2), n.Uses())

	Release(n)
	s.Equal(0, n.destroyed)
	Release(n)
	s.Equal(1, n.destroyed)
	s.Equal(int32(0), n.Uses())

	// 计数不会变为负数。
	s.True(n.Release())
	s.Equal(int32(0), n.Uses())

	var nilNode *node
	s.Nil(Retain(nilNode))
	Release(nilNode)
}

func (s *RefCountSuite) TestPtrOwnership() {
	leaf := &node{name: "leaf"}
	root := &node{name: "root"}
	root.child.Set(leaf)
	s.Equal(int32(1), leaf.Uses())

	other := root.child.Clone()
	s.Equal(int32(2), leaf.Uses())
	s.Same(leaf, other.Get())

	other.Reset()
	s.True(other.IsNil())
	s.Equal(int32(1), leaf.Uses())

	// 重复 Set 同一实体不会提前销毁。
	root.child.Set(leaf)
	s.Equal(int32(1), leaf.Uses())
	s.Equal(0, leaf.destroyed)

	p := NewPtr(root)
	p.Reset()
	s.Equal(1, root.destroyed)
	s.Equal(1, leaf.destroyed)
	s.True(root.child.IsNil())
}

func (s *RefCountSuite) TestPtrSetNil() {
	leaf := &node{}
	p := NewPtr(leaf)
	p.Set(nil)
	s.True(p.IsNil())
	s.Nil(p.Get())
	s.Equal(1, leaf.destroyed)
}

func (s *RefCountSuite) TestCopy() {
	leaf := &node{name: "leaf"}
	root := &node{name: "root"}
	root.child.Set(leaf)

	cp, err := Copy(root)
	s.NoError(err)
	s.NotSame(root, cp)
	s.Equal("root", cp.name)
	s.Same(leaf, cp.child.Get())
	s.Equal(int32(2), leaf.Uses())

	_, err = Copy(&node{})
	s.ErrorIs(err, merr.ErrCopyUnsupported)

	_, err = Copy(&plain{})
	s.ErrorIs(err, merr.ErrCopyUnsupported)

	var nilNode *node
	_, err = Copy(nilNode)
	s.ErrorIs(err, merr.ErrCopyUnsupported)
}

func (s *RefCountSuite) TestConcurrentRetain() {
	n := &node{}
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Retain(n)
		}()
	}
	wg.Wait()
	s.Equal(int32(64), n.Uses())
	for i := 0; i < 64; i++ {
		Release(n)
	}
	s.Equal(1, n.destroyed)
}

func TestRefCount(t *testing.T) {
	suite.Run(t, new(RefCountSuite))
}
