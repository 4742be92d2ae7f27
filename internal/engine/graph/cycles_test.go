package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"classfinder/internal/engine/classfile/classfiletest"
)

func cycleSource(t *testing.T) *fakeSource {
	return newFakeSource(t,
		classfiletest.New("com/x/A").Field("b", "Lcom/x/B;"),
		classfiletest.New("com/x/B").Field("c", "Lcom/x/C;"),
		classfiletest.New("com/x/C").MethodRef("com/x/A", "run", "()V"),
		classfiletest.New("com/x/D").Field("a", "Lcom/x/A;"),
		classfiletest.New("org/y/E").Field("d", "Lcom/x/D;"),
	)
}

func TestCycles(t *testing.T) {
	src := cycleSource(t)
	assert.Equal(t, [][]string{{"com.x.A", "com.x.B", "com.x.C"}}, Cycles(src, ""))
	assert.Equal(t, [][]string{{"com.x.A", "com.x.B", "com.x.C"}}, Cycles(src, "com.x"))
	assert.Empty(t, Cycles(src, "org.y"))
}

func TestCycles_SelfReferenceIgnored(t *testing.T) {
	src := newFakeSource(t, classfiletest.New("com/x/Self").Field("me", "Lcom/x/Self;"))
	assert.Empty(t, Cycles(src, ""))
}

func TestCycles_DeepChain(t *testing.T) {
	const count = 3000
	var classes []*classfiletest.Builder
	for i := 0; i < count; i++ {
		next := fmt.Sprintf("com/x/N%05d", (i+1)%count)
		classes = append(classes, classfiletest.New(fmt.Sprintf("com/x/N%05d", i)).Field("next", "L"+next+";"))
	}
	cycles := Cycles(newFakeSource(t, classes...), "")
	if assert.Len(t, cycles, 1) {
		assert.Len(t, cycles[0], count)
		assert.Equal(t, "com.x.N00000", cycles[0][0])
		assert.Equal(t, "com.x.N02999", cycles[0][count-1])
	}
}

func TestDependencyPath(t *testing.T) {
	src := cycleSource(t)

	path, ok := DependencyPath(src, "org.y.E", "com.x.C")
	assert.True(t, ok)
	assert.Equal(t, []string{"org.y.E", "com.x.D", "com.x.A", "com.x.B", "com.x.C"}, path)

	path, ok = DependencyPath(src, "com.x.A", "java.lang.Object")
	assert.True(t, ok)
	assert.Equal(t, []string{"com.x.A", "java.lang.Object"}, path)

	path, ok = DependencyPath(src, "com.x.B", "com.x.B")
	assert.True(t, ok)
	assert.Equal(t, []string{"com.x.B"}, path)

	_, ok = DependencyPath(src, "com.x.C", "org.y.E")
	assert.False(t, ok)
	_, ok = DependencyPath(src, "com.x.Nope", "com.x.A")
	assert.False(t, ok)
}
