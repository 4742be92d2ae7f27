package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"classfinder/internal/engine/classfile/classfiletest"
)

func TestClosure(t *testing.T) {
	src := newFakeSource(t,
		classfiletest.New("com/x/A").Field("b", "Lcom/x/B;"),
		classfiletest.New("com/x/B").Method("make", "()[Lcom/x/Missing;").MethodRef("com/x/A", "run", "()V"),
		classfiletest.New("com/x/Unrelated"),
	)

	found, unresolved := Closure(src, "com.x.A")
	assert.Equal(t, []string{"com.x.A", "com.x.B"}, found)
	assert.Equal(t, []string{"com.x.Missing", "java.lang.Object"}, unresolved)

	again, againUnresolved := Closure(src, "com.x.A")
	assert.Equal(t, found, again)
	assert.Equal(t, unresolved, againUnresolved)
}

func TestClosure_UnknownSeed(t *testing.T) {
	src := newFakeSource(t)
	found, unresolved := Closure(src, "com.x.Nope")
	assert.Empty(t, found)
	assert.Empty(t, unresolved)
}
