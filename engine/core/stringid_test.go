package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringIDIsStable(t *testing.T) {
	paths := []string{
		"Resources/Textures/wall.png",
		"Resources/Shaders/frag.spv",
		"Resources/test.wav",
		"",
	}
	for _, p := range paths {
		assert.Equal(t, StringID(p), StringID(p), p)
	}
}

func TestStringIDCanonicalisesSpellings(t *testing.T) {
	want := StringID("Resources/Textures/wall.png")

	assert.Equal(t, want, StringID(`Resources\Textures\wall.png`))
	assert.Equal(t, want, StringID("Resources/./Textures/wall.png"))
	assert.Equal(t, want, StringID("Resources/Models/../Textures/wall.png"))
	assert.Equal(t, want, StringID("Resources//Textures/wall.png"))
	assert.NotEqual(t, want, StringID("resources/textures/wall.png"))
}

func TestStringIDHasNoCollisionsInCorpus(t *testing.T) {
	kinds := []string{"png", "jpg", "obj", "glb", "wav", "mp3", "mat", "spv", "linaimage", "linamesh", "linamat"}
	seen := make(map[StringIDType]string)

	for folder := 0; folder < 50; folder++ {
		for file := 0; file < 40; file++ {
			for _, ext := range kinds {
				p := fmt.Sprintf("Resources/folder_%02d/asset_%03d.%s", folder, file, ext)
				id := StringID(p)
				require.NotEqual(t, InvalidStringID, id, p)
				if prev, ok := seen[id]; ok {
					t.Fatalf("%q and %q share id %x", prev, p, uint64(id))
				}
				seen[id] = p
			}
		}
	}
}

func TestCanonicalPath(t *testing.T) {
	assert.Equal(t, "", CanonicalPath(""))
	assert.Equal(t, "a/b.png", CanonicalPath(`a\b.png`))
	assert.Equal(t, "a/b.png", CanonicalPath("./a/b.png"))
	assert.Equal(t, "/abs/a.png", CanonicalPath("/abs/x/../a.png"))
}

func TestDigestDependsOnContent(t *testing.T) {
	assert.Equal(t, Digest([]byte("LINA_PACKAGE_PASS_0001")), Digest([]byte("LINA_PACKAGE_PASS_0001")))
	assert.NotEqual(t, Digest([]byte("LINA_PACKAGE_PASS_0001")), Digest([]byte("LINA_PACKAGE_PASS_0002")))
}

func TestFraction(t *testing.T) {
	assert.Equal(t, float32(1), Fraction(0, 0))
	assert.Equal(t, float32(0.5), Fraction(2, 4))
	assert.Equal(t, float32(1), Fraction(5, 4))
	assert.Equal(t, float32(0), Fraction(-1, 4))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 3, Clamp(7, 0, 3))
	assert.Equal(t, 0.0, Clamp(-1.5, 0, 1))
	assert.Equal(t, "b", Clamp("b", "a", "c"))
}
