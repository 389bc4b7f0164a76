package role

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreFindByKey(t *testing.T) {
	store := NewMemoryStore(Seed())

	got, ok := store.FindByKey("相談支援専門員")
	require.True(t, ok)
	assert.NotEmpty(t, got.Instruction)

	_, ok = store.FindByKey("相談")
	assert.False(t, ok)
}

func TestMemoryStoreListIsCopy(t *testing.T) {
	store := NewMemoryStore(Seed())
	list := store.List()
	list[0].Key = "changed"

	assert.Equal(t, "就労選択支援員", store.List()[0].Key)
}

func TestMergeOverridesAndAppends(t *testing.T) {
	doc := []byte(`
roles:
  - key: 本人
    icon: "⭐"
  - key: 進行役
    description: 会議を進行する
    icon: "🎤"
    shortLabel: 進行
`)
	merged, err := Merge(doc, Seed())
	require.NoError(t, err)

	store := NewMemoryStore(merged)
	self, ok := store.FindByKey("本人")
	require.True(t, ok)
	assert.Equal(t, "⭐", self.Icon)
	assert.Equal(t, "本人", self.ShortLabel)

	last := merged[len(merged)-1]
	assert.Equal(t, "進行役", last.Key)
	assert.Len(t, merged, len(Seed())+1)
}

func TestMergeReplace(t *testing.T) {
	merged, err := Merge([]byte("replace: true\nroles:\n  - key: A\n    icon: x\n"), Seed())
	require.NoError(t, err)
	assert.Equal(t, []Role{{Key: "A", Icon: "x"}}, merged)
}

func TestMergeRejectsMissingKey(t *testing.T) {
	_, err := Merge([]byte("roles:\n  - icon: x\n"), nil)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles:\n  - key: 保護者\n    shortLabel: 家族\n"), 0o600))

	merged, err := LoadFile(path, Seed())
	require.NoError(t, err)
	parent, ok := NewMemoryStore(merged).FindByKey("保護者")
	require.True(t, ok)
	assert.Equal(t, "家族", parent.ShortLabel)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}
