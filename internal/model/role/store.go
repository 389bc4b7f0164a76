package role

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Store exposes the role catalog to prompt builders and the display resolver.
type Store interface {
	List() []Role
	FindByKey(key string) (Role, bool)
}

// MemoryStore implements Store with an ordered in-memory slice.
type MemoryStore struct {
	items []Role
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied roles.
func NewMemoryStore(items []Role) *MemoryStore {
	return &MemoryStore{items: append([]Role(nil), items...)}
}

// List returns the catalog in priority order.
func (s *MemoryStore) List() []Role {
	return append([]Role(nil), s.items...)
}

// FindByKey looks up a role by its exact key.
func (s *MemoryStore) FindByKey(key string) (Role, bool) {
	for _, item := range s.items {
		if item.Key == key {
			return item, true
		}
	}
	return Role{}, false
}

type catalogFile struct {
	Replace bool   `yaml:"replace"`
	Roles   []Role `yaml:"roles"`
}

// LoadFile reads a YAML catalog. Roles whose key already exists in base are
// overridden field by field; new keys are appended. With replace: true the
// file's roles are used as-is.
func LoadFile(path string, base []Role) ([]Role, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role catalog: %w", err)
	}
	return Merge(data, base)
}

// Merge applies a YAML catalog document on top of base.
func Merge(data []byte, base []Role) ([]Role, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse role catalog: %w", err)
	}
	for i, r := range file.Roles {
		if r.Key == "" {
			return nil, fmt.Errorf("role catalog entry %d has no key", i)
		}
	}
	if file.Replace {
		return file.Roles, nil
	}

	merged := append([]Role(nil), base...)
	index := make(map[string]int, len(merged))
	for i, r := range merged {
		index[r.Key] = i
	}
	for _, r := range file.Roles {
		i, ok := index[r.Key]
		if !ok {
			index[r.Key] = len(merged)
			merged = append(merged, r)
			continue
		}
		cur := &merged[i]
		if r.Description != "" {
			cur.Description = r.Description
		}
		if r.Instruction != "" {
			cur.Instruction = r.Instruction
		}
		if r.Icon != "" {
			cur.Icon = r.Icon
		}
		if r.ShortLabel != "" {
			cur.ShortLabel = r.ShortLabel
		}
	}
	return merged, nil
}
