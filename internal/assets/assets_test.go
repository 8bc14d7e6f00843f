package assets

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestLoadPriority(t *testing.T) {
	m := NewManager()
	m.AddFS(fstest.MapFS{
		"model.mshz":  {Data: []byte("base")},
		"only/a.mshz": {Data: []byte("a")},
	})
	m.AddFS(fstest.MapFS{
		"model.mshz": {Data: []byte("override")},
	})

	tests := []struct {
		name string
		want string
	}{
		{"model.mshz", "override"},
		{"only/a.mshz", "a"},
		{"./only/../model.mshz", "override"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := m.Load(tt.name)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Load = %q, want %q", data, tt.want)
			}
		})
	}
}

func TestLoadNotFound(t *testing.T) {
	m := NewManager()
	m.AddFS(fstest.MapFS{})
	_, err := m.Load("missing.mshz")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load error = %v, want ErrNotFound", err)
	}
}

func TestLoadCaches(t *testing.T) {
	fsys := fstest.MapFS{"m.mshz": {Data: []byte("v1")}}
	m := NewManager()
	m.AddFS(fsys)

	if _, err := m.Load("m.mshz"); err != nil {
		t.Fatal(err)
	}
	fsys["m.mshz"] = &fstest.MapFile{Data: []byte("v2")}
	data, err := m.Load("m.mshz")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v1" {
		t.Errorf("second Load = %q, want cached v1", data)
	}

	hits, misses := m.cache.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Stats = %d hits, %d misses; want 1, 1", hits, misses)
	}

	m.Close()
	if _, err := m.Load("m.mshz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after Close = %v, want ErrNotFound", err)
	}
}

func TestAddDirMissing(t *testing.T) {
	m := NewManager()
	if err := m.AddDir(t.TempDir() + "/nope"); err == nil {
		t.Error("AddDir on a missing path succeeded")
	}
}
