package activity

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Constructor builds a fresh activity instance for one transition. A new
// instance is constructed per start; instances are never reused.
type Constructor func() Activity

// Registry maps activity ids to their static descriptor and constructor.
// Descriptors can be (re)loaded from YAML files without re-registering
// constructors, which is what the hot-reload watcher leans on.
type Registry struct {
	mu    sync.RWMutex
	log   zerolog.Logger
	descs map[string]Descriptor
	ctors map[string]Constructor
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		log:   log,
		descs: map[string]Descriptor{},
		ctors: map[string]Constructor{},
	}
}

// Register binds an id to a descriptor and constructor.
func (r *Registry) Register(id string, desc Descriptor, ctor Constructor) {
	if id == "" || ctor == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if desc.Name == "" {
		desc.Name = id
	}
	r.descs[id] = desc
	r.ctors[id] = ctor
}

// Resolve returns the descriptor and constructor for id.
func (r *Registry) Resolve(id string) (Descriptor, Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctors[id]
	if !ok {
		return Descriptor{}, nil, false
	}
	return r.descs[id], ctor, true
}

// Descriptor returns the stored static configuration for id.
func (r *Registry) Descriptor(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descs[id]
	return d, ok
}

// LoadDescriptors parses every .yaml/.yml file under dir in fsys and
// installs the descriptors it finds, keyed by their name field (file
// basename when absent). Constructors are left untouched.
func (r *Registry) LoadDescriptors(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("registry: read %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !isDescriptorFile(e.Name()) {
			continue
		}
		path := filepath.ToSlash(filepath.Join(dir, e.Name()))
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			r.log.Warn().Err(err).Str("file", path).Msg("registry: read descriptor failed")
			continue
		}
		if err := r.installDescriptor(e.Name(), data); err != nil {
			r.log.Warn().Err(err).Str("file", path).Msg("registry: bad descriptor")
		}
	}
	return nil
}

// Reload re-parses one descriptor file, typically on a watcher event.
func (r *Registry) Reload(name string, data []byte) error {
	return r.installDescriptor(name, data)
}

func (r *Registry) installDescriptor(filename string, data []byte) error {
	var desc Descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return fmt.Errorf("registry: unmarshal %s: %w", filename, err)
	}
	if desc.Name == "" {
		base := filepath.Base(filename)
		desc.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descs[desc.Name] = desc
	return nil
}

func isDescriptorFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
