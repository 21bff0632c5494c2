package vm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dhamidi/jedy/bytecode"
	"github.com/dhamidi/jedy/classfile"
	"github.com/dhamidi/jedy/fault"
)

// ClassLoader supplies parsed class files by internal name. A loader that
// has no such class returns an error wrapping fault.ErrClassNotFound.
type ClassLoader interface {
	LoadClass(name string) (*classfile.ClassFile, error)
}

// MemoryLoader serves classes from in-memory class-file bytes keyed by
// internal name.
type MemoryLoader map[string][]byte

// Add parses data to learn its class name and stores it.
func (m MemoryLoader) Add(data []byte) error {
	cf, err := classfile.ParseBytes(data)
	if err != nil {
		return err
	}
	m[cf.ClassName()] = data
	return nil
}

func (m MemoryLoader) LoadClass(name string) (*classfile.ClassFile, error) {
	data, ok := m[name]
	if !ok {
		return nil, fault.New(fault.Resolution, fault.ErrClassNotFound, "%s", name)
	}
	return classfile.ParseBytes(data)
}

// MethodArea maps class names to linked classes. Entries are added lazily
// and never evicted.
type MethodArea struct {
	loader ClassLoader

	mu      sync.RWMutex
	classes map[string]*Class
}

func NewMethodArea(loader ClassLoader) *MethodArea {
	return &MethodArea{
		loader:  loader,
		classes: make(map[string]*Class),
	}
}

// Lookup returns an already loaded class.
func (ma *MethodArea) Lookup(name string) (*Class, bool) {
	ma.mu.RLock()
	defer ma.mu.RUnlock()
	c, ok := ma.classes[name]
	return c, ok
}

// Len is the number of loaded classes.
func (ma *MethodArea) Len() int {
	ma.mu.RLock()
	defer ma.mu.RUnlock()
	return len(ma.classes)
}

// EnsureLoaded returns the class named name, loading and linking it and its
// superclasses on first use.
func (ma *MethodArea) EnsureLoaded(name string) (*Class, error) {
	return ma.ensureLoaded(name, nil)
}

func (ma *MethodArea) ensureLoaded(name string, pending map[string]bool) (*Class, error) {
	if c, ok := ma.Lookup(name); ok {
		return c, nil
	}
	if pending[name] {
		return nil, fault.New(fault.Resolution, fault.ErrClassCircularity, "%s is its own superclass", name)
	}

	cf, err := ma.load(name)
	if err != nil {
		return nil, err
	}

	var super *Class
	if superName := cf.SuperClassName(); superName != "" {
		if pending == nil {
			pending = make(map[string]bool)
		}
		pending[name] = true
		super, err = ma.ensureLoaded(superName, pending)
		if err != nil {
			return nil, fmt.Errorf("loading superclass of %s: %w", name, err)
		}
	}

	c, err := link(cf, super)
	if err != nil {
		return nil, fmt.Errorf("linking %s: %w", name, err)
	}

	ma.mu.Lock()
	defer ma.mu.Unlock()
	if existing, ok := ma.classes[name]; ok {
		return existing, nil
	}
	ma.classes[name] = c
	log.Debugf("loaded %s (%d instance fields, %d statics)", name, c.InstanceFieldCount(), len(c.statics))
	return c, nil
}

func (ma *MethodArea) load(name string) (*classfile.ClassFile, error) {
	var cf *classfile.ClassFile
	var err error
	if ma.loader != nil {
		cf, err = ma.loader.LoadClass(name)
	} else {
		err = fault.New(fault.Resolution, fault.ErrClassNotFound, "%s", name)
	}
	if err == nil {
		if cf.ClassName() != name {
			return nil, fault.New(fault.Resolution, fault.ErrClassNotFound, "%s: loader returned %s", name, cf.ClassName())
		}
		return cf, nil
	}
	if name == "java/lang/Object" && errors.Is(err, fault.ErrClassNotFound) {
		return builtinObject()
	}
	if errors.Is(err, fault.ErrClassNotFound) {
		return nil, err
	}
	return nil, fmt.Errorf("loading %s: %w", name, err)
}

// builtinObject stands in for java/lang/Object when no class path provides
// one: a no-op constructor plus the natives DefaultNatives implements.
func builtinObject() (*classfile.ClassFile, error) {
	return classfile.NewBuilder("java/lang/Object", "", classfile.AccPublic|classfile.AccSuper).
		Method(classfile.AccPublic, "<init>", "()V", 0, 1, []byte{byte(bytecode.Return)}).
		Method(classfile.AccPublic|classfile.AccNative, "hashCode", "()I", 0, 0, nil).
		Method(classfile.AccPublic|classfile.AccFinal|classfile.AccNative, "getClass", "()Ljava/lang/Class;", 0, 0, nil).
		Build()
}
