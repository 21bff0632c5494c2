package vm

import (
	"sync"
	"sync/atomic"

	"github.com/dhamidi/jedy/classfile"
	"github.com/dhamidi/jedy/fault"
)

// FieldKey identifies a field by its declaring class, so a subclass field
// never aliases a superclass field of the same name.
type FieldKey struct {
	Class      string
	Name       string
	Descriptor string
}

// Class is a parsed class linked to its superclass, with its field-slot
// tables computed. It is immutable once defined except for static storage.
type Class struct {
	Name  string
	File  *classfile.ClassFile
	Super *Class

	instanceSlots    map[FieldKey]int
	instanceDefaults []Value

	staticMu    sync.RWMutex
	staticSlots map[FieldKey]int
	statics     []Value

	initStarted atomic.Bool
}

func link(cf *classfile.ClassFile, super *Class) (*Class, error) {
	c := &Class{
		Name:          cf.ClassName(),
		File:          cf,
		Super:         super,
		instanceSlots: make(map[FieldKey]int),
		staticSlots:   make(map[FieldKey]int),
	}

	if super != nil {
		for key, slot := range super.instanceSlots {
			c.instanceSlots[key] = slot
		}
		c.instanceDefaults = append(c.instanceDefaults, super.instanceDefaults...)
	}

	for i := range cf.Fields {
		f := &cf.Fields[i]
		key := FieldKey{Class: c.Name, Name: f.Name(), Descriptor: f.Descriptor()}
		if f.IsStatic() {
			v, err := staticInitialValue(cf, f)
			if err != nil {
				return nil, err
			}
			c.staticSlots[key] = len(c.statics)
			c.statics = append(c.statics, v)
			continue
		}
		c.instanceSlots[key] = len(c.instanceDefaults)
		c.instanceDefaults = append(c.instanceDefaults, zeroValue(f.Descriptor()))
	}
	return c, nil
}

// staticInitialValue applies a ConstantValue attribute when present.
func staticInitialValue(cf *classfile.ClassFile, f *classfile.FieldInfo) (Value, error) {
	idx := f.ConstantValue()
	if idx == 0 {
		return zeroValue(f.Descriptor()), nil
	}
	cp := cf.ConstantPool
	switch kindOf(f.Descriptor()) {
	case KindInt:
		v, err := cp.GetInteger(idx)
		return IntValue(v), err
	case KindLong:
		v, err := cp.GetLong(idx)
		return LongValue(v), err
	case KindFloat:
		v, err := cp.GetFloat(idx)
		return FloatValue(v), err
	case KindDouble:
		v, err := cp.GetDouble(idx)
		return DoubleValue(v), err
	default:
		s, err := cp.GetString(idx)
		return RefValue(&String{Value: s}), err
	}
}

func (c *Class) IsInterface() bool {
	return c.File.IsInterface()
}

// IsSubclassOf reports whether other is c or one of its superclasses.
func (c *Class) IsSubclassOf(other *Class) bool {
	for cls := c; cls != nil; cls = cls.Super {
		if cls == other {
			return true
		}
	}
	return false
}

// InstanceFieldCount is the size of an instance's field array.
func (c *Class) InstanceFieldCount() int {
	return len(c.instanceDefaults)
}

func (c *Class) staticSlot(name, descriptor string) (int, error) {
	slot, ok := c.staticSlots[FieldKey{Class: c.Name, Name: name, Descriptor: descriptor}]
	if !ok {
		return 0, fault.New(fault.Resolution, fault.ErrFieldNotFound, "static %s.%s:%s", c.Name, name, descriptor)
	}
	return slot, nil
}

func (c *Class) Static(name, descriptor string) (Value, error) {
	slot, err := c.staticSlot(name, descriptor)
	if err != nil {
		return Value{}, err
	}
	c.staticMu.RLock()
	defer c.staticMu.RUnlock()
	return c.statics[slot], nil
}

func (c *Class) SetStatic(name, descriptor string, v Value) error {
	slot, err := c.staticSlot(name, descriptor)
	if err != nil {
		return err
	}
	c.staticMu.Lock()
	defer c.staticMu.Unlock()
	c.statics[slot] = v
	return nil
}

// ResolveMethod walks the superclass chain starting at c and returns the
// first declaration of name+descriptor, or nils when the chain is exhausted.
func (c *Class) ResolveMethod(name, descriptor string) (*Class, *classfile.MethodInfo) {
	for cls := c; cls != nil; cls = cls.Super {
		if m := cls.File.GetMethod(name, descriptor); m != nil {
			return cls, m
		}
	}
	return nil, nil
}
