package vm

import (
	"github.com/dhamidi/jedy/classfile"
	"github.com/dhamidi/jedy/fault"
)

// ResolveInterfaceMethod tries ordinary resolution on c first, then the
// direct superinterfaces of every class in c's superclass chain. Exactly one
// of those interfaces may declare the method.
//
// This is narrower than maximally-specific selection: superinterfaces of
// interfaces are not searched, and two declaring interfaces are ambiguous
// even when one extends the other.
func (ma *MethodArea) ResolveInterfaceMethod(c *Class, name, descriptor string) (*Class, *classfile.MethodInfo, error) {
	if decl, m := c.ResolveMethod(name, descriptor); m != nil {
		return decl, m, nil
	}

	seen := make(map[string]bool)
	var found []*Class
	for cls := c; cls != nil; cls = cls.Super {
		for _, iname := range cls.File.InterfaceNames() {
			if seen[iname] {
				continue
			}
			seen[iname] = true
			iface, err := ma.EnsureLoaded(iname)
			if err != nil {
				return nil, nil, err
			}
			if iface.File.GetMethod(name, descriptor) != nil {
				found = append(found, iface)
			}
		}
	}

	switch len(found) {
	case 0:
		return nil, nil, fault.New(fault.Resolution, fault.ErrMethodNotFound, "%s.%s%s", c.Name, name, descriptor)
	case 1:
		return found[0], found[0].File.GetMethod(name, descriptor), nil
	default:
		names := make([]string, len(found))
		for i, iface := range found {
			names[i] = iface.Name
		}
		return nil, nil, fault.New(fault.Resolution, fault.ErrAmbiguousInterfaceMethod, "%s.%s%s declared by %v", c.Name, name, descriptor, names)
	}
}

// ResolveField looks in c's own fields, then its superinterfaces, then its
// superclass, and returns the declaring class.
func (ma *MethodArea) ResolveField(c *Class, name, descriptor string) (*Class, *classfile.FieldInfo, error) {
	decl, f, err := ma.resolveField(c, name, descriptor, make(map[string]bool))
	if err != nil {
		return nil, nil, err
	}
	if f == nil {
		return nil, nil, fault.New(fault.Resolution, fault.ErrFieldNotFound, "%s.%s:%s", c.Name, name, descriptor)
	}
	return decl, f, nil
}

func (ma *MethodArea) resolveField(c *Class, name, descriptor string, visited map[string]bool) (*Class, *classfile.FieldInfo, error) {
	if visited[c.Name] {
		return nil, nil, nil
	}
	visited[c.Name] = true
	if f := c.File.GetField(name, descriptor); f != nil {
		return c, f, nil
	}
	for _, iname := range c.File.InterfaceNames() {
		iface, err := ma.EnsureLoaded(iname)
		if err != nil {
			return nil, nil, err
		}
		if decl, f, err := ma.resolveField(iface, name, descriptor, visited); err != nil || f != nil {
			return decl, f, err
		}
	}
	if c.Super != nil {
		return ma.resolveField(c.Super, name, descriptor, visited)
	}
	return nil, nil, nil
}

// IsAssignable reports whether an instance of c may be used where target is
// expected: target is c, a superclass, or an interface c implements.
func (ma *MethodArea) IsAssignable(c *Class, target string) (bool, error) {
	return ma.isAssignable(c, target, make(map[string]bool))
}

func (ma *MethodArea) isAssignable(c *Class, target string, visited map[string]bool) (bool, error) {
	for cls := c; cls != nil; cls = cls.Super {
		if cls.Name == target {
			return true, nil
		}
		if visited[cls.Name] {
			continue
		}
		visited[cls.Name] = true
		for _, iname := range cls.File.InterfaceNames() {
			iface, err := ma.EnsureLoaded(iname)
			if err != nil {
				return false, err
			}
			ok, err := ma.isAssignable(iface, target, visited)
			if ok || err != nil {
				return ok, err
			}
		}
	}
	return false, nil
}
