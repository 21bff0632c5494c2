package classfile

import (
	"github.com/dhamidi/jedy/fault"
)

type ConstantPoolEntry interface {
	Tag() ConstantTag
}

type ConstantUtf8Info struct {
	Value string
	// Raw is the encoded payload as read. Lone surrogates do not survive
	// decoding into Value, so Write emits Raw while it still decodes to Value.
	Raw []byte
}

// encoded returns the modified UTF-8 bytes to write for c.
func (c *ConstantUtf8Info) encoded() []byte {
	if c.Raw != nil && decodeModifiedUtf8(c.Raw) == c.Value {
		return c.Raw
	}
	return encodeModifiedUtf8(c.Value)
}

func (c *ConstantUtf8Info) Tag() ConstantTag { return ConstantUtf8 }

type ConstantIntegerInfo struct {
	Value int32
}

func (c *ConstantIntegerInfo) Tag() ConstantTag { return ConstantInteger }

type ConstantFloatInfo struct {
	Value float32
}

func (c *ConstantFloatInfo) Tag() ConstantTag { return ConstantFloat }

type ConstantLongInfo struct {
	Value int64
}

func (c *ConstantLongInfo) Tag() ConstantTag { return ConstantLong }

type ConstantDoubleInfo struct {
	Value float64
}

func (c *ConstantDoubleInfo) Tag() ConstantTag { return ConstantDouble }

type ConstantClassInfo struct {
	NameIndex uint16
}

func (c *ConstantClassInfo) Tag() ConstantTag { return ConstantClass }

type ConstantStringInfo struct {
	StringIndex uint16
}

func (c *ConstantStringInfo) Tag() ConstantTag { return ConstantString }

type ConstantFieldrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantFieldrefInfo) Tag() ConstantTag { return ConstantFieldref }

type ConstantMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantMethodrefInfo) Tag() ConstantTag { return ConstantMethodref }

type ConstantInterfaceMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantInterfaceMethodrefInfo) Tag() ConstantTag { return ConstantInterfaceMethodref }

type ConstantNameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndTypeInfo) Tag() ConstantTag { return ConstantNameAndType }

type ConstantMethodHandleInfo struct {
	ReferenceKind  MethodHandleKind
	ReferenceIndex uint16
}

func (c *ConstantMethodHandleInfo) Tag() ConstantTag { return ConstantMethodHandle }

type ConstantMethodTypeInfo struct {
	DescriptorIndex uint16
}

func (c *ConstantMethodTypeInfo) Tag() ConstantTag { return ConstantMethodType }

type ConstantDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantDynamicInfo) Tag() ConstantTag { return ConstantDynamic }

type ConstantInvokeDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantInvokeDynamicInfo) Tag() ConstantTag { return ConstantInvokeDynamic }

type ConstantModuleInfo struct {
	NameIndex uint16
}

func (c *ConstantModuleInfo) Tag() ConstantTag { return ConstantModule }

type ConstantPackageInfo struct {
	NameIndex uint16
}

func (c *ConstantPackageInfo) Tag() ConstantTag { return ConstantPackage }

// ConstantPool is indexed exactly like the class file: entry 0 is always
// nil, len(cp) is the constant_pool_count, and the slot following a Long or
// Double is nil.
type ConstantPool []ConstantPoolEntry

func (cp ConstantPool) Count() int {
	return len(cp)
}

// Usable reports whether index names a real entry.
func (cp ConstantPool) Usable(index uint16) bool {
	return index != 0 && int(index) < len(cp) && cp[index] != nil
}

func (cp ConstantPool) Entry(index uint16) (ConstantPoolEntry, error) {
	if index == 0 || int(index) >= len(cp) {
		return nil, fault.New(fault.Index, fault.ErrInvalidConstantIndex, "#%d outside [1, %d)", index, len(cp))
	}
	if cp[index] == nil {
		return nil, fault.New(fault.Index, fault.ErrInvalidConstantIndex, "#%d is the unusable slot after a long or double", index)
	}
	return cp[index], nil
}

func entryAs[T ConstantPoolEntry](cp ConstantPool, index uint16, want ConstantTag) (T, error) {
	var zero T
	entry, err := cp.Entry(index)
	if err != nil {
		return zero, err
	}
	typed, ok := entry.(T)
	if !ok {
		return zero, fault.New(fault.TypeMismatch, fault.ErrTypeMismatch, "#%d is %s, want %s", index, entry.Tag(), want)
	}
	return typed, nil
}

func (cp ConstantPool) GetUtf8(index uint16) (string, error) {
	entry, err := entryAs[*ConstantUtf8Info](cp, index, ConstantUtf8)
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

func (cp ConstantPool) GetClassName(index uint16) (string, error) {
	entry, err := entryAs[*ConstantClassInfo](cp, index, ConstantClass)
	if err != nil {
		return "", err
	}
	return cp.GetUtf8(entry.NameIndex)
}

func (cp ConstantPool) GetNameAndType(index uint16) (name, descriptor string, err error) {
	entry, err := entryAs[*ConstantNameAndTypeInfo](cp, index, ConstantNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = cp.GetUtf8(entry.NameIndex); err != nil {
		return "", "", err
	}
	if descriptor, err = cp.GetUtf8(entry.DescriptorIndex); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

func (cp ConstantPool) GetString(index uint16) (string, error) {
	entry, err := entryAs[*ConstantStringInfo](cp, index, ConstantString)
	if err != nil {
		return "", err
	}
	return cp.GetUtf8(entry.StringIndex)
}

func (cp ConstantPool) GetInteger(index uint16) (int32, error) {
	entry, err := entryAs[*ConstantIntegerInfo](cp, index, ConstantInteger)
	if err != nil {
		return 0, err
	}
	return entry.Value, nil
}

func (cp ConstantPool) GetFloat(index uint16) (float32, error) {
	entry, err := entryAs[*ConstantFloatInfo](cp, index, ConstantFloat)
	if err != nil {
		return 0, err
	}
	return entry.Value, nil
}

func (cp ConstantPool) GetLong(index uint16) (int64, error) {
	entry, err := entryAs[*ConstantLongInfo](cp, index, ConstantLong)
	if err != nil {
		return 0, err
	}
	return entry.Value, nil
}

func (cp ConstantPool) GetDouble(index uint16) (float64, error) {
	entry, err := entryAs[*ConstantDoubleInfo](cp, index, ConstantDouble)
	if err != nil {
		return 0, err
	}
	return entry.Value, nil
}

// MemberRef is a resolved symbolic reference to a field or method.
type MemberRef struct {
	Class      string
	Name       string
	Descriptor string
}

func (r MemberRef) String() string {
	return r.Class + "." + r.Name + r.Descriptor
}

func (cp ConstantPool) memberRef(classIndex, natIndex uint16) (MemberRef, error) {
	var ref MemberRef
	var err error
	if ref.Class, err = cp.GetClassName(classIndex); err != nil {
		return MemberRef{}, err
	}
	if ref.Name, ref.Descriptor, err = cp.GetNameAndType(natIndex); err != nil {
		return MemberRef{}, err
	}
	return ref, nil
}

func (cp ConstantPool) GetFieldref(index uint16) (MemberRef, error) {
	entry, err := entryAs[*ConstantFieldrefInfo](cp, index, ConstantFieldref)
	if err != nil {
		return MemberRef{}, err
	}
	return cp.memberRef(entry.ClassIndex, entry.NameAndTypeIndex)
}

func (cp ConstantPool) GetMethodref(index uint16) (MemberRef, error) {
	entry, err := entryAs[*ConstantMethodrefInfo](cp, index, ConstantMethodref)
	if err != nil {
		return MemberRef{}, err
	}
	return cp.memberRef(entry.ClassIndex, entry.NameAndTypeIndex)
}

func (cp ConstantPool) GetInterfaceMethodref(index uint16) (MemberRef, error) {
	entry, err := entryAs[*ConstantInterfaceMethodrefInfo](cp, index, ConstantInterfaceMethodref)
	if err != nil {
		return MemberRef{}, err
	}
	return cp.memberRef(entry.ClassIndex, entry.NameAndTypeIndex)
}

// GetAnyMethodref accepts either a Methodref or an InterfaceMethodref, as
// invokestatic and invokespecial do.
func (cp ConstantPool) GetAnyMethodref(index uint16) (ref MemberRef, isInterface bool, err error) {
	entry, err := cp.Entry(index)
	if err != nil {
		return MemberRef{}, false, err
	}
	switch e := entry.(type) {
	case *ConstantMethodrefInfo:
		ref, err = cp.memberRef(e.ClassIndex, e.NameAndTypeIndex)
		return ref, false, err
	case *ConstantInterfaceMethodrefInfo:
		ref, err = cp.memberRef(e.ClassIndex, e.NameAndTypeIndex)
		return ref, true, err
	default:
		return MemberRef{}, false, fault.New(fault.TypeMismatch, fault.ErrTypeMismatch, "#%d is %s, want a method reference", index, entry.Tag())
	}
}

func (cp ConstantPool) GetMethodType(index uint16) (string, error) {
	entry, err := entryAs[*ConstantMethodTypeInfo](cp, index, ConstantMethodType)
	if err != nil {
		return "", err
	}
	return cp.GetUtf8(entry.DescriptorIndex)
}

func (cp ConstantPool) GetMethodHandle(index uint16) (*ConstantMethodHandleInfo, error) {
	return entryAs[*ConstantMethodHandleInfo](cp, index, ConstantMethodHandle)
}

func (cp ConstantPool) GetInvokeDynamic(index uint16) (*ConstantInvokeDynamicInfo, error) {
	return entryAs[*ConstantInvokeDynamicInfo](cp, index, ConstantInvokeDynamic)
}
