package classfile

import (
	"fmt"
	"strings"
)

const (
	Magic = 0xCAFEBABE
)

const (
	AccPublic       = 0x0001
	AccPrivate      = 0x0002
	AccProtected    = 0x0004
	AccStatic       = 0x0008
	AccFinal        = 0x0010
	AccSuper        = 0x0020
	AccSynchronized = 0x0020
	AccVolatile     = 0x0040
	AccBridge       = 0x0040
	AccTransient    = 0x0080
	AccVarargs      = 0x0080
	AccNative       = 0x0100
	AccInterface    = 0x0200
	AccAbstract     = 0x0400
	AccStrict       = 0x0800
	AccSynthetic    = 0x1000
	AccAnnotation   = 0x2000
	AccEnum         = 0x4000
	AccModule       = 0x8000
)

type flagName struct {
	bit  uint16
	name string
}

func flagNames(v uint16, table []flagName) []string {
	var names []string
	for _, f := range table {
		if v&f.bit != 0 {
			names = append(names, f.name)
		}
	}
	return names
}

// ClassAccessFlags are the access_flags of a ClassFile.
type ClassAccessFlags uint16

var classFlagNames = []flagName{
	{AccPublic, "public"},
	{AccFinal, "final"},
	{AccSuper, "super"},
	{AccInterface, "interface"},
	{AccAbstract, "abstract"},
	{AccSynthetic, "synthetic"},
	{AccAnnotation, "annotation"},
	{AccEnum, "enum"},
	{AccModule, "module"},
}

func (f ClassAccessFlags) IsPublic() bool     { return f&AccPublic != 0 }
func (f ClassAccessFlags) IsFinal() bool      { return f&AccFinal != 0 }
func (f ClassAccessFlags) IsSuper() bool      { return f&AccSuper != 0 }
func (f ClassAccessFlags) IsInterface() bool  { return f&AccInterface != 0 }
func (f ClassAccessFlags) IsAbstract() bool   { return f&AccAbstract != 0 }
func (f ClassAccessFlags) IsSynthetic() bool  { return f&AccSynthetic != 0 }
func (f ClassAccessFlags) IsAnnotation() bool { return f&AccAnnotation != 0 }
func (f ClassAccessFlags) IsEnum() bool       { return f&AccEnum != 0 }
func (f ClassAccessFlags) IsModule() bool     { return f&AccModule != 0 }
func (f ClassAccessFlags) Names() []string    { return flagNames(uint16(f), classFlagNames) }
func (f ClassAccessFlags) String() string     { return strings.Join(f.Names(), " ") }

// FieldAccessFlags are the access_flags of a field_info.
type FieldAccessFlags uint16

var fieldFlagNames = []flagName{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccVolatile, "volatile"},
	{AccTransient, "transient"},
	{AccSynthetic, "synthetic"},
	{AccEnum, "enum"},
}

func (f FieldAccessFlags) IsPublic() bool    { return f&AccPublic != 0 }
func (f FieldAccessFlags) IsPrivate() bool   { return f&AccPrivate != 0 }
func (f FieldAccessFlags) IsProtected() bool { return f&AccProtected != 0 }
func (f FieldAccessFlags) IsStatic() bool    { return f&AccStatic != 0 }
func (f FieldAccessFlags) IsFinal() bool     { return f&AccFinal != 0 }
func (f FieldAccessFlags) IsVolatile() bool  { return f&AccVolatile != 0 }
func (f FieldAccessFlags) IsTransient() bool { return f&AccTransient != 0 }
func (f FieldAccessFlags) IsSynthetic() bool { return f&AccSynthetic != 0 }
func (f FieldAccessFlags) IsEnum() bool      { return f&AccEnum != 0 }
func (f FieldAccessFlags) Names() []string   { return flagNames(uint16(f), fieldFlagNames) }
func (f FieldAccessFlags) String() string    { return strings.Join(f.Names(), " ") }

// MethodAccessFlags are the access_flags of a method_info.
type MethodAccessFlags uint16

var methodFlagNames = []flagName{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccSynchronized, "synchronized"},
	{AccBridge, "bridge"},
	{AccVarargs, "varargs"},
	{AccNative, "native"},
	{AccAbstract, "abstract"},
	{AccStrict, "strict"},
	{AccSynthetic, "synthetic"},
}

func (f MethodAccessFlags) IsPublic() bool       { return f&AccPublic != 0 }
func (f MethodAccessFlags) IsPrivate() bool      { return f&AccPrivate != 0 }
func (f MethodAccessFlags) IsProtected() bool    { return f&AccProtected != 0 }
func (f MethodAccessFlags) IsStatic() bool       { return f&AccStatic != 0 }
func (f MethodAccessFlags) IsFinal() bool        { return f&AccFinal != 0 }
func (f MethodAccessFlags) IsSynchronized() bool { return f&AccSynchronized != 0 }
func (f MethodAccessFlags) IsBridge() bool       { return f&AccBridge != 0 }
func (f MethodAccessFlags) IsVarargs() bool      { return f&AccVarargs != 0 }
func (f MethodAccessFlags) IsNative() bool       { return f&AccNative != 0 }
func (f MethodAccessFlags) IsAbstract() bool     { return f&AccAbstract != 0 }
func (f MethodAccessFlags) IsStrict() bool       { return f&AccStrict != 0 }
func (f MethodAccessFlags) IsSynthetic() bool    { return f&AccSynthetic != 0 }
func (f MethodAccessFlags) Names() []string      { return flagNames(uint16(f), methodFlagNames) }
func (f MethodAccessFlags) String() string       { return strings.Join(f.Names(), " ") }

type ConstantTag uint8

const (
	ConstantUtf8               ConstantTag = 1
	ConstantInteger            ConstantTag = 3
	ConstantFloat              ConstantTag = 4
	ConstantLong               ConstantTag = 5
	ConstantDouble             ConstantTag = 6
	ConstantClass              ConstantTag = 7
	ConstantString             ConstantTag = 8
	ConstantFieldref           ConstantTag = 9
	ConstantMethodref          ConstantTag = 10
	ConstantInterfaceMethodref ConstantTag = 11
	ConstantNameAndType        ConstantTag = 12
	ConstantMethodHandle       ConstantTag = 15
	ConstantMethodType         ConstantTag = 16
	ConstantDynamic            ConstantTag = 17
	ConstantInvokeDynamic      ConstantTag = 18
	ConstantModule             ConstantTag = 19
	ConstantPackage            ConstantTag = 20
)

var constantTagNames = map[ConstantTag]string{
	ConstantUtf8:               "Utf8",
	ConstantInteger:            "Integer",
	ConstantFloat:              "Float",
	ConstantLong:               "Long",
	ConstantDouble:             "Double",
	ConstantClass:              "Class",
	ConstantString:             "String",
	ConstantFieldref:           "Fieldref",
	ConstantMethodref:          "Methodref",
	ConstantInterfaceMethodref: "InterfaceMethodref",
	ConstantNameAndType:        "NameAndType",
	ConstantMethodHandle:       "MethodHandle",
	ConstantMethodType:         "MethodType",
	ConstantDynamic:            "Dynamic",
	ConstantInvokeDynamic:      "InvokeDynamic",
	ConstantModule:             "Module",
	ConstantPackage:            "Package",
}

func (t ConstantTag) String() string {
	if name, ok := constantTagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

type MethodHandleKind uint8

const (
	RefGetField         MethodHandleKind = 1
	RefGetStatic        MethodHandleKind = 2
	RefPutField         MethodHandleKind = 3
	RefPutStatic        MethodHandleKind = 4
	RefInvokeVirtual    MethodHandleKind = 5
	RefInvokeStatic     MethodHandleKind = 6
	RefInvokeSpecial    MethodHandleKind = 7
	RefNewInvokeSpecial MethodHandleKind = 8
	RefInvokeInterface  MethodHandleKind = 9
)
