// Package classfile reads and writes the binary class-file format.
package classfile

type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  ClassAccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []FieldInfo
	Methods      []MethodInfo
	Attributes   []AttributeInfo

	name           string
	superName      string
	interfaceNames []string
}

// ClassName is the internal name, e.g. java/lang/Object.
func (cf *ClassFile) ClassName() string {
	return cf.name
}

// SuperClassName is empty only for java/lang/Object.
func (cf *ClassFile) SuperClassName() string {
	return cf.superName
}

func (cf *ClassFile) InterfaceNames() []string {
	return cf.interfaceNames
}

func (cf *ClassFile) IsInterface() bool {
	return cf.AccessFlags.IsInterface() && !cf.AccessFlags.IsAnnotation()
}

// GetField returns the first field with the given name and descriptor; an
// empty descriptor matches any.
func (cf *ClassFile) GetField(name, descriptor string) *FieldInfo {
	for i := range cf.Fields {
		f := &cf.Fields[i]
		if f.name == name && (descriptor == "" || f.descriptor == descriptor) {
			return f
		}
	}
	return nil
}

// GetMethod returns the first method with the given name and descriptor; an
// empty descriptor matches any.
func (cf *ClassFile) GetMethod(name, descriptor string) *MethodInfo {
	for i := range cf.Methods {
		m := &cf.Methods[i]
		if m.name == name && (descriptor == "" || m.descriptor == descriptor) {
			return m
		}
	}
	return nil
}

func (cf *ClassFile) GetAttribute(name string) *AttributeInfo {
	return findAttribute(cf.Attributes, name)
}

func (cf *ClassFile) SourceFile() string {
	attr := cf.GetAttribute("SourceFile")
	if attr == nil || len(attr.Info) != 2 {
		return ""
	}
	name, err := cf.ConstantPool.GetUtf8(uint16(attr.Info[0])<<8 | uint16(attr.Info[1]))
	if err != nil {
		return ""
	}
	return name
}
