package classfile

type FieldInfo struct {
	AccessFlags     FieldAccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo

	name       string
	descriptor string
}

func (f *FieldInfo) Name() string       { return f.name }
func (f *FieldInfo) Descriptor() string { return f.descriptor }

func (f *FieldInfo) GetAttribute(name string) *AttributeInfo {
	return findAttribute(f.Attributes, name)
}

// ConstantValue returns the constant-pool index of the field's initial value,
// or 0.
func (f *FieldInfo) ConstantValue() uint16 {
	if attr := f.GetAttribute("ConstantValue"); attr != nil {
		if cv := attr.AsConstantValue(); cv != nil {
			return cv.ConstantValueIndex
		}
	}
	return 0
}

func (f *FieldInfo) IsStatic() bool { return f.AccessFlags.IsStatic() }

func (f *FieldInfo) ParsedDescriptor() (*FieldType, error) {
	return ParseFieldDescriptor(f.descriptor)
}
