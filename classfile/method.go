package classfile

type MethodInfo struct {
	AccessFlags     MethodAccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo

	name                 string
	descriptor           string
	code                 *CodeAttribute
	signaturePolymorphic bool
}

func (m *MethodInfo) Name() string       { return m.name }
func (m *MethodInfo) Descriptor() string { return m.descriptor }

// Code is nil for abstract and native methods.
func (m *MethodInfo) Code() *CodeAttribute { return m.code }

// IsSignaturePolymorphic reports the JVMS 2.9.3 property: a native varargs
// method of MethodHandle or VarHandle taking a single Object[].
func (m *MethodInfo) IsSignaturePolymorphic() bool { return m.signaturePolymorphic }

func (m *MethodInfo) GetAttribute(name string) *AttributeInfo {
	return findAttribute(m.Attributes, name)
}

func (m *MethodInfo) IsStatic() bool   { return m.AccessFlags.IsStatic() }
func (m *MethodInfo) IsPrivate() bool  { return m.AccessFlags.IsPrivate() }
func (m *MethodInfo) IsNative() bool   { return m.AccessFlags.IsNative() }
func (m *MethodInfo) IsAbstract() bool { return m.AccessFlags.IsAbstract() }

func (m *MethodInfo) IsConstructor() bool {
	return m.name == "<init>"
}

func (m *MethodInfo) IsStaticInitializer() bool {
	return m.name == "<clinit>"
}

func (m *MethodInfo) ParsedDescriptor() (*MethodDescriptor, error) {
	return ParseMethodDescriptor(m.descriptor)
}

func (m *MethodInfo) String() string {
	return m.name + m.descriptor
}

func (m *MethodInfo) bind(className string) {
	if attr := m.GetAttribute("Code"); attr != nil {
		m.code = attr.AsCode()
	}
	m.signaturePolymorphic = (className == "java/lang/invoke/MethodHandle" || className == "java/lang/invoke/VarHandle") &&
		m.AccessFlags.IsVarargs() && m.AccessFlags.IsNative() &&
		m.descriptor == "([Ljava/lang/Object;)Ljava/lang/Object;"
}
