package classfile

import (
	"github.com/dhamidi/jedy/fault"
)

type StackMapTableAttribute struct {
	Entries []StackMapFrame
}

func (*StackMapTableAttribute) AttributeName() string { return "StackMapTable" }

type FrameKind uint8

const (
	SameFrame FrameKind = iota
	SameLocals1StackItemFrame
	SameLocals1StackItemFrameExtended
	ChopFrame
	SameFrameExtended
	AppendFrame
	FullFrame
)

func (k FrameKind) String() string {
	switch k {
	case SameFrame:
		return "same_frame"
	case SameLocals1StackItemFrame:
		return "same_locals_1_stack_item_frame"
	case SameLocals1StackItemFrameExtended:
		return "same_locals_1_stack_item_frame_extended"
	case ChopFrame:
		return "chop_frame"
	case SameFrameExtended:
		return "same_frame_extended"
	case AppendFrame:
		return "append_frame"
	case FullFrame:
		return "full_frame"
	}
	return "unknown_frame"
}

type StackMapFrame struct {
	Kind        FrameKind
	FrameType   uint8
	OffsetDelta uint16
	// Chopped is the number of locals removed by a chop_frame.
	Chopped int
	Locals  []VerificationType
	Stack   []VerificationType
}

type VerificationTag uint8

const (
	ItemTop               VerificationTag = 0
	ItemInteger           VerificationTag = 1
	ItemFloat             VerificationTag = 2
	ItemDouble            VerificationTag = 3
	ItemLong              VerificationTag = 4
	ItemNull              VerificationTag = 5
	ItemUninitializedThis VerificationTag = 6
	ItemObject            VerificationTag = 7
	ItemUninitialized     VerificationTag = 8
)

var verificationTagNames = [...]string{
	"top", "int", "float", "double", "long", "null", "uninitializedThis", "object", "uninitialized",
}

func (t VerificationTag) String() string {
	if int(t) < len(verificationTagNames) {
		return verificationTagNames[t]
	}
	return "invalid"
}

// VerificationType is a verification_type_info. Index is the constant-pool
// class index for ItemObject and the code offset for ItemUninitialized.
type VerificationType struct {
	Tag   VerificationTag
	Index uint16
}

func readVerificationType(r *reader) (VerificationType, error) {
	vt := VerificationType{Tag: VerificationTag(r.readU1())}
	switch {
	case vt.Tag <= ItemUninitializedThis:
	case vt.Tag == ItemObject || vt.Tag == ItemUninitialized:
		vt.Index = r.readU2()
	default:
		if r.err == nil {
			return vt, fault.New(fault.Format, fault.ErrMalformedAttribute, "verification type tag %d", vt.Tag)
		}
	}
	return vt, nil
}

func readVerificationTypes(r *reader, n int) ([]VerificationType, error) {
	types := make([]VerificationType, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		vt, err := readVerificationType(r)
		if err != nil {
			return nil, err
		}
		types = append(types, vt)
	}
	return types, nil
}

func parseStackMapTableAttribute(r *reader) (*StackMapTableAttribute, error) {
	count := r.readU2()
	smt := &StackMapTableAttribute{Entries: make([]StackMapFrame, 0, count)}

	for i := uint16(0); i < count && r.err == nil; i++ {
		frameType := r.readU1()
		frame := StackMapFrame{FrameType: frameType}
		var err error

		switch {
		case frameType <= 63:
			frame.Kind = SameFrame
			frame.OffsetDelta = uint16(frameType)
		case frameType <= 127:
			frame.Kind = SameLocals1StackItemFrame
			frame.OffsetDelta = uint16(frameType - 64)
			frame.Stack, err = readVerificationTypes(r, 1)
		case frameType < 247:
			return nil, fault.New(fault.Format, fault.ErrMalformedAttribute, "reserved stack map frame type %d", frameType)
		case frameType == 247:
			frame.Kind = SameLocals1StackItemFrameExtended
			frame.OffsetDelta = r.readU2()
			frame.Stack, err = readVerificationTypes(r, 1)
		case frameType <= 250:
			frame.Kind = ChopFrame
			frame.OffsetDelta = r.readU2()
			frame.Chopped = 251 - int(frameType)
		case frameType == 251:
			frame.Kind = SameFrameExtended
			frame.OffsetDelta = r.readU2()
		case frameType <= 254:
			frame.Kind = AppendFrame
			frame.OffsetDelta = r.readU2()
			frame.Locals, err = readVerificationTypes(r, int(frameType)-251)
		default:
			frame.Kind = FullFrame
			frame.OffsetDelta = r.readU2()
			numLocals := r.readU2()
			if frame.Locals, err = readVerificationTypes(r, int(numLocals)); err != nil {
				break
			}
			numStack := r.readU2()
			frame.Stack, err = readVerificationTypes(r, int(numStack))
		}
		if err != nil {
			return nil, err
		}
		smt.Entries = append(smt.Entries, frame)
	}
	return smt, nil
}
