package hir

// MIRFunction is `MIR::Function` (§3.5): locals, drop flags, and a
// control-flow graph of basic blocks.
type MIRFunction struct {
	Locals    []TypeRef
	DropFlags []bool
	Blocks    []BasicBlock
}

// BasicBlock is one CFG node (§3.5).
type BasicBlock struct {
	Statements []Statement
	Terminator Terminator
}

// StatementKind tags the Statement sum (§3.5).
type StatementKind uint8

const (
	StmtAssign StatementKind = iota
	StmtDrop
	StmtAsm
	StmtSetDropFlag
	StmtScopeEnd
)

type DropKind uint8

const (
	DropShallow DropKind = iota
	DropDeep
)

type Statement struct {
	Kind StatementKind

	// StmtAssign
	AssignDst LValue
	AssignSrc RValue

	// StmtDrop
	DropSlot    LValue
	DropKindVal DropKind
	DropFlagIdx int // -1 if unconditional

	// StmtAsm: opaque — the inline-assembly template/operands are owned
	// by the external codegen collaborator; only its presence matters
	// here.
	AsmText string

	// StmtSetDropFlag
	FlagIdx  int
	NewVal   bool
	OtherIdx int // -1 unless copying another flag's value

	// StmtScopeEnd
	ScopeSlots []int
}

// TerminatorKind tags the Terminator sum (§3.5).
type TerminatorKind uint8

const (
	TermIncomplete TerminatorKind = iota
	TermReturn
	TermDiverge
	TermGoto
	TermPanic
	TermIf
	TermSwitch
	TermSwitchValue
	TermCall
)

// SwitchValueKind tags the three families a SwitchValue target can
// discriminate on (§3.5).
type SwitchValueKind uint8

const (
	SwitchUnsigned SwitchValueKind = iota
	SwitchSigned
	SwitchString
)

// CallTargetKind tags Terminator.Call's target (§3.5).
type CallTargetKind uint8

const (
	CallValue CallTargetKind = iota
	CallPath
	CallIntrinsic
)

type Terminator struct {
	Kind TerminatorKind

	GotoBB  int
	PanicBB int

	IfCond LValue
	IfBB0  int
	IfBB1  int

	SwitchVal     LValue
	SwitchTargets []int

	SwitchValueVal     LValue
	SwitchValueDefault int
	SwitchValueKind    SwitchValueKind
	SwitchValueTargets []SwitchValueCase

	CallRetBB   int
	CallPanicBB int
	CallDst     LValue
	CallTarget  CallTargetKind
	CallValueFn LValue
	CallPath    Path
	CallIntr    string
	CallArgs    []LValue
}

type SwitchValueCase struct {
	Unsigned uint64
	Signed   int64
	String   string
	Target   int
}

// LValueRootKind tags LValue's root (§3.5).
type LValueRootKind uint8

const (
	LRootReturn LValueRootKind = iota
	LRootArgument
	LRootLocal
	LRootStatic
)

// ProjectionKind tags one link of an LValue's projection chain (§3.5).
type ProjectionKind uint8

const (
	ProjField ProjectionKind = iota
	ProjDeref
	ProjIndex
	ProjDowncast
)

type Projection struct {
	Kind       ProjectionKind
	FieldIdx   int
	IndexOf    *LValue // ProjIndex
	VariantIdx int     // ProjDowncast
}

// LValue is a root plus zero or more projections (§3.5).
type LValue struct {
	RootKind   LValueRootKind
	ArgIdx     int
	LocalIdx   int
	StaticPath Path
	Proj       []Projection
}

// RValueKind tags the RValue sum (§3.5).
type RValueKind uint8

const (
	RUse RValueKind = iota
	RConstant
	RSizedArray
	RBorrow
	RCast
	RBinOp
	RUniOp
	RDstMeta
	RDstPtr
	RMakeDst
	RTuple
	RArray
	RVariant
	RStruct
)

type RValue struct {
	Kind RValueKind

	Use LValue

	ConstVal EncodedLiteral
	ConstTy  TypeRef

	SizedArrayParam LValue
	SizedArrayCount uint64

	BorrowKind BorrowKind
	BorrowOf   LValue

	CastTo   TypeRef
	CastKind string
	CastOf   LValue

	BinOp string
	Left  LValue
	Right LValue

	UniOp   string
	Operand LValue

	DstMetaOf LValue
	DstPtrOf  LValue

	MakeDstPtr  LValue
	MakeDstMeta LValue

	Elems []LValue // Tuple / Array

	VariantPath  SimplePath
	VariantIdx   int
	VariantArgs  []LValue

	StructPath SimplePath
	StructArgs []LValue
}
