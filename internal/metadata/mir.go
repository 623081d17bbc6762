package metadata

import (
	"github.com/sunholo/hirgo/internal/diag"
	"github.com/sunholo/hirgo/internal/hir"
)

func (e *encoder) writeEncodedLiteral(lit hir.EncodedLiteral) {
	e.w.WriteCount(uint32(len(lit.Bytes)))
	e.w.WriteBytes(lit.Bytes)
	e.w.WriteCount(uint32(len(lit.Relocations)))
	for _, r := range lit.Relocations {
		e.w.WriteU64c(uint64(r.Ofs))
		e.w.WriteU64c(uint64(r.Len))
		e.w.WriteBool(r.P != nil)
		if r.P != nil {
			e.writePath(*r.P)
		}
		e.w.WriteCount(uint32(len(r.Bytes)))
		e.w.WriteBytes(r.Bytes)
	}
}

func (d *decoder) readEncodedLiteral() hir.EncodedLiteral {
	var lit hir.EncodedLiteral
	n := d.r.ReadCount()
	lit.Bytes = d.r.ReadBytes(int(n))
	rn := d.r.ReadCount()
	lit.Relocations = make([]hir.Reloc, rn)
	for i := range lit.Relocations {
		ofs := int(d.r.ReadU64c())
		ln := int(d.r.ReadU64c())
		var p *hir.Path
		if d.r.ReadBool() {
			pv := d.readPath()
			p = &pv
		}
		bn := d.r.ReadCount()
		bytes := d.r.ReadBytes(int(bn))
		lit.Relocations[i] = hir.Reloc{Ofs: ofs, Len: ln, P: p, Bytes: bytes}
	}
	return lit
}

func (e *encoder) writeMIRFunction(f hir.MIRFunction) {
	e.w.WriteCount(uint32(len(f.Locals)))
	for _, l := range f.Locals {
		e.writeType(l)
	}
	e.w.WriteCount(uint32(len(f.DropFlags)))
	for _, b := range f.DropFlags {
		e.w.WriteBool(b)
	}
	e.w.WriteCount(uint32(len(f.Blocks)))
	for _, bb := range f.Blocks {
		e.writeBasicBlock(bb)
	}
}

func (d *decoder) readMIRFunction() hir.MIRFunction {
	var f hir.MIRFunction
	n := d.r.ReadCount()
	f.Locals = make([]hir.TypeRef, n)
	for i := range f.Locals {
		f.Locals[i] = d.readType()
	}
	n = d.r.ReadCount()
	f.DropFlags = make([]bool, n)
	for i := range f.DropFlags {
		f.DropFlags[i] = d.r.ReadBool()
	}
	n = d.r.ReadCount()
	f.Blocks = make([]hir.BasicBlock, n)
	for i := range f.Blocks {
		f.Blocks[i] = d.readBasicBlock()
	}
	return f
}

func (e *encoder) writeBasicBlock(bb hir.BasicBlock) {
	e.w.WriteCount(uint32(len(bb.Statements)))
	for _, s := range bb.Statements {
		e.writeStatement(s)
	}
	e.writeTerminator(bb.Terminator)
}

func (d *decoder) readBasicBlock() hir.BasicBlock {
	var bb hir.BasicBlock
	n := d.r.ReadCount()
	bb.Statements = make([]hir.Statement, n)
	for i := range bb.Statements {
		bb.Statements[i] = d.readStatement()
	}
	bb.Terminator = d.readTerminator()
	return bb
}

func (e *encoder) writeStatement(s hir.Statement) {
	e.w.WriteU8(uint8(s.Kind))
	switch s.Kind {
	case hir.StmtAssign:
		e.writeLValue(s.AssignDst)
		e.writeRValue(s.AssignSrc)
	case hir.StmtDrop:
		e.writeLValue(s.DropSlot)
		e.w.WriteU8(uint8(s.DropKindVal))
		e.w.WriteI64c(int64(s.DropFlagIdx))
	case hir.StmtAsm:
		e.w.WriteString(s.AsmText)
	case hir.StmtSetDropFlag:
		e.w.WriteU64c(uint64(s.FlagIdx))
		e.w.WriteBool(s.NewVal)
		e.w.WriteI64c(int64(s.OtherIdx))
	case hir.StmtScopeEnd:
		e.w.WriteCount(uint32(len(s.ScopeSlots)))
		for _, idx := range s.ScopeSlots {
			e.w.WriteU64c(uint64(idx))
		}
	}
}

func (d *decoder) readStatement() hir.Statement {
	kind := hir.StatementKind(d.r.ReadU8())
	s := hir.Statement{Kind: kind}
	switch kind {
	case hir.StmtAssign:
		s.AssignDst = d.readLValue()
		s.AssignSrc = d.readRValue()
	case hir.StmtDrop:
		s.DropSlot = d.readLValue()
		s.DropKindVal = hir.DropKind(d.r.ReadU8())
		s.DropFlagIdx = int(d.r.ReadI64c())
	case hir.StmtAsm:
		s.AsmText = d.r.ReadString()
	case hir.StmtSetDropFlag:
		s.FlagIdx = int(d.r.ReadU64c())
		s.NewVal = d.r.ReadBool()
		s.OtherIdx = int(d.r.ReadI64c())
	case hir.StmtScopeEnd:
		n := d.r.ReadCount()
		s.ScopeSlots = make([]int, n)
		for i := range s.ScopeSlots {
			s.ScopeSlots[i] = int(d.r.ReadU64c())
		}
	}
	return s
}

func (e *encoder) writeTerminator(t hir.Terminator) {
	e.w.WriteU8(uint8(t.Kind))
	switch t.Kind {
	case hir.TermIncomplete, hir.TermReturn, hir.TermDiverge:
	case hir.TermGoto:
		e.w.WriteU64c(uint64(t.GotoBB))
	case hir.TermPanic:
		e.w.WriteU64c(uint64(t.PanicBB))
	case hir.TermIf:
		e.writeLValue(t.IfCond)
		e.w.WriteU64c(uint64(t.IfBB0))
		e.w.WriteU64c(uint64(t.IfBB1))
	case hir.TermSwitch:
		e.writeLValue(t.SwitchVal)
		e.w.WriteCount(uint32(len(t.SwitchTargets)))
		for _, tg := range t.SwitchTargets {
			e.w.WriteU64c(uint64(tg))
		}
	case hir.TermSwitchValue:
		e.writeLValue(t.SwitchValueVal)
		e.w.WriteU64c(uint64(t.SwitchValueDefault))
		e.w.WriteU8(uint8(t.SwitchValueKind))
		e.w.WriteCount(uint32(len(t.SwitchValueTargets)))
		for _, c := range t.SwitchValueTargets {
			switch t.SwitchValueKind {
			case hir.SwitchUnsigned:
				e.w.WriteU64c(c.Unsigned)
			case hir.SwitchSigned:
				e.w.WriteI64c(c.Signed)
			case hir.SwitchString:
				e.w.WriteString(c.String)
			}
			e.w.WriteU64c(uint64(c.Target))
		}
	case hir.TermCall:
		e.w.WriteU64c(uint64(t.CallRetBB))
		e.w.WriteU64c(uint64(t.CallPanicBB))
		e.writeLValue(t.CallDst)
		e.w.WriteU8(uint8(t.CallTarget))
		switch t.CallTarget {
		case hir.CallValue:
			e.writeLValue(t.CallValueFn)
		case hir.CallPath:
			e.writePath(t.CallPath)
		case hir.CallIntrinsic:
			e.w.WriteString(t.CallIntr)
		}
		e.w.WriteCount(uint32(len(t.CallArgs)))
		for _, a := range t.CallArgs {
			e.writeLValue(a)
		}
	}
}

func (d *decoder) readTerminator() hir.Terminator {
	kind := hir.TerminatorKind(d.r.ReadU8())
	t := hir.Terminator{Kind: kind}
	switch kind {
	case hir.TermIncomplete, hir.TermReturn, hir.TermDiverge:
	case hir.TermGoto:
		t.GotoBB = int(d.r.ReadU64c())
	case hir.TermPanic:
		t.PanicBB = int(d.r.ReadU64c())
	case hir.TermIf:
		t.IfCond = d.readLValue()
		t.IfBB0 = int(d.r.ReadU64c())
		t.IfBB1 = int(d.r.ReadU64c())
	case hir.TermSwitch:
		t.SwitchVal = d.readLValue()
		n := d.r.ReadCount()
		t.SwitchTargets = make([]int, n)
		for i := range t.SwitchTargets {
			t.SwitchTargets[i] = int(d.r.ReadU64c())
		}
	case hir.TermSwitchValue:
		t.SwitchValueVal = d.readLValue()
		t.SwitchValueDefault = int(d.r.ReadU64c())
		t.SwitchValueKind = hir.SwitchValueKind(d.r.ReadU8())
		n := d.r.ReadCount()
		t.SwitchValueTargets = make([]hir.SwitchValueCase, n)
		for i := range t.SwitchValueTargets {
			var c hir.SwitchValueCase
			switch t.SwitchValueKind {
			case hir.SwitchUnsigned:
				c.Unsigned = d.r.ReadU64c()
			case hir.SwitchSigned:
				c.Signed = d.r.ReadI64c()
			case hir.SwitchString:
				c.String = d.r.ReadString()
			}
			c.Target = int(d.r.ReadU64c())
			t.SwitchValueTargets[i] = c
		}
	case hir.TermCall:
		t.CallRetBB = int(d.r.ReadU64c())
		t.CallPanicBB = int(d.r.ReadU64c())
		t.CallDst = d.readLValue()
		t.CallTarget = hir.CallTargetKind(d.r.ReadU8())
		switch t.CallTarget {
		case hir.CallValue:
			t.CallValueFn = d.readLValue()
		case hir.CallPath:
			t.CallPath = d.readPath()
		case hir.CallIntrinsic:
			t.CallIntr = d.r.ReadString()
		}
		n := d.r.ReadCount()
		t.CallArgs = make([]hir.LValue, n)
		for i := range t.CallArgs {
			t.CallArgs[i] = d.readLValue()
		}
	default:
		panic(diag.Codec(diag.COD405, "unrecognised Terminator variant tag %d", kind))
	}
	return t
}

func (e *encoder) writeLValue(lv hir.LValue) {
	e.w.WriteU8(uint8(lv.RootKind))
	switch lv.RootKind {
	case hir.LRootArgument:
		e.w.WriteU64c(uint64(lv.ArgIdx))
	case hir.LRootLocal:
		e.w.WriteU64c(uint64(lv.LocalIdx))
	case hir.LRootStatic:
		e.writePath(lv.StaticPath)
	}
	e.w.WriteCount(uint32(len(lv.Proj)))
	for _, p := range lv.Proj {
		e.w.WriteU8(uint8(p.Kind))
		switch p.Kind {
		case hir.ProjField:
			e.w.WriteU64c(uint64(p.FieldIdx))
		case hir.ProjIndex:
			e.writeLValue(*p.IndexOf)
		case hir.ProjDowncast:
			e.w.WriteU64c(uint64(p.VariantIdx))
		}
	}
}

func (d *decoder) readLValue() hir.LValue {
	var lv hir.LValue
	lv.RootKind = hir.LValueRootKind(d.r.ReadU8())
	switch lv.RootKind {
	case hir.LRootArgument:
		lv.ArgIdx = int(d.r.ReadU64c())
	case hir.LRootLocal:
		lv.LocalIdx = int(d.r.ReadU64c())
	case hir.LRootStatic:
		lv.StaticPath = d.readPath()
	}
	n := d.r.ReadCount()
	lv.Proj = make([]hir.Projection, n)
	for i := range lv.Proj {
		kind := hir.ProjectionKind(d.r.ReadU8())
		p := hir.Projection{Kind: kind}
		switch kind {
		case hir.ProjField:
			p.FieldIdx = int(d.r.ReadU64c())
		case hir.ProjIndex:
			iv := d.readLValue()
			p.IndexOf = &iv
		case hir.ProjDowncast:
			p.VariantIdx = int(d.r.ReadU64c())
		}
		lv.Proj[i] = p
	}
	return lv
}

func (e *encoder) writeRValue(rv hir.RValue) {
	e.w.WriteU8(uint8(rv.Kind))
	switch rv.Kind {
	case hir.RUse:
		e.writeLValue(rv.Use)
	case hir.RConstant:
		e.writeEncodedLiteral(rv.ConstVal)
		e.writeType(rv.ConstTy)
	case hir.RSizedArray:
		e.writeLValue(rv.SizedArrayParam)
		e.w.WriteU64c(rv.SizedArrayCount)
	case hir.RBorrow:
		e.w.WriteU8(uint8(rv.BorrowKind))
		e.writeLValue(rv.BorrowOf)
	case hir.RCast:
		e.writeType(rv.CastTo)
		e.w.WriteString(rv.CastKind)
		e.writeLValue(rv.CastOf)
	case hir.RBinOp:
		e.w.WriteString(rv.BinOp)
		e.writeLValue(rv.Left)
		e.writeLValue(rv.Right)
	case hir.RUniOp:
		e.w.WriteString(rv.UniOp)
		e.writeLValue(rv.Operand)
	case hir.RDstMeta:
		e.writeLValue(rv.DstMetaOf)
	case hir.RDstPtr:
		e.writeLValue(rv.DstPtrOf)
	case hir.RMakeDst:
		e.writeLValue(rv.MakeDstPtr)
		e.writeLValue(rv.MakeDstMeta)
	case hir.RTuple, hir.RArray:
		e.w.WriteCount(uint32(len(rv.Elems)))
		for _, el := range rv.Elems {
			e.writeLValue(el)
		}
	case hir.RVariant:
		e.writeSimplePath(rv.VariantPath)
		e.w.WriteU64c(uint64(rv.VariantIdx))
		e.w.WriteCount(uint32(len(rv.VariantArgs)))
		for _, a := range rv.VariantArgs {
			e.writeLValue(a)
		}
	case hir.RStruct:
		e.writeSimplePath(rv.StructPath)
		e.w.WriteCount(uint32(len(rv.StructArgs)))
		for _, a := range rv.StructArgs {
			e.writeLValue(a)
		}
	}
}

func (d *decoder) readRValue() hir.RValue {
	kind := hir.RValueKind(d.r.ReadU8())
	rv := hir.RValue{Kind: kind}
	switch kind {
	case hir.RUse:
		rv.Use = d.readLValue()
	case hir.RConstant:
		rv.ConstVal = d.readEncodedLiteral()
		rv.ConstTy = d.readType()
	case hir.RSizedArray:
		rv.SizedArrayParam = d.readLValue()
		rv.SizedArrayCount = d.r.ReadU64c()
	case hir.RBorrow:
		rv.BorrowKind = hir.BorrowKind(d.r.ReadU8())
		rv.BorrowOf = d.readLValue()
	case hir.RCast:
		rv.CastTo = d.readType()
		rv.CastKind = d.r.ReadString()
		rv.CastOf = d.readLValue()
	case hir.RBinOp:
		rv.BinOp = d.r.ReadString()
		rv.Left = d.readLValue()
		rv.Right = d.readLValue()
	case hir.RUniOp:
		rv.UniOp = d.r.ReadString()
		rv.Operand = d.readLValue()
	case hir.RDstMeta:
		rv.DstMetaOf = d.readLValue()
	case hir.RDstPtr:
		rv.DstPtrOf = d.readLValue()
	case hir.RMakeDst:
		rv.MakeDstPtr = d.readLValue()
		rv.MakeDstMeta = d.readLValue()
	case hir.RTuple, hir.RArray:
		n := d.r.ReadCount()
		rv.Elems = make([]hir.LValue, n)
		for i := range rv.Elems {
			rv.Elems[i] = d.readLValue()
		}
	case hir.RVariant:
		rv.VariantPath = d.readSimplePath()
		rv.VariantIdx = int(d.r.ReadU64c())
		n := d.r.ReadCount()
		rv.VariantArgs = make([]hir.LValue, n)
		for i := range rv.VariantArgs {
			rv.VariantArgs[i] = d.readLValue()
		}
	case hir.RStruct:
		rv.StructPath = d.readSimplePath()
		n := d.r.ReadCount()
		rv.StructArgs = make([]hir.LValue, n)
		for i := range rv.StructArgs {
			rv.StructArgs[i] = d.readLValue()
		}
	default:
		panic(diag.Codec(diag.COD405, "unrecognised RValue variant tag %d", kind))
	}
	return rv
}
