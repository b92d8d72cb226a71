package r2pipe

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/r2pipe-go/internal/enginetest"
)

const (
	functionsJSON = `[
		{"name":"main","offset":4096,"size":32,"realsz":32,"calltype":"amd64","type":"fcn",
		 "callrefs":[{"addr":8192,"type":"CALL","at":4100}],"datarefs":[12288]},
		{"name":"sym.helper","offset":8192,"size":8,"type":"fcn"}
	]`
	mainLocalsJSON = `[{"name":"var_8h","kind":"var","type":"int64_t","ref":{"base":"rbp","offset":-8}}]`
)

func newR2(t *testing.T, responses map[string]string) (*R2, *enginetest.Scripted) {
	t.Helper()

	ch := enginetest.NewScripted(responses)

	s, err := OpenWithEnv(context.Background(), "", nil, WithChannel(ch))
	require.NoError(t, err)

	r := NewR2(s)
	t.Cleanup(func() { _ = r.Close() })

	return r, ch
}

func TestR2_Init(t *testing.T) {
	r, ch := newR2(t, map[string]string{
		"e asm.esil = true":   "",
		"e scr.color = false": "",
		"aa":                  "analysis output\n",
	})

	require.NoError(t, r.Init(context.Background()))
	require.Equal(t, []string{"e asm.esil = true", "e scr.color = false", "aa"}, ch.Commands())

	// Analyze discards its output.
	require.Empty(t, r.Recv())
}

func TestR2_SendRecv(t *testing.T) {
	r, _ := newR2(t, map[string]string{
		"?e hi": "hi\n",
		"ij":    enginetest.BinInfoJSON,
	})

	ctx := context.Background()

	require.NoError(t, r.Send(ctx, "?e hi"))
	require.Equal(t, "hi\n", r.Recv())
	require.Empty(t, r.Recv(), "Recv clears the buffer")

	require.NoError(t, r.Send(ctx, "ij"))
	doc, err := r.RecvJSON()
	require.NoError(t, err)
	require.Equal(t, "x86", doc.(map[string]any)["bin"].(map[string]any)["arch"])

	doc, err = r.RecvJSON()
	require.NoError(t, err)
	require.Equal(t, map[string]any{}, doc)

	require.NoError(t, r.Send(ctx, "?e hi"))
	r.Flush()
	require.Empty(t, r.Recv())
}

func TestR2_SendError(t *testing.T) {
	r, _ := newR2(t, map[string]string{"?e kept": "kept\n"})

	ctx := context.Background()

	require.NoError(t, r.Send(ctx, "?e kept"))
	require.Error(t, r.Send(ctx, "unscripted"))

	// A failed Send leaves the previous response.
	require.Equal(t, "kept\n", r.Recv())
}

func TestR2_BinInfo(t *testing.T) {
	r, _ := newR2(t, map[string]string{"ij": enginetest.BinInfoJSON})

	info, err := r.BinInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/bin/ls", info.Core.File)
	require.Equal(t, "elf64", info.Core.Format)
	require.Equal(t, "x86", info.Bin.Arch)
	require.Equal(t, 64, info.Bin.Bits)
	require.Equal(t, "linux", info.Bin.OS)
}

func TestR2_BinInfo_ShapeChanged(t *testing.T) {
	r, _ := newR2(t, map[string]string{"ij": `{"bin":{"bits":"64"}}`})

	_, err := r.BinInfo(context.Background())

	structErr, ok := stderrors.AsType[*StructuredError](err)
	require.True(t, ok, "expected StructuredError, got %T: %v", err, err)
	require.Equal(t, "ij", structErr.Command)
	require.Contains(t, structErr.Error(), "bits")
}

func TestR2_Functions(t *testing.T) {
	r, ch := newR2(t, map[string]string{
		"aflj":         functionsJSON,
		"afvbj @ 4096": mainLocalsJSON,
		// Not JSON, so sym.helper gets an empty list.
		"afvbj @ 8192": "Cannot find function at 0x2000",
	})

	fns, err := r.Functions(context.Background())
	require.NoError(t, err)
	require.Len(t, fns, 2)

	first := fns[0]
	require.Equal(t, "main", first.Name)
	require.Equal(t, uint64(4096), first.Offset)
	require.Equal(t, []CallInfo{{Addr: 8192, Type: "CALL", At: 4100}}, first.CallRefs)
	require.Equal(t, []uint64{12288}, first.DataRefs)
	require.Equal(t, []VarInfo{{
		Name: "var_8h",
		Kind: "var",
		Type: "int64_t",
		Ref:  VarRef{Base: "rbp", Offset: -8},
	}}, first.Locals)

	require.Equal(t, "sym.helper", fns[1].Name)
	require.NotNil(t, fns[1].Locals)
	require.Empty(t, fns[1].Locals)

	require.Equal(t, []string{"aflj", "afvbj @ 4096", "afvbj @ 8192"}, ch.Commands())
}

func TestR2_Functions_LocalsTransportError(t *testing.T) {
	// Only the listing is scripted; every locals query fails on the wire.
	r, ch := newR2(t, map[string]string{"aflj": functionsJSON})

	fns, err := r.Functions(context.Background())
	require.Nil(t, fns)
	require.ErrorContains(t, err, "locals of main")

	_, ok := stderrors.AsType[*TransportError](err)
	require.True(t, ok, "expected TransportError, got %T: %v", err, err)

	require.Equal(t, []string{"aflj", "afvbj @ 4096"}, ch.Commands())
}

func TestR2_Functions_NoneAnalyzed(t *testing.T) {
	r, _ := newR2(t, map[string]string{"aflj": ""})

	fns, err := r.Functions(context.Background())
	require.NoError(t, err)
	require.Empty(t, fns)
}

func TestR2_Function(t *testing.T) {
	r, _ := newR2(t, map[string]string{
		"pdfj @ main": `{"name":"main","addr":4096,"size":4,"ops":[
			{"offset":4096,"size":1,"opcode":"push rbp","type":"push","esil":"rbp,8,rsp,-=,rsp,=[8]"},
			{"offset":4097,"size":3,"opcode":"mov rbp, rsp","type":"mov","bytes":"4889e5"}
		]}`,
	})

	fn, err := r.Function(context.Background(), "main")
	require.NoError(t, err)
	require.Equal(t, "main", fn.Name)
	require.Len(t, fn.Ops, 2)
	require.Equal(t, "push rbp", fn.Ops[0].Opcode)
	require.Equal(t, "4889e5", fn.Ops[1].Bytes)
}

func TestR2_Instructions(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		offset  string
		command string
	}{
		{name: "defaults", n: 0, command: "pdj16"},
		{name: "negative count", n: -1, command: "pdj16"},
		{name: "count", n: 2, command: "pdj2"},
		{name: "count and offset", n: 4, offset: "entry0", command: "pdj4 @ entry0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ch := newR2(t, map[string]string{tt.command: `[{"offset":1,"opcode":"nop"}]`})

			ops, err := r.Instructions(context.Background(), tt.n, tt.offset)
			require.NoError(t, err)
			require.Equal(t, []OpInfo{{Offset: 1, Opcode: "nop"}}, ops)
			require.Equal(t, []string{tt.command}, ch.Commands())
		})
	}
}

func TestR2_Registers(t *testing.T) {
	r, _ := newR2(t, map[string]string{
		"drpj": `{"alias_info":[{"role":0,"role_str":"PC","reg":"rip"}],
			"reg_info":[{"type":0,"type_str":"gpr","name":"rip","size":64,"offset":128}]}`,
	})

	regs, err := r.Registers(context.Background())
	require.NoError(t, err)
	require.Equal(t, []RegAlias{{RoleStr: "PC", Reg: "rip"}}, regs.AliasInfo)
	require.Equal(t, "rip", regs.RegInfo[0].Name)
	require.Equal(t, 64, regs.RegInfo[0].Size)
}

func TestR2_Flags(t *testing.T) {
	r, _ := newR2(t, map[string]string{"fj": `[{"name":"entry0","size":1,"offset":4096}]`})

	flags, err := r.Flags(context.Background())
	require.NoError(t, err)
	require.Equal(t, []FlagInfo{{Name: "entry0", Size: 1, Offset: 4096}}, flags)
}

func TestR2_Sections(t *testing.T) {
	r, _ := newR2(t, map[string]string{
		"Sj": `[{"name":".text","size":512,"vsize":512,"perm":"-r-x","paddr":1024,"vaddr":4096}]`,
	})

	sections, err := r.Sections(context.Background())
	require.NoError(t, err)
	require.Equal(t, []SectionInfo{{
		Name: ".text", Size: 512, VSize: 512, Perm: "-r-x", PAddr: 1024, VAddr: 4096,
	}}, sections)
}

func TestR2_Strings(t *testing.T) {
	r, ch := newR2(t, map[string]string{
		"izj":  `[{"vaddr":8192,"string":"hello","type":"ascii","section":".rodata"}]`,
		"izzj": `[{"vaddr":8192,"string":"hello"},{"vaddr":64,"string":"ELF"}]`,
	})

	ctx := context.Background()

	data, err := r.Strings(ctx, true)
	require.NoError(t, err)
	require.Len(t, data, 1)
	require.Equal(t, ".rodata", data[0].Section)

	all, err := r.Strings(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.Equal(t, []string{"izj", "izzj"}, ch.Commands())
}

func TestR2_ClosedSession(t *testing.T) {
	r, _ := newR2(t, map[string]string{"aflj": functionsJSON})

	require.NoError(t, r.Close())

	_, err := r.Functions(context.Background())
	require.ErrorIs(t, err, ErrChannelClosed)

	require.ErrorIs(t, r.Send(context.Background(), "aflj"), ErrChannelClosed)
}

func TestCmdjAs_AllowsUnknownFields(t *testing.T) {
	r, _ := newR2(t, map[string]string{
		"fj": `[{"name":"entry0","offset":4096,"addr":4096,"demangled":false}]`,
	})

	flags, err := CmdjAs[[]FlagInfo](context.Background(), r.Session(), "fj")
	require.NoError(t, err)
	require.Equal(t, "entry0", flags[0].Name)
}
