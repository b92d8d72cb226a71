package r2pipe

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/wagiedev/r2pipe-go/internal/session"
)

// DefaultInstructionCount is the number of instructions Instructions returns
// when n is not positive.
const DefaultInstructionCount = 16

// R2 layers typed queries and a send/receive buffer over a Session.
//
// Commands without a typed wrapper go through Send and Recv, or straight
// through the session's Cmd.
type R2 struct {
	session *Session

	mu     sync.Mutex
	readin string
}

// NewR2 wraps s. Closing the R2 closes s.
func NewR2(s *Session) *R2 {
	return &R2{session: s}
}

// Session returns the underlying session.
func (r *R2) Session() *Session {
	return r.session
}

// Init applies sane defaults and runs a basic analysis.
func (r *R2) Init(ctx context.Context) error {
	for _, command := range []string{"e asm.esil = true", "e scr.color = false"} {
		if err := r.Send(ctx, command); err != nil {
			return err
		}
	}

	return r.Analyze(ctx)
}

// Analyze runs "aa" and discards its output.
func (r *R2) Analyze(ctx context.Context) error {
	if err := r.Send(ctx, "aa"); err != nil {
		return err
	}

	r.Flush()

	return nil
}

// Close closes the underlying session.
func (r *R2) Close() error {
	return r.session.Close()
}

// Send runs command and keeps its response for Recv.
func (r *R2) Send(ctx context.Context, command string) error {
	resp, err := r.session.Cmd(ctx, command)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.readin = resp
	r.mu.Unlock()

	return nil
}

// Recv returns the response kept by the last Send and clears it.
func (r *R2) Recv() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	resp := r.readin
	r.readin = ""

	return resp
}

// RecvJSON is Recv parsed as JSON. A cleared buffer yields an empty object.
func (r *R2) RecvJSON() (any, error) {
	return session.DecodeDocument("", r.Recv())
}

// Flush clears the response kept by the last Send.
func (r *R2) Flush() {
	r.mu.Lock()
	r.readin = ""
	r.mu.Unlock()
}

// BinInfo returns information about the opened binary.
func (r *R2) BinInfo(ctx context.Context) (BinInfo, error) {
	return CmdjAs[BinInfo](ctx, r.session, "ij")
}

// Functions lists analyzed functions with their local variables.
// A function whose locals reply is not the expected JSON gets an empty list;
// any other failure ends the listing with that error.
func (r *R2) Functions(ctx context.Context) ([]FunctionInfo, error) {
	fns, err := CmdjAs[[]FunctionInfo](ctx, r.session, "aflj")
	if err != nil {
		return nil, err
	}

	for i := range fns {
		locals, err := r.LocalsOf(ctx, fns[i].Offset)
		if err != nil {
			if _, ok := stderrors.AsType[*StructuredError](err); !ok {
				return nil, fmt.Errorf("locals of %s: %w", fns[i].Name, err)
			}

			locals = []VarInfo{}
		}

		if locals == nil {
			locals = []VarInfo{}
		}

		fns[i].Locals = locals
	}

	return fns, nil
}

// Function disassembles the function named by name, which may be any
// expression r2 accepts after "@".
func (r *R2) Function(ctx context.Context, name string) (FunctionDisasm, error) {
	return CmdjAs[FunctionDisasm](ctx, r.session, "pdfj @ "+name)
}

// Instructions disassembles n instructions at offset, or at the current seek
// when offset is empty. A non-positive n means DefaultInstructionCount.
func (r *R2) Instructions(ctx context.Context, n int, offset string) ([]OpInfo, error) {
	if n <= 0 {
		n = DefaultInstructionCount
	}

	command := fmt.Sprintf("pdj%d", n)
	if offset != "" {
		command += " @ " + offset
	}

	return CmdjAs[[]OpInfo](ctx, r.session, command)
}

// Registers returns the register profile.
func (r *R2) Registers(ctx context.Context) (RegInfo, error) {
	return CmdjAs[RegInfo](ctx, r.session, "drpj")
}

// Flags lists the flags in the current flag space.
func (r *R2) Flags(ctx context.Context) ([]FlagInfo, error) {
	return CmdjAs[[]FlagInfo](ctx, r.session, "fj")
}

// Sections lists the sections of the binary.
func (r *R2) Sections(ctx context.Context) ([]SectionInfo, error) {
	return CmdjAs[[]SectionInfo](ctx, r.session, "Sj")
}

// Strings lists strings in data sections, or in the whole binary when
// dataOnly is false.
func (r *R2) Strings(ctx context.Context, dataOnly bool) ([]StringInfo, error) {
	command := "izzj"
	if dataOnly {
		command = "izj"
	}

	return CmdjAs[[]StringInfo](ctx, r.session, command)
}

// LocalsOf lists the local variables of the function at addr.
func (r *R2) LocalsOf(ctx context.Context, addr uint64) ([]VarInfo, error) {
	return CmdjAs[[]VarInfo](ctx, r.session, fmt.Sprintf("afvbj @ %d", addr))
}
