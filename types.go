package r2pipe

// BinInfo is the reply to "ij".
type BinInfo struct {
	Core BinCore `json:"core,omitempty"`
	Bin  BinMeta `json:"bin,omitempty"`
}

// BinCore describes the opened file.
type BinCore struct {
	Type    string `json:"type,omitempty"`
	File    string `json:"file,omitempty"`
	FD      int    `json:"fd,omitempty"`
	Size    uint64 `json:"size,omitempty"`
	HumanSz string `json:"humansz,omitempty"`
	IOrw    bool   `json:"iorw,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Block   uint64 `json:"block,omitempty"`
	Format  string `json:"format,omitempty"`
}

// BinMeta describes the loaded binary.
type BinMeta struct {
	Arch     string `json:"arch,omitempty"`
	Bits     int    `json:"bits,omitempty"`
	BaseAddr uint64 `json:"baddr,omitempty"`
	Class    string `json:"class,omitempty"`
	Compiler string `json:"compiler,omitempty"`
	Endian   string `json:"endian,omitempty"`
	Lang     string `json:"lang,omitempty"`
	Machine  string `json:"machine,omitempty"`
	OS       string `json:"os,omitempty"`
	Subsys   string `json:"subsys,omitempty"`
	Canary   bool   `json:"canary,omitempty"`
	NX       bool   `json:"nx,omitempty"`
	PIC      bool   `json:"pic,omitempty"`
	Static   bool   `json:"static,omitempty"`
	Stripped bool   `json:"stripped,omitempty"`
}

// CallInfo is a code reference from or to a function.
type CallInfo struct {
	Addr uint64 `json:"addr,omitempty"`
	Type string `json:"type,omitempty"`
	At   uint64 `json:"at,omitempty"`
}

// FunctionInfo is one entry of "aflj", enriched with its local variables.
type FunctionInfo struct {
	Name      string     `json:"name,omitempty"`
	Offset    uint64     `json:"offset,omitempty"`
	Size      uint64     `json:"size,omitempty"`
	RealSize  uint64     `json:"realsz,omitempty"`
	CallType  string     `json:"calltype,omitempty"`
	Type      string     `json:"type,omitempty"`
	CallRefs  []CallInfo `json:"callrefs,omitempty"`
	CodeXRefs []CallInfo `json:"codexrefs,omitempty"`
	DataRefs  []uint64   `json:"datarefs,omitempty"`
	DataXRefs []uint64   `json:"dataxrefs,omitempty"`

	// Locals is filled from "afvbj" by R2.Functions.
	Locals []VarInfo `json:"locals,omitempty"`
}

// VarRef locates a variable relative to a base register.
type VarRef struct {
	Base   string `json:"base,omitempty"`
	Offset int64  `json:"offset,omitempty"`
}

// VarInfo is one entry of "afvbj".
type VarInfo struct {
	Name string `json:"name,omitempty"`
	Kind string `json:"kind,omitempty"`
	Type string `json:"type,omitempty"`
	Ref  VarRef `json:"ref,omitempty"`
}

// OpInfo is one disassembled instruction from "pdj" or "pdfj".
type OpInfo struct {
	Offset  uint64 `json:"offset,omitempty"`
	ESIL    string `json:"esil,omitempty"`
	RefPtr  bool   `json:"refptr,omitempty"`
	FcnAddr uint64 `json:"fcn_addr,omitempty"`
	FcnLast uint64 `json:"fcn_last,omitempty"`
	Size    uint64 `json:"size,omitempty"`
	Opcode  string `json:"opcode,omitempty"`
	Disasm  string `json:"disasm,omitempty"`
	Bytes   string `json:"bytes,omitempty"`
	Family  string `json:"family,omitempty"`
	Type    string `json:"type,omitempty"`
	TypeNum int64  `json:"type_num,omitempty"`
	Jump    uint64 `json:"jump,omitempty"`
	Fail    uint64 `json:"fail,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// FunctionDisasm is the reply to "pdfj".
type FunctionDisasm struct {
	Name string   `json:"name,omitempty"`
	Addr uint64   `json:"addr,omitempty"`
	Size uint64   `json:"size,omitempty"`
	Ops  []OpInfo `json:"ops,omitempty"`
}

// RegAlias maps a register role such as "PC" or "SP" to a register.
type RegAlias struct {
	Role    int    `json:"role,omitempty"`
	RoleStr string `json:"role_str,omitempty"`
	Reg     string `json:"reg,omitempty"`
}

// RegProfile describes one register of the current profile.
type RegProfile struct {
	Type    int    `json:"type,omitempty"`
	TypeStr string `json:"type_str,omitempty"`
	Name    string `json:"name,omitempty"`
	Size    int    `json:"size,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// RegInfo is the reply to "drpj".
type RegInfo struct {
	AliasInfo []RegAlias   `json:"alias_info,omitempty"`
	RegInfo   []RegProfile `json:"reg_info,omitempty"`
}

// FlagInfo is one entry of "fj".
type FlagInfo struct {
	Name     string `json:"name,omitempty"`
	RealName string `json:"realname,omitempty"`
	Size     uint64 `json:"size,omitempty"`
	Offset   uint64 `json:"offset,omitempty"`
}

// SectionInfo is one entry of "Sj".
type SectionInfo struct {
	Name  string `json:"name,omitempty"`
	Size  uint64 `json:"size,omitempty"`
	VSize uint64 `json:"vsize,omitempty"`
	Perm  string `json:"perm,omitempty"`
	PAddr uint64 `json:"paddr,omitempty"`
	VAddr uint64 `json:"vaddr,omitempty"`
}

// StringInfo is one entry of "izj" or "izzj".
type StringInfo struct {
	VAddr   uint64 `json:"vaddr,omitempty"`
	PAddr   uint64 `json:"paddr,omitempty"`
	Ordinal int    `json:"ordinal,omitempty"`
	Size    uint64 `json:"size,omitempty"`
	Length  uint64 `json:"length,omitempty"`
	Section string `json:"section,omitempty"`
	Type    string `json:"type,omitempty"`
	String  string `json:"string,omitempty"`
}
