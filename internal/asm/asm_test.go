package asm

import (
	"strings"
	"testing"

	"github.com/rcornwell/riscvsim/internal/isa"
)

func TestLoadTextAndLabels(t *testing.T) {
	src := `
.text
start:
	li x1, 5
	addi x2, x1, 3
loop:
	bne x1, x2, loop
	j start
`
	prog, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(prog.Instructions) != 4 {
		t.Fatalf("got %d instructions, want 4", len(prog.Instructions))
	}
	if prog.Labels["start"] != 0 {
		t.Errorf("start label = %d, want 0", prog.Labels["start"])
	}
	if prog.Labels["loop"] != 2 {
		t.Errorf("loop label = %d, want 2", prog.Labels["loop"])
	}
	if prog.Instructions[3].Op != isa.OpJ || prog.Instructions[3].Target != "start" {
		t.Errorf("last instruction = %+v, want j start", prog.Instructions[3])
	}
}

func TestLoadDataWordAndSpace(t *testing.T) {
	src := `
.data
vals: .word 1 2 0x10
buf: .space 12
.text
nop
`
	prog, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(prog.Data) != 2 {
		t.Fatalf("got %d data entries, want 2", len(prog.Data))
	}
	if prog.Data[0].Label != "vals" || len(prog.Data[0].Values) != 3 || prog.Data[0].Values[2] != 16 {
		t.Errorf("vals entry = %+v", prog.Data[0])
	}
	if prog.Data[1].Label != "buf" || len(prog.Data[1].Values) != 3 {
		t.Errorf("buf entry = %+v, want 3 words", prog.Data[1])
	}
}

func TestLoadIgnoresCommentsAndBlankLines(t *testing.T) {
	src := `
; leading comment
.text
  # another comment
  nop   ; trailing comment

  nop
`
	prog, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(prog.Instructions) != 2 {
		t.Fatalf("got %d instructions, want 2", len(prog.Instructions))
	}
}

func TestLoadMemoryOperandWithComma(t *testing.T) {
	prog, err := Load(strings.NewReader(".text\nsw x2, 4(x3)\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	inst := prog.Instructions[0]
	if inst.Op != isa.OpSw || inst.Rs2 != 2 || inst.Rs1 != 3 || inst.Imm != 4 {
		t.Errorf("sw decode = %+v", inst)
	}
}

func TestLoadBadMnemonicReportsParseError(t *testing.T) {
	_, err := Load(strings.NewReader(".text\nbogus x1, x2\n"))
	if err == nil {
		t.Fatal("expected error for unknown mnemonic")
	}
}

func TestLoadDataMissingLabelFails(t *testing.T) {
	_, err := Load(strings.NewReader(".data\n.word 1 2\n"))
	if err == nil {
		t.Fatal("expected error for unlabeled data entry")
	}
}
