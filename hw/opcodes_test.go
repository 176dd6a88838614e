package hw

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-faster/jx"

	"dmgo/hw/hwdefs"
	"dmgo/tests"
)

func TestAllOpcodesAreImplemented(t *testing.T) {
	for opcode, op := range ops {
		if op == nil {
			t.Errorf("opcode %02x not implemented", opcode)
		}
	}
}

// Opcodes whose single-step corpus expectations do not apply here: STOP
// length and timing differ between references.
var skipCorpusOps = map[string]bool{
	"10": true,
}

func TestOpcodes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping long test")
	}

	dir := tests.SM83ProcTestsPath(t)

	for opcode := range ops {
		opstr := fmt.Sprintf("%02x", opcode)
		cbstr := fmt.Sprintf("cb %02x", opcode)
		switch {
		case skipCorpusOps[opstr]:
			t.Run(opstr, func(t *testing.T) { t.Skipf("skipping unsupported opcode") })
		default:
			t.Run(opstr, testOpcodes(dir, opstr))
		}
		t.Run(cbstr, testOpcodes(dir, cbstr))
	}
}

type sm83State struct {
	pc, sp                 uint16
	a, b, c, d, e, f, h, l uint8
	ime, ie                uint8
	ram                    [][2]int
}

type sm83Test struct {
	name           string
	initial, final sm83State
	cycles         int
}

func decodeSM83U8(d *jx.Decoder, dst *uint8) error {
	v, err := d.Int()
	*dst = uint8(v)
	return err
}

func decodeSM83State(d *jx.Decoder, s *sm83State) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "pc":
			v, err := d.Int()
			s.pc = uint16(v)
			return err
		case "sp":
			v, err := d.Int()
			s.sp = uint16(v)
			return err
		case "a":
			return decodeSM83U8(d, &s.a)
		case "b":
			return decodeSM83U8(d, &s.b)
		case "c":
			return decodeSM83U8(d, &s.c)
		case "d":
			return decodeSM83U8(d, &s.d)
		case "e":
			return decodeSM83U8(d, &s.e)
		case "f":
			return decodeSM83U8(d, &s.f)
		case "h":
			return decodeSM83U8(d, &s.h)
		case "l":
			return decodeSM83U8(d, &s.l)
		case "ime":
			return decodeSM83U8(d, &s.ime)
		case "ie":
			return decodeSM83U8(d, &s.ie)
		case "ram":
			return d.Arr(func(d *jx.Decoder) error {
				var pair [2]int
				i := 0
				if err := d.Arr(func(d *jx.Decoder) error {
					v, err := d.Int()
					if i < len(pair) {
						pair[i] = v
					}
					i++
					return err
				}); err != nil {
					return err
				}
				s.ram = append(s.ram, pair)
				return nil
			})
		}
		return d.Skip()
	})
}

func decodeSM83Tests(buf []byte) ([]sm83Test, error) {
	var out []sm83Test

	d := jx.DecodeBytes(buf)
	err := d.Arr(func(d *jx.Decoder) error {
		var tt sm83Test
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "name":
				s, err := d.Str()
				tt.name = s
				return err
			case "initial":
				return decodeSM83State(d, &tt.initial)
			case "final":
				return decodeSM83State(d, &tt.final)
			case "cycles":
				return d.Arr(func(d *jx.Decoder) error {
					tt.cycles++
					return d.Skip()
				})
			}
			return d.Skip()
		}); err != nil {
			return err
		}
		out = append(out, tt)
		return nil
	})
	return out, err
}

// testOpcodes runs the single-step tests in <dir>/<op>.json, which come
// from github.com/SingleStepTests/sm83.
func testOpcodes(dir, op string) func(t *testing.T) {
	return func(t *testing.T) {
		t.Parallel()

		buf, err := os.ReadFile(filepath.Join(dir, op+".json"))
		if errors.Is(err, fs.ErrNotExist) {
			t.Skip("no corpus file (undefined opcode)")
		}
		if err != nil {
			t.Fatal(err)
		}

		cases, err := decodeSM83Tests(buf)
		if err != nil {
			t.Fatal(err)
		}

		for _, tt := range cases {
			t.Run(tt.name, func(t *testing.T) {
				mem := new(flatmem)
				irq := NewIRQ()
				cpu := NewCPU(mem, irq, hwdefs.DMG)

				cpu.A, cpu.F = tt.initial.a, tt.initial.f
				cpu.B, cpu.C = tt.initial.b, tt.initial.c
				cpu.D, cpu.E = tt.initial.d, tt.initial.e
				cpu.H, cpu.L = tt.initial.h, tt.initial.l
				cpu.SP = tt.initial.sp
				cpu.PC = tt.initial.pc
				cpu.IME = tt.initial.ime == 1
				irq.IE.Value = tt.initial.ie

				for _, row := range tt.initial.ram {
					mem.data[row[0]] = uint8(row[1])
				}

				cycles := cpu.Step()

				regchecks := []struct {
					name      string
					got, want uint16
				}{
					{"PC", cpu.PC, tt.final.pc},
					{"SP", cpu.SP, tt.final.sp},
					{"A", uint16(cpu.A), uint16(tt.final.a)},
					{"F", uint16(cpu.F), uint16(tt.final.f)},
					{"B", uint16(cpu.B), uint16(tt.final.b)},
					{"C", uint16(cpu.C), uint16(tt.final.c)},
					{"D", uint16(cpu.D), uint16(tt.final.d)},
					{"E", uint16(cpu.E), uint16(tt.final.e)},
					{"H", uint16(cpu.H), uint16(tt.final.h)},
					{"L", uint16(cpu.L), uint16(tt.final.l)},
				}
				for _, rc := range regchecks {
					if rc.got != rc.want {
						t.Errorf("%s = 0x%02x, want 0x%02x", rc.name, rc.got, rc.want)
					}
				}

				// One corpus cycle entry is one M-cycle.
				if want := tt.cycles * 4; cycles != want {
					t.Errorf("cycles = %d, want %d", cycles, want)
				}

				for _, row := range tt.final.ram {
					if got := mem.data[row[0]]; got != uint8(row[1]) {
						t.Errorf("ram[0x%04x] = 0x%02x, want 0x%02x", row[0], got, row[1])
					}
				}
			})
		}
	}
}
