package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// tagOptions is the parsed form of an `hwio:"..."` struct tag.
type tagOptions struct {
	offset    uint16
	hasOffset bool
	bank      int
	size      int
	vsize     int
	reset     uint8
	hasReset  bool
	rwmask    uint8
	hasRwmask bool
	readonly  bool
	writeonly bool
	rcb       bool
	wcb       bool
	pcb       bool
	rcbName   string
	wcbName   string
	pcbName   string
}

func parseTag(tag string) (opts tagOptions, err error) {
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, hasVal := strings.Cut(part, "=")
		switch key {
		case "offset":
			n, err := strconv.ParseUint(val, 0, 16)
			if err != nil {
				return opts, fmt.Errorf("hwio tag: bad offset %q: %v", val, err)
			}
			opts.offset = uint16(n)
			opts.hasOffset = true
		case "bank":
			n, err := strconv.Atoi(val)
			if err != nil {
				return opts, fmt.Errorf("hwio tag: bad bank %q: %v", val, err)
			}
			opts.bank = n
		case "size":
			n, err := strconv.ParseUint(val, 0, 32)
			if err != nil {
				return opts, fmt.Errorf("hwio tag: bad size %q: %v", val, err)
			}
			opts.size = int(n)
		case "vsize":
			n, err := strconv.ParseUint(val, 0, 32)
			if err != nil {
				return opts, fmt.Errorf("hwio tag: bad vsize %q: %v", val, err)
			}
			opts.vsize = int(n)
		case "reset":
			n, err := strconv.ParseUint(val, 0, 8)
			if err != nil {
				return opts, fmt.Errorf("hwio tag: bad reset %q: %v", val, err)
			}
			opts.reset = uint8(n)
			opts.hasReset = true
		case "rwmask":
			n, err := strconv.ParseUint(val, 0, 8)
			if err != nil {
				return opts, fmt.Errorf("hwio tag: bad rwmask %q: %v", val, err)
			}
			opts.rwmask = uint8(n)
			opts.hasRwmask = true
		case "readonly":
			opts.readonly = true
		case "writeonly":
			opts.writeonly = true
		case "rcb":
			opts.rcb = true
			if hasVal {
				opts.rcbName = val
			}
		case "wcb":
			opts.wcb = true
			if hasVal {
				opts.wcbName = val
			}
		case "pcb":
			opts.pcb = true
			if hasVal {
				opts.pcbName = val
			}
		default:
			return opts, fmt.Errorf("hwio tag: unknown option %q", part)
		}
	}
	return opts, nil
}

// cbName returns the callback method name for a field: either the name
// given in the tag option, or prefix + the uppercased field name.
func cbName(explicit, prefix, field string) string {
	if explicit != "" {
		return explicit
	}
	return prefix + strings.ToUpper(field)
}

func lookupMethod[T any](bank reflect.Value, name, field string) T {
	m := bank.MethodByName(name)
	if !m.IsValid() {
		panic(fmt.Errorf("hwio: bank %s: no method %s for field %s", bank.Type(), name, field))
	}
	cb, ok := m.Interface().(T)
	if !ok {
		panic(fmt.Errorf("hwio: bank %s: method %s has wrong signature %s", bank.Type(), name, m.Type()))
	}
	return cb
}

// InitRegs initializes all the hwio-tagged register fields of the bank
// structure: it sets their Name, applies the tag options (reset value,
// read/write masks and flags, memory sizes) and wires the registered
// callbacks to the bank's Read*/Write*/Peek* methods.
func InitRegs(bank any) error {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("hwio: bank must be a pointer to struct, got %T", bank)
	}
	structv := v.Elem()
	structt := structv.Type()

	for i := range structt.NumField() {
		field := structt.Field(i)
		tag, ok := field.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts, err := parseTag(tag)
		if err != nil {
			return fmt.Errorf("field %s: %v", field.Name, err)
		}

		switch ptr := structv.Field(i).Addr().Interface().(type) {
		case *Reg8:
			ptr.Name = field.Name
			if opts.hasReset {
				ptr.Value = opts.reset
			}
			if opts.hasRwmask {
				ptr.RoMask = ^opts.rwmask
			}
			if opts.readonly {
				ptr.Flags |= ReadOnlyFlag
			}
			if opts.writeonly {
				ptr.Flags |= WriteOnlyFlag
			}
			if opts.rcb {
				ptr.ReadCb = lookupMethod[func(uint8) uint8](v, cbName(opts.rcbName, "Read", field.Name), field.Name)
			}
			if opts.wcb {
				ptr.WriteCb = lookupMethod[func(uint8, uint8)](v, cbName(opts.wcbName, "Write", field.Name), field.Name)
			}
			if opts.pcb {
				ptr.PeekCb = lookupMethod[func(uint8) uint8](v, cbName(opts.pcbName, "Peek", field.Name), field.Name)
			}

		case *Mem:
			ptr.Name = field.Name
			if ptr.Data == nil && opts.size > 0 {
				ptr.Data = make([]byte, opts.size)
			}
			ptr.VSize = opts.vsize
			if ptr.VSize == 0 {
				ptr.VSize = len(ptr.Data)
			}
			if opts.readonly {
				ptr.Flags |= MemFlag8ReadOnly
			}
			if opts.wcb {
				ptr.WriteCb = lookupMethod[func(uint16, uint8)](v, cbName(opts.wcbName, "Write", field.Name), field.Name)
			}

		case *Device:
			ptr.Name = field.Name
			ptr.Size = opts.size
			if opts.readonly {
				ptr.Flags |= ReadOnlyFlag
			}
			if opts.writeonly {
				ptr.Flags |= WriteOnlyFlag
			}
			if opts.rcb {
				ptr.ReadCb = lookupMethod[func(uint16) uint8](v, cbName(opts.rcbName, "Read", field.Name), field.Name)
			}
			if opts.wcb {
				ptr.WriteCb = lookupMethod[func(uint16, uint8)](v, cbName(opts.wcbName, "Write", field.Name), field.Name)
			}
			if opts.pcb {
				ptr.PeekCb = lookupMethod[func(uint16) uint8](v, cbName(opts.pcbName, "Peek", field.Name), field.Name)
			}

		default:
			return fmt.Errorf("hwio: field %s: unsupported type %s", field.Name, field.Type)
		}
	}
	return nil
}

// MustInitRegs is like InitRegs but panics on error.
func MustInitRegs(bank any) {
	if err := InitRegs(bank); err != nil {
		panic(err)
	}
}

type regInfo struct {
	regPtr any
	offset uint16
}

// bankGetRegs returns the hwio-tagged fields of bank belonging to the given
// bank number, with their offsets.
func bankGetRegs(bank any, bankNum int) ([]regInfo, error) {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("hwio: bank must be a pointer to struct, got %T", bank)
	}
	structv := v.Elem()
	structt := structv.Type()

	var regs []regInfo
	for i := range structt.NumField() {
		field := structt.Field(i)
		tag, ok := field.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts, err := parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("field %s: %v", field.Name, err)
		}
		if !opts.hasOffset || opts.bank != bankNum {
			continue
		}

		switch ptr := structv.Field(i).Addr().Interface().(type) {
		case *Reg8, *Mem, *Device:
			regs = append(regs, regInfo{regPtr: ptr, offset: opts.offset})
		default:
			return nil, fmt.Errorf("hwio: field %s: unsupported type %s", field.Name, field.Type)
		}
	}
	return regs, nil
}
