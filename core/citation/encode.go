package citation

import (
	"fmt"
	"slices"
)

// EncodeValue returns the tag right nibble and data bytes that make
// DecodeValue produce v from prev.
func EncodeValue(v, prev Value) (byte, []byte, error) {
	if v == prev.Next() {
		return rnIncrement, nil, nil
	}
	for i := 0; i < len(v.ASCII); i++ {
		if v.ASCII[i] >= 0x80 {
			return 0, nil, fmt.Errorf("value %q is not ASCII", v.ASCII)
		}
	}

	str := func(s string) []byte {
		out := make([]byte, 0, len(s)+1)
		for i := 0; i < len(s); i++ {
			out = append(out, s[i]|0x80)
		}
		return append(out, 0xFF)
	}

	switch {
	case v.Binary == 0 && v.ASCII == "":
		return 0, nil, fmt.Errorf("cannot encode a null value")
	case v.Binary == 0:
		if len(v.ASCII) == 1 && prev.Binary == 0 {
			return rnNewChar, []byte{v.ASCII[0] | 0x80}, nil
		}
		return rnString, str(v.ASCII), nil
	case v.Binary < 8 && v.ASCII == "":
		return byte(v.Binary), nil, nil
	case v.Binary == prev.Binary && len(v.ASCII) == 1:
		return rnNewChar, []byte{v.ASCII[0] | 0x80}, nil
	case v.Binary < 0x80:
		b := []byte{byte(v.Binary) | 0x80}
		switch len(v.ASCII) {
		case 0:
			return rn7Bit, b, nil
		case 1:
			return rn7BitChar, append(b, v.ASCII[0]|0x80), nil
		}
		return rn7BitString, append(b, str(v.ASCII)...), nil
	case v.Binary < 0x4000:
		b := []byte{byte(v.Binary>>7) | 0x80, byte(v.Binary&lowBits) | 0x80}
		switch len(v.ASCII) {
		case 0:
			return rn14Bit, b, nil
		case 1:
			return rn14BitChar, append(b, v.ASCII[0]|0x80), nil
		}
		return rn14BitStr, append(b, str(v.ASCII)...), nil
	}
	return 0, nil, fmt.Errorf("value %d does not fit in 14 bits", v.Binary)
}

var levelNibble = map[byte]byte{'z': lnZ, 'y': lnY, 'x': lnX, 'w': lnW, 'v': lnV, 'n': lnN}

func encodeLevel(key byte, v, base Value, descriptor bool) ([]byte, error) {
	rn, data, err := EncodeValue(v, base)
	if err != nil {
		return nil, fmt.Errorf("level %c: %w", key, err)
	}
	var out []byte
	switch {
	case descriptor:
		out = []byte{lnEsc<<4 | rn, 0x80 | key}
	case key >= 'a' && key <= 'd':
		out = []byte{lnEsc<<4 | rn, 0x80 | (key - 'a')}
	default:
		out = []byte{levelNibble[key]<<4 | rn}
	}
	return append(out, data...), nil
}

// Encode returns the bytes that make Read produce c when decoding relative
// to prev. It emits the levels from the first one that differs from prev,
// in key order, so it only reproduces citations that Read itself can build.
func Encode(c, prev Citation) ([]byte, error) {
	var out []byte

	if c.workDesc != prev.workDesc && !c.workDesc.IsNull() {
		b, err := encodeLevel('c', c.workDesc, Value{}, false)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	if c.authDesc != prev.authDesc && !c.authDesc.IsNull() {
		b, err := encodeLevel('d', c.authDesc, Value{}, false)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	keys := make([]byte, 0, len(c.descriptors))
	for k := range c.descriptors {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b, err := encodeLevel(k, c.descriptors[k], Value{}, true)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}

	if c.flag != NoFlag && c.IsNull() {
		return appendFlag(out, c.flag), nil
	}

	i := 0
	for i < len(c.levels) && i < len(prev.levels) && c.levels[i] == prev.levels[i] {
		i++
	}
	starts := []int{i}
	for j := min(i, len(c.levels)) - 1; j >= 0; j-- {
		if k := c.levels[j].Key; k <= 'b' || k == 'n' {
			starts = append(starts, j)
		}
	}

	var levels []byte
	found := false
	for _, start := range starts {
		b, cur, err := encodeLevels(c.levels[start:], prev)
		if err != nil {
			return nil, err
		}
		if slices.Equal(cur.levels, c.levels) {
			levels, found = b, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("citation %s cannot be reached from %s", c, prev)
	}
	return appendFlag(append(out, levels...), c.flag), nil
}

func appendFlag(out []byte, f Flag) []byte {
	switch f {
	case EndOfFile:
		out = append(out, lnCtl<<4|ctlEndOfFile)
	case EndOfBlock:
		out = append(out, lnCtl<<4|ctlEndOfBlock)
	case ExceptionStart:
		out = append(out, lnCtl<<4|ctlExceptionStart)
	case ExceptionEnd:
		out = append(out, lnCtl<<4|ctlExceptionEnd)
	}
	return out
}

func encodeLevels(levels []Level, prev Citation) ([]byte, Citation, error) {
	var out []byte
	cur := Citation{levels: slices.Clone(prev.levels)}
	for _, l := range levels {
		base, _ := cur.Get(l.Key)
		b, err := encodeLevel(l.Key, l.Value, base, false)
		if err != nil {
			return nil, cur, err
		}
		out = append(out, b...)
		cur.insert(l.Key, l.Value)
	}
	return out, cur, nil
}
