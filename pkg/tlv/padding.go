package tlv

// TrimPadding cuts data at the first top-level 00 or FF byte found where a
// tag is expected. Transparent files carry such filler after their last
// object and BER-TLV decoders reject it. Malformed input is returned as is.
func TrimPadding(data []byte) []byte {
	pos := 0
	for pos < len(data) {
		if data[pos] == 0x00 || data[pos] == 0xFF {
			return data[:pos]
		}

		n, ok := headerLen(data[pos:])
		if !ok {
			return data
		}
		pos += n
	}
	return data
}

// headerLen returns the size of the object starting at data[0], header
// included. Only the short and the 81/82 long length forms are accepted.
func headerLen(data []byte) (int, bool) {
	next := 1
	if data[0]&0x1F == 0x1F {
		for next < len(data) && data[next]&0x80 != 0 {
			next++
		}
		next++
	}
	if next >= len(data) {
		return 0, false
	}

	length := int(data[next])
	next++
	if length&0x80 != 0 {
		n := length & 0x7F
		if n == 0 || n > 2 || next+n > len(data) {
			return 0, false
		}
		length = 0
		for _, b := range data[next : next+n] {
			length = length<<8 | int(b)
		}
		next += n
	}
	return next + length, true
}
