package core

// Number formatting without the fmt package, which is too large for the
// firmware image.

// itoa converts an integer to a decimal string
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

// utoa converts an unsigned integer to a decimal string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte // Fits max uint32
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// hexutoa converts an unsigned integer to a 0x-prefixed hex string
func hexutoa(n uint32) string {
	const digits = "0123456789abcdef"
	if n == 0 {
		return "0x0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = digits[n&0xf]
		n >>= 4
	}
	pos--
	buf[pos] = 'x'
	pos--
	buf[pos] = '0'
	return string(buf[pos:])
}
