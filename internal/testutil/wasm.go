package testutil

// WasmModule is a minimal WebAssembly module without imports. It exports:
//
//	add(i64, i64) i64
//	half(f64) f64
//	trap() i64       unreachable
//	sub32(i32, i32) i32
//	pair() (i64, f64) returns 7, 1.5
var WasmModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type section
	0x01, 0x1b, 0x05,
	0x60, 0x02, 0x7e, 0x7e, 0x01, 0x7e,
	0x60, 0x01, 0x7c, 0x01, 0x7c,
	0x60, 0x00, 0x01, 0x7e,
	0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x60, 0x00, 0x02, 0x7e, 0x7c,
	// function section
	0x03, 0x06, 0x05, 0x00, 0x01, 0x02, 0x03, 0x04,
	// export section
	0x07, 0x24, 0x05,
	0x03, 'a', 'd', 'd', 0x00, 0x00,
	0x04, 'h', 'a', 'l', 'f', 0x00, 0x01,
	0x04, 't', 'r', 'a', 'p', 0x00, 0x02,
	0x05, 's', 'u', 'b', '3', '2', 0x00, 0x03,
	0x04, 'p', 'a', 'i', 'r', 0x00, 0x04,
	// code section
	0x0a, 0x32, 0x05,
	0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x7c, 0x0b,
	0x0e, 0x00, 0x20, 0x00, 0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xe0, 0x3f, 0xa2, 0x0b,
	0x03, 0x00, 0x00, 0x0b,
	0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6b, 0x0b,
	0x0d, 0x00, 0x42, 0x07, 0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf8, 0x3f, 0x0b,
}
