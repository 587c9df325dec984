// Package firmware provides the firmware images served to the device.
//
// The device addresses the image by byte offset and asks for one 512-byte
// chunk at a time, possibly out of order. Every image therefore implements
// io.ReaderAt: each read names its own offset and no read position is kept
// between requests.
//
// Two sources are supported:
//   - Raw binaries (.upd, .bin, anything else), read straight from disk
//   - Intel HEX (.hex, .ihex), parsed with gohex and flattened into memory
//     from the lowest segment address, with gaps filled by 0xFF
package firmware
