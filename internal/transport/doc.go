// Package transport provides the serial byte channel to the device.
//
// The port is opened 8N1 with a short read timeout (10 ms by default). A
// read that times out returns ErrTimeout, which the updater treats as "no
// data yet" and retries on its own cadence. Writes either complete or fail;
// a partial write is reported as io.ErrShortWrite.
//
// Raw traffic is logged at debug level through internal/logging.
package transport
