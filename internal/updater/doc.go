// Package updater drives a firmware update session against a device
// bootloader.
//
// A session has two stages. In the handshake the host writes
// "START_UPD^_^" every 100 ms until the device answers with exactly
// "RECEIVESTART". In the update loop the host polls every 50 ms, and the
// device asks for what it needs:
//
//	opcode 1  check-update    host answers with an empty opcode-1 frame
//	opcode 2  request-chunk   host answers with the address of the next
//	                          chunk and the checksum of 512 image bytes,
//	                          then writes those bytes
//	opcode 3  report-status   no answer; status 0xFF ends the session
//
// Unknown opcodes are ignored. A command whose header checksum does not
// verify ends the run.
//
// The protocol state lives in Session, a value type whose Transition method
// is a pure function of the current state, the command, and the image.
// Driver owns the I/O around it: the channel, the frame scanner, the poll
// cadence, logging and progress events.
//
// # Usage Example
//
//	port, err := transport.Open("/dev/ttyUSB0", transport.Options{BaudRate: 115200})
//	if err != nil {
//	    return err
//	}
//	defer port.Close()
//
//	d := updater.New(port, img, updater.WithEventFunc(onEvent))
//	if err := d.Run(ctx); err != nil {
//	    fmt.Println("failed during", updater.StageOf(err))
//	}
//
// # Errors
//
// Run returns a *StageError naming where the run failed: handshake, update
// (cancellation while polling), frame decode, image I/O or transport.
package updater
