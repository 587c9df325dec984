// Package config manages the updater configuration file.
//
// The configuration is a small JSON object, updater.json in the working
// directory by default:
//
//	{
//	  "path": "app.upd",
//	  "serialport": "/dev/ttyUSB0",
//	  "baud_rate": 115200
//	}
//
// The default serial port is COM1 on Windows and /dev/ttyUSB0 elsewhere.
// Keys missing from the file take their default values. A path ending in
// .yaml or .yml is read and written as YAML with the same keys.
//
// # First Run
//
// EnsureDefault creates the file with default values if it does not exist.
// It opens with O_EXCL and never overwrites an existing file, even one that
// fails to parse.
//
// # Usage Example
//
//	cfg, created, err := config.LoadOrCreate(config.DefaultFile)
//	if err != nil {
//	    return err
//	}
//	if created {
//	    fmt.Println("wrote default", config.DefaultFile)
//	}
//	effective := cfg.Apply(config.Overrides{SerialPort: portFlag})
//	if err := effective.Validate(); err != nil {
//	    return err
//	}
package config
