// Package config loads read settings from YAML.
//
// A ReadConfig groups everything a read needs besides the input itself:
//
//   - Parse: delimiter, quoting, comments, number format, column selection,
//     row limits and the dtype string
//   - Source: encoding, compression and memory mapping
//   - Memory: row store chunk sizes
//   - Observability: log level and encoding, metrics address, tracing
//
// Values may reference the environment as ${VAR_NAME} or
// ${VAR_NAME:-default}:
//
//	parse:
//	  delimiter: ";"
//	  decimal: ","
//	  dtype: ${TEXTREADER_DTYPE:-}
//	  max_rows: ${MAX_ROWS:--1}
//	source:
//	  encoding: ISO-8859-1
//
// Load the file over the defaults and convert it:
//
//	cfg, err := config.LoadReadConfig("read.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	opts, err := cfg.ToOptions()
//
// Converters are functions and have no file form; set them on the returned
// reader.Options.
package config
