// Package errors provides examples of structured error handling in textreader.
package errors_test

import (
	"fmt"
	"os"

	"github.com/ajitpratap0/textreader/pkg/errors"
)

// Example demonstrates basic error creation with details.
func Example() {
	// Create a new error with type
	err := errors.New(errors.ErrorTypeStructure, "row has 2 fields, expected 3")

	// Add context details
	err = err.WithDetail("line", 7).
		WithDetail("offset", 112)

	// Print the error
	fmt.Println(err.Error())

	// Output:
	// structure: row has 2 fields, expected 3
}

// ExampleWrap shows how to wrap a sentinel cause with a category.
func ExampleWrap() {
	err := errors.Wrap(errors.ErrNotFound, errors.ErrorTypeSource, "cannot open data.csv").
		WithDetail("identifier", "data.csv")

	if errors.IsType(err, errors.ErrorTypeSource) {
		fmt.Println("This is a source error")
	}

	// The sentinel survives wrapping
	if errors.Is(err, errors.ErrNotFound) {
		fmt.Println("The file does not exist")
	}

	// Output:
	// This is a source error
	// The file does not exist
}

// ExampleWrap_osError keeps the os error in the chain.
func ExampleWrap_osError() {
	_, openErr := os.Open("/definitely/not/here.csv")
	err := errors.Wrap(fmt.Errorf("%w: %w", errors.ErrNotFound, openErr), errors.ErrorTypeSource, "open failed")

	fmt.Println(errors.Is(err, os.ErrNotExist), errors.Is(err, errors.ErrNotFound))

	// Output:
	// true true
}

// ExampleTypeOf demonstrates categorising errors for reporting.
func ExampleTypeOf() {
	conv := errors.Wrap(errors.ErrBadField, errors.ErrorTypeConversion, `bad float64 value "XXX" at row 2, column 1`)
	cfg := errors.New(errors.ErrorTypeConfiguration, "skiprows must be >= 0")

	fmt.Println(errors.TypeOf(conv))
	fmt.Println(errors.TypeOf(cfg))
	fmt.Println(errors.TypeOf(fmt.Errorf("plain")))

	// Output:
	// conversion
	// configuration
	// internal
}

// Example_errorChain shows how categories chain through wrapping.
func Example_errorChain() {
	err := errors.Wrap(errors.ErrUnterminatedQuote, errors.ErrorTypeStructure, "line 3")
	err = errors.Wrap(err, errors.ErrorTypeStructure, "read data.csv failed").
		WithDetail("identifier", "data.csv")

	fmt.Println(err)

	// Output:
	// structure: read data.csv failed: structure: line 3: unterminated quoted field
}
