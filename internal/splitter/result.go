package splitter

import (
	"fmt"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const resultKey = "%d files were split"

// resultPrinter renders the closing line of a batch with English plural rules
// and digit grouping. It is nil if the catalog could not be built.
//
//nolint:gochecknoglobals // Immutable printer built once
var resultPrinter = newResultPrinter()

func newResultPrinter() *message.Printer {
	builder := catalog.NewBuilder()

	err := builder.Set(language.English, resultKey, plural.Selectf(1, "%d",
		"=1", "%d file was split",
		"other", "%d files were split",
	))
	if err != nil {
		return nil
	}

	return message.NewPrinter(language.English, message.Catalog(builder))
}

// ResultMessage returns the line shown after a batch: "No files were split",
// "1 file was split" or "N files were split".
func ResultMessage(split int) string {
	return resultMessage(resultPrinter, split)
}

func resultMessage(printer *message.Printer, split int) string {
	switch {
	case split == 0:
		return "No files were split"
	case printer != nil:
		return printer.Sprintf(resultKey, split)
	case split == 1:
		return "1 file was split"
	default:
		return fmt.Sprintf("%d files were split", split)
	}
}
